package xcqrs

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/trickstertwo/xlog"
)

// ObserverFunc is an Adapter that lets a plain function satisfy Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// LoggingObserver is an Adapter that emits bus events via xlog.
type LoggingObserver struct {
	Logger *xlog.Logger
}

func (o LoggingObserver) OnEvent(e Event) {
	if o.Logger == nil {
		return
	}
	switch e.Type {
	case Executed:
		o.Logger.Debug().
			Str("message", e.MessageName).
			Str("dispatch_id", e.DispatchID).
			Float64("elapsed_ms", elapsedMs(e)).
			Msg("CQRS " + strings.ToUpper(e.Kind) + " executed")
	case DispatchStart:
		o.Logger.Debug().
			Str("bus", e.Bus).
			Str("message", e.MessageName).
			Str("dispatch_id", e.DispatchID).
			Str("middleware", strconv.Itoa(e.Middleware)).
			Msg("xcqrs dispatch start")
	case DispatchDone:
		if e.Err != nil {
			o.Logger.Warn().
				Str("bus", e.Bus).
				Str("message", e.MessageName).
				Str("dispatch_id", e.DispatchID).
				Dur("duration", e.Duration).
				Err(e.Err).
				Msg("xcqrs dispatch failed")
			return
		}
		o.Logger.Debug().
			Str("bus", e.Bus).
			Str("message", e.MessageName).
			Str("dispatch_id", e.DispatchID).
			Dur("duration", e.Duration).
			Msg("xcqrs dispatch done")
	}
}

// elapsedMs rounds to two decimals.
func elapsedMs(e Event) float64 {
	return math.Round(float64(e.Duration.Microseconds())/10) / 100
}

// observers is the observer list shared by a bus and its clones.
type observers struct {
	mu   sync.RWMutex
	list []Observer
}

func (o *observers) add(obs Observer) {
	if obs == nil {
		return
	}
	o.mu.Lock()
	o.list = append(o.list, obs)
	o.mu.Unlock()
}

func (o *observers) remove(obs Observer) {
	if obs == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, cur := range o.list {
		if sameObserver(cur, obs) {
			o.list = append(o.list[:i:i], o.list[i+1:]...)
			break
		}
	}
}

// sameObserver reports a == b. Observers holding funcs, maps or slices, even
// nested in a struct, never match and can only be dropped with their bus.
func sameObserver(a, b Observer) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

func (o *observers) notify(e Event) {
	o.mu.RLock()
	if len(o.list) == 0 {
		o.mu.RUnlock()
		return
	}
	obs := make([]Observer, len(o.list))
	copy(obs, o.list)
	o.mu.RUnlock()

	for _, ob := range obs {
		ob.OnEvent(e)
	}
}
