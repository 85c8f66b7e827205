package xcqrs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// AsyncObserver forwards events to an Observer from a pool of workers so a
// slow observer never delays a dispatch. Events are dropped when the buffer
// is full.
type AsyncObserver struct {
	next      Observer
	events    chan Event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closed    atomic.Bool
	dropped   atomic.Uint64
	processed atomic.Uint64
}

// NewAsyncObserver starts workers goroutines (default 4) reading from a
// buffer of bufferSize events (default 1000). Close stops them.
func NewAsyncObserver(ctx context.Context, next Observer, workers, bufferSize int) *AsyncObserver {
	if workers < 1 {
		workers = 4
	}
	if bufferSize < 1 {
		bufferSize = 1000
	}

	poolCtx, cancel := context.WithCancel(ctx)
	a := &AsyncObserver{
		next:   next,
		events: make(chan Event, bufferSize),
		ctx:    poolCtx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go a.worker()
	}
	return a
}

// OnEvent queues e without blocking.
func (a *AsyncObserver) OnEvent(e Event) {
	if a.next == nil || a.closed.Load() {
		return
	}
	select {
	case a.events <- e:
	default:
		a.dropped.Add(1)
	}
}

func (a *AsyncObserver) worker() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			// drain
			for {
				select {
				case e := <-a.events:
					a.deliver(e)
				default:
					return
				}
			}
		case e := <-a.events:
			a.deliver(e)
		}
	}
}

func (a *AsyncObserver) deliver(e Event) {
	defer func() { _ = recover() }()
	a.next.OnEvent(e)
	a.processed.Add(1)
}

// Close stops the workers after the queued events are delivered, waiting at
// most timeout.
func (a *AsyncObserver) Close(timeout time.Duration) error {
	if a.closed.Swap(true) {
		return nil
	}
	a.cancel()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrObserverShutdownTimeout
	}
}

// AsyncObserverStats counts delivered and dropped events.
type AsyncObserverStats struct {
	Dropped   uint64
	Processed uint64
}

func (a *AsyncObserver) Stats() AsyncObserverStats {
	return AsyncObserverStats{
		Dropped:   a.dropped.Load(),
		Processed: a.processed.Load(),
	}
}
