package handlercache

import (
	"context"
	"fmt"
	"maps"
	"strconv"

	"github.com/trickstertwo/xcqrs"
	"github.com/trickstertwo/xcqrs/discovery"
	"github.com/trickstertwo/xlog"
)

// Merge joins both maps into one. Commands win on key collision.
func Merge(commands, queries map[string]string) map[string]string {
	out := make(map[string]string, len(commands)+len(queries))
	maps.Copy(out, queries)
	maps.Copy(out, commands)
	return out
}

// Mapper receives the booted map. *xcqrs.Dispatcher satisfies it.
type Mapper interface {
	Map(routes map[string]string)
}

// Option configures a Loader.
type Option func(*Loader)

// WithDiscovery sets the discoverer and universe used when no map is cached.
func WithDiscovery(d *discovery.Discoverer, src discovery.Source) Option {
	return func(l *Loader) {
		l.discoverer, l.source = d, src
	}
}

// WithLocal enables discovery fallback. Outside local environments a missing
// cache yields an empty map.
func WithLocal(local bool) Option {
	return func(l *Loader) { l.local = local }
}

// WithConfig scopes discovery over src by cfg.Discovery and allows it only
// when cfg.IsLocal().
func WithConfig(cfg xcqrs.Config, src discovery.Source) Option {
	d := discovery.New(
		discovery.WithNamespace(cfg.Discovery.Namespace),
		discovery.WithApplicationDir(cfg.Discovery.ApplicationDir),
	)
	return func(l *Loader) {
		WithDiscovery(d, src)(l)
		WithLocal(cfg.IsLocal())(l)
	}
}

// WithLogger sets the logger.
func WithLogger(lg *xlog.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// Loader implements the boot policy: cached map if present, else discovery
// when local, else nothing.
type Loader struct {
	store      Store
	discoverer *discovery.Discoverer
	source     discovery.Source
	local      bool
	logger     *xlog.Logger
}

// NewLoader returns a Loader over store. A nil store means nothing is cached.
func NewLoader(store Store, opts ...Option) *Loader {
	l := &Loader{store: store, logger: xlog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.discoverer == nil {
		l.discoverer = discovery.New()
	}
	return l
}

// Map returns the handler map of one type.
func (l *Loader) Map(ctx context.Context, t HandlerType) (map[string]string, error) {
	var found *discovery.Result
	return l.load(ctx, t, &found)
}

// Load returns the merged command and query maps.
func (l *Loader) Load(ctx context.Context) (map[string]string, error) {
	var found *discovery.Result
	commands, err := l.load(ctx, CommandHandlers, &found)
	if err != nil {
		return nil, err
	}
	queries, err := l.load(ctx, QueryHandlers, &found)
	if err != nil {
		return nil, err
	}
	return Merge(commands, queries), nil
}

// Boot loads the merged map and installs it into m. An empty map installs nothing.
func (l *Loader) Boot(ctx context.Context, m Mapper) (int, error) {
	routes, err := l.Load(ctx)
	if err != nil {
		return 0, err
	}
	if len(routes) == 0 {
		return 0, nil
	}
	m.Map(routes)
	return len(routes), nil
}

// load resolves one map; found memoizes discovery across the types of one Load.
func (l *Loader) load(ctx context.Context, t HandlerType, found **discovery.Result) (map[string]string, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if l.store != nil {
		m, ok, err := l.store.Load(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("handlercache: load %s: %w", t, err)
		}
		if ok {
			l.logger.Debug().Str("type", string(t)).Str("source", "cache").Str("entries", strconv.Itoa(len(m))).Msg("handler map loaded")
			return m, nil
		}
	}

	if !l.local || l.source == nil {
		return map[string]string{}, nil
	}
	if *found == nil {
		res := l.discoverer.Discover(l.source)
		*found = &res
	}
	m := pick(**found, t)
	l.logger.Debug().Str("type", string(t)).Str("source", "discovery").Str("entries", strconv.Itoa(len(m))).Msg("handler map loaded")
	return m, nil
}

func pick(res discovery.Result, t HandlerType) map[string]string {
	if t == QueryHandlers {
		return res.QueryMap()
	}
	return res.CommandMap()
}

// Warm writes both maps of res to store.
func Warm(ctx context.Context, store Store, res discovery.Result) error {
	for _, t := range Types() {
		if err := store.Save(ctx, t, pick(res, t)); err != nil {
			return fmt.Errorf("handlercache: save %s: %w", t, err)
		}
	}
	return nil
}

// ClearAll removes both maps from store.
func ClearAll(ctx context.Context, store Store) error {
	for _, t := range Types() {
		if err := store.Clear(ctx, t); err != nil {
			return fmt.Errorf("handlercache: clear %s: %w", t, err)
		}
	}
	return nil
}
