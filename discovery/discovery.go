// Package discovery builds the handler registry: it scans a universe of named
// types, keeps the concrete handler types of the application layer and maps
// every message type they declare to a handler Locator.
//
// Discovery is pure. The same universe always yields the same Result.
package discovery

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	DefaultNamespace      = `Monolith\`
	DefaultApplicationDir = "/Application/"
)

var legacyHandlerDirs = []string{"/CommandHandler/", "/QueryHandler/"}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithNamespace sets the type-name prefix an entry must have.
func WithNamespace(ns string) Option {
	return func(d *Discoverer) {
		if ns != "" {
			d.namespace = ns
		}
	}
}

// WithApplicationDir sets the path segment marking the application layer.
func WithApplicationDir(dir string) Option {
	return func(d *Discoverer) {
		if dir != "" {
			d.appDir = "/" + strings.Trim(filepath.ToSlash(dir), "/") + "/"
		}
	}
}

// WithStrictDuplicates makes DiscoverStrict report messages claimed by more than one type.
func WithStrictDuplicates() Option {
	return func(d *Discoverer) { d.strict = true }
}

// Discoverer scans universes. The zero value is not usable; use New.
type Discoverer struct {
	namespace string
	appDir    string
	strict    bool
}

// New returns a Discoverer with defaults applied before opts.
func New(opts ...Option) *Discoverer {
	d := &Discoverer{namespace: DefaultNamespace, appDir: DefaultApplicationDir}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

func (d *Discoverer) handlerDirs() []string {
	root := strings.TrimSuffix(d.appDir, "/")
	return append([]string{root + "/Command/Handlers/", root + "/Query/Handlers/"}, legacyHandlerDirs...)
}

// Discover scans src. An unavailable or failing source yields an empty Result.
// On duplicate messages the last registration in scan order wins.
func (d *Discoverer) Discover(src Source) Result {
	res, _ := d.collect(src)
	return res
}

// DiscoverStrict is Discover that also reports messages registered by two
// different types, when the Discoverer was built WithStrictDuplicates. The
// returned Result is still complete (last write wins).
func (d *Discoverer) DiscoverStrict(src Source) (Result, error) {
	res, dups := d.collect(src)
	if !d.strict || len(dups) == 0 {
		return res, nil
	}
	return res, errors.Join(dups...)
}

func (d *Discoverer) collect(src Source) (Result, []error) {
	res := newResult()
	if src == nil {
		return res, nil
	}
	entries, err := src.Entries()
	if err != nil {
		return res, nil
	}

	var dups []error
	for _, out := range d.Scan(entries) {
		for _, f := range out.Found {
			target := res.Commands
			if f.Kind == Query {
				target = res.Queries
			}
			if prev, ok := target[f.Message]; ok && prev.Type() != f.Locator.Type() {
				dups = append(dups, DuplicateRegistrationError{Kind: f.Kind, Message: f.Message, Previous: prev, Current: f.Locator})
			}
			target[f.Message] = f.Locator
		}
	}
	return res, dups
}

// Scan evaluates every entry in order.
func (d *Discoverer) Scan(entries []Entry) []Outcome {
	out := make([]Outcome, 0, len(entries))
	for _, e := range entries {
		out = append(out, d.evaluate(e))
	}
	return out
}

func (d *Discoverer) evaluate(e Entry) Outcome {
	o := Outcome{Entry: e}
	if reason := d.filter(e); reason != ReasonNone {
		o.Reason = reason
		return o
	}

	desc, err := describe(e)
	if err != nil {
		o.Reason, o.Err = ReasonUnreflectable, err
		return o
	}
	switch {
	case desc.Interface:
		o.Reason = ReasonInterface
		return o
	case desc.Abstract:
		o.Reason = ReasonAbstract
		return o
	}

	for _, r := range desc.Registrations {
		if f, ok := found(r, ClassLocator(e.Type)); ok {
			o.Found = append(o.Found, f)
		}
	}
	for _, m := range desc.Members {
		if !m.Exported || m.Name == "" {
			continue
		}
		for _, r := range m.Registrations {
			if f, ok := found(r, MemberLocator(e.Type, m.Name)); ok {
				o.Found = append(o.Found, f)
			}
		}
	}
	return o
}

func (d *Discoverer) filter(e Entry) SkipReason {
	if !strings.HasPrefix(e.Type, d.namespace) {
		return ReasonNamespace
	}
	path := filepath.ToSlash(e.Path)
	if !strings.Contains(path, d.appDir) {
		return ReasonApplicationLayer
	}
	for _, dir := range d.handlerDirs() {
		if strings.Contains(path, dir) {
			return ReasonNone
		}
	}
	return ReasonHandlerDir
}

func found(r Registration, loc Locator) (Found, bool) {
	if r.Message == "" || (r.Kind != Command && r.Kind != Query) {
		return Found{}, false
	}
	return Found{Kind: r.Kind, Message: r.Message, Locator: loc}, true
}

func describe(e Entry) (desc Descriptor, err error) {
	if e.Describe == nil {
		return Descriptor{}, ErrNoDescriptor
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("discovery: describe %s: %v", e.Type, r)
		}
	}()
	return e.Describe()
}

// Discover runs a default Discoverer over src.
func Discover(src Source) Result { return New().Discover(src) }
