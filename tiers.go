package xcqrs

import "slices"

// Tiers is the immutable middleware tier set of a bus. Every transformation
// returns a new value with its own backing arrays; no two values share storage.
type Tiers struct {
	base   []Middleware
	extra  []Middleware
	scoped []Middleware
}

// NewTiers returns a tier set with base as its persistent base tier.
func NewTiers(base []Middleware) Tiers {
	return Tiers{base: slices.Clone(base)}
}

// Base returns a copy of the base tier.
func (t Tiers) Base() []Middleware { return slices.Clone(t.base) }

// Extra returns a copy of the extra tier.
func (t Tiers) Extra() []Middleware { return slices.Clone(t.extra) }

// Scoped returns a copy of the scoped tier.
func (t Tiers) Scoped() []Middleware { return slices.Clone(t.scoped) }

// WithExtra appends units to the extra tier.
func (t Tiers) WithExtra(units ...Middleware) Tiers {
	return Tiers{
		base:   slices.Clone(t.base),
		extra:  slices.Concat(t.extra, units),
		scoped: slices.Clone(t.scoped),
	}
}

// WithScoped appends units to the scoped tier.
func (t Tiers) WithScoped(units ...Middleware) Tiers {
	return Tiers{
		base:   slices.Clone(t.base),
		extra:  slices.Clone(t.extra),
		scoped: slices.Concat(t.scoped, units),
	}
}

// WithoutScoped drops the scoped tier.
func (t Tiers) WithoutScoped() Tiers {
	return Tiers{
		base:  slices.Clone(t.base),
		extra: slices.Clone(t.extra),
	}
}

// Effective returns base ++ extra ++ scoped.
func (t Tiers) Effective() []Middleware {
	return slices.Concat(t.base, t.extra, t.scoped)
}

// Len is the size of the effective chain.
func (t Tiers) Len() int { return len(t.base) + len(t.extra) + len(t.scoped) }
