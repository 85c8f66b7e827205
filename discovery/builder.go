package discovery

import "slices"

// Builder declares a universe in code. It is a Source.
//
//	b := discovery.NewBuilder()
//	b.Type(`Monolith\Billing\Application\Command\Handlers\Refund`, "src/Billing/Application/Command/Handlers/Refund.php").
//		Command(`Monolith\Billing\RefundCommand`)
type Builder struct {
	types []*TypeBuilder
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// Type adds a type to the universe in declaration order.
func (b *Builder) Type(name, path string) *TypeBuilder {
	t := &TypeBuilder{name: name, path: path}
	b.types = append(b.types, t)
	return t
}

// Entries implements Source. Descriptors are copied, so later builder calls
// do not affect returned entries.
func (b *Builder) Entries() ([]Entry, error) {
	out := make([]Entry, 0, len(b.types))
	for _, t := range b.types {
		desc, err := t.snapshot(), t.err
		out = append(out, Entry{
			Type: t.name,
			Path: t.path,
			Describe: func() (Descriptor, error) {
				if err != nil {
					return Descriptor{}, err
				}
				return desc, nil
			},
		})
	}
	return out, nil
}

// TypeBuilder declares one type.
type TypeBuilder struct {
	name string
	path string
	desc Descriptor
	err  error
}

// Command registers the whole type as handler of the given commands.
func (t *TypeBuilder) Command(messages ...string) *TypeBuilder {
	t.desc.Registrations = appendRegs(t.desc.Registrations, Command, messages)
	return t
}

// Query registers the whole type as handler of the given queries.
func (t *TypeBuilder) Query(messages ...string) *TypeBuilder {
	t.desc.Registrations = appendRegs(t.desc.Registrations, Query, messages)
	return t
}

// Abstract marks the type non-instantiable.
func (t *TypeBuilder) Abstract() *TypeBuilder {
	t.desc.Abstract = true
	return t
}

// Interface marks the type as an interface.
func (t *TypeBuilder) Interface() *TypeBuilder {
	t.desc.Interface = true
	return t
}

// Fail makes Describe return err.
func (t *TypeBuilder) Fail(err error) *TypeBuilder {
	t.err = err
	return t
}

// Method adds an exported member.
func (t *TypeBuilder) Method(name string) *MethodBuilder {
	t.desc.Members = append(t.desc.Members, Member{Name: name, Exported: true})
	return &MethodBuilder{t: t, idx: len(t.desc.Members) - 1}
}

func (t *TypeBuilder) snapshot() Descriptor {
	d := t.desc
	d.Registrations = slices.Clone(d.Registrations)
	d.Members = slices.Clone(d.Members)
	for i := range d.Members {
		d.Members[i].Registrations = slices.Clone(d.Members[i].Registrations)
	}
	return d
}

// MethodBuilder declares one member of a type.
type MethodBuilder struct {
	t   *TypeBuilder
	idx int
}

// Command registers the member as handler of the given commands.
func (m *MethodBuilder) Command(messages ...string) *MethodBuilder {
	mem := &m.t.desc.Members[m.idx]
	mem.Registrations = appendRegs(mem.Registrations, Command, messages)
	return m
}

// Query registers the member as handler of the given queries.
func (m *MethodBuilder) Query(messages ...string) *MethodBuilder {
	mem := &m.t.desc.Members[m.idx]
	mem.Registrations = appendRegs(mem.Registrations, Query, messages)
	return m
}

// Unexported hides the member from discovery.
func (m *MethodBuilder) Unexported() *MethodBuilder {
	m.t.desc.Members[m.idx].Exported = false
	return m
}

// Method adds a sibling member.
func (m *MethodBuilder) Method(name string) *MethodBuilder { return m.t.Method(name) }

// Type returns the owning type.
func (m *MethodBuilder) Type() *TypeBuilder { return m.t }

func appendRegs(regs []Registration, kind Kind, messages []string) []Registration {
	for _, msg := range messages {
		regs = append(regs, Registration{Kind: kind, Message: msg})
	}
	return regs
}
