package discovery

import (
	"errors"
	"strings"
)

// MemberSeparator joins a handler type and member in a Locator.
const MemberSeparator = "#"

// ErrInvalidLocator is returned by ParseLocator.
var ErrInvalidLocator = errors.New("discovery: invalid handler locator")

// Locator identifies a handler: a type name, or "Type#member" for a member-level registration.
type Locator string

// ClassLocator returns the locator for a whole handler type.
func ClassLocator(typeName string) Locator { return Locator(typeName) }

// MemberLocator returns the locator for one member of a handler type.
func MemberLocator(typeName, member string) Locator {
	return Locator(typeName + MemberSeparator + member)
}

// ParseLocator validates s.
func ParseLocator(s string) (Locator, error) {
	typ, member, found := strings.Cut(s, MemberSeparator)
	if typ == "" || (found && (member == "" || strings.Contains(member, MemberSeparator))) {
		return "", ErrInvalidLocator
	}
	return Locator(s), nil
}

// Type returns the handler type name.
func (l Locator) Type() string {
	typ, _, _ := strings.Cut(string(l), MemberSeparator)
	return typ
}

// Member returns the member name, or "" for a class-level locator.
func (l Locator) Member() string {
	_, member, _ := strings.Cut(string(l), MemberSeparator)
	return member
}

// IsMember reports whether l names a member.
func (l Locator) IsMember() bool { return strings.Contains(string(l), MemberSeparator) }

func (l Locator) String() string { return string(l) }
