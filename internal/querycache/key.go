package querycache

import (
	"strconv"
	"strings"
)

// Key identifies a cached payload. It is an ordered tuple of components;
// prefix matching is done component by component, never on a joined string,
// so {"members","1"} is not a prefix of {"members","12"}.
type Key []string

// NewKey builds a key from its components.
func NewKey(parts ...string) Key {
	k := make(Key, len(parts))
	copy(k, parts)
	return k
}

// With returns a new key extended by parts. The receiver is never aliased.
func (k Key) With(parts ...string) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, parts...)
}

// HasPrefix reports whether every component of prefix equals the matching
// leading component of k. The empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Equal reports component-wise equality.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}

// String renders the key for logs.
func (k Key) String() string {
	return "[" + strings.Join(k, " ") + "]"
}

// encode produces the map key. Every component is length-prefixed so two
// distinct tuples can never share an encoding, whatever bytes they contain.
func (k Key) encode() string {
	var b strings.Builder
	for _, p := range k {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}
