// Package value is a convenience adapter over pkg/vm's Binding contract: a
// small tagged union of value kinds plus a map-backed Binding built from
// them. Nothing in pkg/vm or pkg/compiler depends on this package — a host
// embedding fae is free to implement vm.Binding directly over its own
// value representation instead.
package value

import (
	"strconv"
	"strings"

	"github.com/CTAG07/fae/pkg/vm"
)

// Bool is a boolean Value. It stringifies as Go's "true"/"false", matching
// the reference engine's std::boolalpha output stream.
type Bool bool

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Int is an integer Value.
type Int int64

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is a floating-point Value.
type Float float64

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// String is a string Value.
type String string

func (s String) String() string { return string(s) }

// List is a Value holding an ordered sequence of Values. It implements
// vm.Container, so "$(for x in aList)" iterates it in order.
type List []vm.Value

func (l List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// Iterate returns a cursor over the list's elements in order.
func (l List) Iterate() vm.Iterator {
	return &listIterator{items: l}
}

type listIterator struct {
	items List
	pos   int
}

func (it *listIterator) Next() (vm.Value, bool) {
	if it.pos >= len(it.items) {
		return nil, false
	}
	v := it.items[it.pos]
	it.pos++
	return v, true
}

// Bindings is a map-backed vm.Binding: the convenience type for callers
// who just want to hand fae a set of named values without writing their
// own Binding implementation.
type Bindings map[string]vm.Value

// Lookup implements vm.Binding.
func (b Bindings) Lookup(name string) (vm.Value, bool) {
	v, ok := b[name]
	return v, ok
}
