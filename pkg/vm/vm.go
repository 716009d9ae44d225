// Package vm executes a compiled bytecode.Program against a caller-supplied
// Binding, producing rendered text. The VM is a straight-line dispatch
// loop over the program counter; it never mutates the program and carries
// no state between calls to Render.
package vm

import (
	"fmt"
	"strings"

	"github.com/CTAG07/fae/pkg/bytecode"
)

// Value is anything a Binding can hand back to the VM. The VM never
// inspects a Value itself — it only ever asks it to stringify, or (via
// Container) to iterate. How a host represents ints, bools, strings, and
// so on is entirely its own business.
type Value interface {
	fmt.Stringer
}

// Container is a Value that can be iterated by a "for" loop. A Value that
// does not implement Container is simply not iterable — advancing such a
// loop fails the same way a missing variable does.
type Container interface {
	Value
	// Iterate returns a fresh cursor over the container's elements.
	Iterate() Iterator
}

// Iterator is a one-shot cursor over a Container's elements.
type Iterator interface {
	// Next returns the next element and true, or a zero Value and false
	// once the container is exhausted.
	Next() (Value, bool)
}

// Binding maps identifiers to values for one render. A Binding is queried
// by name, never by the compiler's internal variable index — the VM does
// that translation using the Program's variable table.
type Binding interface {
	Lookup(name string) (Value, bool)
}

// IncludeResolver resolves an include target into its rendered text. Per
// the include contract, resolution failures (not found, compile failure,
// cycle) are the resolver's problem to swallow: ResolveInclude never
// returns an error, only the best text it could produce — empty if none.
type IncludeResolver interface {
	ResolveInclude(target string, binding Binding) string
}

// loopFrame is the render-scoped bookkeeping for one active "for" loop,
// keyed by the loop item's variable index. It is created the first time a
// ListEndJump sees a non-empty container and discarded once the cursor is
// exhausted.
type loopFrame struct {
	it      Iterator
	current Value
}

// Render executes prog against binding, resolving any "include" commands
// through resolver (which may be nil if prog contains no includes).
//
// The switch below has no default case. bytecode.Opcode's three opcode
// bits admit exactly eight values, and all eight are assigned names in
// opcode.go (Halt through Include) — there is no Instruction bit pattern
// that decodes to anything this switch doesn't already handle, so an
// "unrecognized opcode" branch would be dead code, not a safety net.
func Render(prog *bytecode.Program, binding Binding, resolver IncludeResolver) (string, error) {
	var out strings.Builder
	iters := make(map[int]*loopFrame)

	for pc := 0; pc < len(prog.Code); pc++ {
		inst := prog.Code[pc]
		op := inst.Op()
		operand := inst.Operand()

		switch op {
		case bytecode.Halt:
			return out.String(), nil

		case bytecode.Copy:
			out.WriteString(prog.Fragments[operand])

		case bytecode.Substitute:
			emit(prog, binding, iters, operand, &out)

		case bytecode.Immediate:
			// No action; read by the following control op via lookback.

		case bytecode.FalseJump:
			varIdx := prog.Code[pc-1].Operand()
			if !exists(prog, binding, iters, varIdx) {
				pc = operand - 1
			}

		case bytecode.ListEndJump:
			itemIdx := prog.Code[pc-2].Operand()
			listIdx := prog.Code[pc-1].Operand()
			if !advance(prog, binding, iters, itemIdx, listIdx) {
				pc = operand - 1
			}

		case bytecode.Jump:
			pc = operand - 1

		case bytecode.Include:
			if resolver != nil {
				out.WriteString(resolver.ResolveInclude(prog.Includes[operand], binding))
			}
		}
	}

	// Programs always end in Halt, but guard against a hand-built one
	// that doesn't rather than silently truncating output.
	return out.String(), nil
}

// emit writes the current value of variable idx to out: the active loop
// item if idx is currently shadowed by a "for", otherwise the binding
// entry for its name. A variable that is neither emits nothing.
func emit(prog *bytecode.Program, binding Binding, iters map[int]*loopFrame, idx int, out *strings.Builder) {
	if frame, ok := iters[idx]; ok {
		out.WriteString(frame.current.String())
		return
	}
	if v, ok := binding.Lookup(prog.Variables[idx]); ok {
		out.WriteString(v.String())
	}
}

// exists reports whether variable idx is bound or is an active loop item.
func exists(prog *bytecode.Program, binding Binding, iters map[int]*loopFrame, idx int) bool {
	if _, ok := iters[idx]; ok {
		return true
	}
	_, ok := binding.Lookup(prog.Variables[idx])
	return ok
}

// advance drives the loop-iterator bookkeeping described in the VM spec:
// on first entry into a non-empty container it starts a cursor, on later
// calls it steps the cursor, removing it once exhausted.
func advance(prog *bytecode.Program, binding Binding, iters map[int]*loopFrame, itemIdx, listIdx int) bool {
	frame, active := iters[itemIdx]

	if !active {
		v, ok := binding.Lookup(prog.Variables[listIdx])
		if !ok {
			return false
		}
		container, ok := v.(Container)
		if !ok {
			return false
		}
		it := container.Iterate()
		first, ok := it.Next()
		if !ok {
			return false
		}
		iters[itemIdx] = &loopFrame{it: it, current: first}
		return true
	}

	next, ok := frame.it.Next()
	if !ok {
		delete(iters, itemIdx)
		return false
	}
	frame.current = next
	return true
}
