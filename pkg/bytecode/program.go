package bytecode

// Program is the immutable output of compilation: an instruction stream
// plus the three append-only tables its operands index into. A Program is
// safe to share across goroutines and across renders — the VM never
// writes to one.
type Program struct {
	// Code is the instruction stream. It is always non-empty and always
	// ends with a Halt instruction.
	Code []Instruction

	// Fragments holds literal source text, indexed by Copy operands.
	// Fragments do not dedupe: two identical literal runs get two entries.
	Fragments []string

	// Variables holds identifier names, indexed by Substitute/Immediate
	// operands. addVariable interns names during compilation, so the same
	// identifier always maps to the same index within one Program.
	Variables []string

	// Includes holds raw include targets, indexed by Include operands.
	// Include targets do not dedupe.
	Includes []string
}

// Len returns the number of instructions in the program, including the
// trailing Halt.
func (p *Program) Len() int {
	return len(p.Code)
}
