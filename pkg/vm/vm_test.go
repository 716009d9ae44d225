package vm

import (
	"testing"

	"github.com/CTAG07/fae/pkg/bytecode"
)

type stubValue string

func (s stubValue) String() string { return string(s) }

type stubBinding map[string]Value

func (b stubBinding) Lookup(name string) (Value, bool) {
	v, ok := b[name]
	return v, ok
}

type stubResolver struct {
	text string
}

func (r *stubResolver) ResolveInclude(target string, binding Binding) string {
	return r.text
}

func TestRenderHalt(t *testing.T) {
	prog := &bytecode.Program{
		Code: []bytecode.Instruction{
			bytecode.Make(bytecode.Copy, 0),
			bytecode.Make(bytecode.Halt, 0),
			bytecode.Make(bytecode.Copy, 1), // unreachable
		},
		Fragments: []string{"before halt", "after halt"},
	}

	out, err := Render(prog, stubBinding{}, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "before halt" {
		t.Errorf("got %q, want %q", out, "before halt")
	}
}

func TestRenderIncludeWithNilResolver(t *testing.T) {
	prog := &bytecode.Program{
		Code: []bytecode.Instruction{
			bytecode.Make(bytecode.Include, 0),
			bytecode.Make(bytecode.Halt, 0),
		},
		Includes: []string{"other"},
	}

	out, err := Render(prog, stubBinding{}, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "" {
		t.Errorf("got %q, want empty output when resolver is nil", out)
	}
}

func TestRenderIncludeWithResolver(t *testing.T) {
	prog := &bytecode.Program{
		Code: []bytecode.Instruction{
			bytecode.Make(bytecode.Include, 0),
			bytecode.Make(bytecode.Halt, 0),
		},
		Includes: []string{"other"},
	}

	out, err := Render(prog, stubBinding{}, &stubResolver{text: "resolved text"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "resolved text" {
		t.Errorf("got %q, want %q", out, "resolved text")
	}
}

// TestOpcodeSetIsClosed documents the invariant Render's dispatch switch
// relies on: the 3 opcode bits admit exactly 8 values, and opcode.go names
// all 8, so every possible Instruction decodes to a known opcode. There is
// no "unrecognized opcode" bit pattern left over to construct.
func TestOpcodeSetIsClosed(t *testing.T) {
	seen := make(map[bytecode.Opcode]bool)
	for bits := uint16(0); bits < 8; bits++ {
		op := bytecode.Instruction(bits << 13).Op()
		if op.String() == "Unknown" {
			t.Errorf("bit pattern %03b decodes to an unnamed opcode", bits)
		}
		seen[op] = true
	}
	if len(seen) != 8 {
		t.Errorf("saw %d distinct opcodes across the 8 bit patterns, want 8", len(seen))
	}
}

func TestAdvanceNonContainerValue(t *testing.T) {
	prog := &bytecode.Program{
		Code: []bytecode.Instruction{
			bytecode.Make(bytecode.Immediate, 0),
			bytecode.Make(bytecode.Immediate, 1),
			bytecode.Make(bytecode.ListEndJump, 4),
			bytecode.Make(bytecode.Copy, 0),
			bytecode.Make(bytecode.Halt, 0),
		},
		Fragments: []string{"body"},
		Variables: []string{"item", "notAList"},
	}

	out, err := Render(prog, stubBinding{"notAList": stubValue("scalar")}, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "" {
		t.Errorf("iterating a non-Container should skip the loop body, got %q", out)
	}
}
