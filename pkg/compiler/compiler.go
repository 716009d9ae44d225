// Package compiler turns fae template source into a bytecode.Program.
//
// Compilation is a single left-to-right pass: find the next "$(", flush
// any literal text before it as a Copy instruction, then try each command
// pattern in turn against the text following "$(". Forward jumps (the
// FalseJump emitted by "if" and the ListEndJump emitted by "for") are left
// as placeholders and patched once the matching "end" is found, using a
// small stack of pending PCs — the fixup stack.
package compiler

import (
	"regexp"
	"strings"

	"github.com/CTAG07/fae/pkg/bytecode"
)

// Command grammar, anchored at the start of the text following "$(".
// Tried in this order: an unmatched pattern falls through to the next.
var (
	endPattern     = regexp.MustCompile(`^end\)`)
	varPattern     = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\)`)
	ifPattern      = regexp.MustCompile(`^if[ \t]+([A-Za-z_][A-Za-z0-9_]*)\)`)
	forPattern     = regexp.MustCompile(`^for[ \t]+([A-Za-z_][A-Za-z0-9_]*)[ \t]+in[ \t]+([A-Za-z_][A-Za-z0-9_]*)\)`)
	includePattern = regexp.MustCompile(`^include ([^)]+)\)`)
)

// Compile parses src and emits a complete Program, or fails with an *Error.
func Compile(src string) (*bytecode.Program, error) {
	b := &builder{}
	if err := b.run(src); err != nil {
		return nil, err
	}
	return &bytecode.Program{
		Code:      b.code,
		Fragments: b.fragments,
		Variables: b.variables,
		Includes:  b.includes,
	}, nil
}

type builder struct {
	fragments []string
	variables []string
	includes  []string
	code      []bytecode.Instruction
	fixups    []int // PCs of pending FalseJump/ListEndJump placeholders
}

func (b *builder) run(src string) error {
	processed := 0

	for processed < len(src) {
		rel := strings.Index(src[processed:], "$(")
		if rel == -1 {
			if err := b.addFragment(src[processed:]); err != nil {
				return err
			}
			processed = len(src)
			break
		}
		expStart := processed + rel

		if expStart > 0 && src[expStart-1] == '\\' {
			if expStart-2 >= 0 && src[expStart-2] == '\\' {
				// "\\$(" — the escape was itself escaped. Collapse the
				// pair to a single backslash and fall through to parse
				// "$(" as a live command.
				if err := b.addFragment(src[processed : expStart-1]); err != nil {
					return err
				}
				processed = expStart
			} else {
				// "\$(" — a plain escape. Emit the preceding text plus a
				// literal "$", then treat "(" onward as ordinary text.
				if err := b.addFragment(src[processed : expStart-1]); err != nil {
					return err
				}
				b.fragments[len(b.fragments)-1] += "$"
				processed = expStart + 1
				continue
			}
		}

		if expStart > processed {
			if err := b.addFragment(src[processed:expStart]); err != nil {
				return err
			}
		}

		consumed, err := b.compileCommand(src, expStart+2)
		if err != nil {
			return err
		}
		processed = expStart + 2 + consumed
	}

	if len(b.fixups) > 0 {
		return newError(-1, "unclosed block: %d block(s) never reached \"end\"", len(b.fixups))
	}

	b.code = append(b.code, bytecode.Make(bytecode.Halt, 0))
	return nil
}

// compileCommand parses and emits the command body starting at pos (just
// past "$("), returning the number of bytes consumed by the match
// (including the closing ")").
func (b *builder) compileCommand(src string, pos int) (int, error) {
	rest := src[pos:]

	if m := endPattern.FindString(rest); m != "" {
		if err := b.closeBlock(pos); err != nil {
			return 0, err
		}
		return len(m), nil
	}

	if m := varPattern.FindStringSubmatch(rest); m != nil {
		idx, err := b.addVariable(pos, m[1])
		if err != nil {
			return 0, err
		}
		b.code = append(b.code, bytecode.Make(bytecode.Substitute, idx))
		return len(m[0]), nil
	}

	if m := ifPattern.FindStringSubmatch(rest); m != nil {
		idx, err := b.addVariable(pos, m[1])
		if err != nil {
			return 0, err
		}
		b.code = append(b.code, bytecode.Make(bytecode.Immediate, idx))
		b.code = append(b.code, bytecode.Make(bytecode.FalseJump, 0))
		b.fixups = append(b.fixups, len(b.code)-1)
		return len(m[0]), nil
	}

	if m := forPattern.FindStringSubmatch(rest); m != nil {
		itemIdx, err := b.addVariable(pos, m[1])
		if err != nil {
			return 0, err
		}
		listIdx, err := b.addVariable(pos, m[2])
		if err != nil {
			return 0, err
		}
		b.code = append(b.code, bytecode.Make(bytecode.Immediate, itemIdx))
		b.code = append(b.code, bytecode.Make(bytecode.Immediate, listIdx))
		b.code = append(b.code, bytecode.Make(bytecode.ListEndJump, 0))
		b.fixups = append(b.fixups, len(b.code)-1)
		return len(m[0]), nil
	}

	if m := includePattern.FindStringSubmatch(rest); m != nil {
		if len(b.includes) > bytecode.MaxOperand {
			return 0, newError(pos, "too many includes (max %d)", bytecode.MaxOperand+1)
		}
		idx := len(b.includes)
		b.includes = append(b.includes, m[1])
		b.code = append(b.code, bytecode.Make(bytecode.Include, idx))
		return len(m[0]), nil
	}

	return 0, newError(pos, "unrecognized command")
}

// closeBlock resolves the "end" found at pos against the innermost open
// block on the fixup stack.
func (b *builder) closeBlock(pos int) error {
	if len(b.fixups) == 0 {
		return newError(pos, "\"end\" with no matching open block")
	}

	n := len(b.fixups) - 1
	p0 := b.fixups[n]
	b.fixups = b.fixups[:n]

	if b.code[p0].Op() == bytecode.ListEndJump {
		// Re-enter the loop header on the next iteration.
		b.code = append(b.code, bytecode.Make(bytecode.Jump, p0))
	}

	next := len(b.code)
	if next > bytecode.MaxOperand {
		return newError(pos, "program too large (max %d instructions)", bytecode.MaxOperand+1)
	}
	b.code[p0] = b.code[p0].WithOperand(next)
	return nil
}

// addFragment unconditionally appends s (even if empty) as a new fragment
// and its Copy instruction. Used both for the main literal-flush step
// (guarded by the caller) and for the escape-handling branches, which must
// always materialize a fragment to append the escaped "$" to.
func (b *builder) addFragment(s string) error {
	if len(b.fragments) > bytecode.MaxOperand {
		return newError(-1, "too many fragments (max %d)", bytecode.MaxOperand+1)
	}
	b.fragments = append(b.fragments, s)
	b.code = append(b.code, bytecode.Make(bytecode.Copy, len(b.fragments)-1))
	return nil
}

// addVariable interns name, returning its existing index if already seen.
func (b *builder) addVariable(pos int, name string) (int, error) {
	for i, existing := range b.variables {
		if existing == name {
			return i, nil
		}
	}
	if len(b.variables) > bytecode.MaxOperand {
		return 0, newError(pos, "too many distinct variable names (max %d)", bytecode.MaxOperand+1)
	}
	b.variables = append(b.variables, name)
	return len(b.variables) - 1, nil
}
