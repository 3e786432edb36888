// Package loader parses textual instruction traces into programs.
//
// A trace holds one instruction per line. Content after '#' is a comment and
// is discarded; blank lines are skipped. Opcodes are case-insensitive.
// Register tokens accept the prefixes r/R/x/X or a bare index in [0, 32).
//
//	ADD   rD rS1 rS2
//	SUB   rD rS1 rS2
//	LOAD  rD [rS1+imm]     ([rS1] means zero displacement)
//	STORE rS2 [rS1-imm]
//	BEQ   rS1 rS2 imm      (signed, PC-relative, in instruction units)
//	BNE   rS1 rS2 imm
//	NOP
//	HALT
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/pipesim/insts"
)

// Load reads and parses the trace file at path.
// On any malformed line it returns an error naming that line; no partial
// program is returned.
func Load(path string) ([]insts.Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open trace: %w", err)
	}
	defer f.Close()

	prog, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// Parse parses a trace from r. Accepted instructions are numbered with
// monotonically increasing IDs and PCs equal to their index in the accepted
// sequence.
func Parse(r io.Reader) ([]insts.Instruction, error) {
	var prog []insts.Instruction

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		ins, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d %q: %w", lineNo, line, err)
		}
		ins.ID = len(prog)
		ins.PC = len(prog)
		prog = append(prog, ins)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return prog, nil
}

func parseLine(line string) (insts.Instruction, error) {
	fields := strings.Fields(line)
	op := strings.ToUpper(fields[0])

	ins := insts.Instruction{
		Rd:  insts.RegNone,
		Rs1: insts.RegNone,
		Rs2: insts.RegNone,
	}

	switch op {
	case "ADD", "SUB":
		if len(fields) != 4 {
			return ins, fmt.Errorf("%s needs three register operands", op)
		}
		var err error
		if ins.Rd, err = parseReg(fields[1]); err != nil {
			return ins, err
		}
		if ins.Rs1, err = parseReg(fields[2]); err != nil {
			return ins, err
		}
		if ins.Rs2, err = parseReg(fields[3]); err != nil {
			return ins, err
		}
		if op == "ADD" {
			ins.Op = insts.OpADD
		} else {
			ins.Op = insts.OpSUB
		}

	case "LOAD":
		if len(fields) != 3 {
			return ins, fmt.Errorf("LOAD needs a destination register and a memory operand")
		}
		var err error
		if ins.Rd, err = parseReg(fields[1]); err != nil {
			return ins, err
		}
		if ins.Rs1, ins.Imm, err = parseMemOperand(fields[2]); err != nil {
			return ins, err
		}
		ins.Op = insts.OpLOAD

	case "STORE":
		if len(fields) != 3 {
			return ins, fmt.Errorf("STORE needs a source register and a memory operand")
		}
		var err error
		if ins.Rs2, err = parseReg(fields[1]); err != nil {
			return ins, err
		}
		if ins.Rs1, ins.Imm, err = parseMemOperand(fields[2]); err != nil {
			return ins, err
		}
		ins.Op = insts.OpSTORE

	case "BEQ", "BNE":
		if len(fields) != 4 {
			return ins, fmt.Errorf("%s needs two registers and an immediate", op)
		}
		var err error
		if ins.Rs1, err = parseReg(fields[1]); err != nil {
			return ins, err
		}
		if ins.Rs2, err = parseReg(fields[2]); err != nil {
			return ins, err
		}
		if ins.Imm, err = strconv.Atoi(fields[3]); err != nil {
			return ins, fmt.Errorf("bad immediate %q", fields[3])
		}
		if op == "BEQ" {
			ins.Op = insts.OpBEQ
		} else {
			ins.Op = insts.OpBNE
		}

	case "NOP":
		ins.Op = insts.OpNOP

	case "HALT":
		ins.Op = insts.OpHALT

	default:
		return ins, fmt.Errorf("unknown opcode %q", fields[0])
	}

	return ins, nil
}

// parseReg accepts r0, R0, x0, X0, or a plain index.
func parseReg(tok string) (int, error) {
	t := tok
	if len(t) > 1 {
		switch t[0] {
		case 'r', 'R', 'x', 'X':
			t = t[1:]
		}
	}
	v, err := strconv.Atoi(t)
	if err != nil || v < 0 || v >= insts.NumRegs {
		return insts.RegNone, fmt.Errorf("bad register token %q", tok)
	}
	return v, nil
}

// parseMemOperand accepts [rX+imm], [rX-imm], or [rX].
func parseMemOperand(tok string) (int, int, error) {
	if len(tok) < 3 || tok[0] != '[' || tok[len(tok)-1] != ']' {
		return insts.RegNone, 0, fmt.Errorf("bad memory operand %q", tok)
	}
	inner := tok[1 : len(tok)-1]

	sep := strings.IndexAny(inner, "+-")
	if sep < 0 {
		base, err := parseReg(inner)
		if err != nil {
			return insts.RegNone, 0, fmt.Errorf("bad memory operand %q: %w", tok, err)
		}
		return base, 0, nil
	}

	base, err := parseReg(inner[:sep])
	if err != nil {
		return insts.RegNone, 0, fmt.Errorf("bad memory operand %q: %w", tok, err)
	}
	imm, err := strconv.Atoi(inner[sep:])
	if err != nil {
		return insts.RegNone, 0, fmt.Errorf("bad displacement in %q", tok)
	}
	return base, imm, nil
}
