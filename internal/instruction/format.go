package instruction

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Mnemonic returns the assembler name of the instruction as defined by the
// CHIP-8 opcode table. Invalid instructions return an empty string.
func (i Instruction) Mnemonic() string {
	if i.Op == Invalid {
		return ""
	}

	firstNibble := (i.Word & 0xF000) >> 12
	for _, op := range chip8.Opcodes[int(firstNibble)] {
		if op.Info.Mask&i.Word == op.Info.Value && op.Instruction != nil {
			return op.Instruction.Name
		}
	}
	return i.Op.String()
}

// String returns the instruction in assembler syntax, for example
// "ld V1, $20" or "drw V0, V1, $5". Invalid instructions are formatted as
// a data word.
func (i Instruction) String() string {
	if i.Op == Invalid {
		return fmt.Sprintf(".word $%04X", i.Word)
	}

	name := i.Mnemonic()
	if params := i.operands(); params != "" {
		return fmt.Sprintf("%s %s", name, params)
	}
	return name
}

//nolint:cyclop // one case per operand form
func (i Instruction) operands() string {
	switch i.Op {
	case Jp, Call:
		return fmt.Sprintf("$%03X", i.NNN)
	case JpV0:
		return fmt.Sprintf("V0, $%03X", i.NNN)
	case SeImm, SneImm, LdImm, AddImm, Rnd:
		return fmt.Sprintf("V%X, $%02X", i.X, i.NN)
	case SeReg, SneReg, LdReg, Or, And, Xor, AddReg, Sub, Subn:
		return fmt.Sprintf("V%X, V%X", i.X, i.Y)
	case Shr, Shl, Skp, Sknp:
		return fmt.Sprintf("V%X", i.X)
	case LdI:
		return fmt.Sprintf("I, $%03X", i.NNN)
	case Drw:
		return fmt.Sprintf("V%X, V%X, $%X", i.X, i.Y, i.N)
	case LdVxDT:
		return fmt.Sprintf("V%X, DT", i.X)
	case LdVxK:
		return fmt.Sprintf("V%X, K", i.X)
	case LdDTVx:
		return fmt.Sprintf("DT, V%X", i.X)
	case LdSTVx:
		return fmt.Sprintf("ST, V%X", i.X)
	case AddI:
		return fmt.Sprintf("I, V%X", i.X)
	case LdF:
		return fmt.Sprintf("F, V%X", i.X)
	case LdB:
		return fmt.Sprintf("B, V%X", i.X)
	case StoreRegs:
		return fmt.Sprintf("[I], V%X", i.X)
	case LoadRegs:
		return fmt.Sprintf("V%X, [I]", i.X)
	default:
		return ""
	}
}
