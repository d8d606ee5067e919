// Package instruction decodes CHIP-8 instruction words into typed instructions.
package instruction

import (
	"errors"
	"fmt"
)

// Size is the size of every CHIP-8 instruction in bytes.
const Size = 2

// ErrUnknownOpcode is wrapped by every DecodeError.
var ErrUnknownOpcode = errors.New("unknown opcode")

// DecodeError is returned for instruction words that do not match any
// defined opcode.
type DecodeError struct {
	Word uint16
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v $%04X", ErrUnknownOpcode, e.Word)
}

func (e *DecodeError) Unwrap() error {
	return ErrUnknownOpcode
}

// Op identifies a single opcode of the instruction set.
type Op uint8

// Opcodes, named after the assembler mnemonic and the operand form.
const (
	Invalid   Op = iota
	Cls          // 00E0
	Ret          // 00EE
	Jp           // 1NNN
	Call         // 2NNN
	SeImm        // 3XNN
	SneImm       // 4XNN
	SeReg        // 5XY0
	LdImm        // 6XNN
	AddImm       // 7XNN
	LdReg        // 8XY0
	Or           // 8XY1
	And          // 8XY2
	Xor          // 8XY3
	AddReg       // 8XY4
	Sub          // 8XY5
	Shr          // 8XY6
	Subn         // 8XY7
	Shl          // 8XYE
	SneReg       // 9XY0
	LdI          // ANNN
	JpV0         // BNNN
	Rnd          // CXNN
	Drw          // DXYN
	Skp          // EX9E
	Sknp         // EXA1
	LdVxDT       // FX07
	LdVxK        // FX0A
	LdDTVx       // FX15
	LdSTVx       // FX18
	AddI         // FX1E
	LdF          // FX29
	LdB          // FX33
	StoreRegs    // FX55
	LoadRegs     // FX65

	opCount
)

// Ops returns all valid opcodes in declaration order.
func Ops() []Op {
	ops := make([]Op, 0, opCount-1)
	for op := Cls; op < opCount; op++ {
		ops = append(ops, op)
	}
	return ops
}

var opNames = [opCount]string{
	Invalid:   "invalid",
	Cls:       "cls",
	Ret:       "ret",
	Jp:        "jp",
	Call:      "call",
	SeImm:     "se",
	SneImm:    "sne",
	SeReg:     "se",
	LdImm:     "ld",
	AddImm:    "add",
	LdReg:     "ld",
	Or:        "or",
	And:       "and",
	Xor:       "xor",
	AddReg:    "add",
	Sub:       "sub",
	Shr:       "shr",
	Subn:      "subn",
	Shl:       "shl",
	SneReg:    "sne",
	LdI:       "ld",
	JpV0:      "jp",
	Rnd:       "rnd",
	Drw:       "drw",
	Skp:       "skp",
	Sknp:      "sknp",
	LdVxDT:    "ld",
	LdVxK:     "ld",
	LdDTVx:    "ld",
	LdSTVx:    "ld",
	AddI:      "add",
	LdF:       "ld",
	LdB:       "ld",
	StoreRegs: "ld",
	LoadRegs:  "ld",
}

// String returns the assembler mnemonic of the opcode.
func (o Op) String() string {
	if o >= opCount {
		return opNames[Invalid]
	}
	return opNames[o]
}

// Instruction is a decoded instruction word. Only the operand fields used
// by the opcode are meaningful.
type Instruction struct {
	Op   Op
	Word uint16 // raw instruction word

	X   byte   // register selector, bits 8-11
	Y   byte   // register selector, bits 4-7
	N   byte   // 4-bit immediate, bits 0-3
	NN  byte   // 8-bit immediate, bits 0-7
	NNN uint16 // 12-bit address, bits 0-11
}

// Decode splits the instruction word into its fields and identifies the
// opcode. Unknown words return a DecodeError and an instruction with the
// Invalid opcode.
func Decode(word uint16) (Instruction, error) {
	ins := Instruction{
		Word: word,
		X:    byte(word>>8) & 0x0F,
		Y:    byte(word>>4) & 0x0F,
		N:    byte(word) & 0x0F,
		NN:   byte(word),
		NNN:  word & 0x0FFF,
	}

	ins.Op = decodeOp(word, ins.N, ins.NN)
	if ins.Op == Invalid {
		return ins, &DecodeError{Word: word}
	}
	return ins, nil
}

func decodeOp(word uint16, n, nn byte) Op {
	switch word >> 12 {
	case 0x0:
		switch word {
		case 0x00E0:
			return Cls
		case 0x00EE:
			return Ret
		}
	case 0x1:
		return Jp
	case 0x2:
		return Call
	case 0x3:
		return SeImm
	case 0x4:
		return SneImm
	case 0x5:
		if n == 0 {
			return SeReg
		}
	case 0x6:
		return LdImm
	case 0x7:
		return AddImm
	case 0x8:
		return decodeALU(n)
	case 0x9:
		if n == 0 {
			return SneReg
		}
	case 0xA:
		return LdI
	case 0xB:
		return JpV0
	case 0xC:
		return Rnd
	case 0xD:
		return Drw
	case 0xE:
		switch nn {
		case 0x9E:
			return Skp
		case 0xA1:
			return Sknp
		}
	case 0xF:
		return decodeMisc(nn)
	}
	return Invalid
}

var aluOps = [16]Op{
	0x0: LdReg,
	0x1: Or,
	0x2: And,
	0x3: Xor,
	0x4: AddReg,
	0x5: Sub,
	0x6: Shr,
	0x7: Subn,
	0xE: Shl,
}

func decodeALU(n byte) Op {
	return aluOps[n&0x0F]
}

func decodeMisc(nn byte) Op {
	switch nn {
	case 0x07:
		return LdVxDT
	case 0x0A:
		return LdVxK
	case 0x15:
		return LdDTVx
	case 0x18:
		return LdSTVx
	case 0x1E:
		return AddI
	case 0x29:
		return LdF
	case 0x33:
		return LdB
	case 0x55:
		return StoreRegs
	case 0x65:
		return LoadRegs
	}
	return Invalid
}

// IsJump returns true for unconditional jumps.
func (i Instruction) IsJump() bool {
	return i.Op == Jp || i.Op == JpV0
}

// IsCall returns true for subroutine calls.
func (i Instruction) IsCall() bool {
	return i.Op == Call
}

// IsReturn returns true for subroutine returns.
func (i Instruction) IsReturn() bool {
	return i.Op == Ret
}

// IsSkip returns true for instructions that conditionally skip the next one.
func (i Instruction) IsSkip() bool {
	switch i.Op {
	case SeImm, SneImm, SeReg, SneReg, Skp, Sknp:
		return true
	default:
		return false
	}
}

// Target returns the 12-bit address operand of instructions that reference
// code or data. JpV0 returns the base address without the register offset.
func (i Instruction) Target() (uint16, bool) {
	switch i.Op {
	case Jp, Call, LdI, JpV0:
		return i.NNN, true
	default:
		return 0, false
	}
}
