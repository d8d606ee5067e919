package vm

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrochip8/internal/instruction"
	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/stack"
	"github.com/retroenv/retrogolib/log"
)

var errUnhandled = errors.New("unhandled opcode")

// Status describes the machine state after a step.
type Status int

const (
	// StatusRunning means the instruction completed.
	StatusRunning Status = iota
	// StatusAwaitingInput means a blocking key read found no pressed key.
	// The program counter was rewound so the next step retries it.
	StatusAwaitingInput
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusAwaitingInput:
		return "awaiting input"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// BoundsError is a fatal error for program counter, memory or call stack
// accesses outside of their bounds. Machine state is unchanged by the
// failing instruction except for the program counter advance of the fetch.
type BoundsError struct {
	PC   uint16 // address of the failing instruction
	Word uint16 // instruction word, zero if the fetch failed
	Err  error
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("instruction $%04X at $%04X: %v", e.Word, e.PC, e.Err)
}

func (e *BoundsError) Unwrap() error {
	return e.Err
}

// IsFatal returns whether the error returned by Step requires the owner to
// stop stepping. Decode errors are not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var boundsErr *BoundsError
	if errors.As(err, &boundsErr) {
		return true
	}
	return !errors.Is(err, instruction.ErrUnknownOpcode)
}

// Step executes a single fetch-decode-execute cycle.
//
// An unknown instruction returns a non fatal DecodeError with only the
// program counter advanced. A bounds violation returns a BoundsError.
func (m *Machine) Step() (Status, error) {
	pc := m.regs.PC
	word, err := m.mem.ReadWord(pc)
	if err != nil {
		return StatusRunning, &BoundsError{PC: pc, Err: fmt.Errorf("fetching: %w", err)}
	}
	m.regs.PC += instruction.Size

	ins, err := instruction.Decode(word)
	if err != nil {
		m.logger.Warn("Unknown instruction",
			log.Hex("pc", pc),
			log.Hex("word", word))
		return StatusRunning, err
	}

	if m.trace {
		m.logger.Debug("Executing",
			log.Hex("pc", pc),
			log.String("instruction", ins.String()))
	}

	status, err := m.execute(ins)
	if err != nil {
		if isBoundsViolation(err) {
			return status, &BoundsError{PC: pc, Word: word, Err: err}
		}
		return status, err
	}
	return status, nil
}

func isBoundsViolation(err error) bool {
	return errors.Is(err, memory.ErrOutOfBounds) ||
		errors.Is(err, stack.ErrOverflow) ||
		errors.Is(err, stack.ErrUnderflow)
}

func (m *Machine) skipIf(cond bool) {
	if cond {
		m.regs.PC += instruction.Size
	}
}

func flag(set bool) byte {
	if set {
		return 1
	}
	return 0
}

// execute runs a decoded instruction. The flag register is always written
// after the result register so that VF as destination ends up holding the flag.
//
//nolint:funlen,cyclop,gocyclo // one case per opcode
func (m *Machine) execute(ins instruction.Instruction) (Status, error) {
	r := &m.regs
	vx, vy := r.V[ins.X], r.V[ins.Y]

	//exhaustive:enforce
	switch ins.Op {
	case instruction.Cls:
		m.fb.Clear()

	case instruction.Ret:
		addr, err := m.stack.Pop()
		if err != nil {
			return StatusRunning, fmt.Errorf("returning: %w", err)
		}
		r.PC = addr

	case instruction.Jp:
		r.PC = ins.NNN

	case instruction.Call:
		if err := m.stack.Push(r.PC); err != nil {
			return StatusRunning, fmt.Errorf("calling $%03X: %w", ins.NNN, err)
		}
		r.PC = ins.NNN

	case instruction.SeImm:
		m.skipIf(vx == ins.NN)
	case instruction.SneImm:
		m.skipIf(vx != ins.NN)
	case instruction.SeReg:
		m.skipIf(vx == vy)
	case instruction.SneReg:
		m.skipIf(vx != vy)

	case instruction.LdImm:
		r.V[ins.X] = ins.NN
	case instruction.AddImm:
		r.V[ins.X] = vx + ins.NN

	case instruction.LdReg:
		r.V[ins.X] = vy
	case instruction.Or:
		r.V[ins.X] = vx | vy
	case instruction.And:
		r.V[ins.X] = vx & vy
	case instruction.Xor:
		r.V[ins.X] = vx ^ vy
	case instruction.AddReg:
		sum := uint16(vx) + uint16(vy)
		r.V[ins.X] = byte(sum)
		r.V[VF] = flag(sum > 0xFF)
	case instruction.Sub:
		r.V[ins.X] = vx - vy
		r.V[VF] = flag(vx >= vy)
	case instruction.Subn:
		r.V[ins.X] = vy - vx
		r.V[VF] = flag(vy >= vx)
	case instruction.Shr:
		r.V[ins.X] = vx >> 1
		r.V[VF] = vx & 0x01
	case instruction.Shl:
		r.V[ins.X] = vx << 1
		r.V[VF] = vx >> 7

	case instruction.LdI:
		r.I = ins.NNN
	case instruction.JpV0:
		r.PC = uint16(r.V[0]) + ins.NNN
	case instruction.Rnd:
		r.V[ins.X] = byte(m.rand.Uint32()) & ins.NN

	case instruction.Drw:
		sprite, err := m.mem.Slice(r.I, int(ins.N))
		if err != nil {
			return StatusRunning, fmt.Errorf("reading sprite: %w", err)
		}
		collision := m.fb.DrawSprite(vx, vy, sprite)
		r.V[VF] = flag(collision)

	case instruction.Skp:
		m.skipIf(m.keys.IsDown(vx))
	case instruction.Sknp:
		m.skipIf(!m.keys.IsDown(vx))

	case instruction.LdVxDT:
		r.V[ins.X] = r.DT
	case instruction.LdVxK:
		key, ok := m.keys.TakePressed()
		if !ok {
			r.PC -= instruction.Size
			return StatusAwaitingInput, nil
		}
		r.V[ins.X] = key
	case instruction.LdDTVx:
		r.DT = vx
	case instruction.LdSTVx:
		r.ST = vx
	case instruction.AddI:
		r.I += uint16(vx)
	case instruction.LdF:
		r.I = memory.FontAddress(vx)
	case instruction.LdB:
		digits := []byte{vx / 100, vx / 10 % 10, vx % 10}
		if err := m.mem.Store(r.I, digits); err != nil {
			return StatusRunning, fmt.Errorf("storing BCD: %w", err)
		}
	case instruction.StoreRegs:
		if err := m.mem.Store(r.I, r.V[:ins.X+1]); err != nil {
			return StatusRunning, fmt.Errorf("storing registers: %w", err)
		}
	case instruction.LoadRegs:
		data, err := m.mem.Slice(r.I, int(ins.X)+1)
		if err != nil {
			return StatusRunning, fmt.Errorf("loading registers: %w", err)
		}
		copy(r.V[:], data)

	case instruction.Invalid:
		return StatusRunning, &instruction.DecodeError{Word: ins.Word}
	default:
		return StatusRunning, fmt.Errorf("%w: %s", errUnhandled, ins.Op)
	}

	return StatusRunning, nil
}
