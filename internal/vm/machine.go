// Package vm implements the CHIP-8 interpreter core.
//
// A Machine owns the address space, register file, call stack, framebuffer
// and keypad. The owner drives it by calling Step repeatedly, Tick at a
// fixed rate and KeyDown/KeyUp between steps. A Machine must not be used
// from multiple goroutines concurrently.
package vm

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/keypad"
	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/stack"
	"github.com/retroenv/retrogolib/log"
)

// Registers is the register file of the machine.
type Registers struct {
	V  [16]byte // general purpose registers, VF doubles as flag register
	I  uint16   // index register
	PC uint16   // program counter
	DT byte     // delay timer
	ST byte     // sound timer
}

// VF is the index of the flag register.
const VF = 0xF

// Machine is a single CHIP-8 virtual machine instance.
type Machine struct {
	regs  Registers
	mem   *memory.Memory
	stack *stack.Stack
	fb    *display.Framebuffer
	keys  *keypad.Keypad

	logger       *log.Logger
	rand         *rand.Rand
	programStart uint16
	trace        bool
}

// New creates a machine in its initial state: memory zeroed except for the
// font, all registers zero and the program counter at the program start.
func New(cfg Config) *Machine {
	cfg.Defaults()

	m := &Machine{
		mem:          memory.New(),
		stack:        stack.New(cfg.StackCapacity),
		fb:           display.New(),
		keys:         keypad.New(),
		logger:       cfg.Logger,
		rand:         cfg.Rand,
		programStart: cfg.ProgramStart,
		trace:        cfg.Trace,
	}
	m.regs.PC = m.programStart
	return m
}

// Reset returns every component to its initial state. Loaded program
// bytes are cleared as well.
func (m *Machine) Reset() {
	m.mem.Reset()
	m.stack.Reset()
	m.fb.Clear()
	m.keys.Reset()
	m.regs = Registers{PC: m.programStart}
}

// Load copies the program read from r into memory at offset.
// Memory is not modified if the load fails.
func (m *Machine) Load(r io.Reader, offset uint16) (int, error) {
	n, err := m.mem.Load(r, offset)
	if err != nil {
		return 0, fmt.Errorf("loading program: %w", err)
	}
	m.logger.Debug("Program loaded",
		log.Int("size", n),
		log.Hex("offset", offset))
	return n, nil
}

// Tick decrements the delay and sound timers by one, stopping at zero.
// It is meant to be called at 60 Hz independent of Step.
func (m *Machine) Tick() {
	if m.regs.DT > 0 {
		m.regs.DT--
	}
	if m.regs.ST > 0 {
		m.regs.ST--
	}
}

// KeyDown marks the key as pressed and latches it for a blocking key read.
func (m *Machine) KeyDown(key byte) error {
	if err := m.keys.Press(key); err != nil {
		return fmt.Errorf("key down: %w", err)
	}
	return nil
}

// KeyUp marks the key as released.
func (m *Machine) KeyUp(key byte) error {
	if err := m.keys.Release(key); err != nil {
		return fmt.Errorf("key up: %w", err)
	}
	return nil
}

// Pixel returns whether the framebuffer pixel at x, y is on.
func (m *Machine) Pixel(x, y int) bool {
	return m.fb.Pixel(x, y)
}

// Framebuffer returns the framebuffer for rendering. Hosts must not draw
// into it.
func (m *Machine) Framebuffer() *display.Framebuffer {
	return m.fb
}

// Memory returns the address space for tools like the disassembler.
func (m *Machine) Memory() *memory.Memory {
	return m.mem
}

// Registers returns a copy of the register file.
func (m *Machine) Registers() Registers {
	return m.regs
}

// StackPointer returns the index of the next free call stack slot.
func (m *Machine) StackPointer() int {
	return m.stack.Pointer()
}

// ProgramStart returns the initial program counter.
func (m *Machine) ProgramStart() uint16 {
	return m.programStart
}

// SoundActive returns whether the sound timer is running.
func (m *Machine) SoundActive() bool {
	return m.regs.ST > 0
}

// Dump writes the register file, the call stack and a memory dump to w.
func (m *Machine) Dump(w io.Writer) error {
	r := m.regs
	if _, err := fmt.Fprintf(w, "PC: %04X  I: %04X  DT: %02X  ST: %02X  SP: %d\n",
		r.PC, r.I, r.DT, r.ST, m.stack.Pointer()); err != nil {
		return fmt.Errorf("writing registers: %w", err)
	}
	for i, v := range r.V {
		sep := " "
		if i%8 == 7 {
			sep = "\n"
		}
		if _, err := fmt.Fprintf(w, "V%X: %02X%s", i, v, sep); err != nil {
			return fmt.Errorf("writing registers: %w", err)
		}
	}

	if err := m.stack.Dump(w); err != nil {
		return fmt.Errorf("dumping stack: %w", err)
	}
	if err := m.mem.Dump(w); err != nil {
		return fmt.Errorf("dumping memory: %w", err)
	}
	return nil
}
