package vm

import (
	"math/rand/v2"
	"time"

	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/stack"
	"github.com/retroenv/retrogolib/log"
)

// Config contains settings that affect the machine.
type Config struct {
	Logger        *log.Logger
	Rand          *rand.Rand // source of the random instruction
	StackCapacity int        // number of return address slots
	ProgramStart  uint16     // initial program counter
	Trace         bool       // log every executed instruction at debug level
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Logger == nil {
		c.Logger = log.NewWithConfig(log.DefaultConfig())
	}
	if c.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		c.Rand = rand.New(rand.NewPCG(seed, seed>>32))
	}
	if c.StackCapacity <= 0 {
		c.StackCapacity = stack.DefaultCapacity
	}
	if c.ProgramStart == 0 {
		c.ProgramStart = memory.ProgramStart
	}
}

// NewRand returns a deterministic random source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
}
