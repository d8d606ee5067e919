// Package config handles application configuration and setup
package config

import (
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// MachineConfig returns the machine settings for the given program options.
// The program is entered at its load offset.
func MachineConfig(logger *log.Logger, opts options.Program) vm.Config {
	cfg := vm.Config{
		Logger:       logger,
		ProgramStart: opts.LoadOffset,
		Trace:        opts.Trace,
	}
	if opts.SeedSet {
		cfg.Rand = vm.NewRand(opts.Seed)
	}
	cfg.Defaults()
	return cfg
}
