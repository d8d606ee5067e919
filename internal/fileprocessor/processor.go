// Package fileprocessor handles file loading and processing operations
package fileprocessor

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"strings"

	"github.com/retroenv/retrochip8/internal/cli"
	"github.com/retroenv/retrochip8/internal/config"
	"github.com/retroenv/retrochip8/internal/disasm"
	"github.com/retroenv/retrochip8/internal/loader"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/runner"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

// WindowFunc runs the machine in a window until it is closed. Reset has to
// be called by the window to restart the program.
type WindowFunc func(m *vm.Machine, reset func() error) error

// ProcessFile loads the ROM file of the options and disassembles it, runs
// it headless or passes it to the window function.
func ProcessFile(ctx context.Context, logger *log.Logger, opts options.Program,
	disasmOptions options.Disassembler, window WindowFunc) error {

	return processFile(ctx, logger, opts, disasmOptions, window, os.Stdout)
}

func processFile(ctx context.Context, logger *log.Logger, opts options.Program,
	disasmOptions options.Disassembler, window WindowFunc, out io.Writer) error {

	m := vm.New(config.MachineConfig(logger, opts))
	ld := loader.New()

	size, err := ld.Load(opts, m)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}
	program, err := m.Memory().Slice(opts.LoadOffset, size)
	if err != nil {
		return fmt.Errorf("reading program: %w", err)
	}
	PrintInfo(logger, opts, program)

	if opts.Disasm {
		dis := disasm.New(logger, disasmOptions)
		if err := dis.Process(out, program, opts.LoadOffset); err != nil {
			return fmt.Errorf("disassembling: %w", err)
		}
		return nil
	}

	if opts.Headless || window == nil {
		err = runHeadless(ctx, logger, opts, m, out)
	} else {
		err = window(m, func() error {
			m.Reset()
			_, err := ld.Load(opts, m)
			return err
		})
	}

	if opts.Dump {
		if dumpErr := m.Dump(out); dumpErr != nil {
			return errors.Join(err, fmt.Errorf("dumping machine: %w", dumpErr))
		}
	}
	return err
}

func runHeadless(ctx context.Context, logger *log.Logger, opts options.Program, m *vm.Machine, out io.Writer) error {
	cfg := runner.Config{
		Frames: opts.Frames,
		Speed:  opts.Speed,
		Scale:  opts.Scale,
		PNG:    opts.PNG,
		Output: out,
	}
	if opts.Expect != "" {
		checksum, err := cli.ParseChecksum(opts.Expect)
		if err != nil {
			return fmt.Errorf("parsing expected checksum: %w", err)
		}
		cfg.Expect = checksum
		cfg.CheckExpect = true
	}

	r := runner.New(logger, m, cfg)
	res, err := r.Run(ctx)
	if err != nil {
		return fmt.Errorf("running headless: %w", err)
	}
	if err := r.Report(res); err != nil {
		return fmt.Errorf("reporting result: %w", err)
	}
	return nil
}

// PrintInfo prints the information about the input file and the loaded program.
func PrintInfo(logger *log.Logger, opts options.Program, program []byte) {
	if opts.Quiet {
		return
	}

	logger.Info("Processing CHIP-8 ROM",
		log.String("file", opts.Input),
		log.Int("size", len(program)),
		log.Hex("offset", opts.LoadOffset),
		log.String("crc32", fmt.Sprintf("%08x", crc32.ChecksumIEEE(program))),
	)
	if len(program)%2 != 0 {
		logger.Warn("Program size is odd, the last byte can not be executed as instruction")
	}
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	logger.Info("retrochip8", log.String("version", buildinfo.Version(version, commit, date)))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}
