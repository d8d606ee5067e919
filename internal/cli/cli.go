// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/options"
)

// ParseFlags parses command line flags and returns program and disassembler options
func ParseFlags() (options.Program, options.Disassembler, error) {
	return parseArgs(os.Args)
}

func parseArgs(osArgs []string) (options.Program, options.Disassembler, error) {
	flags := flag.NewFlagSet(osArgs[0], flag.ContinueOnError)
	flags.Usage = func() {} // printed by UsageError
	var opts options.Program
	readOptionFlags(flags, &opts)

	disasmOptions := options.NewDisassembler()
	readDisasmOptionFlags(flags, &disasmOptions)

	err := flags.Parse(osArgs[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Input == "") {
		return opts, disasmOptions, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, disasmOptions, err
	}

	if len(args) > 0 {
		opts.Input = args[0]
	}

	flags.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts.SeedSet = true
		}
	})

	if err := normalizeOptions(&opts); err != nil {
		return opts, disasmOptions, err
	}

	return opts, disasmOptions, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the usage and all flag defaults.
func (e *UsageError) ShowUsage() {
	if e.msg != "" {
		fmt.Printf("%s\n\n", e.msg)
	}
	fmt.Printf("usage: retrochip8 [options] <ROM file>\n\n")
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg != "" && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after ROM file, please pass the ROM file as last argument", arg),
			}
		}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	offset, err := parseHex(opts.Offset, 16)
	if err != nil {
		return fmt.Errorf("invalid load offset '%s': %w", opts.Offset, err)
	}
	if offset >= memory.Size {
		return fmt.Errorf("load offset $%04X outside of memory size $%04X", offset, memory.Size)
	}
	if offset < memory.FontOffset+memory.FontSize {
		return fmt.Errorf("load offset $%04X overlaps the font ending at $%04X", offset, memory.FontOffset+memory.FontSize)
	}
	opts.LoadOffset = uint16(offset)

	if opts.Expect != "" {
		if _, err := ParseChecksum(opts.Expect); err != nil {
			return fmt.Errorf("invalid expected checksum '%s': %w", opts.Expect, err)
		}
	}

	if opts.Frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", opts.Frames)
	}
	if opts.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %d", opts.Speed)
	}
	if opts.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %d", opts.Scale)
	}

	// tracing is only visible at debug level
	if opts.Trace {
		opts.Debug = true
	}
	return nil
}

// parseHex parses a hex number with optional 0x or $ prefix.
func parseHex(s string, bitSize int) (uint64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "$")
	v, err := strconv.ParseUint(s, 16, bitSize)
	if err != nil {
		return 0, fmt.Errorf("parsing hex number: %w", err)
	}
	return v, nil
}

// ParseChecksum parses the value of the expect flag.
func ParseChecksum(s string) (uint32, error) {
	v, err := parseHex(s, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the input ROM file")
	flags.StringVar(&opts.Offset, "offset", "0x200", "load offset and entry point of the program in hex")
	flags.StringVar(&opts.PNG, "outpng", "", "write a PNG snapshot of the final framebuffer in headless mode")
	flags.StringVar(&opts.Expect, "expect", "", "expected CRC32 of the final framebuffer in hex, fails the headless run on mismatch")
	flags.BoolVar(&opts.Disasm, "disasm", false, "print the disassembly of the program and exit")
	flags.BoolVar(&opts.Dump, "dump", false, "dump registers, stack and memory after the run")
	flags.BoolVar(&opts.Headless, "headless", false, "run without a window for the given number of frames")
	flags.Uint64Var(&opts.Seed, "seed", 0, "seed of the random number generator, time based if not set")
	flags.BoolVar(&opts.Trace, "trace", false, "log every executed instruction, implies -debug")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
	flags.IntVar(&opts.Frames, "frames", 600, "number of 60 Hz frames to run in headless mode")
	flags.IntVar(&opts.Speed, "speed", 10, "instructions executed per 60 Hz frame")
	flags.IntVar(&opts.Scale, "scale", 10, "scale factor of the window and the PNG snapshot")
}

func readDisasmOptionFlags(flags *flag.FlagSet, opts *options.Disassembler) {
	// inverse logic, the comments are enabled by default
	flags.BoolFunc("nohexcomments", "do not output opcode bytes as hex values in comments", func(s string) error {
		disable, err := strconv.ParseBool(s)
		opts.HexComments = !disable
		return err //nolint:wrapcheck // reported by the flag set
	})
	flags.BoolFunc("nooffsets", "do not output offsets in comments", func(s string) error {
		disable, err := strconv.ParseBool(s)
		opts.OffsetComments = !disable
		return err //nolint:wrapcheck // reported by the flag set
	})
}
