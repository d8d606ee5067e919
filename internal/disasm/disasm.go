// Package disasm implements a linear CHIP-8 program disassembler.
package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrochip8/internal/instruction"
	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

// codeOffset is a single output line of the disassembly.
type codeOffset struct {
	address uint16
	data    []byte
	ins     instruction.Instruction
	code    string
	comment string
	valid   bool // data holds a decodable instruction
}

// Disasm implements a disassembler.
type Disasm struct {
	logger  *log.Logger
	options options.Disassembler

	start   uint16 // address of the first program byte
	offsets []codeOffset
	labels  map[uint16]string

	branchDestinations set.Set[uint16] // set of all addresses that are jumped to
	callDestinations   set.Set[uint16] // set of all addresses that are called
	dataReferences     set.Set[uint16] // set of all addresses loaded into I
}

// New creates a new disassembler.
func New(logger *log.Logger, options options.Disassembler) *Disasm {
	return &Disasm{
		logger:  logger,
		options: options,
	}
}

// Process disassembles the program bytes located at start and writes the
// assembly output to w. Words are decoded linearly, words that do not
// decode are output as data.
func (dis *Disasm) Process(w io.Writer, program []byte, start uint16) error {
	dis.start = start
	dis.labels = map[uint16]string{}
	dis.branchDestinations = set.New[uint16]()
	dis.callDestinations = set.New[uint16]()
	dis.dataReferences = set.New[uint16]()

	dis.readOffsets(program)
	dis.processReferences()
	dis.processCode()

	if err := dis.writeHeader(w, len(program)); err != nil {
		return err
	}
	for i, offset := range dis.offsets {
		if err := dis.writeLabel(w, i, offset.address); err != nil {
			return err
		}
		if err := writeLine(w, offset.code, offset.comment); err != nil {
			return fmt.Errorf("writing offset $%04X: %w", offset.address, err)
		}
	}

	dis.logger.Debug("Disassembled program",
		log.Hex("start", start),
		log.Int("size", len(program)),
		log.Int("labels", len(dis.labels)))
	return nil
}

// readOffsets splits the program into instruction words, a trailing odd
// byte becomes a data offset.
func (dis *Disasm) readOffsets(program []byte) {
	dis.offsets = dis.offsets[:0]

	for i := 0; i < len(program); i += instruction.Size {
		address := dis.start + uint16(i)
		if i+1 >= len(program) {
			dis.offsets = append(dis.offsets, codeOffset{
				address: address,
				data:    program[i : i+1],
			})
			break
		}

		data := program[i : i+instruction.Size]
		word := uint16(data[0])<<8 | uint16(data[1])
		ins, err := instruction.Decode(word)
		dis.offsets = append(dis.offsets, codeOffset{
			address: address,
			data:    data,
			ins:     ins,
			valid:   err == nil,
		})
	}
}

// processCode formats the code and comment of every offset.
func (dis *Disasm) processCode() {
	for i := range dis.offsets {
		offset := &dis.offsets[i]

		switch {
		case len(offset.data) == 1:
			offset.code = fmt.Sprintf(".byte $%02X", offset.data[0])
		case offset.valid:
			offset.code = dis.formatInstruction(offset.ins)
		default:
			offset.code = offset.ins.String()
		}

		offset.comment = dis.comment(*offset)
	}
}

// formatInstruction returns the instruction string with a referenced address
// replaced by its label name.
func (dis *Disasm) formatInstruction(ins instruction.Instruction) string {
	s := ins.String()
	target, ok := ins.Target()
	if !ok {
		return s
	}
	label, ok := dis.labels[target]
	if !ok {
		return s
	}
	return strings.Replace(s, fmt.Sprintf("$%03X", target), label, 1)
}

func (dis *Disasm) comment(offset codeOffset) string {
	var parts []string
	if dis.options.OffsetComments {
		parts = append(parts, fmt.Sprintf("$%04X", offset.address))
	}
	if dis.options.HexComments {
		hex := make([]string, 0, len(offset.data))
		for _, b := range offset.data {
			hex = append(hex, fmt.Sprintf("%02X", b))
		}
		parts = append(parts, strings.Join(hex, " "))
	}
	return strings.Join(parts, " ")
}

func (dis *Disasm) writeHeader(w io.Writer, size int) error {
	if _, err := fmt.Fprintf(w, "; CHIP-8 ROM Disassembly\n"); err != nil {
		return fmt.Errorf("writing header comment: %w", err)
	}
	if _, err := fmt.Fprintf(w, "; Code base address: $%04X\n", dis.start); err != nil {
		return fmt.Errorf("writing code base address: %w", err)
	}
	if _, err := fmt.Fprintf(w, "; Program size: %d bytes\n\n", size); err != nil {
		return fmt.Errorf("writing program size: %w", err)
	}
	if _, err := fmt.Fprintf(w, ".org $%03X\n\n", dis.start); err != nil {
		return fmt.Errorf("writing org directive: %w", err)
	}
	return nil
}

func (dis *Disasm) writeLabel(w io.Writer, index int, address uint16) error {
	label, ok := dis.labels[address]
	if !ok {
		return nil
	}

	if index > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "%s:\n", label); err != nil {
		return fmt.Errorf("writing label %s: %w", label, err)
	}
	return nil
}

func writeLine(w io.Writer, code, comment string) error {
	line := "    " + code
	if comment == "" {
		_, err := fmt.Fprintf(w, "%s\n", line)
		return err //nolint:wrapcheck // wrapped by caller
	}
	_, err := fmt.Fprintf(w, "%-32s ; %s\n", line, comment)
	return err //nolint:wrapcheck // wrapped by caller
}
