// Package memory implements the CHIP-8 address space.
//
// The address space is a flat 4KB buffer:
//
//	0x000-0x1FF: Interpreter area, the built-in font lives at FontOffset
//	0x200-0xFFF: Program and data area
package memory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	// Size is the number of addressable bytes.
	Size = 4096

	// FontOffset is the address of the first built-in glyph.
	FontOffset = 0x050

	// FontSize is the size of the built-in font table in bytes.
	FontSize = 16 * glyphSize

	// ProgramStart is the conventional load and entry address of programs.
	ProgramStart = 0x200

	glyphSize = 5
)

// ErrOutOfBounds is returned for any access outside of the address space.
var ErrOutOfBounds = errors.New("address out of bounds")

// LoadError describes a failed program load. Memory is not modified when
// a load fails.
type LoadError struct {
	Offset uint16
	Length int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Length > 0 {
		return fmt.Sprintf("loading %d bytes at offset $%03X: %v", e.Length, e.Offset, e.Err)
	}
	return fmt.Sprintf("loading at offset $%03X: %v", e.Offset, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Memory is the bounds checked address space.
type Memory struct {
	data [Size]byte
}

// New returns a zeroed address space with the built-in font installed.
func New() *Memory {
	m := &Memory{}
	m.Reset()
	return m
}

// Reset zeroes the address space and reinstalls the font.
func (m *Memory) Reset() {
	clear(m.data[:])
	copy(m.data[FontOffset:], font[:])
}

// Read returns the byte at addr.
func (m *Memory) Read(addr uint16) (byte, error) {
	if int(addr) >= Size {
		return 0, fmt.Errorf("reading $%04X: %w", addr, ErrOutOfBounds)
	}
	return m.data[addr], nil
}

// Write sets the byte at addr.
func (m *Memory) Write(addr uint16, value byte) error {
	if int(addr) >= Size {
		return fmt.Errorf("writing $%04X: %w", addr, ErrOutOfBounds)
	}
	m.data[addr] = value
	return nil
}

// ReadWord returns the big-endian 16-bit word at addr and addr+1.
func (m *Memory) ReadWord(addr uint16) (uint16, error) {
	if int(addr)+1 >= Size {
		return 0, fmt.Errorf("reading word at $%04X: %w", addr, ErrOutOfBounds)
	}
	return uint16(m.data[addr])<<8 | uint16(m.data[addr+1]), nil
}

// Slice returns a view of n bytes starting at addr. The returned slice
// aliases the address space and must not be modified.
func (m *Memory) Slice(addr uint16, n int) ([]byte, error) {
	end := int(addr) + n
	if n < 0 || end > Size {
		return nil, fmt.Errorf("reading %d bytes at $%04X: %w", n, addr, ErrOutOfBounds)
	}
	return m.data[addr:end:end], nil
}

// Store copies data into the address space starting at addr. Nothing is
// written if the range does not fit.
func (m *Memory) Store(addr uint16, data []byte) error {
	if int(addr)+len(data) > Size {
		return fmt.Errorf("writing %d bytes at $%04X: %w", len(data), addr, ErrOutOfBounds)
	}
	copy(m.data[addr:], data)
	return nil
}

// Load reads the whole stream and copies it verbatim to offset.
// It returns the number of bytes loaded.
func (m *Memory) Load(r io.Reader, offset uint16) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, &LoadError{Offset: offset, Err: fmt.Errorf("reading program: %w", err)}
	}
	if int(offset)+len(data) > Size {
		return 0, &LoadError{Offset: offset, Length: len(data), Err: ErrOutOfBounds}
	}
	copy(m.data[offset:], data)
	return len(data), nil
}

// Dump writes a hex dump of the address space to w. Runs of identical
// rows following a printed row are collapsed into a single "*" line.
func (m *Memory) Dump(w io.Writer) error {
	const rowSize = 16
	var previous []byte
	collapsed := false

	for addr := 0; addr < Size; addr += rowSize {
		row := m.data[addr : addr+rowSize]
		if previous != nil && bytes.Equal(row, previous) {
			if !collapsed {
				if _, err := fmt.Fprintln(w, "*"); err != nil {
					return fmt.Errorf("writing dump: %w", err)
				}
				collapsed = true
			}
			continue
		}
		collapsed = false
		previous = row

		if _, err := fmt.Fprintf(w, "%03X: % X\n", addr, row); err != nil {
			return fmt.Errorf("writing dump: %w", err)
		}
	}
	return nil
}
