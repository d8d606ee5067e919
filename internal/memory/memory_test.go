package memory

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/retroenv/retrogolib/assert"
)

func TestNew_Font(t *testing.T) {
	m := New()

	zero, err := m.Slice(FontOffset, glyphSize)
	assert.NoError(t, err)
	assert.True(t, bytes.Equal([]byte{0xF0, 0x90, 0x90, 0x90, 0xF0}, zero))

	f, err := m.Slice(FontAddress(0xF), glyphSize)
	assert.NoError(t, err)
	assert.True(t, bytes.Equal([]byte{0xF0, 0x80, 0xF0, 0x80, 0x80}, f))

	b, err := m.Read(0x000)
	assert.NoError(t, err)
	assert.Equal(t, byte(0), b)
	b, err = m.Read(ProgramStart)
	assert.NoError(t, err)
	assert.Equal(t, byte(0), b)
}

func TestFontAddress(t *testing.T) {
	assert.Equal(t, uint16(FontOffset), FontAddress(0x0))
	assert.Equal(t, uint16(FontOffset+5*10), FontAddress(0xA))
	assert.Equal(t, uint16(FontOffset+5*15), FontAddress(0xF))
	// only the low nibble selects the glyph
	assert.Equal(t, uint16(FontOffset+5*3), FontAddress(0x73))
}

func TestReadWrite_Bounds(t *testing.T) {
	m := New()

	assert.NoError(t, m.Write(Size-1, 0xAB))
	b, err := m.Read(Size - 1)
	assert.NoError(t, err)
	assert.Equal(t, byte(0xAB), b)

	_, err = m.Read(Size)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	err = m.Write(0xFFFF, 1)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestReadWord(t *testing.T) {
	m := New()
	assert.NoError(t, m.Store(0x300, []byte{0x12, 0x34}))

	w, err := m.ReadWord(0x300)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x1234), w)

	_, err = m.ReadWord(Size - 1)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestSliceAndStore_Bounds(t *testing.T) {
	m := New()

	_, err := m.Slice(Size-2, 3)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	s, err := m.Slice(Size-2, 2)
	assert.NoError(t, err)
	assert.Len(t, s, 2)

	err = m.Store(Size-1, []byte{1, 2})
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	b, err := m.Read(Size - 1)
	assert.NoError(t, err)
	assert.Equal(t, byte(0), b)
}

func TestLoad(t *testing.T) {
	t.Run("program at offset", func(t *testing.T) {
		m := New()
		n, err := m.Load(bytes.NewReader([]byte{0x00, 0xE0, 0x12, 0x00}), ProgramStart)
		assert.NoError(t, err)
		assert.Equal(t, 4, n)

		w, err := m.ReadWord(ProgramStart + 2)
		assert.NoError(t, err)
		assert.Equal(t, uint16(0x1200), w)
	})

	t.Run("program filling the space", func(t *testing.T) {
		m := New()
		n, err := m.Load(bytes.NewReader(make([]byte, Size-ProgramStart)), ProgramStart)
		assert.NoError(t, err)
		assert.Equal(t, Size-ProgramStart, n)
	})

	t.Run("program too large", func(t *testing.T) {
		m := New()
		data := bytes.Repeat([]byte{0xAA}, Size-ProgramStart+1)
		_, err := m.Load(bytes.NewReader(data), ProgramStart)
		assert.Error(t, err)

		var loadErr *LoadError
		assert.True(t, errors.As(err, &loadErr))
		assert.Equal(t, Size-ProgramStart+1, loadErr.Length)
		assert.True(t, errors.Is(err, ErrOutOfBounds))

		b, err := m.Read(ProgramStart)
		assert.NoError(t, err)
		assert.Equal(t, byte(0), b)
	})

	t.Run("unreadable source", func(t *testing.T) {
		m := New()
		errRead := errors.New("disk on fire")
		_, err := m.Load(iotest.ErrReader(errRead), ProgramStart)
		assert.True(t, errors.Is(err, errRead))

		var loadErr *LoadError
		assert.True(t, errors.As(err, &loadErr))
	})
}

func TestReset(t *testing.T) {
	m := New()
	assert.NoError(t, m.Write(FontOffset, 0x00))
	assert.NoError(t, m.Write(0x400, 0x55))

	m.Reset()

	b, err := m.Read(FontOffset)
	assert.NoError(t, err)
	assert.Equal(t, byte(0xF0), b)
	b, err = m.Read(0x400)
	assert.NoError(t, err)
	assert.Equal(t, byte(0), b)
}

func TestDump(t *testing.T) {
	m := New()
	assert.NoError(t, m.Store(ProgramStart, []byte{0x00, 0xE0}))

	var buf bytes.Buffer
	assert.NoError(t, m.Dump(&buf))
	out := buf.String()

	assert.Contains(t, out, "000: 00 00 00 00")
	assert.Contains(t, out, "050: F0 90 90 90 F0 20 60 20")
	assert.Contains(t, out, "200: 00 E0 00 00")
	assert.Contains(t, out, "*\n")
	assert.True(t, strings.Count(out, "\n") < Size/16)
}
