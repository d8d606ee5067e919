package fileprocessor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrochip8/internal/options"
	"github.com/retroenv/retrochip8/internal/runner"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// testROM draws the glyph 0 at the top left corner and loops forever.
var testROM = []byte{
	0x60, 0x00, // ld V0, $00
	0xA0, 0x50, // ld I, $050
	0xD0, 0x05, // drw V0, V0, $5
	0x12, 0x06, // jp $206
}

func testOptions(t *testing.T) options.Program {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.ch8")
	if err := os.WriteFile(path, testROM, 0600); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	return options.Program{
		Parameters: options.Parameters{Input: path},
		Flags:      options.Flags{Quiet: true},
		Emulation:  options.Emulation{Frames: 2, Speed: 10, Scale: 1},
		LoadOffset: 0x200,
	}
}

func TestProcessFile_Disasm(t *testing.T) {
	opts := testOptions(t)
	opts.Disasm = true

	var out bytes.Buffer
	err := processFile(context.Background(), log.NewTestLogger(t), opts, options.NewDisassembler(), nil, &out)
	assert.NoError(t, err)

	output := out.String()
	assert.True(t, strings.Contains(output, "Start:\n"))
	assert.True(t, strings.Contains(output, "_label_0206:\n"))
	assert.True(t, strings.Contains(output, "; $0200 60 00\n"))
}

func TestProcessFile_Headless(t *testing.T) {
	opts := testOptions(t)
	opts.Headless = true
	opts.Dump = true

	var out bytes.Buffer
	err := processFile(context.Background(), log.NewTestLogger(t), opts, options.Disassembler{}, nil, &out)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(out.String(), "PC: 0206"))
}

func TestProcessFile_HeadlessExpect(t *testing.T) {
	opts := testOptions(t)
	opts.Headless = true
	opts.Expect = "00000000"

	var out bytes.Buffer
	err := processFile(context.Background(), log.NewTestLogger(t), opts, options.Disassembler{}, nil, &out)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, runner.ErrChecksumMismatch))
}

func TestProcessFile_LoadError(t *testing.T) {
	opts := testOptions(t)
	opts.Input = filepath.Join(t.TempDir(), "missing.ch8")

	err := processFile(context.Background(), log.NewTestLogger(t), opts, options.Disassembler{}, nil, &bytes.Buffer{})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestProcessFile_Window(t *testing.T) {
	opts := testOptions(t)

	var called bool
	window := func(m *vm.Machine, reset func() error) error {
		called = true
		_, err := m.Step()
		assert.NoError(t, err)
		assert.Equal(t, uint16(0x202), m.Registers().PC)

		assert.NoError(t, reset())
		assert.Equal(t, uint16(0x200), m.Registers().PC)
		word, err := m.Memory().ReadWord(0x200)
		assert.NoError(t, err)
		assert.Equal(t, uint16(0x6000), word)
		return nil
	}

	err := processFile(context.Background(), log.NewTestLogger(t), opts, options.Disassembler{}, window, &bytes.Buffer{})
	assert.NoError(t, err)
	assert.True(t, called)
}
