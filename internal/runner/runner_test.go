package runner

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// drawProgram draws the glyph 0 at the top left corner and loops forever.
var drawProgram = []uint16{
	0x6000, // ld V0, $00
	0xA050, // ld I, font
	0xD005, // drw V0, V0, $5
	0x1206, // jp $206
}

func newMachine(t *testing.T, program ...uint16) *vm.Machine {
	t.Helper()

	m := vm.New(vm.Config{
		Logger: log.NewTestLogger(t),
		Rand:   vm.NewRand(1),
	})
	data := make([]byte, 0, len(program)*2)
	for _, word := range program {
		data = append(data, byte(word>>8), byte(word))
	}
	_, err := m.Load(bytes.NewReader(data), memory.ProgramStart)
	assert.NoError(t, err)
	return m
}

func TestRun(t *testing.T) {
	m := newMachine(t, drawProgram...)
	r := New(log.NewTestLogger(t), m, Config{Frames: 3, Speed: 10})

	res, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, res.Frames)
	assert.Equal(t, 30, res.Steps)
	assert.Equal(t, 0, res.DecodeErrors)
	assert.False(t, res.AwaitingInput)
	assert.Equal(t, m.Framebuffer().Checksum(), res.Checksum)
	assert.True(t, m.Pixel(0, 0))
}

func TestRun_TimersTickOncePerFrame(t *testing.T) {
	m := newMachine(t,
		0x6078, // ld V0, 120
		0xF015, // ld DT, V0
		0x1204, // jp $204
	)
	r := New(log.NewTestLogger(t), m, Config{Frames: 10, Speed: 5})

	_, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, byte(110), m.Registers().DT)
}

func TestRun_DecodeErrorsContinue(t *testing.T) {
	m := newMachine(t,
		0x5121, // unknown
		0x1200, // jp $200
	)
	r := New(log.NewTestLogger(t), m, Config{Frames: 2, Speed: 10})

	res, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, res.Frames)
	assert.Equal(t, 10, res.DecodeErrors)
	assert.Equal(t, 10, res.Steps)
}

func TestRun_FatalErrorStops(t *testing.T) {
	m := newMachine(t, 0x00EE) // return with empty stack
	r := New(log.NewTestLogger(t), m, Config{Frames: 5, Speed: 10})

	res, err := r.Run(context.Background())
	assert.Error(t, err)
	assert.True(t, vm.IsFatal(err))

	var boundsErr *vm.BoundsError
	assert.True(t, errors.As(err, &boundsErr))
	assert.Equal(t, 0, res.Frames)
}

func TestRun_AwaitingInput(t *testing.T) {
	m := newMachine(t, 0xF00A) // ld V0, K
	r := New(log.NewTestLogger(t), m, Config{Frames: 2, Speed: 10})

	res, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.True(t, res.AwaitingInput)
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, uint16(0x200), m.Registers().PC)
}

func TestRun_ContextCancelled(t *testing.T) {
	m := newMachine(t, drawProgram...)
	r := New(log.NewTestLogger(t), m, Config{Frames: 5, Speed: 10})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, res.Frames)
}

func TestReport_Expect(t *testing.T) {
	m := newMachine(t, drawProgram...)
	var out bytes.Buffer

	r := New(log.NewTestLogger(t), m, Config{Frames: 1, Output: &out})
	res, err := r.Run(context.Background())
	assert.NoError(t, err)

	t.Run("match", func(t *testing.T) {
		r := New(log.NewTestLogger(t), m, Config{
			Expect:      res.Checksum,
			CheckExpect: true,
			Output:      &out,
		})
		assert.NoError(t, r.Report(res))
	})

	t.Run("mismatch", func(t *testing.T) {
		r := New(log.NewTestLogger(t), m, Config{
			Expect:      res.Checksum + 1,
			CheckExpect: true,
			Output:      &out,
		})
		err := r.Report(res)
		assert.True(t, errors.Is(err, ErrChecksumMismatch))
	})

	// not a terminal, no text output unless requested
	assert.Equal(t, 0, out.Len())
}

func TestReport_Text(t *testing.T) {
	m := newMachine(t, drawProgram...)
	var out bytes.Buffer

	r := New(log.NewTestLogger(t), m, Config{Frames: 1, Text: true, Output: &out})
	res, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, r.Report(res))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Len(t, lines, display.Height)
	assert.True(t, strings.HasPrefix(lines[0], "####."))
}

func TestReport_Snapshot(t *testing.T) {
	m := newMachine(t, drawProgram...)
	path := filepath.Join(t.TempDir(), "snapshot.png")

	r := New(log.NewTestLogger(t), m, Config{Frames: 1, Scale: 2, PNG: path, Output: &bytes.Buffer{}})
	res, err := r.Run(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, r.Report(res))

	file, err := os.Open(path)
	assert.NoError(t, err)
	defer func() { _ = file.Close() }()

	img, err := png.Decode(file)
	assert.NoError(t, err)
	assert.Equal(t, display.Width*2, img.Bounds().Dx())
	assert.Equal(t, display.Height*2, img.Bounds().Dy())

	r0, _, _, _ := img.At(1, 1).RGBA()
	r1, _, _, _ := img.At(9, 1).RGBA()
	assert.Equal(t, uint32(0xFFFF), r0)
	assert.Equal(t, uint32(0), r1)
}

func TestWritePNG(t *testing.T) {
	fb := display.New()
	fb.DrawSprite(0, 0, []byte{0x80})

	var buf bytes.Buffer
	assert.NoError(t, WritePNG(&buf, fb, 3))

	img, err := png.Decode(&buf)
	assert.NoError(t, err)
	assert.Equal(t, display.Width*3, img.Bounds().Dx())

	on, _, _, _ := img.At(2, 2).RGBA()
	off, _, _, _ := img.At(3, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), on)
	assert.Equal(t, uint32(0), off)
}
