// Package runner implements the headless host of the interpreter.
package runner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/image/draw"
	"golang.org/x/term"
)

// ErrChecksumMismatch is returned when the final framebuffer does not match
// the expected checksum.
var ErrChecksumMismatch = errors.New("framebuffer checksum mismatch")

// Config contains the settings of a headless run.
type Config struct {
	Frames int // number of 60 Hz frames to run
	Speed  int // instructions per frame
	Scale  int // scale factor of the PNG snapshot

	PNG         string    // snapshot file, none if empty
	Expect      uint32    // expected framebuffer checksum
	CheckExpect bool      // compare the checksum against Expect
	Text        bool      // always print the text framebuffer
	Output      io.Writer // destination of the text framebuffer
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Frames <= 0 {
		c.Frames = 600
	}
	if c.Speed <= 0 {
		c.Speed = 10
	}
	if c.Scale <= 0 {
		c.Scale = 10
	}
	if c.Output == nil {
		c.Output = os.Stdout
	}
}

// Result contains statistics of a headless run.
type Result struct {
	Frames        int    // completed frames
	Steps         int    // executed instructions
	DecodeErrors  int    // skipped unknown instructions
	AwaitingInput bool   // the last frame ended in a blocking key read
	Checksum      uint32 // framebuffer checksum after the run
}

// Runner drives a machine without a window.
type Runner struct {
	logger  *log.Logger
	machine *vm.Machine
	cfg     Config
}

// New returns a new headless runner for the machine.
func New(logger *log.Logger, machine *vm.Machine, cfg Config) *Runner {
	cfg.Defaults()
	return &Runner{
		logger:  logger,
		machine: machine,
		cfg:     cfg,
	}
}

// Run executes the configured number of frames. Every frame executes up to
// Speed instructions followed by one timer tick. Unknown instructions are
// logged and skipped, a fatal error or a cancelled context stops the run.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var res Result
	err := r.runFrames(ctx, &res)
	res.Checksum = r.machine.Framebuffer().Checksum()
	if err != nil {
		return res, err
	}

	r.logger.Debug("Headless run finished",
		log.Int("frames", res.Frames),
		log.Int("steps", res.Steps),
		log.Int("decode_errors", res.DecodeErrors))
	return res, nil
}

func (r *Runner) runFrames(ctx context.Context, res *Result) error {
	for frame := range r.cfg.Frames {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("running frame %d: %w", frame, err)
		}

		if err := r.runFrame(res); err != nil {
			return fmt.Errorf("running frame %d: %w", frame, err)
		}
		r.machine.Tick()
		res.Frames++
	}
	return nil
}

func (r *Runner) runFrame(res *Result) error {
	for range r.cfg.Speed {
		status, err := r.machine.Step()
		if err != nil {
			if vm.IsFatal(err) {
				return fmt.Errorf("executing instruction: %w", err)
			}
			res.DecodeErrors++
			continue
		}
		res.Steps++

		if status == vm.StatusAwaitingInput {
			if !res.AwaitingInput {
				r.logger.Debug("Program waits for a key press",
					log.Hex("pc", r.machine.Registers().PC))
			}
			res.AwaitingInput = true
			return nil
		}
	}

	res.AwaitingInput = false
	return nil
}

// Report writes the configured outputs of a finished run: the PNG snapshot,
// the text framebuffer and the checksum comparison.
func (r *Runner) Report(res Result) error {
	fb := r.machine.Framebuffer()
	r.logger.Info("Framebuffer", log.String("crc32", fmt.Sprintf("%08x", res.Checksum)))

	if r.cfg.PNG != "" {
		if err := writeSnapshot(r.cfg.PNG, fb, r.cfg.Scale); err != nil {
			return err
		}
		r.logger.Info("Snapshot written", log.String("file", r.cfg.PNG))
	}

	if r.cfg.Text || isTerminal(r.cfg.Output) {
		if _, err := io.WriteString(r.cfg.Output, fb.String()); err != nil {
			return fmt.Errorf("writing text framebuffer: %w", err)
		}
	}

	if r.cfg.CheckExpect && res.Checksum != r.cfg.Expect {
		return fmt.Errorf("%w: expected %08x, got %08x", ErrChecksumMismatch, r.cfg.Expect, res.Checksum)
	}
	return nil
}

func writeSnapshot(path string, fb *display.Framebuffer, scale int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}
	if err := WritePNG(file, fb, scale); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing file %s: %w", path, err)
	}
	return nil
}

// WritePNG encodes the framebuffer as PNG, each pixel upscaled to a
// scale x scale block.
func WritePNG(w io.Writer, fb *display.Framebuffer, scale int) error {
	src := fb.Image()
	dst := image.NewGray(image.Rect(0, 0, display.Width*scale, display.Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	if err := png.Encode(w, dst); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
