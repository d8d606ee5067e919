// Package ui implements the windowed host of the interpreter using ebiten.
package ui

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/keypad"
	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/log"
)

const bytesPerPixel = 4

var (
	colorOn  = [bytesPerPixel]byte{0xFF, 0xFF, 0xFF, 0xFF}
	colorOff = [bytesPerPixel]byte{0x00, 0x00, 0x00, 0xFF}
)

// App is the ebiten game running a machine. Ebiten calls Update at 60 Hz,
// every update executes Speed instructions and ticks the timers once.
type App struct {
	cfg    Config
	logger *log.Logger
	m      *vm.Machine

	tex    *ebiten.Image
	pixels []byte
	paused bool
}

// NewApp returns a new windowed host for the machine.
func NewApp(cfg Config, logger *log.Logger, m *vm.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(display.Width*cfg.Scale, display.Height*cfg.Scale)
	ebiten.SetTPS(ebiten.DefaultTPS)

	return &App{
		cfg:    cfg,
		logger: logger,
		m:      m,
		pixels: make([]byte, display.Width*display.Height*bytesPerPixel),
	}
}

// Run opens the window and blocks until it is closed or the machine hits
// a fatal error.
func (a *App) Run() error {
	if err := ebiten.RunGame(a); err != nil {
		return fmt.Errorf("running window: %w", err)
	}
	return nil
}

// Update handles input and advances the machine by one frame.
func (a *App) Update() error {
	if err := a.updateKeys(); err != nil {
		return err
	}

	if inpututil.IsKeyJustPressed(pauseKey) {
		a.paused = !a.paused
		title := a.cfg.Title
		if a.paused {
			title += " (paused)"
		}
		ebiten.SetWindowTitle(title)
	}

	if inpututil.IsKeyJustPressed(resetKey) && a.cfg.Reset != nil {
		if err := a.cfg.Reset(); err != nil {
			return fmt.Errorf("resetting machine: %w", err)
		}
		a.logger.Info("Machine reset")
	}

	if a.paused {
		return nil
	}
	return a.runFrame()
}

// updateKeys forwards key state changes to the machine in keypad layout
// order, so the last of several keys pressed in one frame is latched.
func (a *App) updateKeys() error {
	for i, key := range hostKeys {
		value := keypad.Layout[i]
		switch {
		case inpututil.IsKeyJustPressed(key):
			if err := a.m.KeyDown(value); err != nil {
				return fmt.Errorf("pressing key %X: %w", value, err)
			}
		case inpututil.IsKeyJustReleased(key):
			if err := a.m.KeyUp(value); err != nil {
				return fmt.Errorf("releasing key %X: %w", value, err)
			}
		}
	}
	return nil
}

func (a *App) runFrame() error {
	for range a.cfg.Speed {
		status, err := a.m.Step()
		if err != nil {
			if vm.IsFatal(err) {
				return fmt.Errorf("executing instruction: %w", err)
			}
			continue
		}
		if status == vm.StatusAwaitingInput {
			break
		}
	}
	a.m.Tick()
	return nil
}

// Draw renders the framebuffer.
func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(display.Width, display.Height)
	}

	fb := a.m.Framebuffer()
	if fb.Dirty() {
		for y := range display.Height {
			for x := range display.Width {
				c := colorOff
				if fb.Pixel(x, y) {
					c = colorOn
				}
				copy(a.pixels[(y*display.Width+x)*bytesPerPixel:], c[:])
			}
		}
		a.tex.WritePixels(a.pixels)
		fb.ClearDirty()
	}

	screen.DrawImage(a.tex, nil)
}

// Layout returns the logical screen size, ebiten scales it to the window.
func (a *App) Layout(_, _ int) (int, int) {
	return display.Width, display.Height
}
