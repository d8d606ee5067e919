// Package loader handles ROM file loading operations.
package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/options"
)

// Target is the destination of a loaded program.
type Target interface {
	Load(r io.Reader, offset uint16) (int, error)
}

// Loader handles loading ROM files from disk.
type Loader struct{}

// New creates a new ROM loader.
func New() *Loader {
	return &Loader{}
}

// Load opens the ROM file of the options and copies it into the target at
// the configured load offset. It returns the number of loaded bytes.
func (l *Loader) Load(opts options.Program, target Target) (int, error) {
	file, err := os.Open(opts.Input)
	if err != nil {
		return 0, fmt.Errorf("opening file %s: %w", opts.Input, err)
	}
	defer func() { _ = file.Close() }()

	n, err := target.Load(file, opts.LoadOffset)
	if err != nil {
		return 0, fmt.Errorf("loading file %s: %w", opts.Input, err)
	}
	return n, nil
}
