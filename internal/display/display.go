// Package display implements the monochrome CHIP-8 framebuffer.
package display

import (
	"hash/crc32"
	"image"
	"image/color"
	"strings"
)

const (
	// Width is the number of pixel columns.
	Width = 64
	// Height is the number of pixel rows.
	Height = 32

	spriteWidth = 8
)

// Framebuffer is a row-major grid of on/off pixels.
type Framebuffer struct {
	pixels [Width * Height]bool
	dirty  bool
}

// New returns a cleared framebuffer.
func New() *Framebuffer {
	return &Framebuffer{dirty: true}
}

// Clear switches every pixel off.
func (f *Framebuffer) Clear() {
	clear(f.pixels[:])
	f.dirty = true
}

// Pixel returns whether the pixel at x, y is on. Coordinates outside of
// the grid report off.
func (f *Framebuffer) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return f.pixels[y*Width+x]
}

// DrawSprite XORs the sprite rows into the framebuffer. The origin wraps
// around the screen, the sprite itself is clipped at the right and bottom
// edges. Each row byte holds 8 pixels, most significant bit first.
// It returns true if any pixel was switched from on to off.
func (f *Framebuffer) DrawSprite(x, y byte, rows []byte) bool {
	originX := int(x) % Width
	originY := int(y) % Height
	collision := false

	for row, bits := range rows {
		py := originY + row
		if py >= Height {
			break
		}

		for col := range spriteWidth {
			px := originX + col
			if px >= Width {
				break
			}
			if bits&(0x80>>col) == 0 {
				continue
			}

			idx := py*Width + px
			if f.pixels[idx] {
				collision = true
			}
			f.pixels[idx] = !f.pixels[idx]
		}
	}

	f.dirty = true
	return collision
}

// Dirty returns whether the framebuffer changed since the last ClearDirty.
func (f *Framebuffer) Dirty() bool {
	return f.dirty
}

// ClearDirty resets the change marker, hosts call it after rendering.
func (f *Framebuffer) ClearDirty() {
	f.dirty = false
}

// Checksum returns a CRC32 of the framebuffer packed 8 pixels per byte.
func (f *Framebuffer) Checksum() uint32 {
	var packed [Width * Height / 8]byte
	for i, on := range f.pixels {
		if on {
			packed[i/8] |= 0x80 >> (i % 8)
		}
	}
	return crc32.ChecksumIEEE(packed[:])
}

// String renders the framebuffer as text, '#' for on and '.' for off.
func (f *Framebuffer) String() string {
	var sb strings.Builder
	sb.Grow((Width + 1) * Height)

	for y := range Height {
		for x := range Width {
			if f.pixels[y*Width+x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Image returns the framebuffer as grayscale image with on pixels white.
func (f *Framebuffer) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, Width, Height))
	for i, on := range f.pixels {
		if on {
			img.SetGray(i%Width, i/Width, color.Gray{Y: 0xFF})
		}
	}
	return img
}
