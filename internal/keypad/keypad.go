// Package keypad implements the 16 key input latch.
package keypad

import (
	"errors"
	"fmt"
)

// Keys is the number of keys, one per hexadecimal digit.
const Keys = 16

// Layout lists the keys row by row as they are arranged on the COSMAC VIP
// hex keypad. Hosts bind their keys in this order.
//
//	1 2 3 C
//	4 5 6 D
//	7 8 9 E
//	A 0 B F
var Layout = [Keys]byte{
	0x1, 0x2, 0x3, 0xC,
	0x4, 0x5, 0x6, 0xD,
	0x7, 0x8, 0x9, 0xE,
	0xA, 0x0, 0xB, 0xF,
}

// ErrInvalidKey is returned for key numbers outside of 0-F.
var ErrInvalidKey = errors.New("invalid key")

// Keypad tracks the down state of every key and the most recent key press
// that has not been consumed yet.
type Keypad struct {
	down    [Keys]bool
	pressed bool
	latched byte
}

// New returns a keypad with all keys up.
func New() *Keypad {
	return &Keypad{}
}

// Press marks the key as down and latches it as newly pressed.
func (k *Keypad) Press(key byte) error {
	if key >= Keys {
		return fmt.Errorf("pressing key %d: %w", key, ErrInvalidKey)
	}
	k.down[key] = true
	k.pressed = true
	k.latched = key
	return nil
}

// Release marks the key as up. A latched press is kept until consumed.
func (k *Keypad) Release(key byte) error {
	if key >= Keys {
		return fmt.Errorf("releasing key %d: %w", key, ErrInvalidKey)
	}
	k.down[key] = false
	return nil
}

// IsDown returns whether the key selected by the low nibble is down.
func (k *Keypad) IsDown(key byte) bool {
	return k.down[key&0x0F]
}

// TakePressed returns the latched key and clears the latch. The second
// return value is false if no key was pressed since the last call.
func (k *Keypad) TakePressed() (byte, bool) {
	if !k.pressed {
		return 0, false
	}
	k.pressed = false
	return k.latched, true
}

// Reset releases all keys and clears the latch.
func (k *Keypad) Reset() {
	*k = Keypad{}
}
