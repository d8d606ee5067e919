package keypad

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestPressRelease(t *testing.T) {
	k := New()
	assert.False(t, k.IsDown(0xA))

	assert.NoError(t, k.Press(0xA))
	assert.True(t, k.IsDown(0xA))
	assert.True(t, k.IsDown(0x1A)) // low nibble selects the key

	assert.NoError(t, k.Release(0xA))
	assert.False(t, k.IsDown(0xA))
}

func TestInvalidKey(t *testing.T) {
	k := New()
	assert.True(t, errors.Is(k.Press(Keys), ErrInvalidKey))
	assert.True(t, errors.Is(k.Release(0xFF), ErrInvalidKey))

	_, ok := k.TakePressed()
	assert.False(t, ok)
}

func TestTakePressed_ConsumedOnce(t *testing.T) {
	k := New()
	_, ok := k.TakePressed()
	assert.False(t, ok)

	assert.NoError(t, k.Press(3))
	assert.NoError(t, k.Press(7))

	key, ok := k.TakePressed()
	assert.True(t, ok)
	assert.Equal(t, byte(7), key)

	_, ok = k.TakePressed()
	assert.False(t, ok)
	assert.True(t, k.IsDown(3))
}

func TestTakePressed_SurvivesRelease(t *testing.T) {
	k := New()
	assert.NoError(t, k.Press(0xF))
	assert.NoError(t, k.Release(0xF))

	key, ok := k.TakePressed()
	assert.True(t, ok)
	assert.Equal(t, byte(0xF), key)
}

func TestReset(t *testing.T) {
	k := New()
	assert.NoError(t, k.Press(1))
	k.Reset()
	assert.False(t, k.IsDown(1))
	_, ok := k.TakePressed()
	assert.False(t, ok)
}

func TestLayout(t *testing.T) {
	var seen [Keys]bool
	for _, key := range Layout {
		assert.True(t, key < Keys)
		assert.False(t, seen[key])
		seen[key] = true
	}
	assert.Equal(t, byte(0x1), Layout[0])
	assert.Equal(t, byte(0xF), Layout[Keys-1])
}

func TestLayout_SameFramePressesLatchLast(t *testing.T) {
	k := New()
	for _, key := range Layout {
		assert.NoError(t, k.Press(key))
	}
	key, ok := k.TakePressed()
	assert.True(t, ok)
	assert.Equal(t, Layout[Keys-1], key)
}
