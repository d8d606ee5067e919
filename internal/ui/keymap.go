package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/retroenv/retrochip8/internal/keypad"
)

// hostKeys binds the left side of a QWERTY keyboard to keypad.Layout,
// index by index:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var hostKeys = [keypad.Keys]ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4,
	ebiten.KeyQ, ebiten.KeyW, ebiten.KeyE, ebiten.KeyR,
	ebiten.KeyA, ebiten.KeyS, ebiten.KeyD, ebiten.KeyF,
	ebiten.KeyZ, ebiten.KeyX, ebiten.KeyC, ebiten.KeyV,
}

const (
	pauseKey = ebiten.KeyP
	resetKey = ebiten.KeyBackspace
)
