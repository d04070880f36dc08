// Package joypad implements the P1 register's button-group selection
// semantics and the Joypad interrupt latch. Actual key-press polling is an
// external collaborator's responsibility (spec.md's host input loop); this
// package only models the register contract the MMU routes 0xFF00 through.
package joypad

import "github.com/valerio/gbcore/bit"

// Key identifies one of the eight physical buttons.
type Key uint8

const (
	Right Key = iota
	Left
	Up
	Down
	A
	B
	Select
	Start
)

// Joypad tracks button/d-pad state and computes the P1 register value
// according to its selection bits.
type Joypad struct {
	buttons uint8 // active-low state of A/B/Select/Start
	dpad    uint8 // active-low state of the d-pad directions
	select_ uint8 // last-written selection bits (4-5)
	pending bool
}

// New creates a Joypad with no buttons pressed.
func New() *Joypad {
	return &Joypad{buttons: 0x0F, dpad: 0x0F}
}

// Read computes the current P1 value: bits 6-7 always read 1, bits 4-5
// reflect the last write's selection, bits 0-3 reflect whichever button
// group(s) are selected (active-low; both groups AND together if both are
// selected, 0x0F if neither is).
func (j *Joypad) Read() byte {
	result := uint8(0b11000000) | (j.select_ & 0b00110000)

	selectDpad := !bit.IsSet(4, j.select_)
	selectButtons := !bit.IsSet(5, j.select_)

	switch {
	case selectButtons && !selectDpad:
		result |= j.buttons & 0x0F
	case selectDpad && !selectButtons:
		result |= j.dpad & 0x0F
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad & 0x0F
	default:
		result |= 0x0F
	}

	return result
}

// Write stores the selection bits (4-5); the rest of P1 is read-only.
func (j *Joypad) Write(value byte) {
	j.select_ = value & 0b00110000
}

// Press marks a key as pressed (active-low: bit cleared) and latches the
// Joypad interrupt on a 1->0 transition.
func (j *Joypad) Press(key Key) {
	oldButtons, oldDpad := j.buttons, j.dpad
	j.setKey(key, false)
	if (oldButtons&^j.buttons)|(oldDpad&^j.dpad) != 0 {
		j.pending = true
	}
}

// Release marks a key as released (active-low: bit set).
func (j *Joypad) Release(key Key) {
	j.setKey(key, true)
}

func (j *Joypad) setKey(key Key, released bool) {
	var target *uint8
	var idx uint8

	switch key {
	case Right:
		target, idx = &j.dpad, 0
	case Left:
		target, idx = &j.dpad, 1
	case Up:
		target, idx = &j.dpad, 2
	case Down:
		target, idx = &j.dpad, 3
	case A:
		target, idx = &j.buttons, 0
	case B:
		target, idx = &j.buttons, 1
	case Select:
		target, idx = &j.buttons, 2
	case Start:
		target, idx = &j.buttons, 3
	default:
		return
	}

	if released {
		*target = bit.Set(idx, *target)
	} else {
		*target = bit.Reset(idx, *target)
	}
}

// PendingInterrupt reports the latched Joypad interrupt request.
func (j *Joypad) PendingInterrupt() bool {
	return j.pending
}

// SetPendingInterrupt lets the MMU's IF write path set or clear the latch.
func (j *Joypad) SetPendingInterrupt(pending bool) {
	j.pending = pending
}
