// Package stack implements the bounded call stack of return addresses.
package stack

import (
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultCapacity is the number of return address slots of a new machine.
	DefaultCapacity = 256

	// MinCapacity is the smallest supported capacity.
	MinCapacity = 16
)

var (
	// ErrOverflow is returned when pushing onto a full stack.
	ErrOverflow = errors.New("stack overflow")
	// ErrUnderflow is returned when popping or peeking an empty stack.
	ErrUnderflow = errors.New("stack underflow")
)

// Stack is a fixed capacity LIFO of 16-bit return addresses. The pointer
// always references the next free slot.
type Stack struct {
	slots   []uint16
	pointer int
}

// New returns an empty stack. A capacity below MinCapacity is raised to it.
func New(capacity int) *Stack {
	capacity = max(capacity, MinCapacity)
	return &Stack{
		slots: make([]uint16, capacity),
	}
}

// Push stores value in the next free slot.
func (s *Stack) Push(value uint16) error {
	if s.pointer >= len(s.slots) {
		return fmt.Errorf("pushing $%04X at depth %d: %w", value, s.pointer, ErrOverflow)
	}
	s.slots[s.pointer] = value
	s.pointer++
	return nil
}

// Pop removes and returns the most recently pushed value.
func (s *Stack) Pop() (uint16, error) {
	if s.pointer == 0 {
		return 0, fmt.Errorf("popping: %w", ErrUnderflow)
	}
	s.pointer--
	return s.slots[s.pointer], nil
}

// Peek returns the most recently pushed value without removing it.
func (s *Stack) Peek() (uint16, error) {
	if s.pointer == 0 {
		return 0, fmt.Errorf("peeking: %w", ErrUnderflow)
	}
	return s.slots[s.pointer-1], nil
}

// Pointer returns the index of the next free slot.
func (s *Stack) Pointer() int {
	return s.pointer
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int {
	return s.pointer
}

// Cap returns the number of slots.
func (s *Stack) Cap() int {
	return len(s.slots)
}

// Reset empties the stack and zeroes all slots.
func (s *Stack) Reset() {
	clear(s.slots)
	s.pointer = 0
}

// Dump writes the used slots to w, top first, marking the top entry.
func (s *Stack) Dump(w io.Writer) error {
	if s.pointer == 0 {
		_, err := fmt.Fprintln(w, "stack empty")
		return err
	}

	for i := s.pointer - 1; i >= 0; i-- {
		marker := "   "
		if i == s.pointer-1 {
			marker = "-> "
		}
		if _, err := fmt.Fprintf(w, "%s%3d: %04X\n", marker, i, s.slots[i]); err != nil {
			return fmt.Errorf("writing dump: %w", err)
		}
	}
	return nil
}
