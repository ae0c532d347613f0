// Package handle replaces raw native pointers with generational arena
// indices. An ID carries the slot index in its low 32 bits and the slot's
// generation in its high 32 bits, so an ID handed out before a slot was
// released never resolves to whatever occupies the slot afterwards.
package handle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

// ErrInvalidHandle is returned for zero, forged, released or stale handles.
var ErrInvalidHandle = errors.New("invalid handle")

type slot[T any] struct {
	gen   uint32
	live  bool
	value T
}

// Arena stores values addressed by contracts.Handle. It is safe for
// concurrent use.
type Arena[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
	live  int
}

// NewArena returns an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

func pack(index, gen uint32) contracts.Handle {
	return contracts.Handle(uint64(gen)<<32 | uint64(index))
}

func unpack(h contracts.Handle) (index, gen uint32) {
	return uint32(uint64(h)), uint32(uint64(h) >> 32)
}

// Register stores v and returns its handle.
func (a *Arena[T]) Register(v T) contracts.Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		index = uint32(len(a.slots) - 1)
	}

	s := &a.slots[index]
	// Generation zero is reserved so that index 0 never packs to Handle(0).
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.live = true
	s.value = v
	a.live++
	return pack(index, s.gen)
}

func (a *Arena[T]) lookup(h contracts.Handle) (*slot[T], error) {
	index, gen := unpack(h)
	if h == 0 || int(index) >= len(a.slots) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	s := &a.slots[index]
	if !s.live || s.gen != gen {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	return s, nil
}

// Resolve returns the value registered under h.
func (a *Arena[T]) Resolve(h contracts.Handle) (T, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s, err := a.lookup(h)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.value, nil
}

// Valid reports whether h currently resolves.
func (a *Arena[T]) Valid(h contracts.Handle) bool {
	_, err := a.Resolve(h)
	return err == nil
}

// Release frees the slot behind h. Any copy of h becomes invalid.
func (a *Arena[T]) Release(h contracts.Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.lookup(h)
	if err != nil {
		return err
	}
	var zero T
	s.live = false
	s.value = zero
	index, _ := unpack(h)
	a.free = append(a.free, index)
	a.live--
	return nil
}

// Len returns the number of live handles.
func (a *Arena[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.live
}
