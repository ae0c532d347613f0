package handle

import (
	"errors"
	"sync"
	"testing"

	"github.com/leandrodaf/trackerbridge/sdk/contracts"
)

func TestArenaRegisterResolve(t *testing.T) {
	a := NewArena[string]()
	h1 := a.Register("synth")
	h2 := a.Register("drums")

	if h1 == 0 || h2 == 0 {
		t.Fatal("Register returned the zero handle")
	}
	if h1 == h2 {
		t.Fatal("Register returned duplicate handles")
	}

	for h, want := range map[contracts.Handle]string{h1: "synth", h2: "drums"} {
		got, err := a.Resolve(h)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", h, err)
		}
		if got != want {
			t.Errorf("Resolve(%s) = %q, want %q", h, got, want)
		}
	}
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
}

func TestArenaRejectsInvalidHandles(t *testing.T) {
	a := NewArena[int]()
	h := a.Register(1)

	tests := []struct {
		name string
		h    contracts.Handle
	}{
		{"zero", 0},
		{"out of range", pack(42, 1)},
		{"wrong generation", pack(0, 7)},
		{"raw index", contracts.Handle(uint64(h) & 0xFFFFFFFF)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Resolve(tt.h); !errors.Is(err, ErrInvalidHandle) {
				t.Errorf("Resolve(%s) error = %v, want ErrInvalidHandle", tt.h, err)
			}
		})
	}
}

func TestArenaReleaseInvalidatesStaleHandles(t *testing.T) {
	a := NewArena[string]()
	old := a.Register("first")

	if err := a.Release(old); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := a.Release(old); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("double Release error = %v, want ErrInvalidHandle", err)
	}

	reused := a.Register("second")
	oldIndex, _ := unpack(old)
	newIndex, _ := unpack(reused)
	if oldIndex != newIndex {
		t.Fatalf("slot not reused: old index %d, new index %d", oldIndex, newIndex)
	}
	if a.Valid(old) {
		t.Error("stale handle still resolves after slot reuse")
	}
	got, err := a.Resolve(reused)
	if err != nil || got != "second" {
		t.Errorf("Resolve(reused) = %q, %v", got, err)
	}
	if a.Len() != 1 {
		t.Errorf("Len() = %d, want 1", a.Len())
	}
}

func TestArenaConcurrentUse(t *testing.T) {
	a := NewArena[int]()
	var wg sync.WaitGroup
	handles := make(chan contracts.Handle, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			handles <- a.Register(v)
		}(i)
	}
	wg.Wait()
	close(handles)

	seen := make(map[contracts.Handle]bool)
	for h := range handles {
		if seen[h] {
			t.Fatalf("duplicate handle %s", h)
		}
		seen[h] = true
		if err := a.Release(h); err != nil {
			t.Fatalf("Release(%s): %v", h, err)
		}
	}
	if a.Len() != 0 {
		t.Errorf("Len() = %d, want 0", a.Len())
	}
}
