package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestGuardSerializesSameID(t *testing.T) {
	g := NewGuard(8)
	id := uuid.New()

	const workers = 32
	const rounds = 100
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				g.Do(id, func() {
					counter++
				})
			}
		}()
	}
	wg.Wait()

	if counter != workers*rounds {
		t.Errorf("counter = %d, want %d", counter, workers*rounds)
	}
}

func TestGuardReleasesOnPanic(t *testing.T) {
	g := NewGuard(1)
	id := uuid.New()

	func() {
		defer func() { recover() }()
		g.Do(id, func() { panic("boom") })
	}()

	done := false
	g.Do(id, func() { done = true })
	if !done {
		t.Fatal("lock not released after panic")
	}
}

func TestGuardSlotIsStable(t *testing.T) {
	g := NewGuard(16)
	id := uuid.New()
	if g.slot(id) != g.slot(id) {
		t.Error("slot assignment must be deterministic")
	}
}

func TestNewGuardClampsSlotCount(t *testing.T) {
	g := NewGuard(0)
	// Must not panic on any ID.
	g.Do(uuid.New(), func() {})
}
