package session

import (
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

// Guard serializes all read-modify-write sequences against one session
// without a global lock. A session ID is hashed onto one of a fixed bank
// of mutexes, so memory stays O(slots) no matter how many sessions are
// live. Two sessions may share a slot; that only adds latency, never
// correctness issues, because every critical section reloads state from
// the Store.
type Guard struct {
	slots []sync.Mutex
}

// NewGuard creates a lock bank with n slots. n must be positive.
func NewGuard(n int) *Guard {
	if n <= 0 {
		n = 1
	}
	return &Guard{slots: make([]sync.Mutex, n)}
}

// Do runs fn while holding the mutex for examID. The mutex is released
// unconditionally, including when fn panics.
func (g *Guard) Do(examID uuid.UUID, fn func()) {
	mu := &g.slots[g.slot(examID)]
	mu.Lock()
	defer mu.Unlock()
	fn()
}

func (g *Guard) slot(examID uuid.UUID) int {
	h := fnv.New32a()
	h.Write(examID[:])
	return int(h.Sum32() % uint32(len(g.slots)))
}
