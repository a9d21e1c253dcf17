// internal/trading/locks.go
package trading

import "sync"

// mintLocks hands out one mutex per mint so the read-quote-apply sequence
// of a trade never interleaves with another trade on the same token.
// Locks are never evicted; the set of active mints is small and bounded
// by graduation.
type mintLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMintLocks() *mintLocks {
	return &mintLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for mint and returns the unlock function.
func (m *mintLocks) acquire(mint string) func() {
	m.mu.Lock()
	l, ok := m.locks[mint]
	if !ok {
		l = &sync.Mutex{}
		m.locks[mint] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}
