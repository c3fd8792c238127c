package sim

import "sync"

// lockTable hands out one RWMutex per account. Different accounts never
// share a lock.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.RWMutex)}
}

func (t *lockTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}

func (t *lockTable) get(accountID string) *sync.RWMutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[accountID]
	if !ok {
		l = &sync.RWMutex{}
		t.locks[accountID] = l
	}
	return l
}
