package utils

import "sync"

// TargetLocks serialises operations per target so that at most one sanction
// operation is in flight for a given account.
type TargetLocks struct {
	mu    sync.Mutex
	locks map[int64]*targetLock
}

type targetLock struct {
	mu      sync.Mutex
	waiters int
}

// NewTargetLocks creates an empty lock set.
func NewTargetLocks() *TargetLocks {
	return &TargetLocks{locks: make(map[int64]*targetLock)}
}

// Lock blocks until the target is free and returns the function releasing it.
func (l *TargetLocks) Lock(accountID int64) (unlock func()) {
	l.mu.Lock()
	lock, ok := l.locks[accountID]
	if !ok {
		lock = &targetLock{}
		l.locks[accountID] = lock
	}
	lock.waiters++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.waiters--
		if lock.waiters == 0 {
			delete(l.locks, accountID)
		}
		l.mu.Unlock()
	}
}
