package session

import "sync"

// Locker serializes turn processing per session ID. Turns for the same
// session must not interleave; turns for different sessions run in parallel.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{
		locks: make(map[string]*lockEntry),
	}
}

// Lock acquires the lock for a session ID, creating it on first use
func (l *Locker) Lock(sessionID string) {
	l.mu.Lock()
	e, ok := l.locks[sessionID]
	if !ok {
		e = &lockEntry{}
		l.locks[sessionID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the lock and drops the entry once no turn is waiting on it
func (l *Locker) Unlock(sessionID string) {
	l.mu.Lock()
	e, ok := l.locks[sessionID]
	if ok {
		e.refs--
		if e.refs == 0 {
			delete(l.locks, sessionID)
		}
	}
	l.mu.Unlock()

	if ok {
		e.mu.Unlock()
	}
}
