package storage

import "sync"

// KeyLocks serialises read-modify-write cycles on the same record key within
// one process.
type KeyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu      sync.Mutex
	waiters int
}

func NewKeyLocks() *KeyLocks {
	return &KeyLocks{locks: map[string]*keyLock{}}
}

// Lock acquires the lock for key and returns its release function.
func (k *KeyLocks) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.waiters++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.waiters--
		if l.waiters == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
