package util

import "sync"

// KeyLock serializes work per key. Entries are dropped once nobody holds or waits for them.
type KeyLock struct {
	mx    sync.Mutex
	locks map[string]*keyEntry
}

type keyEntry struct {
	mx   sync.Mutex
	refs int
}

func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*keyEntry)}
}

func (k *KeyLock) entry(key string) *keyEntry {
	e, ok := k.locks[key]
	if !ok {
		e = new(keyEntry)
		k.locks[key] = e
	}

	return e
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *KeyLock) Lock(key string) func() {
	k.mx.Lock()
	e := k.entry(key)
	e.refs++
	k.mx.Unlock()

	e.mx.Lock()

	return k.release(key, e)
}

// TryLock takes key only if nobody holds it.
func (k *KeyLock) TryLock(key string) (func(), bool) {
	k.mx.Lock()
	defer k.mx.Unlock()

	e := k.entry(key)

	if !e.mx.TryLock() {
		return nil, false
	}

	e.refs++

	return k.release(key, e), true
}

func (k *KeyLock) release(key string, e *keyEntry) func() {
	var once sync.Once

	return func() {
		once.Do(func() {
			e.mx.Unlock()

			k.mx.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.locks, key)
			}
			k.mx.Unlock()
		})
	}
}

func (k *KeyLock) Len() int {
	k.mx.Lock()
	defer k.mx.Unlock()

	return len(k.locks)
}
