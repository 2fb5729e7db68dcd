package sessionservice

import "sync"

// keyedMutex provides one mutex per key. Entries are removed when nobody holds or waits for
// them, so the map does not grow with the number of distinct tokens ever seen.
type keyedMutex struct {
	entries map[string]*keyedMutexEntry
	lock    sync.Mutex
}

type keyedMutexEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[string]*keyedMutexEntry)}
}

// Lock blocks until the mutex for key is held, and returns the function that releases it.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.lock.Lock()
	e := k.entries[key]
	if e == nil {
		e = &keyedMutexEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.lock.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.lock.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.lock.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.lock.Lock()
	defer k.lock.Unlock()
	return len(k.entries)
}
