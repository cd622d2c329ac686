package chat

import "sync"

// conversationLocks serializes turns per (owner, report) pair. Entries
// are refcounted so the map does not grow with the number of
// conversations ever seen.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{
		locks: make(map[string]*lockEntry),
	}
}

// Lock acquires the mutex for key and returns its release func.
func (c *conversationLocks) Lock(key string) func() {
	c.mu.Lock()
	entry, ok := c.locks[key]
	if !ok {
		entry = &lockEntry{}
		c.locks[key] = entry
	}
	entry.refs++
	c.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		c.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(c.locks, key)
		}
		c.mu.Unlock()
	}
}
