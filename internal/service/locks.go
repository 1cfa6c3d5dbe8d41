package service

import "sync"

// groupLocks serializes mutations per group. Every expense mutation holds
// its group's lock across the whole read-snapshot, recompute, persist
// cycle, so two concurrent mutations on the same group cannot interleave
// and clobber each other's balance writes. Mutations on different groups
// proceed in parallel; reads never take a lock.
//
// Locks are never released back from the map. Group counts are small and a
// mutex is a few words, so there is no eviction.
type groupLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[string]*sync.Mutex)}
}

// get returns the mutex for a group, creating it on first use.
func (g *groupLocks) get(groupID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[groupID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[groupID] = l
	}
	return l
}
