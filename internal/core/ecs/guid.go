package ecs

import (
	"fmt"
	"sync"
)

// Directory maps every registered Guid to the manager holding it. It is the
// only structure shared between star systems; each operation holds the lock
// for the map update alone.
type Directory struct {
	mu       sync.RWMutex
	managers map[Guid]*Manager
	feed     *Feed
}

func NewDirectory() *Directory {
	return &Directory{
		managers: make(map[Guid]*Manager, 1024),
		feed:     NewFeed(),
	}
}

// Feed is the change feed shared by every manager of this directory.
func (d *Directory) Feed() *Feed { return d.feed }

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.managers)
}

func (d *Directory) add(e Entity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.managers[e.guid]; exists {
		return fmt.Errorf("register %s: %w", e.guid, ErrDuplicateGuid)
	}
	d.managers[e.guid] = e.mgr
	e.mgr.local[e.guid] = e
	return nil
}

func (d *Directory) remove(e Entity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(e.mgr.local, e.guid)
	delete(d.managers, e.guid)
}

// move re-homes a Guid in one critical section so concurrent lookups see it
// in exactly one manager.
func (d *Directory) move(from, to Entity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(from.mgr.local, from.guid)
	to.mgr.local[to.guid] = to
	d.managers[to.guid] = to.mgr
}

func (d *Directory) find(g Guid) (Entity, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.managers[g]
	if !ok {
		return Entity{}, false, nil
	}
	e, ok := m.local[g]
	if !ok {
		return Entity{}, false, &GuidNotFoundError{Guid: g}
	}
	return e, true, nil
}

func (d *Directory) findLocal(m *Manager, g Guid) (Entity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := m.local[g]
	return e, ok
}
