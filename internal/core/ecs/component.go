package ecs

import "fmt"

// DataBlob is one facet of an entity's state. Concrete types embed Blob and
// report their declared Type through BlobType.
type DataBlob interface {
	BlobType() TypeKey
	OwningEntity() Entity
	bind(Entity)
}

// Blob carries the owning-entity back-reference. Embed it in every datablob.
// After the owner is destroyed OwningEntity returns InvalidEntity; after the
// blob is removed from its entity it returns the zero Entity.
type Blob struct {
	owner Entity
}

func (b *Blob) OwningEntity() Entity { return b.owner }
func (b *Blob) bind(e Entity)        { b.owner = e }

// Get returns the T attached to e, if any. Invalid entities have nothing.
func (t Type[T]) Get(e Entity) (T, bool) {
	var zero T
	if e.mgr == nil {
		return zero, false
	}
	b, ok := e.mgr.GetDataBlob(e, t)
	if !ok {
		return zero, false
	}
	v, ok := b.(T)
	return v, ok
}

// Must returns the T attached to e and panics when it is missing. Use it
// only where the entity's composition is an invariant of the caller.
func (t Type[T]) Must(e Entity) T {
	v, ok := t.Get(e)
	if !ok {
		panic(fmt.Sprintf("ecs: %s has no %s", e, t.Name()))
	}
	return v
}

func (t Type[T]) Has(e Entity) bool {
	_, ok := t.Get(e)
	return ok
}

// Set attaches v to e, replacing any previous T.
func (t Type[T]) Set(e Entity, v T) error {
	if e.mgr == nil {
		return fmt.Errorf("set %s on %s: %w", t.Name(), e, ErrInvalidEntity)
	}
	return e.mgr.SetDataBlob(e, v)
}

func (t Type[T]) Remove(e Entity) error {
	if e.mgr == nil {
		return fmt.Errorf("remove %s from %s: %w", t.Name(), e, ErrInvalidEntity)
	}
	return e.mgr.RemoveDataBlob(e, t)
}

// Entities returns a snapshot of every entity in m holding a T.
func (t Type[T]) Entities(m *Manager) []Entity {
	return m.EntitiesWith(MaskOf(t))
}

// All returns a snapshot of every T stored in m, in slot order.
func (t Type[T]) All(m *Manager) []T {
	idx := t.Index()
	if idx < 0 || int(idx) >= len(m.columns) {
		return nil
	}
	col := m.columns[idx]
	out := make([]T, 0, 16)
	for slot, b := range col {
		if b == nil || !m.pool.live(uint32(slot)) {
			continue
		}
		if v, ok := b.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
