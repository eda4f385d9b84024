package ecs

import (
	"container/heap"
	"fmt"

	"github.com/google/uuid"
)

// EntityID encodes a 32-bit slot index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy to invalidate stale refs.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }

const invalidEntityID = ^EntityID(0)

// Guid identifies an entity across every manager of a game.
type Guid = uuid.UUID

// Entity is a handle: slot identity, global identity and owning manager. It
// holds no state of its own. The zero Entity means "no entity".
type Entity struct {
	id   EntityID
	guid Guid
	mgr  *Manager
}

// InvalidEntity is the owner of datablobs whose entity was destroyed. It is
// distinct from the zero Entity.
var InvalidEntity = Entity{id: invalidEntityID}

func (e Entity) ID() EntityID      { return e.id }
func (e Entity) Guid() Guid        { return e.guid }
func (e Entity) Manager() *Manager { return e.mgr }
func (e Entity) IsZero() bool      { return e == Entity{} }
func (e Entity) IsInvalidSentinel() bool {
	return e == InvalidEntity
}

// IsValid reports whether e still names a live slot in its manager.
func (e Entity) IsValid() bool {
	return e.mgr != nil && e.mgr.IsValid(e)
}

func (e Entity) String() string {
	switch {
	case e.IsZero():
		return "entity(none)"
	case e.IsInvalidSentinel():
		return "entity(invalid)"
	}
	return fmt.Sprintf("entity(%d:%d %s)", e.id.Index(), e.id.Generation(), e.guid)
}

// Destroy removes e from its manager.
func (e Entity) Destroy() error {
	if e.mgr == nil {
		return fmt.Errorf("destroy %s: %w", e, ErrInvalidEntity)
	}
	return e.mgr.DestroyEntity(e)
}

// SetDataBlob attaches b to e in e's manager.
func (e Entity) SetDataBlob(b DataBlob) error {
	if e.mgr == nil {
		return fmt.Errorf("set datablob on %s: %w", e, ErrInvalidEntity)
	}
	return e.mgr.SetDataBlob(e, b)
}

// slotPool hands out slot indices, always reusing the lowest freed slot
// before growing.
type slotPool struct {
	generations []uint32
	alive       []bool
	free        freeSlots
}

func (p *slotPool) acquire() (index uint32, generation uint32) {
	if p.free.Len() > 0 {
		idx := heap.Pop(&p.free).(uint32)
		p.alive[idx] = true
		return idx, p.generations[idx]
	}
	idx := uint32(len(p.generations))
	p.generations = append(p.generations, 0)
	p.alive = append(p.alive, true)
	return idx, 0
}

func (p *slotPool) release(index uint32) {
	if int(index) >= len(p.alive) || !p.alive[index] {
		return
	}
	p.alive[index] = false
	p.generations[index]++
	heap.Push(&p.free, index)
}

func (p *slotPool) live(index uint32) bool {
	return int(index) < len(p.alive) && p.alive[index]
}

func (p *slotPool) matches(id EntityID) bool {
	idx := id.Index()
	return p.live(idx) && p.generations[idx] == id.Generation()
}

func (p *slotPool) size() int { return len(p.generations) }

// freeSlots is a min-heap of released slot indices.
type freeSlots []uint32

func (h freeSlots) Len() int           { return len(h) }
func (h freeSlots) Less(i, j int) bool { return h[i] < h[j] }
func (h freeSlots) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *freeSlots) Push(x any)        { *h = append(*h, x.(uint32)) }
func (h *freeSlots) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
