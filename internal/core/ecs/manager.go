package ecs

import (
	"fmt"

	"github.com/google/uuid"
)

// Manager stores the entities of one star system (or the global entities of
// a game). Datablobs live in one column per registered type, indexed by slot.
//
// A manager is mutated by one goroutine at a time. Only the Guid directory is
// shared, and it carries its own lock.
type Manager struct {
	id       uuid.UUID
	name     string
	dir      *Directory
	detached bool
	feed     *Feed

	pool     slotPool
	entities []Entity
	masks    []Mask
	columns  [][]DataBlob
	local    map[Guid]Entity

	destroyQueue []Entity
}

// NewManager creates a manager registered with dir. A nil dir gives a
// detached manager whose Guid lookups answer locally only.
func NewManager(name string, dir *Directory) (*Manager, error) {
	if !RegistrySealed() {
		return nil, fmt.Errorf("new manager %q: %w", name, ErrRegistryNotSealed)
	}
	m := &Manager{
		id:           uuid.New(),
		name:         name,
		dir:          dir,
		local:        make(map[Guid]Entity, 256),
		columns:      make([][]DataBlob, TypeCount()),
		destroyQueue: make([]Entity, 0, 64),
	}
	if dir == nil {
		m.dir = NewDirectory()
		m.detached = true
	}
	m.feed = m.dir.feed
	return m, nil
}

func (m *Manager) ID() uuid.UUID          { return m.id }
func (m *Manager) Name() string           { return m.name }
func (m *Manager) Directory() *Directory  { return m.dir }
func (m *Manager) Feed() *Feed            { return m.feed }
func (m *Manager) Detached() bool         { return m.detached }
func (m *Manager) String() string         { return fmt.Sprintf("manager(%s)", m.name) }
func (m *Manager) owns(e Entity) bool     { return e.mgr == m }
func (m *Manager) slotOf(e Entity) uint32 { return e.id.Index() }

// Len is the number of live entities.
func (m *Manager) Len() int {
	n := 0
	for i := range m.entities {
		if m.pool.live(uint32(i)) {
			n++
		}
	}
	return n
}

// IsValid reports whether e names a live slot of m with matching generation
// and Guid.
func (m *Manager) IsValid(e Entity) bool {
	if !m.owns(e) || !m.pool.matches(e.id) {
		return false
	}
	return m.entities[m.slotOf(e)] == e
}

func (m *Manager) check(e Entity, op string) error {
	if !m.IsValid(e) {
		return fmt.Errorf("%s %s: %w", op, e, ErrInvalidEntity)
	}
	return nil
}

// CreateEntity allocates the lowest free slot, installs blobs and registers a
// fresh Guid.
func (m *Manager) CreateEntity(blobs ...DataBlob) (Entity, error) {
	return m.CreateEntityWithGuid(uuid.New(), blobs...)
}

// CreateEntityWithGuid is CreateEntity with a caller-chosen Guid, used when
// loading saves and transferring entities.
func (m *Manager) CreateEntityWithGuid(guid Guid, blobs ...DataBlob) (Entity, error) {
	if guid == uuid.Nil {
		return Entity{}, fmt.Errorf("create entity: %w", ErrNilGuid)
	}
	idxs, err := validateBlobs(blobs)
	if err != nil {
		return Entity{}, fmt.Errorf("create entity %s: %w", guid, err)
	}

	slot, gen := m.pool.acquire()
	e := Entity{id: NewEntityID(slot, gen), guid: guid, mgr: m}
	if err := m.dir.add(e); err != nil {
		m.pool.release(slot)
		return Entity{}, fmt.Errorf("create entity: %w", err)
	}
	m.install(e, blobs, idxs)
	return e, nil
}

func validateBlobs(blobs []DataBlob) ([]TypeIndex, error) {
	idxs := make([]TypeIndex, len(blobs))
	for i, b := range blobs {
		if b == nil {
			return nil, ErrNilDataBlob
		}
		idx, err := registered(b.BlobType())
		if err != nil {
			return nil, err
		}
		if b.OwningEntity().IsValid() {
			return nil, fmt.Errorf("%s owned by %s: %w", b.BlobType().Name(), b.OwningEntity(), ErrDataBlobOwned)
		}
		idxs[i] = idx
	}
	return idxs, nil
}

// install places e in its slot and attaches blobs. Later blobs of the same
// type replace earlier ones.
func (m *Manager) install(e Entity, blobs []DataBlob, idxs []TypeIndex) {
	slot := int(m.slotOf(e))
	m.grow(slot + 1)
	m.entities[slot] = e
	if m.masks[slot] == nil {
		m.masks[slot] = NewMask()
	} else {
		m.masks[slot].Reset()
	}
	for i, b := range blobs {
		idx := idxs[i]
		if prev := m.columns[idx][slot]; prev != nil && prev != b {
			prev.bind(Entity{})
		}
		m.columns[idx][slot] = b
		m.masks[slot].Set(idx)
		b.bind(e)
	}
}

func (m *Manager) grow(n int) {
	for len(m.entities) < n {
		m.entities = append(m.entities, Entity{})
		m.masks = append(m.masks, nil)
		for i := range m.columns {
			m.columns[i] = append(m.columns[i], nil)
		}
	}
}

// DestroyEntity detaches every blob (owners become InvalidEntity), drops the
// Guid registration, frees the slot and then notifies subscribers.
func (m *Manager) DestroyEntity(e Entity) error {
	if err := m.check(e, "destroy"); err != nil {
		return err
	}
	slot := m.slotOf(e)
	for _, idx := range m.masks[slot].Indices() {
		if b := m.columns[idx][slot]; b != nil {
			b.bind(InvalidEntity)
			m.columns[idx][slot] = nil
		}
	}
	m.masks[slot].Reset()
	m.dir.remove(e)
	m.entities[slot] = Entity{}
	m.pool.release(slot)

	m.feed.publish(Message{Entity: e, Type: EntityRemoved})
	m.feed.drop(e.guid)
	return nil
}

// MarkForDestruction queues an entity for the cleanup phase.
func (m *Manager) MarkForDestruction(e Entity) {
	m.destroyQueue = append(m.destroyQueue, e)
}

// FlushDestroyQueue destroys every queued entity that is still valid,
// including ones queued by removal handlers during the flush. It returns the
// number destroyed.
func (m *Manager) FlushDestroyQueue() int {
	n := 0
	for i := 0; i < len(m.destroyQueue); i++ {
		e := m.destroyQueue[i]
		if m.DestroyEntity(e) == nil {
			n++
		}
	}
	clear(m.destroyQueue)
	m.destroyQueue = m.destroyQueue[:0]
	return n
}

func (m *Manager) PendingDestruction() int { return len(m.destroyQueue) }

// SetDataBlob attaches b to e, replacing the blob of the same type.
func (m *Manager) SetDataBlob(e Entity, b DataBlob) error {
	if err := m.check(e, "set datablob on"); err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("set datablob on %s: %w", e, ErrNilDataBlob)
	}
	idx, err := registered(b.BlobType())
	if err != nil {
		return fmt.Errorf("set datablob on %s: %w", e, err)
	}
	if owner := b.OwningEntity(); owner != e && owner.IsValid() {
		return fmt.Errorf("set %s on %s: owned by %s: %w", b.BlobType().Name(), e, owner, ErrDataBlobOwned)
	}

	slot := m.slotOf(e)
	if prev := m.columns[idx][slot]; prev != nil && prev != b {
		prev.bind(Entity{})
	}
	m.columns[idx][slot] = b
	m.masks[slot].Set(idx)
	b.bind(e)

	m.feed.publish(Message{Entity: e, Type: DataBlobSet, DataBlob: b})
	return nil
}

// RemoveDataBlob detaches the blob of type key from e. The blob's owner
// becomes the zero Entity. Removing an absent blob is a no-op.
func (m *Manager) RemoveDataBlob(e Entity, key TypeKey) error {
	if err := m.check(e, "remove datablob from"); err != nil {
		return err
	}
	idx, err := registered(key)
	if err != nil {
		return fmt.Errorf("remove datablob from %s: %w", e, err)
	}
	slot := m.slotOf(e)
	b := m.columns[idx][slot]
	if b == nil {
		return nil
	}
	m.columns[idx][slot] = nil
	m.masks[slot].Clear(idx)
	b.bind(Entity{})

	m.feed.publish(Message{Entity: e, Type: DataBlobRemoved, DataBlob: b})
	return nil
}

// GetDataBlob returns the blob of type key attached to e.
func (m *Manager) GetDataBlob(e Entity, key TypeKey) (DataBlob, bool) {
	if !m.IsValid(e) {
		return nil, false
	}
	idx := key.Index()
	if idx < 0 || int(idx) >= len(m.columns) {
		return nil, false
	}
	b := m.columns[idx][m.slotOf(e)]
	return b, b != nil
}

// DataBlobs lists the blobs attached to e in type index order.
func (m *Manager) DataBlobs(e Entity) []DataBlob {
	if !m.IsValid(e) {
		return nil
	}
	slot := m.slotOf(e)
	idxs := m.masks[slot].Indices()
	out := make([]DataBlob, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, m.columns[idx][slot])
	}
	return out
}

// Mask returns a copy of e's type mask.
func (m *Manager) Mask(e Entity) Mask {
	if !m.IsValid(e) {
		return NewMask()
	}
	return m.masks[m.slotOf(e)].Clone()
}

// EntitiesWith returns a fresh snapshot of the live entities whose mask
// contains want, in slot order.
func (m *Manager) EntitiesWith(want Mask) []Entity {
	out := make([]Entity, 0, 16)
	for slot, e := range m.entities {
		if m.pool.live(uint32(slot)) && m.masks[slot].Contains(want) {
			out = append(out, e)
		}
	}
	return out
}

// Entities returns every live entity.
func (m *Manager) Entities() []Entity {
	return m.EntitiesWith(nil)
}

// FirstEntityWith returns the lowest-slot entity holding key.
func (m *Manager) FirstEntityWith(key TypeKey) (Entity, bool) {
	idx := key.Index()
	if idx < 0 {
		return Entity{}, false
	}
	for slot, e := range m.entities {
		if m.pool.live(uint32(slot)) && m.masks[slot].Has(idx) {
			return e, true
		}
	}
	return Entity{}, false
}

// FindEntityByGuid looks g up across every manager of the directory. A
// detached manager answers from its own entities. The error is non-nil only
// when the directory and the holding manager disagree.
func (m *Manager) FindEntityByGuid(g Guid) (Entity, bool, error) {
	if m.detached {
		e, ok := m.dir.findLocal(m, g)
		return e, ok, nil
	}
	return m.dir.find(g)
}

// TryGetEntityByGuid looks g up in this manager only.
func (m *Manager) TryGetEntityByGuid(g Guid) (Entity, bool) {
	return m.dir.findLocal(m, g)
}

// Subscribe registers h for changes to e. The subscription follows e across
// transfers and ends when e is destroyed.
func (m *Manager) Subscribe(e Entity, h Handler) (*Subscription, error) {
	if err := m.check(e, "subscribe to"); err != nil {
		return nil, err
	}
	return m.feed.subscribe(e.guid, h), nil
}

// Transfer moves e, with its blobs, Guid and subscriptions, into dst and
// returns the new handle. Both managers must share a directory and neither
// may be ticking.
func (m *Manager) Transfer(e Entity, dst *Manager) (Entity, error) {
	if err := m.check(e, "transfer"); err != nil {
		return Entity{}, err
	}
	if dst == m {
		return e, nil
	}
	if m.detached || dst.detached || dst.dir != m.dir {
		return Entity{}, fmt.Errorf("transfer %s to %s: %w", e, dst, ErrForeignManager)
	}

	slot := m.slotOf(e)
	idxs := m.masks[slot].Indices()
	blobs := make([]DataBlob, len(idxs))
	for i, idx := range idxs {
		blobs[i] = m.columns[idx][slot]
		m.columns[idx][slot] = nil
	}
	m.masks[slot].Reset()
	m.entities[slot] = Entity{}
	m.pool.release(slot)

	dslot, gen := dst.pool.acquire()
	ne := Entity{id: NewEntityID(dslot, gen), guid: e.guid, mgr: dst}
	dst.install(ne, blobs, idxs)
	m.dir.move(e, ne)
	return ne, nil
}
