package ecs

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, dir *Directory) *Manager {
	t.Helper()
	m, err := NewManager(t.Name(), dir)
	require.NoError(t, err)
	return m
}

func TestRegistry(t *testing.T) {
	assert.ErrorIs(t, RegisterAllTypes(orphanType), ErrRegistrySealed)
	assert.Equal(t, 4, TypeCount())
	assert.Equal(t, TypeIndex(0), tagType.Index())
	assert.Equal(t, TypeIndex(-1), orphanType.Index())

	k, err := LookupType("HP")
	require.NoError(t, err)
	assert.Equal(t, hpType.Index(), k.Index())

	_, err = LookupType("Missing")
	var ute *UnknownTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "Missing", ute.Name)
	assert.ErrorIs(t, err, ErrUnknownDataBlobType)
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager(t, nil)
	tag := &tagBlob{Label: "alpha"}
	e, err := m.CreateEntity(tag, &hpBlob{Value: 10})
	require.NoError(t, err)

	assert.True(t, e.IsValid())
	assert.Equal(t, e, tag.OwningEntity())
	got, ok := tagType.Get(e)
	require.True(t, ok)
	assert.Same(t, tag, got)
	assert.Equal(t, 10, hpType.Must(e).Value)
	assert.False(t, linkType.Has(e))
	assert.Equal(t, 1, m.Len())
}

func TestMaskMatchesColumns(t *testing.T) {
	m := newTestManager(t, nil)
	e, err := m.CreateEntity()
	require.NoError(t, err)

	steps := []func() error{
		func() error { return tagType.Set(e, &tagBlob{}) },
		func() error { return hpType.Set(e, &hpBlob{}) },
		func() error { return tagType.Remove(e) },
		func() error { return tagType.Remove(e) },
		func() error { return linkType.Set(e, &linkBlob{}) },
		func() error { return hpType.Set(e, &hpBlob{Value: 2}) },
		func() error { return linkType.Remove(e) },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		mask := m.Mask(e)
		for _, k := range Types() {
			_, has := m.GetDataBlob(e, k)
			assert.Equal(t, has, mask.Has(k.Index()), "step %d type %s", i, k.Name())
		}
	}
	assert.Equal(t, 1, m.Mask(e).Count())
}

func TestSlotReuse(t *testing.T) {
	m := newTestManager(t, nil)
	var ents []Entity
	for i := 0; i < 4; i++ {
		e, err := m.CreateEntity(&tagBlob{}, &hpBlob{Value: i})
		require.NoError(t, err)
		ents = append(ents, e)
	}
	require.NoError(t, m.DestroyEntity(ents[2]))
	require.NoError(t, m.DestroyEntity(ents[1]))

	reused, err := m.CreateEntity(&linkBlob{})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), reused.ID().Index())
	assert.Equal(t, uint32(1), reused.ID().Generation())
	assert.False(t, ents[1].IsValid())
	assert.True(t, reused.IsValid())

	assert.False(t, tagType.Has(reused))
	assert.False(t, hpType.Has(reused))
	assert.True(t, linkType.Has(reused))
	assert.Equal(t, 1, m.Mask(reused).Count())

	next, err := m.CreateEntity()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), next.ID().Index())
}

func TestDestroyEntity(t *testing.T) {
	m := newTestManager(t, NewDirectory())
	tag := &tagBlob{}
	e, err := m.CreateEntity(tag)
	require.NoError(t, err)

	require.NoError(t, e.Destroy())
	assert.True(t, tag.OwningEntity().IsInvalidSentinel())
	assert.False(t, tag.OwningEntity().IsZero())
	assert.False(t, tagType.Has(e))
	assert.Empty(t, tagType.Entities(m))

	_, ok, err := m.FindEntityByGuid(e.Guid())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, m.DestroyEntity(e), ErrInvalidEntity)
	assert.ErrorIs(t, m.SetDataBlob(e, &hpBlob{}), ErrInvalidEntity)
	assert.ErrorIs(t, m.RemoveDataBlob(e, tagType), ErrInvalidEntity)
}

func TestRemoveDataBlobDetaches(t *testing.T) {
	m := newTestManager(t, nil)
	hp := &hpBlob{}
	e, err := m.CreateEntity(hp)
	require.NoError(t, err)

	require.NoError(t, hpType.Remove(e))
	assert.True(t, hp.OwningEntity().IsZero())
	require.NoError(t, hpType.Remove(e))

	other, err := m.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, hpType.Set(other, hp))
	assert.Equal(t, other, hp.OwningEntity())
}

func TestSetDataBlobRejects(t *testing.T) {
	m := newTestManager(t, nil)
	hp := &hpBlob{}
	a, err := m.CreateEntity(hp)
	require.NoError(t, err)
	b, err := m.CreateEntity()
	require.NoError(t, err)

	assert.ErrorIs(t, m.SetDataBlob(b, hp), ErrDataBlobOwned)
	assert.ErrorIs(t, m.SetDataBlob(b, nil), ErrNilDataBlob)
	assert.ErrorIs(t, m.SetDataBlob(b, &orphanBlob{}), ErrUnregisteredType)
	_, err = m.CreateEntity(hp)
	assert.ErrorIs(t, err, ErrDataBlobOwned)

	replaced := &hpBlob{Value: 5}
	require.NoError(t, m.SetDataBlob(a, replaced))
	assert.True(t, hp.OwningEntity().IsZero())
	assert.Equal(t, 5, hpType.Must(a).Value)
}

func TestEntitiesWithCountsExactly(t *testing.T) {
	m := newTestManager(t, nil)
	const total = 10000
	var withLink []Entity
	for i := 0; i < total; i++ {
		blobs := []DataBlob{&tagBlob{}, &hpBlob{Value: i}}
		if i%3 == 0 {
			blobs = append(blobs, &linkBlob{})
		}
		e, err := m.CreateEntity(blobs...)
		require.NoError(t, err)
		if i%3 == 0 {
			withLink = append(withLink, e)
		}
	}
	destroyed := 0
	for i, e := range withLink {
		if i%10 == 0 {
			require.NoError(t, m.DestroyEntity(e))
			destroyed++
		}
	}

	got := linkType.Entities(m)
	assert.Len(t, got, len(withLink)-destroyed)
	for _, e := range got {
		assert.True(t, e.IsValid())
		assert.True(t, linkType.Has(e))
	}
	assert.Len(t, hpType.All(m), total-destroyed)
	assert.Len(t, m.EntitiesWith(MaskOf(tagType, linkType)), len(withLink)-destroyed)
}

func TestEntitiesWithIsSnapshot(t *testing.T) {
	m := newTestManager(t, nil)
	for i := 0; i < 3; i++ {
		_, err := m.CreateEntity(&tagBlob{})
		require.NoError(t, err)
	}
	snap := tagType.Entities(m)
	require.NoError(t, m.DestroyEntity(snap[0]))
	assert.Len(t, snap, 3)
	assert.Len(t, tagType.Entities(m), 2)

	first, ok := m.FirstEntityWith(tagType)
	require.True(t, ok)
	assert.Equal(t, snap[1], first)
}

func TestFindEntityByGuid(t *testing.T) {
	dir := NewDirectory()
	a := newTestManager(t, dir)
	b := newTestManager(t, dir)

	ea, err := a.CreateEntity(&tagBlob{})
	require.NoError(t, err)
	eb, err := b.CreateEntity(&tagBlob{})
	require.NoError(t, err)

	check := func() {
		for _, e := range []Entity{ea, eb} {
			for _, m := range []*Manager{a, b} {
				got, ok, err := m.FindEntityByGuid(e.Guid())
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, e, got)
				assert.Same(t, e.Manager(), got.Manager())
			}
		}
	}
	check()

	unrelated, err := a.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, a.DestroyEntity(unrelated))
	check()

	_, ok := a.TryGetEntityByGuid(eb.Guid())
	assert.False(t, ok)
	assert.Equal(t, 2, dir.Len())
}

func TestDuplicateGuid(t *testing.T) {
	dir := NewDirectory()
	a := newTestManager(t, dir)
	b := newTestManager(t, dir)
	g := uuid.New()

	_, err := a.CreateEntityWithGuid(g)
	require.NoError(t, err)
	_, err = b.CreateEntityWithGuid(g)
	assert.ErrorIs(t, err, ErrDuplicateGuid)
	assert.Equal(t, 0, b.Len())

	_, err = a.CreateEntityWithGuid(uuid.Nil)
	assert.ErrorIs(t, err, ErrNilGuid)
}

func TestGuidNotFoundError(t *testing.T) {
	dir := NewDirectory()
	m := newTestManager(t, dir)
	e, err := m.CreateEntity()
	require.NoError(t, err)

	delete(m.local, e.Guid())
	_, _, err = m.FindEntityByGuid(e.Guid())
	var gnf *GuidNotFoundError
	require.True(t, errors.As(err, &gnf))
	assert.Equal(t, e.Guid(), gnf.Guid)
}

func TestDetachedManagerIsLocal(t *testing.T) {
	a := newTestManager(t, nil)
	b := newTestManager(t, nil)
	e, err := a.CreateEntity()
	require.NoError(t, err)

	_, ok, err := b.FindEntityByGuid(e.Guid())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = a.Transfer(e, b)
	assert.ErrorIs(t, err, ErrForeignManager)
}

func TestTransfer(t *testing.T) {
	dir := NewDirectory()
	src := newTestManager(t, dir)
	dst := newTestManager(t, dir)

	tag := &tagBlob{Label: "moving"}
	e, err := src.CreateEntity(tag, &hpBlob{Value: 7})
	require.NoError(t, err)

	var seen []MessageType
	_, err = src.Subscribe(e, func(msg Message) { seen = append(seen, msg.Type) })
	require.NoError(t, err)

	moved, err := src.Transfer(e, dst)
	require.NoError(t, err)
	assert.False(t, e.IsValid())
	assert.True(t, moved.IsValid())
	assert.Equal(t, e.Guid(), moved.Guid())
	assert.Same(t, dst, moved.Manager())
	assert.Equal(t, moved, tag.OwningEntity())
	assert.Equal(t, 7, hpType.Must(moved).Value)
	assert.Equal(t, 0, src.Len())

	got, ok, err := src.FindEntityByGuid(e.Guid())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, moved, got)

	require.NoError(t, dst.DestroyEntity(moved))
	assert.Equal(t, []MessageType{EntityRemoved}, seen)
}

func TestDestroyQueue(t *testing.T) {
	m := newTestManager(t, nil)
	a, err := m.CreateEntity()
	require.NoError(t, err)
	b, err := m.CreateEntity()
	require.NoError(t, err)

	_, err = m.Subscribe(a, func(Message) { m.MarkForDestruction(b) })
	require.NoError(t, err)

	m.MarkForDestruction(a)
	m.MarkForDestruction(a)
	assert.Equal(t, 2, m.PendingDestruction())
	assert.True(t, a.IsValid())

	assert.Equal(t, 2, m.FlushDestroyQueue())
	assert.False(t, a.IsValid())
	assert.False(t, b.IsValid())
	assert.Equal(t, 0, m.PendingDestruction())
	assert.Equal(t, 0, m.Len())
}

func TestEach(t *testing.T) {
	m := newTestManager(t, nil)
	for i := 0; i < 6; i++ {
		blobs := []DataBlob{&hpBlob{Value: i}}
		if i%2 == 0 {
			blobs = append(blobs, &tagBlob{})
		}
		if i%3 == 0 {
			blobs = append(blobs, &linkBlob{})
		}
		_, err := m.CreateEntity(blobs...)
		require.NoError(t, err)
	}

	var one, two, three []int
	Each(m, hpType, func(_ Entity, hp *hpBlob) { one = append(one, hp.Value) })
	Each2(m, hpType, tagType, func(_ Entity, hp *hpBlob, _ *tagBlob) { two = append(two, hp.Value) })
	Each3(m, hpType, tagType, linkType, func(_ Entity, hp *hpBlob, _ *tagBlob, _ *linkBlob) {
		three = append(three, hp.Value)
	})
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, one)
	assert.Equal(t, []int{0, 2, 4}, two)
	assert.Equal(t, []int{0}, three)
}

func TestEachSkipsDestroyedDuringIteration(t *testing.T) {
	m := newTestManager(t, nil)
	var ents []Entity
	for i := 0; i < 4; i++ {
		e, err := m.CreateEntity(&hpBlob{Value: i})
		require.NoError(t, err)
		ents = append(ents, e)
	}
	var visited []int
	Each(m, hpType, func(e Entity, hp *hpBlob) {
		visited = append(visited, hp.Value)
		if hp.Value == 0 {
			_, err := m.CreateEntity(&hpBlob{Value: 99})
			require.NoError(t, err)
			require.NoError(t, m.DestroyEntity(ents[2]))
		}
	})
	assert.Equal(t, []int{0, 1, 3}, visited)
}
