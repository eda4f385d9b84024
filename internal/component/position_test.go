package component

import (
	"encoding/json"
	"math"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

func TestMain(m *testing.M) {
	if err := RegisterAll(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newManager(t *testing.T) *ecs.Manager {
	t.Helper()
	m, err := ecs.NewManager(t.Name(), ecs.NewDirectory())
	require.NoError(t, err)
	return m
}

func body(t *testing.T, m *ecs.Manager, abs orbital.Vector3, mass float64) (ecs.Entity, *Position) {
	t.Helper()
	p := NewPosition(abs)
	e, err := m.CreateEntity(p, &MassVolume{Mass: mass})
	require.NoError(t, err)
	return e, p
}

func TestChildFollowsParent(t *testing.T) {
	m := newManager(t)
	a, pa := body(t, m, orbital.Zero, 1e20)
	_, pb := body(t, m, orbital.V(10, 0, 0), 1e3)

	require.NoError(t, pb.SetParent(a))
	parent, ok := pb.Parent()
	require.True(t, ok)
	assert.Equal(t, a, parent)
	assert.Equal(t, orbital.V(10, 0, 0), pb.RelativePosition())

	pa.SetAbsolutePosition(orbital.V(5, 5, 0))
	assert.Equal(t, orbital.V(15, 5, 0), pb.AbsolutePosition())
	assert.Equal(t, pa.AbsolutePosition().Add(pb.RelativePosition()), pb.AbsolutePosition())
	assert.InDelta(t, orbital.G*(1e20+1e3), pb.SGP, 1)
	assert.True(t, math.IsInf(pa.SGP, 1))
}

func TestSetParentKeepsAbsolute(t *testing.T) {
	m := newManager(t)
	sun, _ := body(t, m, orbital.V(100, 0, 0), 1e30)
	planet, pp := body(t, m, orbital.V(200, 50, 0), 1e24)
	_, pm := body(t, m, orbital.V(210, 50, 0), 1e20)

	require.NoError(t, pp.SetParent(sun))
	require.NoError(t, pm.SetParent(planet))
	assert.Equal(t, orbital.V(210, 50, 0), pm.AbsolutePosition())
	assert.Equal(t, orbital.V(10, 0, 0), pm.RelativePosition())

	require.NoError(t, pm.SetParent(sun))
	assert.Equal(t, orbital.V(210, 50, 0), pm.AbsolutePosition())
	assert.Equal(t, orbital.V(110, 50, 0), pm.RelativePosition())

	require.NoError(t, pm.SetParent(ecs.Entity{}))
	_, ok := pm.Parent()
	assert.False(t, ok)
	assert.Equal(t, orbital.V(210, 50, 0), pm.RelativePosition())
	assert.True(t, math.IsInf(pm.SGP, 1))
}

func TestSetParentRejectsCycles(t *testing.T) {
	m := newManager(t)
	root, _ := body(t, m, orbital.Zero, 1)
	mid, pmid := body(t, m, orbital.V(1, 0, 0), 1)
	leaf, pleaf := body(t, m, orbital.V(2, 0, 0), 1)
	require.NoError(t, pmid.SetParent(root))
	require.NoError(t, pleaf.SetParent(mid))

	err := pmid.SetParent(mid)
	assert.ErrorIs(t, err, ErrParentCycle)
	parent, _ := pmid.Parent()
	assert.Equal(t, root, parent)
	assert.Equal(t, orbital.V(1, 0, 0), pmid.RelativePosition())

	proot, _ := PositionType.Get(root)
	err = proot.SetParent(leaf)
	assert.ErrorIs(t, err, ErrParentCycle)
	_, ok := proot.Parent()
	assert.False(t, ok)
	assert.Equal(t, orbital.Zero, proot.RelativePosition())
	assert.Equal(t, orbital.V(2, 0, 0), pleaf.AbsolutePosition())
}

func TestSetParentNeedsPosition(t *testing.T) {
	m := newManager(t)
	bare, err := m.CreateEntity(&MassVolume{Mass: 1})
	require.NoError(t, err)
	_, p := body(t, m, orbital.V(3, 0, 0), 1)

	assert.ErrorIs(t, p.SetParent(bare), ErrParentHasNoPosition)
	_, ok := p.Parent()
	assert.False(t, ok)
}

func TestDeadParentMakesRoot(t *testing.T) {
	m := newManager(t)
	a, _ := body(t, m, orbital.V(5, 0, 0), 1)
	_, pb := body(t, m, orbital.V(6, 0, 0), 1)
	require.NoError(t, pb.SetParent(a))
	require.NoError(t, m.DestroyEntity(a))

	assert.Equal(t, orbital.V(1, 0, 0), pb.AbsolutePosition())
}

func TestParentSurvivesTransfer(t *testing.T) {
	dir := ecs.NewDirectory()
	sys1, err := ecs.NewManager("a", dir)
	require.NoError(t, err)
	sys2, err := ecs.NewManager("b", dir)
	require.NoError(t, err)

	star, _ := body(t, sys1, orbital.V(1, 1, 1), 1)
	_, pc := body(t, sys2, orbital.V(2, 2, 2), 1)
	require.NoError(t, pc.SetParent(star))

	moved, err := sys1.Transfer(star, sys2)
	require.NoError(t, err)
	parent, ok := pc.Parent()
	require.True(t, ok)
	assert.Equal(t, moved, parent)
	assert.Equal(t, orbital.V(2, 2, 2), pc.AbsolutePosition())
}

func TestPositionJSON(t *testing.T) {
	m := newManager(t)
	root, proot := body(t, m, orbital.V(1, 2, 3), 1e10)
	child, pc := body(t, m, orbital.V(4, 2, 3), 1)
	require.NoError(t, pc.SetParent(root))
	pc.MoveType = MoveOrbit

	payload, err := m.MarshalEntities()
	require.NoError(t, err)

	other := newManager(t)
	loaded, err := other.UnmarshalEntities(payload)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	lroot := PositionType.Must(loaded[0])
	lchild := PositionType.Must(loaded[1])
	assert.True(t, math.IsInf(lroot.SGP, 1))
	assert.Equal(t, proot.AbsolutePosition(), lroot.AbsolutePosition())
	assert.Equal(t, pc.AbsolutePosition(), lchild.AbsolutePosition())
	assert.Equal(t, MoveOrbit, lchild.MoveType)
	assert.Equal(t, pc.SGP, lchild.SGP)
	parent, ok := lchild.Parent()
	require.True(t, ok)
	assert.Equal(t, loaded[0], parent)
	assert.Equal(t, child.Guid(), loaded[1].Guid())

	raw, err := json.Marshal(proot)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sgp")
}

func TestLoadRejectsParentCycle(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	cases := map[string]string{
		"self":     `[{"Guid":"` + a.String() + `","Position":{"parent":"` + a.String() + `"}}]`,
		"two-node": `[{"Guid":"` + a.String() + `","Position":{"parent":"` + b.String() + `"}},{"Guid":"` + b.String() + `","Position":{"parent":"` + a.String() + `"}}]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			m := newManager(t)
			_, err := m.UnmarshalEntities([]byte(payload))
			require.ErrorIs(t, err, ErrParentCycle)
			assert.Contains(t, err.Error(), a.String())
		})
	}
}

func TestResolveRefsRejectsCycleAcrossPayloads(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	dir := ecs.NewDirectory()
	first, err := ecs.NewManager("first", dir)
	require.NoError(t, err)
	second, err := ecs.NewManager("second", dir)
	require.NoError(t, err)

	_, err = first.UnmarshalEntities([]byte(`[{"Guid":"` + a.String() + `","Position":{"parent":"` + b.String() + `"}}]`))
	require.NoError(t, err)
	// a's parent is still unresolved, so b's chain ends at a.
	_, err = second.UnmarshalEntities([]byte(`[{"Guid":"` + b.String() + `","Position":{"parent":"` + a.String() + `"}}]`))
	require.NoError(t, err)

	err = first.ResolveRefs()
	require.ErrorIs(t, err, ErrParentCycle)
	assert.Contains(t, err.Error(), a.String())
}
