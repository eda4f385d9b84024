package ecs

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeShape(t *testing.T) {
	m := newTestManager(t, nil)
	e, err := m.CreateEntity(&hpBlob{Value: 3}, &tagBlob{Label: "x"})
	require.NoError(t, err)

	raw, err := m.MarshalEntity(e)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.JSONEq(t, `"`+e.Guid().String()+`"`, string(fields["Guid"]))
	assert.JSONEq(t, `{"label":"x"}`, string(fields["Tag"]))
	assert.JSONEq(t, `{"value":3}`, string(fields["HP"]))
	assert.Regexp(t, `^\{"Guid":`, string(raw))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	src := newTestManager(t, nil)
	target, err := src.CreateEntity(&tagBlob{Label: "target"})
	require.NoError(t, err)
	_, err = src.CreateEntity(&linkBlob{TargetGuid: target.Guid()}, &hpBlob{Value: 4})
	require.NoError(t, err)

	payload, err := src.MarshalEntities()
	require.NoError(t, err)

	dst := newTestManager(t, nil)
	loaded, err := dst.UnmarshalEntities(payload)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, target.Guid(), loaded[0].Guid())
	assert.Equal(t, "target", tagType.Must(loaded[0]).Label)

	link := linkType.Must(loaded[1])
	assert.Equal(t, loaded[0], link.target)
	assert.Equal(t, 4, hpType.Must(loaded[1]).Value)

	again, err := dst.MarshalEntities()
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(again))
}

func TestEnvelopeMergesExistingGuid(t *testing.T) {
	m := newTestManager(t, nil)
	keep := &tagBlob{Label: "kept"}
	e, err := m.CreateEntity(keep, &hpBlob{Value: 1})
	require.NoError(t, err)

	payload := `[{"Guid":"` + e.Guid().String() + `","HP":{"value":9}}]`
	loaded, err := m.UnmarshalEntities([]byte(payload))
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, e, loaded[0])
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 9, hpType.Must(e).Value)
	assert.Same(t, keep, tagType.Must(e))
}

func TestEnvelopeTransfersFromOtherManager(t *testing.T) {
	dir := NewDirectory()
	a := newTestManager(t, dir)
	b := newTestManager(t, dir)
	e, err := a.CreateEntity(&tagBlob{Label: "elsewhere"})
	require.NoError(t, err)

	payload := `[{"Guid":"` + e.Guid().String() + `","HP":{"value":2}}]`
	loaded, err := b.UnmarshalEntities([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 0, a.Len())
	assert.Same(t, b, loaded[0].Manager())
	assert.Equal(t, "elsewhere", tagType.Must(loaded[0]).Label)
	assert.Equal(t, 2, hpType.Must(loaded[0]).Value)
}

func TestEnvelopeUnknownType(t *testing.T) {
	m := newTestManager(t, nil)
	g := uuid.New()
	payload := `[{"Guid":"` + g.String() + `","HP":{"value":1}},{"Guid":"` + uuid.NewString() + `","Retired":{}}]`

	_, err := m.UnmarshalEntities([]byte(payload))
	var ute *UnknownTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "Retired", ute.Name)
	assert.NotEqual(t, uuid.Nil, ute.Guid)
	assert.ErrorIs(t, err, ErrUnknownDataBlobType)
	assert.Equal(t, 0, m.Len())
}

func TestEnvelopeBadGuid(t *testing.T) {
	m := newTestManager(t, nil)
	_, err := m.UnmarshalEntities([]byte(`[{"Guid":"nope"}]`))
	assert.Error(t, err)
	_, err = m.UnmarshalEntities([]byte(`[{"HP":{}}]`))
	assert.Error(t, err)
}

func TestResolveRefsAcrossManagers(t *testing.T) {
	srcDir := NewDirectory()
	srcA := newTestManager(t, srcDir)
	srcB := newTestManager(t, srcDir)
	target, err := srcB.CreateEntity(&tagBlob{Label: "far"})
	require.NoError(t, err)
	_, err = srcA.CreateEntity(&linkBlob{TargetGuid: target.Guid()})
	require.NoError(t, err)
	payloadA, err := srcA.MarshalEntities()
	require.NoError(t, err)
	payloadB, err := srcB.MarshalEntities()
	require.NoError(t, err)

	dir := NewDirectory()
	a := newTestManager(t, dir)
	b := newTestManager(t, dir)
	loaded, err := a.UnmarshalEntities(payloadA)
	require.NoError(t, err)
	link := linkType.Must(loaded[0])
	assert.True(t, link.target.IsZero())

	far, err := b.UnmarshalEntities(payloadB)
	require.NoError(t, err)
	require.NoError(t, a.ResolveRefs())
	assert.Equal(t, far[0], link.target)
}

func TestUnmarshalValidatesBlobs(t *testing.T) {
	m := newTestManager(t, nil)
	_, err := m.UnmarshalEntities([]byte(`[{"Guid":"` + uuid.NewString() + `","Check":{"bad":false}}]`))
	require.NoError(t, err)

	g := uuid.New()
	_, err = m.UnmarshalEntities([]byte(`[{"Guid":"` + g.String() + `","Check":{"bad":true}}]`))
	require.ErrorIs(t, err, errBadCheck)
	assert.Contains(t, err.Error(), g.String())
	assert.ErrorIs(t, m.ResolveRefs(), errBadCheck)
}
