package ecs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

const guidField = "Guid"

// RefResolver is implemented by datablobs that persist references to other
// entities by Guid. ResolveRefs runs after every entity of a payload has been
// installed, so references within the payload always resolve.
type RefResolver interface {
	ResolveRefs(find func(Guid) (Entity, bool, error)) error
}

// Validator is implemented by datablobs whose invariants span entities and
// so can only be checked once references are resolved.
type Validator interface {
	Validate() error
}

// MarshalEntities encodes every live entity as one JSON object:
// {"Guid": "...", "<TypeName>": {...}, ...}. Entities appear in slot order and
// blobs in type index order.
func (m *Manager) MarshalEntities() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	first := true
	for slot, e := range m.entities {
		if !m.pool.live(uint32(slot)) {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := m.encodeEntity(&buf, e); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalEntity encodes a single entity in the same envelope.
func (m *Manager) MarshalEntity(e Entity) ([]byte, error) {
	if err := m.check(e, "marshal"); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := m.encodeEntity(&buf, e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Manager) encodeEntity(buf *bytes.Buffer, e Entity) error {
	guid, _ := json.Marshal(e.guid.String())
	buf.WriteString(`{"` + guidField + `":`)
	buf.Write(guid)
	for _, b := range m.DataBlobs(e) {
		raw, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal %s of %s: %w", b.BlobType().Name(), e.guid, err)
		}
		name, _ := json.Marshal(b.BlobType().Name())
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return nil
}

type decodedEntity struct {
	guid  Guid
	blobs []DataBlob
}

// UnmarshalEntities installs the entities of a MarshalEntities payload. An
// entity whose Guid already exists is merged: blobs in the payload replace
// blobs of the same type and other blobs are kept. An entity held by another
// manager of the directory is transferred here first. Unknown type names fail
// the whole load before anything is installed.
func (m *Manager) UnmarshalEntities(data []byte) ([]Entity, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}

	decoded := make([]decodedEntity, 0, len(raw))
	for i, fields := range raw {
		d, err := decodeEntity(fields)
		if err != nil {
			return nil, fmt.Errorf("decode entity %d: %w", i, err)
		}
		decoded = append(decoded, d)
	}

	out := make([]Entity, 0, len(decoded))
	for _, d := range decoded {
		e, err := m.place(d)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	for _, d := range decoded {
		for _, b := range d.blobs {
			r, ok := b.(RefResolver)
			if !ok {
				continue
			}
			if err := r.ResolveRefs(m.FindEntityByGuid); err != nil {
				return nil, fmt.Errorf("resolve %s of %s: %w", b.BlobType().Name(), d.guid, err)
			}
		}
	}
	for _, d := range decoded {
		if err := validateRefs(d.guid, d.blobs); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func validateRefs(guid Guid, blobs []DataBlob) error {
	for _, b := range blobs {
		v, ok := b.(Validator)
		if !ok {
			continue
		}
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate %s of %s: %w", b.BlobType().Name(), guid, err)
		}
	}
	return nil
}

func decodeEntity(fields map[string]json.RawMessage) (decodedEntity, error) {
	var d decodedEntity
	rawGuid, ok := fields[guidField]
	if !ok {
		return d, fmt.Errorf("missing %s", guidField)
	}
	var s string
	if err := json.Unmarshal(rawGuid, &s); err != nil {
		return d, fmt.Errorf("guid: %w", err)
	}
	g, err := uuid.Parse(s)
	if err != nil {
		return d, fmt.Errorf("guid %q: %w", s, err)
	}
	d.guid = g

	keys := make([]TypeKey, 0, len(fields)-1)
	for name := range fields {
		if name == guidField {
			continue
		}
		k, err := LookupType(name)
		if err != nil {
			return d, &UnknownTypeError{Name: name, Guid: g}
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Index() < keys[j].Index() })

	d.blobs = make([]DataBlob, 0, len(keys))
	for _, k := range keys {
		b := k.New()
		if err := json.Unmarshal(fields[k.Name()], b); err != nil {
			return d, fmt.Errorf("%s of %s: %w", k.Name(), g, err)
		}
		d.blobs = append(d.blobs, b)
	}
	return d, nil
}

func (m *Manager) place(d decodedEntity) (Entity, error) {
	e, ok, err := m.FindEntityByGuid(d.guid)
	if err != nil {
		return Entity{}, err
	}
	if !ok {
		return m.CreateEntityWithGuid(d.guid, d.blobs...)
	}
	if e.mgr != m {
		if e, err = e.mgr.Transfer(e, m); err != nil {
			return Entity{}, err
		}
	}
	for _, b := range d.blobs {
		if err := m.SetDataBlob(e, b); err != nil {
			return Entity{}, err
		}
	}
	return e, nil
}

// ResolveRefs re-runs ResolveRefs on every blob of m, then validates them.
// Loading several managers in turn leaves references into later payloads
// unresolved; a second pass over each manager once all are loaded links them.
func (m *Manager) ResolveRefs() error {
	entities := m.Entities()
	for _, e := range entities {
		for _, b := range m.DataBlobs(e) {
			r, ok := b.(RefResolver)
			if !ok {
				continue
			}
			if err := r.ResolveRefs(m.FindEntityByGuid); err != nil {
				return fmt.Errorf("resolve %s of %s: %w", b.BlobType().Name(), e.guid, err)
			}
		}
	}
	for _, e := range entities {
		if err := validateRefs(e.guid, m.DataBlobs(e)); err != nil {
			return err
		}
	}
	return nil
}
