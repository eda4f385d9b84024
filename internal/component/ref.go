package component

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
)

// EntityRef is a persisted reference to another entity. It serializes as the
// target's Guid and keeps the live handle for lookups; a stale handle is
// re-resolved through the directory, so references survive transfers.
type EntityRef struct {
	Guid   ecs.Guid
	entity ecs.Entity
}

// RefTo references e. The zero Entity gives an empty reference.
func RefTo(e ecs.Entity) EntityRef {
	if e.IsZero() || e.IsInvalidSentinel() {
		return EntityRef{}
	}
	return EntityRef{Guid: e.Guid(), entity: e}
}

func (r EntityRef) IsSet() bool { return r.Guid != uuid.Nil }

// Entity returns the referenced entity if it is still alive.
func (r *EntityRef) Entity() (ecs.Entity, bool) {
	if !r.IsSet() {
		return ecs.Entity{}, false
	}
	if r.entity.IsValid() {
		return r.entity, true
	}
	if m := r.entity.Manager(); m != nil {
		if e, ok, err := m.FindEntityByGuid(r.Guid); err == nil && ok {
			r.entity = e
			return e, true
		}
	}
	return ecs.Entity{}, false
}

// Resolve re-links the live handle by Guid after loading.
func (r *EntityRef) Resolve(find func(ecs.Guid) (ecs.Entity, bool, error)) error {
	if !r.IsSet() {
		return nil
	}
	e, ok, err := find(r.Guid)
	if err != nil {
		return err
	}
	if ok {
		r.entity = e
	}
	return nil
}

func (r EntityRef) MarshalJSON() ([]byte, error) {
	if !r.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(r.Guid.String())
}

func (r *EntityRef) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*r = EntityRef{}
		return nil
	}
	g, err := uuid.Parse(*s)
	if err != nil {
		return err
	}
	*r = EntityRef{Guid: g}
	return nil
}
