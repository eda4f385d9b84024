package component

import (
	"encoding/json"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
)

// FactionInfo marks a faction entity and holds its sensor contacts.
type FactionInfo struct {
	ecs.Blob
	Name     string
	Contacts *ContactTable
}

func (*FactionInfo) BlobType() ecs.TypeKey { return FactionInfoType }

func NewFactionInfo(name string) *FactionInfo {
	return &FactionInfo{Name: name, Contacts: NewContactTable()}
}

type factionInfoJSON struct {
	Name     string           `json:"name"`
	Contacts []*SensorContact `json:"contacts"`
}

func (f *FactionInfo) MarshalJSON() ([]byte, error) {
	w := factionInfoJSON{Name: f.Name}
	if f.Contacts != nil {
		for _, c := range f.Contacts.All() {
			c.Lock()
			cp := &SensorContact{Actual: c.Actual, Name: c.Name, Info: c.Info, Position: c.Position, Body: c.Body}
			c.Unlock()
			w.Contacts = append(w.Contacts, cp)
		}
	}
	return json.Marshal(w)
}

func (f *FactionInfo) UnmarshalJSON(data []byte) error {
	var w factionInfoJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	f.Name = w.Name
	f.Contacts = NewContactTable()
	for _, c := range w.Contacts {
		f.Contacts.GetOrAdd(c.Actual.Guid, c)
	}
	return nil
}

// ResolveRefs re-links loaded contacts. Contacts whose entity no longer
// exists are frozen as memory.
func (f *FactionInfo) ResolveRefs(find func(ecs.Guid) (ecs.Entity, bool, error)) error {
	for _, c := range f.Contacts.All() {
		c.Lock()
		err := c.Actual.Resolve(find)
		if err == nil {
			if _, ok := c.Actual.Entity(); !ok {
				c.Position.Source = FromMemory
			}
		}
		c.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// FactionOwner ties an entity to the faction that controls it.
type FactionOwner struct {
	ecs.Blob
	Faction EntityRef `json:"faction"`
}

func (*FactionOwner) BlobType() ecs.TypeKey { return FactionOwnerType }

func (o *FactionOwner) ResolveRefs(find func(ecs.Guid) (ecs.Entity, bool, error)) error {
	return o.Faction.Resolve(find)
}

// OwnerOf returns the faction controlling e.
func OwnerOf(e ecs.Entity) (ecs.Entity, bool) {
	o, ok := FactionOwnerType.Get(e)
	if !ok {
		return ecs.Entity{}, false
	}
	return o.Faction.Entity()
}
