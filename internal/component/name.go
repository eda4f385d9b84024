package component

import "github.com/medleye27/Pulsar4x/internal/core/ecs"

// Name holds the default name plus the names individual factions gave the
// entity, keyed by faction Guid string.
type Name struct {
	ecs.Blob
	Default   string            `json:"default"`
	ByFaction map[string]string `json:"byFaction,omitempty"`
}

func (*Name) BlobType() ecs.TypeKey { return NameType }

func NewName(name string) *Name { return &Name{Default: name} }

// For returns the name faction uses for the entity.
func (n *Name) For(faction ecs.Entity) string {
	if s, ok := n.ByFaction[faction.Guid().String()]; ok {
		return s
	}
	return n.Default
}

func (n *Name) SetFor(faction ecs.Entity, name string) {
	if n.ByFaction == nil {
		n.ByFaction = make(map[string]string)
	}
	n.ByFaction[faction.Guid().String()] = name
}

// NameOf resolves e's name as seen by faction; unnamed entities are
// "Unnamed".
func NameOf(e, faction ecs.Entity) string {
	if n, ok := NameType.Get(e); ok {
		return n.For(faction)
	}
	return "Unnamed"
}
