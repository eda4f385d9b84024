package ecs

import (
	"fmt"
	"sync"
)

// TypeIndex is the dense position of a datablob type in every manager's
// column table and entity mask.
type TypeIndex int

type descriptor struct {
	name  string
	index TypeIndex
	blank func() DataBlob
}

// TypeKey is the untyped face of a Type[T], used wherever datablob types of
// different Go types are handled together (registration, masks, loading).
type TypeKey interface {
	Name() string
	Index() TypeIndex
	New() DataBlob
	descriptor() *descriptor
}

// Type is the typed handle for one datablob type. Declare it once at package
// level with NewType and hand it to RegisterAllTypes at startup.
type Type[T DataBlob] struct {
	d *descriptor
}

// NewType declares a datablob type. name is the persisted identifier and must
// be unique; blank returns an empty instance used when loading saves.
func NewType[T DataBlob](name string, blank func() T) Type[T] {
	return Type[T]{d: &descriptor{
		name:  name,
		index: -1,
		blank: func() DataBlob { return blank() },
	}}
}

func (t Type[T]) Name() string            { return t.d.name }
func (t Type[T]) Index() TypeIndex        { return t.d.index }
func (t Type[T]) New() DataBlob           { return t.d.blank() }
func (t Type[T]) descriptor() *descriptor { return t.d }
func (t Type[T]) String() string          { return t.d.name }

// untypedKey wraps a descriptor recovered by name or index.
type untypedKey struct{ d *descriptor }

func (k untypedKey) Name() string            { return k.d.name }
func (k untypedKey) Index() TypeIndex        { return k.d.index }
func (k untypedKey) New() DataBlob           { return k.d.blank() }
func (k untypedKey) descriptor() *descriptor { return k.d }

// The table below is written once by RegisterAllTypes before any manager
// exists and is read-only afterwards.
var (
	registryMu sync.RWMutex
	sealed     bool
	byIndex    []*descriptor
	byName     map[string]*descriptor
)

// RegisterAllTypes assigns every datablob type its dense index, in the order
// given. It must run exactly once, before the first NewManager call.
func RegisterAllTypes(keys ...TypeKey) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if sealed {
		return ErrRegistrySealed
	}

	names := make(map[string]*descriptor, len(keys))
	list := make([]*descriptor, 0, len(keys))
	for i, k := range keys {
		if k == nil || k.descriptor() == nil {
			return fmt.Errorf("register datablob types: nil key at position %d", i)
		}
		d := k.descriptor()
		if d.name == "" {
			return fmt.Errorf("register datablob types: empty name at position %d", i)
		}
		if _, dup := names[d.name]; dup {
			return fmt.Errorf("register datablob types: duplicate name %q", d.name)
		}
		names[d.name] = d
		list = append(list, d)
	}
	for i, d := range list {
		d.index = TypeIndex(i)
	}
	byIndex = list
	byName = names
	sealed = true
	return nil
}

// RegistrySealed reports whether RegisterAllTypes has run.
func RegistrySealed() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return sealed
}

// TypeCount is the number of registered datablob types.
func TypeCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(byIndex)
}

// LookupType resolves a persisted type name.
func LookupType(name string) (TypeKey, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := byName[name]
	if !ok {
		return nil, &UnknownTypeError{Name: name}
	}
	return untypedKey{d: d}, nil
}

// Types lists every registered key in index order.
func Types() []TypeKey {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]TypeKey, len(byIndex))
	for i, d := range byIndex {
		out[i] = untypedKey{d: d}
	}
	return out
}

func registered(k TypeKey) (TypeIndex, error) {
	if k == nil || k.descriptor() == nil {
		return -1, ErrUnregisteredType
	}
	idx := k.Index()
	if idx < 0 {
		return -1, fmt.Errorf("%s: %w", k.Name(), ErrUnregisteredType)
	}
	return idx, nil
}
