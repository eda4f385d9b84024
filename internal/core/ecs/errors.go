package ecs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEntity       = errors.New("entity is not valid in this manager")
	ErrRegistrySealed      = errors.New("datablob types already registered")
	ErrRegistryNotSealed   = errors.New("datablob types not registered")
	ErrUnregisteredType    = errors.New("datablob type not registered")
	ErrUnknownDataBlobType = errors.New("unknown datablob type")
	ErrDuplicateGuid       = errors.New("guid already registered")
	ErrNilDataBlob         = errors.New("nil datablob")
	ErrDataBlobOwned       = errors.New("datablob belongs to another entity")
	ErrGuidNotFound        = errors.New("guid registered globally but missing locally")
	ErrForeignManager      = errors.New("managers belong to different directories")
	ErrNilGuid             = errors.New("nil guid")
)

// GuidNotFoundError means the directory names a manager for a Guid that the
// manager does not hold. It signals broken lock discipline or a leak.
type GuidNotFoundError struct {
	Guid Guid
}

func (e *GuidNotFoundError) Error() string {
	return fmt.Sprintf("guid %s: %v", e.Guid, ErrGuidNotFound)
}

func (e *GuidNotFoundError) Unwrap() error { return ErrGuidNotFound }

// UnknownTypeError is returned when a persisted datablob type name does not
// resolve, e.g. because the save references a type that no longer exists.
type UnknownTypeError struct {
	Name string
	Guid Guid
}

func (e *UnknownTypeError) Error() string {
	if e.Guid == (Guid{}) {
		return fmt.Sprintf("datablob type %q: %v", e.Name, ErrUnknownDataBlobType)
	}
	return fmt.Sprintf("entity %s: datablob type %q: %v", e.Guid, e.Name, ErrUnknownDataBlobType)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownDataBlobType }
