package ecs

import (
	"errors"
	"os"
	"testing"
)

type tagBlob struct {
	Blob
	Label string `json:"label"`
}

func (*tagBlob) BlobType() TypeKey { return tagType }

type hpBlob struct {
	Blob
	Value int `json:"value"`
}

func (*hpBlob) BlobType() TypeKey { return hpType }

type linkBlob struct {
	Blob
	TargetGuid Guid `json:"target"`
	target     Entity
}

func (*linkBlob) BlobType() TypeKey { return linkType }

func (l *linkBlob) ResolveRefs(find func(Guid) (Entity, bool, error)) error {
	e, ok, err := find(l.TargetGuid)
	if err != nil {
		return err
	}
	if ok {
		l.target = e
	}
	return nil
}

var errBadCheck = errors.New("bad check")

type checkBlob struct {
	Blob
	Bad bool `json:"bad"`
}

func (*checkBlob) BlobType() TypeKey { return checkType }

func (c *checkBlob) Validate() error {
	if c.Bad {
		return errBadCheck
	}
	return nil
}

type orphanBlob struct{ Blob }

func (*orphanBlob) BlobType() TypeKey { return orphanType }

var (
	tagType    = NewType("Tag", func() *tagBlob { return &tagBlob{} })
	hpType     = NewType("HP", func() *hpBlob { return &hpBlob{} })
	linkType   = NewType("Link", func() *linkBlob { return &linkBlob{} })
	checkType  = NewType("Check", func() *checkBlob { return &checkBlob{} })
	orphanType = NewType("Orphan", func() *orphanBlob { return &orphanBlob{} })
)

func TestMain(m *testing.M) {
	if err := RegisterAllTypes(tagType, hpType, linkType, checkType); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
