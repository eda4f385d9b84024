package ecs

import (
	"sync"

	"github.com/google/uuid"
)

// MessageType classifies a change published for one entity.
type MessageType uint8

const (
	EntityRemoved MessageType = iota + 1
	DataBlobSet
	DataBlobRemoved
)

func (t MessageType) String() string {
	switch t {
	case EntityRemoved:
		return "EntityRemoved"
	case DataBlobSet:
		return "DataBlobSet"
	case DataBlobRemoved:
		return "DataBlobRemoved"
	}
	return "Unknown"
}

// Message is delivered to subscribers of Entity. DataBlob is the blob that was
// set or removed, nil for EntityRemoved.
type Message struct {
	Entity   Entity
	Type     MessageType
	DataBlob DataBlob
}

// Handler receives change messages. It runs synchronously on the goroutine
// that made the change and may be invoked after the entity became invalid.
type Handler func(Message)

// Subscription is a handler registered for one entity's changes.
type Subscription struct {
	id      string
	guid    Guid
	handler Handler
	feed    *Feed
	mu      sync.Mutex
	active  bool
}

func (s *Subscription) ID() string { return s.id }
func (s *Subscription) Guid() Guid { return s.guid }

func (s *Subscription) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Cancel stops delivery. Multiple calls are safe.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()
	s.feed.remove(s)
}

// Feed routes change messages to per-entity subscribers, keyed by Guid so
// subscriptions survive a transfer between managers.
type Feed struct {
	mu   sync.Mutex
	subs map[Guid][]*Subscription
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[Guid][]*Subscription)}
}

func (f *Feed) subscribe(g Guid, h Handler) *Subscription {
	s := &Subscription{id: uuid.NewString(), guid: g, handler: h, feed: f, active: true}
	f.mu.Lock()
	f.subs[g] = append(f.subs[g], s)
	f.mu.Unlock()
	return s
}

func (f *Feed) remove(s *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.subs[s.guid]
	for i, other := range list {
		if other == s {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(f.subs, s.guid)
	} else {
		f.subs[s.guid] = list
	}
}

// Subscribers counts active subscriptions for g.
func (f *Feed) Subscribers(g Guid) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[g])
}

// publish calls handlers in subscription order, outside the feed lock so a
// handler may cancel itself or subscribe again.
func (f *Feed) publish(msg Message) {
	f.mu.Lock()
	list := f.subs[msg.Entity.guid]
	snapshot := make([]*Subscription, len(list))
	copy(snapshot, list)
	f.mu.Unlock()

	for _, s := range snapshot {
		if s.Active() {
			s.handler(msg)
		}
	}
}

// drop deactivates every subscription for g.
func (f *Feed) drop(g Guid) {
	f.mu.Lock()
	list := f.subs[g]
	delete(f.subs, g)
	f.mu.Unlock()
	for _, s := range list {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}
}
