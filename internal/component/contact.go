package component

import (
	"sync"
	"time"

	"github.com/medleye27/Pulsar4x/internal/core/ecs"
	"github.com/medleye27/Pulsar4x/internal/orbital"
)

// DataFrom says where a contact's data currently comes from.
type DataFrom uint8

const (
	FromParent DataFrom = iota
	FromSensors
	FromMemory
)

func (d DataFrom) String() string {
	switch d {
	case FromParent:
		return "Parent"
	case FromSensors:
		return "Sensors"
	case FromMemory:
		return "Memory"
	}
	return "Unknown"
}

// DetectionInfo records the last detection of a contact.
type DetectionInfo struct {
	SignalQuality  float64   `json:"signalQuality"` // 0..1
	DetectedAt     time.Time `json:"detectedAt"`
	FirstDetected  time.Time `json:"firstDetected"`
	HighestQuality float64   `json:"highestQuality"`
}

// ContactPosition is the degraded position a faction holds for a contact.
type ContactPosition struct {
	Absolute orbital.Vector3 `json:"absolute"`
	Velocity orbital.Vector3 `json:"velocity"`
	Source   DataFrom        `json:"source"`
}

// SensorContact is one faction's view of a foreign entity. Guard every access
// with the embedded mutex: removal notifications arrive from the goroutine
// ticking the real entity's star system.
type SensorContact struct {
	sync.Mutex `json:"-"`

	Actual   EntityRef       `json:"actual"`
	Name     string          `json:"name"`
	Info     DetectionInfo   `json:"info"`
	Position ContactPosition `json:"position"`
	Body     *SystemBodyInfo `json:"body,omitempty"`

	Subscription *ecs.Subscription `json:"-"`
}

// Frozen reports whether the contact only holds memory of a removed entity.
func (c *SensorContact) Frozen() bool {
	c.Lock()
	defer c.Unlock()
	return c.Position.Source == FromMemory
}

// ContactTable is a faction's set of contacts keyed by the real entity's
// Guid. It keeps first-detection order for deterministic iteration.
type ContactTable struct {
	mu     sync.RWMutex
	byGuid map[ecs.Guid]*SensorContact
	order  []ecs.Guid
}

func NewContactTable() *ContactTable {
	return &ContactTable{byGuid: make(map[ecs.Guid]*SensorContact)}
}

func (t *ContactTable) Get(g ecs.Guid) (*SensorContact, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byGuid[g]
	return c, ok
}

// GetOrAdd returns the contact for g, storing c if there is none yet. The
// bool is true when c was stored.
func (t *ContactTable) GetOrAdd(g ecs.Guid, c *SensorContact) (*SensorContact, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.byGuid[g]; ok {
		return existing, false
	}
	t.byGuid[g] = c
	t.order = append(t.order, g)
	return c, true
}

func (t *ContactTable) Remove(g ecs.Guid) (*SensorContact, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.byGuid[g]
	if !ok {
		return nil, false
	}
	delete(t.byGuid, g)
	for i, o := range t.order {
		if o == g {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return c, true
}

func (t *ContactTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byGuid)
}

// All returns the contacts in first-detection order.
func (t *ContactTable) All() []*SensorContact {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*SensorContact, 0, len(t.order))
	for _, g := range t.order {
		out = append(out, t.byGuid[g])
	}
	return out
}
