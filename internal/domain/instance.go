package domain

import (
	"fmt"
	"time"
)

// InstanceKey is the arena key for a logical instrument: type plus the
// resolved instance number (assigned for engines, bus-reported otherwise).
type InstanceKey struct {
	Type   SensorType
	Number int
}

func (k InstanceKey) String() string { return fmt.Sprintf("%s/%d", k.Type, k.Number) }

// InstanceDescriptor is the user-facing identity of one detected instrument.
// ID is derived deterministically from (type, source, instance) so the same
// physical device resolves to the same descriptor on every scan.
type InstanceDescriptor struct {
	ID       string     `json:"id"`
	Type     SensorType `json:"type"`
	Number   int        `json:"instance"`
	Source   int        `json:"source,omitempty"`
	Title    string     `json:"title"`
	Icon     string     `json:"icon,omitempty"`
	Priority int        `json:"priority"`
	LastSeen time.Time  `json:"lastSeen"`
}

// DescriptorID derives the stable identity string. Source is -1 when the
// grouping rule for the type does not use the source address.
func DescriptorID(t SensorType, source, instance int) string {
	if source >= 0 {
		return fmt.Sprintf("%s-s%d-i%d", t, source, instance)
	}
	return fmt.Sprintf("%s-i%d", t, instance)
}

// Snapshot is the per-tick view handed to subscribers: each slice is sorted
// by the type's display order (engines by source address, batteries by
// priority, tanks by instance).
type Snapshot struct {
	Engines   []InstanceDescriptor `json:"engines"`
	Batteries []InstanceDescriptor `json:"batteries"`
	Tanks     []InstanceDescriptor `json:"tanks"`
}

// Total returns the number of descriptors across all types.
func (s Snapshot) Total() int {
	return len(s.Engines) + len(s.Batteries) + len(s.Tanks)
}

// RuntimeMetrics aggregates detection/cleanup counters for diagnostics.
type RuntimeMetrics struct {
	TotalInstances    int       `json:"totalInstances"`
	ActiveEngines     int       `json:"activeEngines"`
	ActiveBatteries   int       `json:"activeBatteries"`
	ActiveTanks       int       `json:"activeTanks"`
	OrphanedInstances int       `json:"orphanedInstances"`
	CleanupCount      int       `json:"cleanupCount"`
	LastCleanupTime   time.Time `json:"lastCleanupTime"`
	MemoryUsageBytes  int64     `json:"memoryUsageBytes"`
}
