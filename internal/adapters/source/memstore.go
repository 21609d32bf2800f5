// Package source provides the in-memory raw record store that stands in for
// the upstream decoder's snapshot layer, plus a traffic simulator for running
// the stack without a live bus.
package source

import (
	"sort"
	"sync"
	"time"

	"marinecore/internal/domain"
	"marinecore/internal/ports"
)

type recordKey struct {
	source   uint8
	instance int
}

// MemStore keeps the latest record per (source, instance) within each
// parameter group. Publishing a repeat replaces the previous snapshot entry;
// readers get a stable, sorted copy.
type MemStore struct {
	mu      sync.RWMutex
	records map[domain.PGN]map[recordKey]domain.RawRecord
}

func NewMemStore() *MemStore {
	return &MemStore{records: make(map[domain.PGN]map[recordKey]domain.RawRecord)}
}

// Publish stores a decoded record, stamping ReceivedAt when the decoder
// did not.
func (m *MemStore) Publish(rec domain.RawRecord) {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.records[rec.PGN]
	if !ok {
		group = make(map[recordKey]domain.RawRecord)
		m.records[rec.PGN] = group
	}
	group[recordKey{source: rec.Source, instance: rec.Instance}] = rec
}

// RecordsByPGN returns the current snapshot for a parameter group, sorted by
// source address then instance so repeated reads are deterministic.
func (m *MemStore) RecordsByPGN(pgn domain.PGN) []domain.RawRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	group := m.records[pgn]
	if len(group) == 0 {
		return nil
	}
	out := make([]domain.RawRecord, 0, len(group))
	for _, rec := range group {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Instance < out[j].Instance
	})
	return out
}

// Expire drops records older than ttl, mirroring how a live decoder ages out
// silent devices. It returns the number of records removed.
func (m *MemStore) Expire(ttl time.Duration, now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for _, group := range m.records {
		for key, rec := range group {
			if now.Sub(rec.ReceivedAt) > ttl {
				delete(group, key)
				removed++
			}
		}
	}
	return removed
}

var _ ports.RecordSource = (*MemStore)(nil)
