package source

import (
	"testing"
	"time"

	"marinecore/internal/domain"
)

func TestMemStoreReplacesRepeatedRecords(t *testing.T) {
	store := NewMemStore()
	base := time.Unix(5000, 0)

	store.Publish(domain.RawRecord{
		PGN: domain.PGNBatteryStatus, Source: 0x30, Instance: 0, ReceivedAt: base,
		Battery: &domain.BatteryFields{Voltage: 12.4},
	})
	store.Publish(domain.RawRecord{
		PGN: domain.PGNBatteryStatus, Source: 0x30, Instance: 0, ReceivedAt: base.Add(time.Second),
		Battery: &domain.BatteryFields{Voltage: 12.6},
	})

	recs := store.RecordsByPGN(domain.PGNBatteryStatus)
	if len(recs) != 1 {
		t.Fatalf("repeat publish must replace, got %d records", len(recs))
	}
	if recs[0].Battery.Voltage != 12.6 {
		t.Fatalf("expected newest voltage 12.6, got %f", recs[0].Battery.Voltage)
	}
}

func TestMemStoreSortedSnapshot(t *testing.T) {
	store := NewMemStore()
	base := time.Unix(5000, 0)

	for _, src := range []uint8{0x52, 0x20, 0x37} {
		store.Publish(domain.RawRecord{
			PGN: domain.PGNEngineParams, Source: src, ReceivedAt: base,
			Engine: &domain.EngineFields{RPM: 1500},
		})
	}

	recs := store.RecordsByPGN(domain.PGNEngineParams)
	want := []uint8{0x20, 0x37, 0x52}
	for i, rec := range recs {
		if rec.Source != want[i] {
			t.Fatalf("record %d: expected source %#x, got %#x", i, want[i], rec.Source)
		}
	}
}

func TestMemStoreUnknownPGN(t *testing.T) {
	store := NewMemStore()
	if recs := store.RecordsByPGN(12345); recs != nil {
		t.Fatalf("unknown parameter group should return empty, got %v", recs)
	}
}

func TestMemStoreExpire(t *testing.T) {
	store := NewMemStore()
	base := time.Unix(5000, 0)

	store.Publish(domain.RawRecord{
		PGN: domain.PGNFluidLevel, Instance: 0, ReceivedAt: base,
		Tank: &domain.TankFields{FluidType: domain.FluidFuel, Level: 80},
	})
	store.Publish(domain.RawRecord{
		PGN: domain.PGNFluidLevel, Instance: 1, ReceivedAt: base.Add(40 * time.Second),
		Tank: &domain.TankFields{FluidType: domain.FluidFuel, Level: 70},
	})

	removed := store.Expire(30*time.Second, base.Add(45*time.Second))
	if removed != 1 {
		t.Fatalf("expected 1 expired record, got %d", removed)
	}
	if recs := store.RecordsByPGN(domain.PGNFluidLevel); len(recs) != 1 || recs[0].Instance != 1 {
		t.Fatalf("expected only the fresh tank to remain, got %v", recs)
	}
}
