package ports

import "marinecore/internal/domain"

// RecordSource is the upstream decoder's snapshot store. The detection
// service reads the full current record set for a parameter group on each
// tick; it never writes back. An unknown group returns an empty slice.
type RecordSource interface {
	RecordsByPGN(pgn domain.PGN) []domain.RawRecord
}
