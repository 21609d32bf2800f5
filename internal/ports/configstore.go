package ports

import (
	"time"

	"marinecore/internal/domain"
)

// ConfigChange names one threshold edit in the settings layer.
type ConfigChange struct {
	Type       domain.SensorType
	Instance   int
	MetricKey  string
	ModifiedAt time.Time
}

// ConfigStore is the user-editable threshold configuration. Lookup resolves
// per-instance overrides before per-type defaults; absence is not an error.
type ConfigStore interface {
	Thresholds(t domain.SensorType, instance int, metricKey string) (domain.MetricThresholds, bool)
	OnChange(fn func(ConfigChange))
}
