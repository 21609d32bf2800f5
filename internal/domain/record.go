package domain

import "time"

// PGN identifies an NMEA 2000 parameter group.
type PGN uint32

const (
	PGNEngineParams  PGN = 127488
	PGNFluidLevel    PGN = 127505
	PGNBatteryStatus PGN = 127508
)

// TrackedPGNs lists the parameter groups the detection service scans.
var TrackedPGNs = []PGN{PGNEngineParams, PGNBatteryStatus, PGNFluidLevel}

// SensorType classifies a logical instrument.
type SensorType string

const (
	SensorEngine  SensorType = "engine"
	SensorBattery SensorType = "battery"
	SensorTank    SensorType = "tank"
)

// FluidType is the NMEA 2000 fluid type code carried by fluid level frames.
type FluidType int

const (
	FluidFuel FluidType = iota
	FluidFreshWater
	FluidGrayWater
	FluidLiveWell
	FluidOil
	FluidBlackWater
)

// RawRecord is one decoded telemetry frame as handed over by the upstream
// protocol decoder. Exactly one of the variant pointers is set, matching PGN.
// Instance is -1 when the frame carried no instance field.
type RawRecord struct {
	PGN        PGN
	Source     uint8
	Instance   int
	ReceivedAt time.Time

	Engine  *EngineFields
	Battery *BatteryFields
	Tank    *TankFields
}

// EngineFields carries the engine parameter group. Optional fields are nil
// when the frame did not transmit them.
type EngineFields struct {
	RPM               float64
	CoolantTemp       *float64
	OilPressure       *float64
	AlternatorVoltage *float64
	FuelRate          *float64
	Hours             *float64
}

// BatteryFields carries the DC battery status group.
type BatteryFields struct {
	Voltage       float64
	Current       *float64
	Temperature   *float64
	StateOfCharge *float64
}

// TankFields carries the fluid level group. Level is percent full.
type TankFields struct {
	FluidType FluidType
	Level     float64
	Capacity  *float64
}

// SensorTypeForPGN maps a tracked parameter group to its instrument type.
func SensorTypeForPGN(pgn PGN) (SensorType, bool) {
	switch pgn {
	case PGNEngineParams:
		return SensorEngine, true
	case PGNBatteryStatus:
		return SensorBattery, true
	case PGNFluidLevel:
		return SensorTank, true
	}
	return "", false
}
