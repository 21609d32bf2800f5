package detect

import (
	"fmt"

	"marinecore/internal/domain"
)

// Battery bank identity is positional on the bus: bank 0 is always the house
// bank, bank 1 the engine bank, bank 2 starter or thruster depending on the
// vessel's fit-out. Anything else gets a generated name with a priority that
// sorts after the known banks.
var batteryBanks = []struct {
	title    string
	priority int
}{
	{"HOUSE", 1},
	{"ENGINE", 2},
	{"STARTER", 3},
}

const batteryIcon = "🔋"

func batteryIdentity(instance int, bank2Role string) (title string, priority int) {
	if instance >= 0 && instance < len(batteryBanks) {
		b := batteryBanks[instance]
		if instance == 2 && bank2Role == "thruster" {
			return "THRUSTER", b.priority
		}
		return b.title, b.priority
	}
	return fmt.Sprintf("BATTERY #%d", instance+1), 100 + instance
}

var fluidNames = map[domain.FluidType]struct {
	label string
	icon  string
}{
	domain.FluidFuel:       {"FUEL", "🛢️"},
	domain.FluidFreshWater: {"FRESHWATER", "💧"},
	domain.FluidGrayWater:  {"GRAYWATER", "🚿"},
	domain.FluidLiveWell:   {"LIVEWELL", "🐟"},
	domain.FluidOil:        {"OIL", "🛢️"},
	domain.FluidBlackWater: {"BLACKWATER", "🚽"},
}

// Tank position labels by ordinal among tanks of the same fluid type.
var tankPositions = []string{"PORT", "STBD", "CENTER", "AUX"}

// tankIdentity names a tank from its fluid type and its ordinal among tanks
// carrying the same fluid. An unrecognized fluid type, or an ordinal beyond
// the position table, falls back to the generated name.
func tankIdentity(instance int, fluid domain.FluidType, ordinal, sameFluid int) (title, icon string) {
	f, ok := fluidNames[fluid]
	if !ok {
		return fmt.Sprintf("TANK #%d", instance+1), ""
	}
	if sameFluid <= 1 {
		return fmt.Sprintf("%s %s", f.icon, f.label), f.icon
	}
	if ordinal >= len(tankPositions) {
		return fmt.Sprintf("TANK #%d", instance+1), f.icon
	}
	return fmt.Sprintf("%s %s %s", f.icon, f.label, tankPositions[ordinal]), f.icon
}

func engineTitle(ordinal int) string {
	return fmt.Sprintf("ENGINE #%d", ordinal)
}
