package aggregator

import (
	"github.com/NotCoffee418/home_energy_dashboard/pkg/timebucket"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

// Group is the summed energy of every reading sharing a bucket key.
type Group struct {
	Key   string
	Total float64
}

// KeyFunc assigns a reading to a bucket.
type KeyFunc func(r types.Reading) string

// Slots holds a device's cumulative usage at the end of each 20-minute slot.
type Slots [timebucket.SlotsPerDay]float64

// DeviceSlots is the slot series of one device for one UTC day.
type DeviceSlots struct {
	DeviceID types.DeviceID
	Slots    Slots
}

// Total is the device's usage for the whole day.
func (d DeviceSlots) Total() float64 {
	return d.Slots[timebucket.SlotsPerDay-1]
}
