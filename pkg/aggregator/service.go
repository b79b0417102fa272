// Package aggregator sums readings into buckets. Everything here works on
// readings already fetched for a window; no function touches the store.
package aggregator

import (
	"sort"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/timebucket"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

// Sum returns the total energy of readings, 0 when there are none.
func Sum(readings []types.Reading) float64 {
	var total float64
	for _, r := range readings {
		total += r.EnergyKWh
	}
	return total
}

// GroupSum sums readings per key. Only keys that received at least one
// reading are present; gapfill is responsible for the rest.
func GroupSum(readings []types.Reading, key KeyFunc) map[string]float64 {
	groups := make(map[string]float64)
	for _, r := range readings {
		groups[key(r)] += r.EnergyKWh
	}
	return groups
}

func ByResolution(readings []types.Reading, res timebucket.Resolution) map[string]float64 {
	return GroupSum(readings, func(r types.Reading) string {
		return timebucket.ReadingKey(res, r)
	})
}

// ByHour sums readings per stored hour of day.
func ByHour(readings []types.Reading) map[int]float64 {
	hours := make(map[int]float64)
	for _, r := range readings {
		hours[r.HourOfDay] += r.EnergyKWh
	}
	return hours
}

func ByDay(readings []types.Reading) map[string]float64 {
	return ByResolution(readings, timebucket.Day)
}

func ByDevice(readings []types.Reading) map[string]float64 {
	return GroupSum(readings, func(r types.Reading) string {
		return string(r.DeviceID)
	})
}

// Sorted turns a group map into a slice ordered by key.
func Sorted(groups map[string]float64) []Group {
	out := make([]Group, 0, len(groups))
	for k, v := range groups {
		out = append(out, Group{Key: k, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// TopN orders groups by descending total with ties broken by ascending key,
// and keeps the first n. n <= 0 keeps all of them.
func TopN(groups map[string]float64, n int) []Group {
	out := Sorted(groups)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SlotSeries builds the cumulative 20-minute series of every device in
// readings, which must all belong to the same UTC day. Each slot is summed
// first and then accumulated, so the series never decreases. The upstream
// cumulative field is ignored.
func SlotSeries(readings []types.Reading) []DeviceSlots {
	perSlot := make(map[types.DeviceID]*Slots)
	for _, r := range readings {
		s, ok := perSlot[r.DeviceID]
		if !ok {
			s = &Slots{}
			perSlot[r.DeviceID] = s
		}
		s[timebucket.SlotIndex(r.Timestamp)] += r.EnergyKWh
	}

	out := make([]DeviceSlots, 0, len(perSlot))
	for id, s := range perSlot {
		series := DeviceSlots{DeviceID: id}
		var running float64
		for i, v := range s {
			running += v
			series.Slots[i] = running
		}
		out = append(out, series)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DeviceID < out[j].DeviceID
	})
	return out
}

// CurrentUsage reads the cumulative value at slot, 0 when slot is out of
// range (a day that has not started yet).
func CurrentUsage(series DeviceSlots, slot int) float64 {
	if slot < 0 || slot >= timebucket.SlotsPerDay {
		return 0
	}
	return series.Slots[slot]
}
