// Package recommend produces energy-saving suggestions from the heaviest
// devices of the last week.
package recommend

import (
	"fmt"
	"strings"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/units"
)

const (
	// A device above this share of total usage gets a high-usage warning.
	HighShareThreshold = 0.40
	// Only this many top devices are considered.
	TopDevices = 3

	BalancedMessage = "Your energy usage looks well-balanced. Keep monitoring to maintain efficiency."
)

// DeviceShare is one device's usage over the analysis window.
type DeviceShare struct {
	Name  string
	Total float64
}

// Matched as case-insensitive substrings of the device name.
var (
	coolingKeywords = []string{"ac", "air"}
	heatingKeywords = []string{"heat", "geyser"}
)

// Generate returns at most one message per device in top, in rank order,
// or the balanced message when no rule fires. grandTotal is the usage of
// all devices, not only top.
func Generate(top []DeviceShare, grandTotal float64) []string {
	if len(top) > TopDevices {
		top = top[:TopDevices]
	}

	var out []string
	warned := false
	for _, d := range top {
		switch {
		case !warned && grandTotal > 0 && d.Total/grandTotal > HighShareThreshold:
			warned = true
			out = append(out, fmt.Sprintf(
				"%s accounts for %d%% of your energy usage. Consider reducing its usage or upgrading to a more efficient model.",
				d.Name, units.Percent(d.Total, grandTotal)))
		case IsCooling(d.Name):
			out = append(out, fmt.Sprintf(
				"Your %s is among your highest consumers. Running it before 3 PM or after 5 PM avoids peak hours and can lower your bill.",
				d.Name))
		case IsHeating(d.Name):
			out = append(out, fmt.Sprintf(
				"Your %s is among your highest consumers. Use it during off-peak hours and lower the temperature by 2°C to save energy.",
				d.Name))
		}
	}

	if len(out) == 0 {
		return []string{BalancedMessage}
	}
	return out
}

func IsCooling(name string) bool {
	return containsAny(name, coolingKeywords)
}

func IsHeating(name string) bool {
	return containsAny(name, heatingKeywords)
}

func containsAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
