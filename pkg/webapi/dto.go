package webapi

import (
	"github.com/NotCoffee418/home_energy_dashboard/pkg/aggregator"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/gapfill"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/units"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/usage"
)

// Everything below is the wire form. Rounding to two decimals happens here
// and nowhere else.

type statsResponse struct {
	Today      float64 `json:"today"`
	TodaySoFar float64 `json:"todaySoFar"`
	Week       float64 `json:"week"`
	Month      float64 `json:"month"`
}

func newStatsResponse(s usage.Stats) statsResponse {
	return statsResponse{
		Today:      units.Round2(s.Today),
		TodaySoFar: units.Round2(s.TodaySoFar),
		Week:       units.Round2(s.Week),
		Month:      units.Round2(s.Month),
	}
}

type hourPoint struct {
	Hour  int     `json:"hour"`
	Usage float64 `json:"usage"`
}

func newHourPoints(points []gapfill.HourPoint) []hourPoint {
	out := make([]hourPoint, len(points))
	for i, p := range points {
		out[i] = hourPoint{Hour: p.Hour, Usage: units.Round2(p.Value)}
	}
	return out
}

type datePoint struct {
	Date  string  `json:"date"`
	Usage float64 `json:"usage"`
}

func newDatePoints(points []gapfill.Point) []datePoint {
	out := make([]datePoint, len(points))
	for i, p := range points {
		out[i] = datePoint{Date: p.Key, Usage: units.Round2(p.Value)}
	}
	return out
}

type keyPoint struct {
	Key   string  `json:"key"`
	Usage float64 `json:"usage"`
}

func newKeyPoints(points []gapfill.Point) []keyPoint {
	out := make([]keyPoint, len(points))
	for i, p := range points {
		out[i] = keyPoint{Key: p.Key, Usage: units.Round2(p.Value)}
	}
	return out
}

type deviceDay struct {
	DeviceID     types.DeviceID `json:"deviceId"`
	Name         string         `json:"name"`
	DailyUsage   float64        `json:"dailyUsage"`
	CurrentUsage float64        `json:"currentUsage"`
	Slots        []float64      `json:"slots"`
}

func newDeviceDays(days []usage.DeviceDay) []deviceDay {
	out := make([]deviceDay, len(days))
	for i, d := range days {
		out[i] = deviceDay{
			DeviceID:     d.DeviceID,
			Name:         d.Name,
			DailyUsage:   units.Round2(d.DailyUsage),
			CurrentUsage: units.Round2(d.CurrentUsage),
			Slots:        roundSlots(d.Slots),
		}
	}
	return out
}

func roundSlots(s aggregator.Slots) []float64 {
	return units.Round2All(s[:])
}

type deviceUsage struct {
	DeviceID types.DeviceID `json:"deviceId"`
	Device   string         `json:"device"`
	Usage    float64        `json:"usage"`
}

func newDeviceUsage(totals []usage.DeviceTotal) []deviceUsage {
	out := make([]deviceUsage, len(totals))
	for i, d := range totals {
		out[i] = deviceUsage{DeviceID: d.DeviceID, Device: d.Name, Usage: units.Round2(d.Total)}
	}
	return out
}

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type recommendationsResponse struct {
	Recommendations []string `json:"recommendations"`
}

type deviceCost struct {
	DeviceID types.DeviceID `json:"deviceId"`
	Device   string         `json:"device"`
	Usage    float64        `json:"usage"`
	Cost     float64        `json:"cost"`
}

type energyStatsResponse struct {
	Period          usage.Period `json:"period"`
	TotalUsage      float64      `json:"totalUsage"`
	TotalCost       float64      `json:"totalCost"`
	Devices         []deviceCost `json:"devices"`
	Daily           []datePoint  `json:"daily"`
	Recommendations []string     `json:"recommendations"`
}

func newEnergyStatsResponse(s usage.EnergyStats) energyStatsResponse {
	devices := make([]deviceCost, len(s.Devices))
	for i, d := range s.Devices {
		devices[i] = deviceCost{DeviceID: d.DeviceID, Device: d.Name, Usage: units.Round2(d.Total), Cost: units.Round2(d.Cost)}
	}
	return energyStatsResponse{
		Period:          s.Period,
		TotalUsage:      units.Round2(s.TotalKWh),
		TotalCost:       units.Round2(s.TotalCost),
		Devices:         devices,
		Daily:           newDatePoints(s.Daily),
		Recommendations: s.Recommendations,
	}
}

type readingResponse struct {
	DeviceID  types.DeviceID `json:"deviceId"`
	Date      string         `json:"date"`
	Timestamp string         `json:"timestamp"`
	Usage     float64        `json:"energyConsumed"`
}

func newReadingResponse(r types.Reading) readingResponse {
	return readingResponse{
		DeviceID:  r.DeviceID,
		Date:      r.Date,
		Timestamp: r.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		Usage:     units.Round2(r.EnergyKWh),
	}
}

type messageResponse struct {
	Message string `json:"message"`
}
