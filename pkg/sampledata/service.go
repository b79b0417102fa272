// Package sampledata gives a new account a plausible household: six
// appliances and a week of 20-minute readings for each.
package sampledata

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/timebucket"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/units"
)

const DefaultDays = 7

// DeviceStore is implemented by *accountdb.DB.
type DeviceStore interface {
	CreateDevice(ctx context.Context, d *types.Device) error
}

// ReadingStore is implemented by *readingdb.DB.
type ReadingStore interface {
	InsertReadings(ctx context.Context, readings []types.Reading) error
}

// DemoDevice is an appliance template. Duty is the fraction of a slot the
// device draws its full wattage, given the slot start.
type DemoDevice struct {
	Name     string
	Type     types.DeviceType
	Wattage  float64
	Location types.Location
	Duty     func(t time.Time) float64
}

func between(from, until int, duty float64) func(time.Time) float64 {
	return func(t time.Time) float64 {
		if h := t.Hour(); h >= from && h < until {
			return duty
		}
		return 0
	}
}

var DemoDevices = []DemoDevice{
	{Name: "Living Room AC", Type: types.DeviceAC, Wattage: 1500, Location: types.LocationLivingRoom, Duty: between(12, 19, 0.8)},
	{Name: `Samsung 55" TV`, Type: types.DeviceTV, Wattage: 150, Location: types.LocationLivingRoom, Duty: between(18, 23, 1)},
	{Name: "Space Heater", Type: types.DeviceHeater, Wattage: 1200, Location: types.LocationBedroom, Duty: func(t time.Time) float64 {
		if h := t.Hour(); h >= 21 || h < 6 {
			return 0.5
		}
		return 0
	}},
	{Name: "Kitchen Fridge", Type: types.DeviceFridge, Wattage: 300, Location: types.LocationKitchen, Duty: func(time.Time) float64 {
		return 0.35
	}},
	{Name: "Washing Machine", Type: types.DeviceWashingMachine, Wattage: 800, Location: types.LocationBathroom, Duty: func(t time.Time) float64 {
		if t.YearDay()%2 == 0 && t.Hour() == 9 {
			return 1
		}
		return 0
	}},
	{Name: "LED Lights", Type: types.DeviceLights, Wattage: 60, Location: types.LocationLivingRoom, Duty: func(t time.Time) float64 {
		if h := t.Hour(); h >= 18 || h < 1 || h == 6 {
			return 1
		}
		return 0
	}},
}

type Seeder struct {
	devices  DeviceStore
	readings ReadingStore
	logger   *zap.Logger
	now      func() time.Time
	days     int
}

func New(devices DeviceStore, readings ReadingStore, logger *zap.Logger) *Seeder {
	return &Seeder{
		devices:  devices,
		readings: readings,
		logger:   logger,
		now:      time.Now,
		days:     DefaultDays,
	}
}

// SeedUser registers the demo devices for user and backfills their
// readings from midnight DefaultDays ago up to the current slot.
func (s *Seeder) SeedUser(ctx context.Context, user types.User) ([]types.Device, error) {
	now := s.now().UTC()
	from := timebucket.DayStart(now).AddDate(0, 0, -s.days)

	created := make([]types.Device, 0, len(DemoDevices))
	var batch []types.Reading
	for _, demo := range DemoDevices {
		d := types.Device{
			UserID:    user.ID,
			Name:      demo.Name,
			Type:      demo.Type,
			Wattage:   demo.Wattage,
			Location:  demo.Location,
			IsActive:  true,
			CreatedAt: now,
		}
		if err := s.devices.CreateDevice(ctx, &d); err != nil {
			return nil, fmt.Errorf("creating demo device %q: %w", demo.Name, err)
		}
		created = append(created, d)
		batch = append(batch, Readings(d.ID, demo, from, now)...)
	}

	if err := s.readings.InsertReadings(ctx, batch); err != nil {
		return nil, fmt.Errorf("inserting demo readings: %w", err)
	}
	s.logger.Info("Seeded demo data",
		zap.String("user_id", user.ID),
		zap.Int("devices", len(created)),
		zap.Int("readings", len(batch)))
	return created, nil
}

// OnVerified matches the accounts verification hook.
func (s *Seeder) OnVerified(ctx context.Context, user types.User) error {
	_, err := s.SeedUser(ctx, user)
	return err
}

// Readings emits one reading per 20-minute slot in [from, until) while the
// device is on. The cumulative field carries the running total of the day.
func Readings(id types.DeviceID, demo DemoDevice, from, until time.Time) []types.Reading {
	var out []types.Reading
	var day string
	var cumulative float64
	for t := from.UTC().Truncate(timebucket.SlotWidth); t.Before(until); t = t.Add(timebucket.SlotWidth) {
		if d := t.Format(types.DateLayout); d != day {
			day, cumulative = d, 0
		}
		duty := demo.Duty(t)
		if duty <= 0 {
			continue
		}
		kwh := units.WattHoursToKWh(demo.Wattage, duty*timebucket.SlotWidth.Hours())
		cumulative += kwh
		total := cumulative
		out = append(out, types.Reading{
			DeviceID:           id,
			Timestamp:          t,
			EnergyKWh:          kwh,
			CumulativeDailyKWh: &total,
			OnFlag:             true,
			LoadCategory:       loadCategory(demo.Wattage),
		})
	}
	return out
}

func loadCategory(wattage float64) string {
	switch {
	case wattage >= 1000:
		return "high"
	case wattage >= 200:
		return "medium"
	default:
		return "low"
	}
}
