package usage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/accountdb"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/aggregator"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/gapfill"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/recommend"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/timebucket"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/units"
)

// Recommendations looks at the heaviest devices of the trailing week.
func (s *Service) Recommendations(ctx context.Context, userID string) ([]string, error) {
	week := timebucket.Trailing(s.now()).Week
	readings, err := s.fetch(ctx, week)
	if err != nil {
		return nil, err
	}
	return s.recommendFor(ctx, userID, readings)
}

func (s *Service) recommendFor(ctx context.Context, userID string, readings []types.Reading) ([]string, error) {
	names, err := s.deviceNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	top := aggregator.TopN(aggregator.ByDevice(readings), recommend.TopDevices)
	shares := make([]recommend.DeviceShare, len(top))
	for i, g := range top {
		shares[i] = recommend.DeviceShare{Name: displayName(names, types.DeviceID(g.Key)), Total: g.Total}
	}
	return recommend.Generate(shares, aggregator.Sum(readings)), nil
}

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodWeek, nil
	case PeriodWeek, PeriodMonth, PeriodAll:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown period %q (use week, month or all)", timebucket.ErrInvalidRange, s)
}

// EnergyStats totals a period with costs, per-device breakdown, a daily
// series and the recommendations for the trailing week.
func (s *Service) EnergyStats(ctx context.Context, userID, period string) (EnergyStats, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return EnergyStats{}, err
	}
	now := s.now()
	trailing := timebucket.Trailing(now)

	var w timebucket.Window
	switch p {
	case PeriodMonth:
		w = trailing.Month
	case PeriodAll:
		w = timebucket.Window{From: time.Unix(0, 0).UTC(), Until: trailing.TodaySoFar.Until}
	default:
		w = trailing.Week
	}

	readings, err := s.fetch(ctx, w)
	if err != nil {
		return EnergyStats{}, err
	}
	names, err := s.deviceNames(ctx, userID)
	if err != nil {
		return EnergyStats{}, err
	}

	total := aggregator.Sum(readings)
	out := EnergyStats{
		Period:    p,
		TotalKWh:  total,
		TotalCost: units.Cost(total, s.opts.TariffPerKWh),
	}
	for _, g := range aggregator.TopN(aggregator.ByDevice(readings), 0) {
		id := types.DeviceID(g.Key)
		out.Devices = append(out.Devices, DeviceCost{
			DeviceTotal: DeviceTotal{DeviceID: id, Name: displayName(names, id), Total: g.Total},
			Cost:        units.Cost(g.Total, s.opts.TariffPerKWh),
		})
	}

	daily := aggregator.ByDay(readings)
	if p == PeriodAll {
		// no fixed start, so only days with readings are listed
		for _, g := range aggregator.Sorted(daily) {
			out.Daily = append(out.Daily, gapfill.Point{Key: g.Key, Value: g.Total})
		}
	} else {
		r := timebucket.DateRange{Start: w.From, End: timebucket.DayStart(now)}
		out.Daily = gapfill.Fill(daily, r.Keys(timebucket.Day))
	}

	weekReadings := readings
	if p != PeriodWeek {
		weekReadings = within(readings, trailing.Week)
	}
	if out.Recommendations, err = s.recommendFor(ctx, userID, weekReadings); err != nil {
		return EnergyStats{}, err
	}
	return out, nil
}

func within(readings []types.Reading, w timebucket.Window) []types.Reading {
	var out []types.Reading
	for _, r := range readings {
		if !r.Timestamp.Before(w.From) && r.Timestamp.Before(w.Until) {
			out = append(out, r)
		}
	}
	return out
}

// RecordUsage stores a manual entry for a registered device. Energy is
// wattage * hours / 1000. Past days are stamped at noon UTC.
func (s *Service) RecordUsage(ctx context.Context, userID string, in RecordInput) (types.Reading, error) {
	if in.DeviceID == "" {
		return types.Reading{}, fmt.Errorf("%w: deviceId is required", ErrInvalidUsage)
	}
	if in.HoursUsed <= 0 || in.HoursUsed > 24 {
		return types.Reading{}, fmt.Errorf("%w: hoursUsed must be within (0, 24]", ErrInvalidUsage)
	}

	now := s.now()
	ts := now
	if strings.TrimSpace(in.Date) != "" {
		day, err := timebucket.ParseDate(in.Date)
		if err != nil {
			return types.Reading{}, err
		}
		if day.After(now) {
			return types.Reading{}, fmt.Errorf("%w: date %s is in the future", ErrInvalidUsage, in.Date)
		}
		if !timebucket.IsToday(day, now) {
			ts = day.Add(12 * time.Hour)
		}
	}

	device, err := s.devices.DeviceByID(ctx, userID, in.DeviceID)
	if err != nil {
		if errors.Is(err, accountdb.ErrNotFound) {
			return types.Reading{}, ErrDeviceNotFound
		}
		return types.Reading{}, fmt.Errorf("looking up device: %w", err)
	}

	r, err := types.NormalizeReading(types.Reading{
		DeviceID:  device.ID,
		Timestamp: ts,
		EnergyKWh: units.WattHoursToKWh(device.Wattage, in.HoursUsed),
		OnFlag:    true,
	})
	if err != nil {
		return types.Reading{}, err
	}
	if err := s.readings.InsertReading(ctx, r); err != nil {
		return types.Reading{}, s.classify(ctx, err)
	}
	return r, nil
}
