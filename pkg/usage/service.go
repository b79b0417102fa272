// Package usage answers the dashboard's usage questions by fetching readings
// for a UTC-aligned window and running them through the aggregation engine.
// Nothing is cached; every call reads the store.
package usage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/aggregator"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/gapfill"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/timebucket"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

type Service struct {
	readings ReadingSource
	devices  DeviceDirectory
	logger   *zap.Logger
	opts     Options
}

func NewService(readings ReadingSource, devices DeviceDirectory, logger *zap.Logger, opts Options) *Service {
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = 366
	}
	if opts.TariffPerKWh <= 0 {
		opts.TariffPerKWh = 0.12
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{readings: readings, devices: devices, logger: logger, opts: opts}
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

// fetch loads readings and maps store failures onto the error taxonomy.
func (s *Service) fetch(ctx context.Context, w timebucket.Window, devices ...types.DeviceID) ([]types.Reading, error) {
	readings, err := s.readings.Readings(ctx, w, devices...)
	if err != nil {
		return nil, s.classify(ctx, err)
	}
	return readings, nil
}

func (s *Service) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrUpstreamUnavailable):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		s.logger.Error("Reading store query failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
}

// Stats sums the four trailing windows concurrently.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	w := timebucket.Trailing(s.now())
	var out Stats

	g, gctx := errgroup.WithContext(ctx)
	sumInto := func(dst *float64, win timebucket.Window) {
		g.Go(func() error {
			readings, err := s.fetch(gctx, win)
			if err != nil {
				return err
			}
			*dst = aggregator.Sum(readings)
			return nil
		})
	}
	sumInto(&out.Today, w.Today)
	sumInto(&out.TodaySoFar, w.TodaySoFar)
	sumInto(&out.Week, w.Week)
	sumInto(&out.Month, w.Month)

	if err := g.Wait(); err != nil {
		return Stats{}, s.classify(ctx, err)
	}
	return out, nil
}

// Hourly returns the 24 hourly totals of one day. An empty date selects the
// most recent day with readings, or today when the store is empty.
func (s *Service) Hourly(ctx context.Context, date string) (time.Time, []gapfill.HourPoint, error) {
	day, err := s.resolveDay(ctx, date)
	if err != nil {
		return time.Time{}, nil, err
	}
	readings, err := s.fetch(ctx, timebucket.SingleDay(day).Window())
	if err != nil {
		return time.Time{}, nil, err
	}
	return day, gapfill.FillHours(aggregator.ByHour(readings)), nil
}

func (s *Service) resolveDay(ctx context.Context, date string) (time.Time, error) {
	if strings.TrimSpace(date) != "" {
		return timebucket.ParseDate(date)
	}
	latest, ok, err := s.readings.LatestDate(ctx)
	if err != nil {
		return time.Time{}, s.classify(ctx, err)
	}
	if !ok {
		return timebucket.DayStart(s.now()), nil
	}
	return latest, nil
}

// Daily returns one point per day of the month. Missing month or year
// default to the current UTC month and year.
func (s *Service) Daily(ctx context.Context, month, year string) ([]gapfill.Point, error) {
	now := s.now()
	m, y := int(now.Month()), now.Year()
	var err error
	if strings.TrimSpace(month) != "" {
		if m, err = strconv.Atoi(strings.TrimSpace(month)); err != nil {
			return nil, fmt.Errorf("%w: month %q", timebucket.ErrInvalidDateFormat, month)
		}
	}
	if strings.TrimSpace(year) != "" {
		if y, err = strconv.Atoi(strings.TrimSpace(year)); err != nil {
			return nil, fmt.Errorf("%w: year %q", timebucket.ErrInvalidDateFormat, year)
		}
	}
	r, err := timebucket.MonthRange(y, m)
	if err != nil {
		return nil, err
	}
	return s.series(ctx, r, timebucket.Day)
}

// DailyRange returns one point per day of [start, end].
func (s *Service) DailyRange(ctx context.Context, start, end string) ([]gapfill.Point, error) {
	r, err := timebucket.NewDateRange(start, end, s.opts.MaxRangeDays)
	if err != nil {
		return nil, err
	}
	return s.series(ctx, r, timebucket.Day)
}

// Rollup buckets [start, end] at any resolution. Hour resolution folds every
// day of the range into the 24 hours of the day.
func (s *Service) Rollup(ctx context.Context, resolution, start, end string) ([]gapfill.Point, error) {
	res, err := timebucket.ParseResolution(resolution)
	if err != nil {
		return nil, err
	}
	r, err := timebucket.NewDateRange(start, end, s.opts.MaxRangeDays)
	if err != nil {
		return nil, err
	}
	return s.series(ctx, r, res)
}

func (s *Service) series(ctx context.Context, r timebucket.DateRange, res timebucket.Resolution) ([]gapfill.Point, error) {
	readings, err := s.fetch(ctx, r.Window())
	if err != nil {
		return nil, err
	}
	return gapfill.Fill(aggregator.ByResolution(readings, res), r.Keys(res)), nil
}

// Devices returns the cumulative 20-minute series of every device that
// reported on date. For today the current usage is read at the current
// slot so later slots never leak into it.
func (s *Service) Devices(ctx context.Context, userID, date string) ([]DeviceDay, error) {
	if strings.TrimSpace(date) == "" {
		return nil, fmt.Errorf("%w: date is required", timebucket.ErrInvalidDateFormat)
	}
	day, err := timebucket.ParseDate(date)
	if err != nil {
		return nil, err
	}

	var (
		readings []types.Reading
		names    map[types.DeviceID]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		readings, err = s.fetch(gctx, timebucket.SingleDay(day).Window())
		return err
	})
	g.Go(func() error {
		var err error
		names, err = s.deviceNames(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.classify(ctx, err)
	}

	current := timebucket.CurrentSlot(day, s.now())
	series := aggregator.SlotSeries(readings)
	out := make([]DeviceDay, 0, len(series))
	for _, d := range series {
		out = append(out, DeviceDay{
			DeviceID:     d.DeviceID,
			Name:         displayName(names, d.DeviceID),
			DailyUsage:   d.Total(),
			CurrentUsage: aggregator.CurrentUsage(d, current),
			Slots:        d.Slots,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].DeviceID < out[j].DeviceID
	})
	return out, nil
}

// DeviceRange returns per-device totals over [start, end], heaviest first.
func (s *Service) DeviceRange(ctx context.Context, userID, start, end string) ([]DeviceTotal, error) {
	r, err := timebucket.NewDateRange(start, end, s.opts.MaxRangeDays)
	if err != nil {
		return nil, err
	}
	return s.deviceTotals(ctx, userID, r.Window(), 0)
}

func (s *Service) deviceTotals(ctx context.Context, userID string, w timebucket.Window, n int) ([]DeviceTotal, error) {
	readings, err := s.fetch(ctx, w)
	if err != nil {
		return nil, err
	}
	names, err := s.deviceNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	top := aggregator.TopN(aggregator.ByDevice(readings), n)
	out := make([]DeviceTotal, len(top))
	for i, g := range top {
		id := types.DeviceID(g.Key)
		out[i] = DeviceTotal{DeviceID: id, Name: displayName(names, id), Total: g.Total}
	}
	return out, nil
}

func (s *Service) deviceNames(ctx context.Context, userID string) (map[types.DeviceID]string, error) {
	if userID == "" {
		return map[types.DeviceID]string{}, nil
	}
	names, err := s.devices.DeviceNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading device names: %w", err)
	}
	return names, nil
}

// Devices without a registry entry are shown by their id.
func displayName(names map[types.DeviceID]string, id types.DeviceID) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return string(id)
}
