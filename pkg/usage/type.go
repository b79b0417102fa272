package usage

import (
	"context"
	"errors"
	"time"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/aggregator"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/gapfill"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/timebucket"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

var (
	ErrUpstreamUnavailable = errors.New("reading store unavailable")
	ErrTimeout             = errors.New("request timed out")
	ErrDeviceNotFound      = errors.New("device not found")
	ErrInvalidUsage        = errors.New("invalid usage entry")
)

// ReadingSource is the reading store (readingdb.DB).
type ReadingSource interface {
	Readings(ctx context.Context, w timebucket.Window, devices ...types.DeviceID) ([]types.Reading, error)
	LatestDate(ctx context.Context) (time.Time, bool, error)
	InsertReading(ctx context.Context, r types.Reading) error
}

// DeviceDirectory resolves registered devices of a user (accountdb.DB).
type DeviceDirectory interface {
	DeviceNames(ctx context.Context, userID string) (map[types.DeviceID]string, error)
	DeviceByID(ctx context.Context, userID string, id types.DeviceID) (types.Device, error)
}

type Options struct {
	MaxRangeDays int
	TariffPerKWh float64
	Now          func() time.Time
}

// Stats are the trailing usage totals. Today covers the full day and
// TodaySoFar stops at the request time; both are reported.
type Stats struct {
	Today      float64
	TodaySoFar float64
	Week       float64
	Month      float64
}

type DeviceDay struct {
	DeviceID     types.DeviceID
	Name         string
	DailyUsage   float64
	CurrentUsage float64
	Slots        aggregator.Slots
}

type DeviceTotal struct {
	DeviceID types.DeviceID
	Name     string
	Total    float64
}

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

type DeviceCost struct {
	DeviceTotal
	Cost float64
}

// EnergyStats summarizes a period with costs at the configured tariff.
type EnergyStats struct {
	Period          Period
	TotalKWh        float64
	TotalCost       float64
	Devices         []DeviceCost
	Daily           []gapfill.Point
	Recommendations []string
}

type RecordInput struct {
	DeviceID  types.DeviceID `json:"deviceId"`
	HoursUsed float64        `json:"hoursUsed"`
	Date      string         `json:"date"`
}
