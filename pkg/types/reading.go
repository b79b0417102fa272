package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used everywhere (UTC days).
const DateLayout = "2006-01-02"

var ErrInvalidReading = errors.New("invalid reading")

// DeviceID is the single identifier a device is known by once it
// passes the ingestion boundary, whatever shape the source used.
type DeviceID string

// Reading is one timestamped energy measurement for a device.
// Readings are append-only and never mutated after insert.
type Reading struct {
	DeviceID  DeviceID  `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`

	// UTC calendar day of Timestamp
	Date      string  `json:"date"`
	EnergyKWh float64 `json:"energy_consumed"`
	HourOfDay int     `json:"hour_of_day"`

	// Upstream running total for the day. Carried for display only.
	CumulativeDailyKWh *float64 `json:"cumulative_daily_usage_device,omitempty"`

	OnFlag       bool   `json:"device_on_flag"`
	LoadCategory string `json:"device_load_category,omitempty"`
}

// NormalizeReading forces the timestamp to UTC, derives Date and HourOfDay
// and rejects readings that break the store invariants.
func NormalizeReading(r Reading) (Reading, error) {
	r.DeviceID = DeviceID(strings.TrimSpace(string(r.DeviceID)))
	if r.DeviceID == "" {
		return Reading{}, fmt.Errorf("%w: missing device id", ErrInvalidReading)
	}
	if r.Timestamp.IsZero() {
		return Reading{}, fmt.Errorf("%w: missing timestamp", ErrInvalidReading)
	}
	if r.EnergyKWh < 0 {
		return Reading{}, fmt.Errorf("%w: negative energy %v", ErrInvalidReading, r.EnergyKWh)
	}

	r.Timestamp = r.Timestamp.UTC()
	day := r.Timestamp.Format(DateLayout)
	if r.Date != "" && r.Date != day {
		return Reading{}, fmt.Errorf("%w: date %s does not match timestamp day %s", ErrInvalidReading, r.Date, day)
	}
	r.Date = day
	r.HourOfDay = r.Timestamp.Hour()
	return r, nil
}

// ReadingsFromJsonBytes accepts either a single reading object or an array of them.
func ReadingsFromJsonBytes(data []byte) ([]Reading, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var batch []Reading
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, err
		}
		return batch, nil
	}

	var single Reading
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []Reading{single}, nil
}

func (r *Reading) ToJsonBytes() []byte {
	data, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	return data
}
