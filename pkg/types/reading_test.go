package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReadingDerivesDayAndHour(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	r, err := NormalizeReading(Reading{
		DeviceID:  " ac-1 ",
		Timestamp: time.Date(2024, 3, 2, 1, 30, 0, 0, loc),
		EnergyKWh: 0.5,
	})
	require.NoError(t, err)

	assert.Equal(t, DeviceID("ac-1"), r.DeviceID)
	assert.Equal(t, "2024-03-01", r.Date)
	assert.Equal(t, 23, r.HourOfDay)
	assert.Equal(t, time.UTC, r.Timestamp.Location())
}

func TestNormalizeReadingRejectsBrokenInvariants(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	cases := map[string]Reading{
		"missing device": {Timestamp: ts, EnergyKWh: 1},
		"zero timestamp": {DeviceID: "tv", EnergyKWh: 1},
		"negative":       {DeviceID: "tv", Timestamp: ts, EnergyKWh: -0.1},
		"date mismatch":  {DeviceID: "tv", Timestamp: ts, Date: "2024-03-02", EnergyKWh: 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeReading(in)
			assert.ErrorIs(t, err, ErrInvalidReading)
		})
	}
}

func TestReadingsFromJsonBytes(t *testing.T) {
	single := []byte(`{"device_id":"fridge","timestamp":"2024-03-01T10:20:00Z","energy_consumed":0.25}`)
	got, err := ReadingsFromJsonBytes(single)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, DeviceID("fridge"), got[0].DeviceID)
	assert.InDelta(t, 0.25, got[0].EnergyKWh, 1e-9)

	batch := []byte(`[{"device_id":"a","timestamp":"2024-03-01T10:20:00Z"},{"device_id":"b","timestamp":"2024-03-01T10:40:00Z"}]`)
	got, err = ReadingsFromJsonBytes(batch)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = ReadingsFromJsonBytes([]byte(`{not json`))
	assert.Error(t, err)
}
