package readingdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/timebucket"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

const insertReadingQuery = `
	INSERT INTO readings
	(device_id, timestamp, date, hour_of_day, energy_kwh, cumulative_daily_kwh, on_flag, load_category)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (db *DB) InsertReading(ctx context.Context, reading types.Reading) error {
	return db.InsertReadings(ctx, []types.Reading{reading})
}

// InsertReadings normalizes and appends readings in one transaction.
// Nothing is written when any reading is invalid.
func (db *DB) InsertReadings(ctx context.Context, readings []types.Reading) error {
	normalized := make([]types.Reading, 0, len(readings))
	for _, r := range readings {
		n, err := types.NormalizeReading(r)
		if err != nil {
			return err
		}
		normalized = append(normalized, n)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reading insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertReadingQuery)
	if err != nil {
		return fmt.Errorf("preparing reading insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range normalized {
		var cumulative sql.NullFloat64
		if r.CumulativeDailyKWh != nil {
			cumulative = sql.NullFloat64{Float64: *r.CumulativeDailyKWh, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			string(r.DeviceID),
			r.Timestamp.UnixMilli(),
			r.Date,
			r.HourOfDay,
			r.EnergyKWh,
			cumulative,
			r.OnFlag,
			r.LoadCategory,
		)
		if err != nil {
			return fmt.Errorf("inserting reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing readings: %w", err)
	}
	return nil
}

// Readings returns every reading with From <= timestamp < Until, ordered by
// timestamp. When devices is non-empty only those devices are returned.
func (db *DB) Readings(ctx context.Context, w timebucket.Window, devices ...types.DeviceID) ([]types.Reading, error) {
	query := `
		SELECT device_id, timestamp, date, hour_of_day, energy_kwh, cumulative_daily_kwh, on_flag, load_category
		FROM readings
		WHERE timestamp >= ? AND timestamp < ?`
	args := []any{w.From.UnixMilli(), w.Until.UnixMilli()}

	if len(devices) > 0 {
		placeholders := make([]string, len(devices))
		for i, d := range devices {
			placeholders[i] = "?"
			args = append(args, string(d))
		}
		query += " AND device_id IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY timestamp, id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	var results []types.Reading
	for rows.Next() {
		var (
			r          types.Reading
			deviceID   string
			millis     int64
			cumulative sql.NullFloat64
		)
		if err := rows.Scan(&deviceID, &millis, &r.Date, &r.HourOfDay, &r.EnergyKWh, &cumulative, &r.OnFlag, &r.LoadCategory); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		r.DeviceID = types.DeviceID(deviceID)
		r.Timestamp = time.UnixMilli(millis).UTC()
		if cumulative.Valid {
			v := cumulative.Float64
			r.CumulativeDailyKWh = &v
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// LatestDate returns the most recent reading day, and false when the store is empty.
func (db *DB) LatestDate(ctx context.Context) (time.Time, bool, error) {
	var date sql.NullString
	err := db.conn.QueryRowContext(ctx, `SELECT date FROM readings ORDER BY timestamp DESC LIMIT 1`).Scan(&date)
	if err == sql.ErrNoRows || (err == nil && !date.Valid) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("querying latest date: %w", err)
	}
	day, err := timebucket.ParseDate(date.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing stored date: %w", err)
	}
	return day, true, nil
}

// DeleteDeviceReadings removes a device's history and returns the number of rows removed.
func (db *DB) DeleteDeviceReadings(ctx context.Context, deviceID types.DeviceID) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM readings WHERE device_id = ?`, string(deviceID))
	if err != nil {
		return 0, fmt.Errorf("deleting device readings: %w", err)
	}
	return res.RowsAffected()
}

func (db *DB) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting readings: %w", err)
	}
	return n, nil
}
