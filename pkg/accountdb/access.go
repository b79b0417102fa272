package accountdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

const userColumns = `id, name, email, phone, password_hash, verified, otp, otp_expires_at, created_at`

func (db *DB) CreateUser(ctx context.Context, u *types.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, strings.ToLower(strings.TrimSpace(u.Email)), u.Phone, u.PasswordHash,
		u.Verified, u.OTP, nullableMillis(u.OTPExpiresAt), u.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (db *DB) UserByEmail(ctx context.Context, email string) (types.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

func (db *DB) UserByID(ctx context.Context, id string) (types.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// SetOTP replaces the pending verification code of a user.
func (db *DB) SetOTP(ctx context.Context, userID, otp string, expiresAt time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET otp = ?, otp_expires_at = ? WHERE id = ?`,
		otp, expiresAt.UnixMilli(), userID)
	if err != nil {
		return fmt.Errorf("updating otp: %w", err)
	}
	return expectOne(res)
}

// MarkVerified flags the user verified and clears the pending code.
func (db *DB) MarkVerified(ctx context.Context, userID string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET verified = 1, otp = '', otp_expires_at = NULL WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("verifying user: %w", err)
	}
	return expectOne(res)
}

// DeleteUser removes the user and, through the foreign key, their devices.
func (db *DB) DeleteUser(ctx context.Context, userID string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return expectOne(res)
}

const deviceColumns = `id, user_id, name, type, wattage, location, is_active, created_at`

func (db *DB) CreateDevice(ctx context.Context, d *types.Device) error {
	if d.ID == "" {
		d.ID = types.DeviceID(uuid.NewString())
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO devices (`+deviceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(d.ID), d.UserID, d.Name, string(d.Type), d.Wattage, string(d.Location), d.IsActive, d.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

// Devices lists a user's devices, oldest first.
func (db *DB) Devices(ctx context.Context, userID string) ([]types.Device, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []types.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// DeviceByID only finds devices owned by userID.
func (db *DB) DeviceByID(ctx context.Context, userID string, id types.DeviceID) (types.Device, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = ? AND user_id = ?`, string(id), userID)
	return scanDevice(row)
}

func (db *DB) UpdateDevice(ctx context.Context, d types.Device) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE devices SET name = ?, type = ?, wattage = ?, location = ?, is_active = ? WHERE id = ? AND user_id = ?`,
		d.Name, string(d.Type), d.Wattage, string(d.Location), d.IsActive, string(d.ID), d.UserID)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}
	return expectOne(res)
}

func (db *DB) DeleteDevice(ctx context.Context, userID string, id types.DeviceID) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM devices WHERE id = ? AND user_id = ?`, string(id), userID)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}
	return expectOne(res)
}

// DeviceNames maps device ids to display names for one user.
func (db *DB) DeviceNames(ctx context.Context, userID string) (map[types.DeviceID]string, error) {
	devices, err := db.Devices(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[types.DeviceID]string, len(devices))
	for _, d := range devices {
		names[d.ID] = d.Name
	}
	return names, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (types.User, error) {
	var (
		u         types.User
		expires   sql.NullInt64
		createdAt int64
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Verified, &u.OTP, &expires, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, ErrNotFound
	}
	if err != nil {
		return types.User{}, fmt.Errorf("scanning user: %w", err)
	}
	if expires.Valid {
		t := time.UnixMilli(expires.Int64).UTC()
		u.OTPExpiresAt = &t
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return u, nil
}

func scanDevice(row scanner) (types.Device, error) {
	var (
		d         types.Device
		id        string
		typ       string
		location  string
		createdAt int64
	)
	err := row.Scan(&id, &d.UserID, &d.Name, &typ, &d.Wattage, &location, &d.IsActive, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Device{}, ErrNotFound
	}
	if err != nil {
		return types.Device{}, fmt.Errorf("scanning device: %w", err)
	}
	d.ID = types.DeviceID(id)
	d.Type = types.DeviceType(typ)
	d.Location = types.Location(location)
	d.CreatedAt = time.UnixMilli(createdAt).UTC()
	return d, nil
}

func nullableMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
