package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/travelguide/server/internal/model"
)

// DeviceRepo defines the interface for the device trust table
type DeviceRepo interface {
	Get(ctx context.Context, userID uuid.UUID, fingerprintHash string) (model.Device, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Device, error)
	// Create inserts an untrusted entry. When a concurrent request already
	// created the same (user, fingerprint) pair, the existing row is returned
	// with created=false.
	Create(ctx context.Context, userID uuid.UUID, fingerprintHash, deviceName string) (device model.Device, created bool, err error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Device, error)
	Update(ctx context.Context, id uuid.UUID, deviceName *string, trusted *bool) (model.Device, error)
	SetTrustedByFingerprint(ctx context.Context, userID uuid.UUID, fingerprintHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type deviceRepo struct {
	db *sql.DB
}

// NewDeviceRepo creates a new DeviceRepo instance
func NewDeviceRepo(db *sql.DB) DeviceRepo {
	return &deviceRepo{db: db}
}

const deviceColumns = `id, user_id, fingerprint_hash, device_name, is_trusted, last_login_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (model.Device, error) {
	var d model.Device
	var lastLogin sql.NullTime
	if err := row.Scan(&d.ID, &d.UserID, &d.FingerprintHash, &d.DeviceName, &d.IsTrusted, &lastLogin, &d.CreatedAt); err != nil {
		return model.Device{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		d.LastLoginAt = &t
	}
	return d, nil
}

func deviceErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Get returns the entry for (user, fingerprint)
func (r *deviceRepo) Get(ctx context.Context, userID uuid.UUID, fingerprintHash string) (model.Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, `
		SELECT `+deviceColumns+`
		FROM user_devices
		WHERE user_id = $1 AND fingerprint_hash = $2
	`, userID, fingerprintHash))
	if err != nil {
		return model.Device{}, deviceErr("query device", err)
	}
	return d, nil
}

// GetByID returns the entry with the given id
func (r *deviceRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM user_devices WHERE id = $1`, id))
	if err != nil {
		return model.Device{}, deviceErr("query device", err)
	}
	return d, nil
}

func (r *deviceRepo) Create(ctx context.Context, userID uuid.UUID, fingerprintHash, deviceName string) (model.Device, bool, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, `
		INSERT INTO user_devices (user_id, fingerprint_hash, device_name, is_trusted)
		VALUES ($1, $2, $3, FALSE)
		ON CONFLICT (user_id, fingerprint_hash) DO NOTHING
		RETURNING `+deviceColumns, userID, fingerprintHash, deviceName))
	if err == nil {
		return d, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Device{}, false, fmt.Errorf("failed to create device: %w", err)
	}
	existing, err := r.Get(ctx, userID, fingerprintHash)
	if err != nil {
		return model.Device{}, false, err
	}
	return existing, false, nil
}

// TouchLastLogin sets last_login_at for the entry
func (r *deviceRepo) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE user_devices SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch device: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns the user's devices, most recently used first
func (r *deviceRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+deviceColumns+`
		FROM user_devices
		WHERE user_id = $1
		ORDER BY last_login_at DESC NULLS LAST, created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	devices := make([]model.Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// Update renames and/or sets the trust flag; nil arguments are left unchanged.
func (r *deviceRepo) Update(ctx context.Context, id uuid.UUID, deviceName *string, trusted *bool) (model.Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, `
		UPDATE user_devices
		SET device_name = COALESCE($2, device_name),
		    is_trusted = COALESCE($3, is_trusted)
		WHERE id = $1
		RETURNING `+deviceColumns, id, deviceName, trusted))
	if err != nil {
		return model.Device{}, deviceErr("update device", err)
	}
	return d, nil
}

// SetTrustedByFingerprint marks the (user, fingerprint) entry as trusted
func (r *deviceRepo) SetTrustedByFingerprint(ctx context.Context, userID uuid.UUID, fingerprintHash string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE user_devices SET is_trusted = TRUE
		WHERE user_id = $1 AND fingerprint_hash = $2
	`, userID, fingerprintHash)
	if err != nil {
		return fmt.Errorf("trust device: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the entry
func (r *deviceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_devices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
