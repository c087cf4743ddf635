package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	devicedomain "github.com/smallbiznis/fleetwatch/internal/device/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() devicedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, d *devicedomain.Device) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO devices (id, account_id, name, type, status, last_active_at, attributes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.AccountID,
		d.Name,
		d.Type,
		d.Status,
		d.LastActiveAt,
		d.Attributes,
		d.CreatedAt,
		d.UpdatedAt,
	).Error
}

func (r *repo) FindOwned(ctx context.Context, db *gorm.DB, id, accountID snowflake.ID) (*devicedomain.Device, error) {
	var device devicedomain.Device
	err := db.WithContext(ctx).Raw(
		`SELECT id, account_id, name, type, status, last_active_at, attributes, created_at, updated_at
		 FROM devices WHERE id = ? AND account_id = ?`,
		id,
		accountID,
	).Scan(&device).Error
	if err != nil {
		return nil, err
	}
	if device.ID == 0 {
		return nil, nil
	}
	return &device, nil
}

func (r *repo) RecordHeartbeat(ctx context.Context, db *gorm.DB, id, accountID snowflake.ID, at time.Time, status *devicedomain.Status) (*time.Time, error) {
	var statusArg any
	if status != nil {
		statusArg = string(*status)
	}

	result := db.WithContext(ctx).Exec(
		`UPDATE devices
		 SET last_active_at = CASE
		       WHEN last_active_at IS NULL OR last_active_at < ? THEN ?
		       ELSE last_active_at
		     END,
		     status = COALESCE(?, status),
		     updated_at = ?
		 WHERE id = ? AND account_id = ?`,
		at,
		at,
		statusArg,
		at,
		id,
		accountID,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	var stored sql.NullTime
	err := db.WithContext(ctx).Raw(
		`SELECT last_active_at FROM devices WHERE id = ? AND account_id = ?`,
		id,
		accountID,
	).Scan(&stored).Error
	if err != nil {
		return nil, err
	}
	if !stored.Valid {
		return nil, errors.New("heartbeat not persisted")
	}
	t := stored.Time.UTC()
	return &t, nil
}

func (r *repo) DemoteStale(ctx context.Context, db *gorm.DB, cutoff, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE devices
		 SET status = ?, updated_at = ?
		 WHERE status <> ?
		   AND COALESCE(last_active_at, created_at) < ?`,
		devicedomain.StatusInactive,
		now,
		devicedomain.StatusInactive,
		cutoff,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
