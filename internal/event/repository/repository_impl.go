package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/smallbiznis/fleetwatch/internal/event/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() eventdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, e *eventdomain.Event) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO device_events (id, device_id, kind, value_kind, value_number, value_text, value_data, recorded_at, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.DeviceID,
		e.Kind,
		e.ValueKind,
		e.NumberValue,
		e.TextValue,
		e.DataValue,
		e.RecordedAt,
		e.Metadata,
		e.CreatedAt,
	).Error
}

func (r *repo) ListByDevice(ctx context.Context, db *gorm.DB, deviceID snowflake.ID, limit int) ([]eventdomain.Event, error) {
	var events []eventdomain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT id, device_id, kind, value_kind, value_number, value_text, value_data, recorded_at, metadata, created_at
		 FROM device_events
		 WHERE device_id = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		deviceID,
		limit,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) QueryWindow(ctx context.Context, db *gorm.DB, deviceID snowflake.ID, kind eventdomain.Kind, since, until time.Time) ([]eventdomain.Event, error) {
	var events []eventdomain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT id, device_id, kind, value_kind, value_number, value_text, value_data, recorded_at, metadata, created_at
		 FROM device_events
		 WHERE device_id = ?
		   AND kind = ?
		   AND recorded_at >= ?
		   AND recorded_at < ?
		 ORDER BY recorded_at DESC, id DESC`,
		deviceID,
		kind,
		since,
		until,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
