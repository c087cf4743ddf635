package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *Event) error
	// ListByDevice returns the newest events first: recorded_at descending,
	// insertion order descending on ties.
	ListByDevice(ctx context.Context, db *gorm.DB, deviceID snowflake.ID, limit int) ([]Event, error)
	// QueryWindow returns events of one kind with since <= recorded_at < until,
	// newest first. Each call re-executes the scan.
	QueryWindow(ctx context.Context, db *gorm.DB, deviceID snowflake.ID, kind Kind, since, until time.Time) ([]Event, error)
}
