package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, device *Device) error
	// FindOwned returns nil when the device does not exist or belongs to a
	// different account. Callers must not distinguish the two cases.
	FindOwned(ctx context.Context, db *gorm.DB, id, accountID snowflake.ID) (*Device, error)
	// RecordHeartbeat merges the heartbeat timestamp with max(old, new) and
	// optionally overrides the status, in a single atomic update. It returns
	// the stored last_active_at, or nil when no owned row matched.
	RecordHeartbeat(ctx context.Context, db *gorm.DB, id, accountID snowflake.ID, at time.Time, status *Status) (*time.Time, error)
	// DemoteStale flips every non-inactive device whose last activity
	// (last_active_at, or created_at when never heartbeated) predates cutoff.
	DemoteStale(ctx context.Context, db *gorm.DB, cutoff, now time.Time) (int64, error)
}
