package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Heartbeat(ctx context.Context, req HeartbeatRequest) (*HeartbeatResponse, error)
	SweepStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type HeartbeatRequest struct {
	DeviceID  string  `json:"device_id"`
	AccountID string  `json:"account_id"`
	Status    *string `json:"status,omitempty"`
}

type HeartbeatResponse struct {
	LastActiveAt time.Time `json:"last_active_at"`
}

var (
	ErrInvalidDevice  = errors.New("invalid_device")
	ErrInvalidAccount = errors.New("invalid_account")
	ErrInvalidStatus  = errors.New("invalid_status")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
