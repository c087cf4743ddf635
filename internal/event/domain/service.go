package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Append(ctx context.Context, req AppendRequest) (*Event, error)
	List(ctx context.Context, req ListRequest) ([]Event, error)
}

type AppendRequest struct {
	DeviceID   string          `json:"device_id"`
	Kind       string          `json:"kind"`
	Value      json.RawMessage `json:"value"`
	RecordedAt *time.Time      `json:"recorded_at,omitempty"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
}

type ListRequest struct {
	DeviceID  string `json:"device_id"`
	AccountID string `json:"account_id"`
	Limit     int    `json:"limit"`
}

var (
	ErrInvalidKind    = errors.New("invalid_kind")
	ErrInvalidValue   = errors.New("invalid_value")
	ErrInvalidDevice  = errors.New("invalid_device")
	ErrInvalidAccount = errors.New("invalid_account")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
