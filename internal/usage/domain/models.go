// Package domain defines the windowed usage summary contract.
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Window is a resolved aggregation range. The label always reflects the
// window actually computed, never the raw request string.
type Window struct {
	Label    string
	Duration time.Duration
}

var windows = map[string]Window{
	"1h":  {Label: "last hour", Duration: time.Hour},
	"24h": {Label: "last 24 hours", Duration: 24 * time.Hour},
	"7d":  {Label: "last 7 days", Duration: 7 * 24 * time.Hour},
	"30d": {Label: "last 30 days", Duration: 30 * 24 * time.Hour},
}

// ResolveRange maps a range string to its window. Unrecognized input falls
// back to the last 24 hours instead of failing; the endpoint is permissive
// on purpose.
func ResolveRange(raw string) Window {
	if w, ok := windows[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return w
	}
	return windows["24h"]
}

type UsageRequest struct {
	DeviceID  string `json:"device_id"`
	AccountID string `json:"account_id"`
	Range     string `json:"range"`
}

type Summary struct {
	DeviceID    string          `json:"device_id"`
	Window      string          `json:"window"`
	Total       decimal.Decimal `json:"total"`
	SampleCount int64           `json:"sample_count"`
}

type Service interface {
	Usage(ctx context.Context, req UsageRequest) (*Summary, error)
}
