package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fleetwatch/internal/authorization"
	"github.com/smallbiznis/fleetwatch/internal/clock"
	devicedomain "github.com/smallbiznis/fleetwatch/internal/device/domain"
	eventdomain "github.com/smallbiznis/fleetwatch/internal/event/domain"
	usagedomain "github.com/smallbiznis/fleetwatch/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Events eventdomain.Repository
	Authz  authorization.Service
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	events eventdomain.Repository
	authz  authorization.Service
}

func New(p Params) usagedomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("usage.service"),
		clock:  p.Clock,
		events: p.Events,
		authz:  p.Authz,
	}
}

// Usage sums consumption readings for an owned device over the resolved
// window. The total accumulates as decimals, not binary floats, so large
// sample counts do not drift. A window with no events is a valid zero
// answer, not an error.
func (s *Service) Usage(ctx context.Context, req usagedomain.UsageRequest) (*usagedomain.Summary, error) {
	deviceID, err := devicedomain.ParseID(strings.TrimSpace(req.DeviceID))
	if err != nil {
		return nil, devicedomain.ErrInvalidDevice
	}
	accountID, err := devicedomain.ParseID(strings.TrimSpace(req.AccountID))
	if err != nil {
		return nil, devicedomain.ErrInvalidAccount
	}

	if _, err := s.authz.Authorize(ctx, deviceID, accountID); err != nil {
		return nil, err
	}

	window := usagedomain.ResolveRange(req.Range)
	until := s.clock.Now()
	since := until.Add(-window.Duration)

	events, err := s.events.QueryWindow(ctx, s.db, deviceID, eventdomain.KindConsumptionReading, since, until)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	var samples int64
	for i := range events {
		// Only the numeric payload variant participates; text and
		// structured consumption payloads are skipped, not coerced.
		if events[i].ValueKind != eventdomain.ValueNumber || !events[i].NumberValue.Valid {
			continue
		}
		total = total.Add(events[i].NumberValue.Decimal)
		samples++
	}

	return &usagedomain.Summary{
		DeviceID:    deviceID.String(),
		Window:      window.Label,
		Total:       total,
		SampleCount: samples,
	}, nil
}
