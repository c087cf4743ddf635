package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/fleetwatch/internal/authorization"
	"github.com/smallbiznis/fleetwatch/internal/clock"
	devicedomain "github.com/smallbiznis/fleetwatch/internal/device/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultStaleThreshold = 24 * time.Hour

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  devicedomain.Repository
	Authz authorization.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  devicedomain.Repository
	authz authorization.Service
}

func New(p Params) devicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("device.service"),
		clock: p.Clock,
		repo:  p.Repo,
		authz: p.Authz,
	}
}

// Heartbeat records device activity. The stored timestamp only moves
// forward: late or duplicate heartbeats are no-ops for last_active_at. A
// heartbeat never changes the liveness state unless the device explicitly
// reports one, so a device in maintenance stays there until it says
// otherwise.
func (s *Service) Heartbeat(ctx context.Context, req devicedomain.HeartbeatRequest) (*devicedomain.HeartbeatResponse, error) {
	deviceID, err := devicedomain.ParseID(strings.TrimSpace(req.DeviceID))
	if err != nil {
		return nil, devicedomain.ErrInvalidDevice
	}
	accountID, err := devicedomain.ParseID(strings.TrimSpace(req.AccountID))
	if err != nil {
		return nil, devicedomain.ErrInvalidAccount
	}

	var status *devicedomain.Status
	if req.Status != nil {
		parsed := devicedomain.Status(strings.ToLower(strings.TrimSpace(*req.Status)))
		if !devicedomain.ValidStatus(parsed) {
			return nil, devicedomain.ErrInvalidStatus
		}
		status = &parsed
	}

	if _, err := s.authz.Authorize(ctx, deviceID, accountID); err != nil {
		return nil, err
	}

	stored, err := s.repo.RecordHeartbeat(ctx, s.db, deviceID, accountID, s.clock.Now(), status)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		// Device deleted between authorize and update.
		return nil, authorization.ErrNotAuthorized
	}

	return &devicedomain.HeartbeatResponse{LastActiveAt: *stored}, nil
}

// SweepStale demotes every device whose last activity predates the
// threshold. Devices that never heartbeated count from creation time. The
// sweep runs without caller identity; it is a maintenance operation, not a
// per-account request.
func (s *Service) SweepStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = defaultStaleThreshold
	}

	now := s.clock.Now()
	count, err := s.repo.DemoteStale(ctx, s.db, now.Add(-olderThan), now)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info("demoted stale devices",
			zap.Int64("count", count),
			zap.Duration("threshold", olderThan),
		)
	}
	return count, nil
}
