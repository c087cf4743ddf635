package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fleetwatch/internal/authorization"
	"github.com/smallbiznis/fleetwatch/internal/clock"
	eventdomain "github.com/smallbiznis/fleetwatch/internal/event/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 10
	maxListLimit     = 1000
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  eventdomain.Repository
	Authz authorization.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  eventdomain.Repository
	authz authorization.Service
}

func New(p Params) eventdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("event.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		authz: p.Authz,
	}
}

// Append validates the kind and payload, then writes one immutable event.
// Nothing is written when validation fails. The device reference is trusted;
// ownership is enforced on the read side.
func (s *Service) Append(ctx context.Context, req eventdomain.AppendRequest) (*eventdomain.Event, error) {
	deviceID, err := eventdomain.ParseID(strings.TrimSpace(req.DeviceID))
	if err != nil || deviceID == 0 {
		return nil, eventdomain.ErrInvalidDevice
	}

	kind := eventdomain.Kind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if !eventdomain.ValidKind(kind) {
		return nil, eventdomain.ErrInvalidKind
	}

	value, err := eventdomain.ParseValue(req.Value)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	recordedAt := now
	if req.RecordedAt != nil && !req.RecordedAt.IsZero() {
		recordedAt = req.RecordedAt.UTC()
	}

	e := &eventdomain.Event{
		ID:         s.genID.Generate(),
		DeviceID:   deviceID,
		Kind:       kind,
		ValueKind:  value.Kind,
		RecordedAt: recordedAt,
		Metadata:   req.Metadata,
		CreatedAt:  now,
	}
	switch value.Kind {
	case eventdomain.ValueNumber:
		e.NumberValue.Decimal = value.Number
		e.NumberValue.Valid = true
	case eventdomain.ValueText:
		text := value.Text
		e.TextValue = &text
	case eventdomain.ValueStructured:
		e.DataValue = value.Data
	}

	if err := s.repo.Insert(ctx, s.db, e); err != nil {
		return nil, err
	}

	return e, nil
}

// List returns the newest events for an owned device, capped at limit.
func (s *Service) List(ctx context.Context, req eventdomain.ListRequest) ([]eventdomain.Event, error) {
	deviceID, err := eventdomain.ParseID(strings.TrimSpace(req.DeviceID))
	if err != nil {
		return nil, eventdomain.ErrInvalidDevice
	}
	accountID, err := eventdomain.ParseID(strings.TrimSpace(req.AccountID))
	if err != nil {
		return nil, eventdomain.ErrInvalidAccount
	}

	if _, err := s.authz.Authorize(ctx, deviceID, accountID); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	return s.repo.ListByDevice(ctx, s.db, deviceID, limit)
}
