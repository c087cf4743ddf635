// Package authorization is the single ownership gate in front of every
// device-scoped read or write.
package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	devicedomain "github.com/smallbiznis/fleetwatch/internal/device/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotAuthorized covers both "device does not exist" and "device belongs
// to another account". The conflation is deliberate: a non-owner must not be
// able to probe whether a device id exists.
var ErrNotAuthorized = errors.New("not_authorized")

type Service interface {
	Authorize(ctx context.Context, deviceID, accountID snowflake.ID) (*devicedomain.Device, error)
}

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo devicedomain.Repository
}

type service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo devicedomain.Repository
}

func New(p Params) Service {
	return &service{
		db:   p.DB,
		log:  p.Log.Named("authorization"),
		repo: p.Repo,
	}
}

func (s *service) Authorize(ctx context.Context, deviceID, accountID snowflake.ID) (*devicedomain.Device, error) {
	if deviceID == 0 || accountID == 0 {
		return nil, ErrNotAuthorized
	}

	device, err := s.repo.FindOwned(ctx, s.db, deviceID, accountID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrNotAuthorized
	}
	return device, nil
}

var Module = fx.Module("authorization",
	fx.Provide(New),
)
