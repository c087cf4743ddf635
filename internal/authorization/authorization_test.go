package authorization

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	devicedomain "github.com/smallbiznis/fleetwatch/internal/device/domain"
	devicerepo "github.com/smallbiznis/fleetwatch/internal/device/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestAuthorize(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&devicedomain.Device{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := devicerepo.Provide()
	svc := New(Params{DB: db, Log: zap.NewNop(), Repo: repo})

	owner := node.Generate()
	stranger := node.Generate()
	deviceID := node.Generate()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(context.Background(), db, &devicedomain.Device{
		ID:        deviceID,
		AccountID: owner,
		Name:      "porch-cam",
		Type:      devicedomain.TypeCamera,
		Status:    devicedomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	device, err := svc.Authorize(context.Background(), deviceID, owner)
	require.NoError(t, err)
	assert.Equal(t, deviceID, device.ID)

	// Wrong owner and unknown device must be indistinguishable.
	_, err = svc.Authorize(context.Background(), deviceID, stranger)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.Authorize(context.Background(), node.Generate(), owner)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.Authorize(context.Background(), 0, owner)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}
