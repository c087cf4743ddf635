package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/fleetwatch/internal/authorization"
	"github.com/smallbiznis/fleetwatch/internal/clock"
	"github.com/smallbiznis/fleetwatch/internal/config"
	devicedomain "github.com/smallbiznis/fleetwatch/internal/device/domain"
	devicerepo "github.com/smallbiznis/fleetwatch/internal/device/repository"
	devicesvc "github.com/smallbiznis/fleetwatch/internal/device/service"
	eventdomain "github.com/smallbiznis/fleetwatch/internal/event/domain"
	eventrepo "github.com/smallbiznis/fleetwatch/internal/event/repository"
	eventsvc "github.com/smallbiznis/fleetwatch/internal/event/service"
	usagesvc "github.com/smallbiznis/fleetwatch/internal/usage/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type apiFixture struct {
	engine  *gin.Engine
	genID   *snowflake.Node
	clk     *clock.FakeClock
	db      *gorm.DB
	devices devicedomain.Repository
	owner   snowflake.ID
	device  snowflake.ID
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&devicedomain.Device{}, &eventdomain.Event{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	deviceRepo := devicerepo.Provide()
	eventRepo := eventrepo.Provide()
	authz := authorization.New(authorization.Params{DB: db, Log: log, Repo: deviceRepo})

	srv := &Server{
		log:       log,
		devicesvc: devicesvc.New(devicesvc.Params{DB: db, Log: log, Clock: clk, Repo: deviceRepo, Authz: authz}),
		eventsvc:  eventsvc.New(eventsvc.Params{DB: db, Log: log, GenID: node, Clock: clk, Repo: eventRepo, Authz: authz}),
		usagesvc:  usagesvc.New(usagesvc.Params{DB: db, Log: log, Clock: clk, Events: eventRepo, Authz: authz}),
	}

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	srv.engine = r
	srv.RegisterRoutes()

	owner := node.Generate()
	deviceID := node.Generate()
	require.NoError(t, deviceRepo.Insert(context.Background(), db, &devicedomain.Device{
		ID:        deviceID,
		AccountID: owner,
		Name:      "hallway-sensor",
		Type:      devicedomain.TypeSensor,
		Status:    devicedomain.StatusActive,
		CreatedAt: clk.Now(),
		UpdatedAt: clk.Now(),
	}))

	return &apiFixture{
		engine:  r,
		genID:   node,
		clk:     clk,
		db:      db,
		devices: deviceRepo,
		owner:   owner,
		device:  deviceID,
	}
}

func (f *apiFixture) do(t *testing.T, method, path, account, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if account != "" {
		req.Header.Set(HeaderAccount, account)
	}

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

// stalledDeviceService holds every heartbeat until the request deadline
// fires, standing in for a stuck store call.
type stalledDeviceService struct{}

func (stalledDeviceService) Heartbeat(ctx context.Context, req devicedomain.HeartbeatRequest) (*devicedomain.HeartbeatResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledDeviceService) SweepStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

func TestRequestTimeoutMapsToServiceUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{log: zap.NewNop(), devicesvc: stalledDeviceService{}}
	r := gin.New()
	r.Use(TimeoutMiddleware(config.Config{RequestTimeout: 25 * time.Millisecond}))
	r.Use(ErrorHandlingMiddleware())
	srv.engine = r
	srv.RegisterRoutes()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/devices/1/heartbeat", nil)
	req.Header.Set(HeaderAccount, "2")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())

	var resp struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "service_unavailable", resp.Error.Type)
	assert.Equal(t, "temporary failure, retry later", resp.Error.Message)
}

func TestMissingAccountHeaderIs401(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/v1/devices/%s/heartbeat", f.device), "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHeartbeatEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/v1/devices/%s/heartbeat", f.device), f.owner.String(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp devicedomain.HeartbeatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.LastActiveAt.Equal(f.clk.Now()))
}

func TestHeartbeatWrongOwnerIs404(t *testing.T) {
	f := newAPIFixture(t)
	stranger := f.genID.Generate()

	w := f.do(t, http.MethodPost, fmt.Sprintf("/v1/devices/%s/heartbeat", f.device), stranger.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// An unknown device reads the same as someone else's device.
	w = f.do(t, http.MethodPost, fmt.Sprintf("/v1/devices/%s/heartbeat", f.genID.Generate()), f.owner.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHeartbeatInvalidStatusIs400(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/v1/devices/%s/heartbeat", f.device), f.owner.String(), `{"status":"rebooting"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHeartbeatChunkedBodyAppliesStatusHint(t *testing.T) {
	f := newAPIFixture(t)

	// Wrapping the reader hides its length, so the request goes out chunked
	// with ContentLength -1.
	body := struct{ io.Reader }{strings.NewReader(`{"status":"maintenance"}`)}
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v1/devices/%s/heartbeat", f.device), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAccount, f.owner.String())
	require.Equal(t, int64(-1), req.ContentLength)

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	device, err := f.devices.FindOwned(context.Background(), f.db, f.device, f.owner)
	require.NoError(t, err)
	require.NotNil(t, device)
	assert.Equal(t, devicedomain.StatusMaintenance, device.Status)
}

func TestAppendEventEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/v1/devices/%s/events", f.device), f.owner.String(),
		`{"kind":"consumption_reading","value":12.5}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		EventID string `json:"event_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.EventID)
}

func TestAppendEventUnknownKindIs400(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/v1/devices/%s/events", f.device), f.owner.String(),
		`{"kind":"door_ajar","value":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEventsEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	for i := 0; i < 3; i++ {
		w := f.do(t, http.MethodPost, fmt.Sprintf("/v1/devices/%s/events", f.device), f.owner.String(),
			`{"kind":"motion_detected","value":"hallway"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.do(t, http.MethodGet, fmt.Sprintf("/v1/devices/%s/events?limit=2", f.device), f.owner.String(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Events []json.RawMessage `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Events, 2)
}

func TestUsageEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	for _, v := range []string{"1.5", "2.5"} {
		w := f.do(t, http.MethodPost, fmt.Sprintf("/v1/devices/%s/events", f.device), f.owner.String(),
			fmt.Sprintf(`{"kind":"consumption_reading","value":%s}`, v))
		require.Equal(t, http.StatusCreated, w.Code)
	}
	// Move ingestion time forward so the readings sit inside the window.
	f.clk.Advance(time.Minute)

	w := f.do(t, http.MethodGet, fmt.Sprintf("/v1/devices/%s/usage?range=24h", f.device), f.owner.String(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Window      string `json:"window"`
		Total       string `json:"total"`
		SampleCount int64  `json:"sample_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "last 24 hours", resp.Window)
	assert.Equal(t, "4", resp.Total)
	assert.Equal(t, int64(2), resp.SampleCount)
}
