package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/fleetwatch/internal/authorization"
	"github.com/smallbiznis/fleetwatch/internal/config"
	"github.com/smallbiznis/fleetwatch/internal/device"
	devicedomain "github.com/smallbiznis/fleetwatch/internal/device/domain"
	"github.com/smallbiznis/fleetwatch/internal/event"
	eventdomain "github.com/smallbiznis/fleetwatch/internal/event/domain"
	"github.com/smallbiznis/fleetwatch/internal/observability"
	obsmiddleware "github.com/smallbiznis/fleetwatch/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/fleetwatch/internal/observability/metrics"
	obstracing "github.com/smallbiznis/fleetwatch/internal/observability/tracing"
	"github.com/smallbiznis/fleetwatch/internal/ratelimit"
	"github.com/smallbiznis/fleetwatch/internal/usage"
	usagedomain "github.com/smallbiznis/fleetwatch/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	authorization.Module,
	device.Module,
	event.Module,
	usage.Module,
	ratelimit.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug: obsCfg.Debug(),
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(TimeoutMiddleware(cfg))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ServerParams struct {
	fx.In

	Engine    *gin.Engine
	Log       *zap.Logger
	DeviceSvc devicedomain.Service
	EventSvc  eventdomain.Service
	UsageSvc  usagedomain.Service
	Limiter   *ratelimit.HeartbeatLimiter `optional:"true"`
}

type Server struct {
	engine    *gin.Engine
	log       *zap.Logger
	devicesvc devicedomain.Service
	eventsvc  eventdomain.Service
	usagesvc  usagedomain.Service
	limiter   *ratelimit.HeartbeatLimiter
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:    p.Engine,
		log:       p.Log.Named("server"),
		devicesvc: p.DeviceSvc,
		eventsvc:  p.EventSvc,
		usagesvc:  p.UsageSvc,
		limiter:   p.Limiter,
	}
}

func (s *Server) RegisterRoutes() {
	v1 := s.engine.Group("/v1", AccountMiddleware())

	v1.POST("/devices/:device_id/heartbeat", s.Heartbeat)
	v1.POST("/devices/:device_id/events", s.AppendEvent)
	v1.GET("/devices/:device_id/events", s.ListEvents)
	v1.GET("/devices/:device_id/usage", s.Usage)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
