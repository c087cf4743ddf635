// The sweeper runs the staleness sweep without the HTTP surface, for
// deployments that separate request handling from maintenance.
package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fleetwatch/internal/authorization"
	"github.com/smallbiznis/fleetwatch/internal/clock"
	"github.com/smallbiznis/fleetwatch/internal/config"
	"github.com/smallbiznis/fleetwatch/internal/device"
	"github.com/smallbiznis/fleetwatch/internal/migration"
	"github.com/smallbiznis/fleetwatch/internal/observability"
	"github.com/smallbiznis/fleetwatch/internal/ratelimit"
	"github.com/smallbiznis/fleetwatch/internal/scheduler"
	"github.com/smallbiznis/fleetwatch/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		authorization.Module,
		device.Module,
		ratelimit.Module,

		// No server module.
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
