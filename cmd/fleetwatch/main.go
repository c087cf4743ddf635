package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fleetwatch/internal/clock"
	"github.com/smallbiznis/fleetwatch/internal/config"
	"github.com/smallbiznis/fleetwatch/internal/migration"
	"github.com/smallbiznis/fleetwatch/internal/observability"
	"github.com/smallbiznis/fleetwatch/internal/scheduler"
	"github.com/smallbiznis/fleetwatch/internal/server"
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
		server.Module,
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
