package device

import (
	"github.com/smallbiznis/fleetwatch/internal/device/repository"
	"github.com/smallbiznis/fleetwatch/internal/device/service"
	"go.uber.org/fx"
)

var Module = fx.Module("device.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
