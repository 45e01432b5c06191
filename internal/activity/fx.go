package activity

import (
	"github.com/billora/billora/internal/activity/repository"
	"github.com/billora/billora/internal/activity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
