package creditnote

import (
	"github.com/billora/billora/internal/creditnote/repository"
	"github.com/billora/billora/internal/creditnote/service"
	"go.uber.org/fx"
)

var Module = fx.Module("creditnote.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
