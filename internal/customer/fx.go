package customer

import (
	"github.com/billora/billora/internal/customer/repository"
	"github.com/billora/billora/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
