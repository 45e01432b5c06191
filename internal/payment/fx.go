package payment

import (
	"github.com/billora/billora/internal/payment/repository"
	"github.com/billora/billora/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
