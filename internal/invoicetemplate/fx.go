package invoicetemplate

import (
	"github.com/billora/billora/internal/invoicetemplate/repository"
	"github.com/billora/billora/internal/invoicetemplate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoicetemplate.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
