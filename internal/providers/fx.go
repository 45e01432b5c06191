package providers

import (
	"github.com/billora/billora/internal/providers/email"
	"github.com/billora/billora/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
