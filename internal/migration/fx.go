package migration

import (
	activitydomain "github.com/billora/billora/internal/activity/domain"
	"github.com/billora/billora/internal/config"
	creditnotedomain "github.com/billora/billora/internal/creditnote/domain"
	customerdomain "github.com/billora/billora/internal/customer/domain"
	invoicedomain "github.com/billora/billora/internal/invoice/domain"
	invoicetemplatedomain "github.com/billora/billora/internal/invoicetemplate/domain"
	paymentdomain "github.com/billora/billora/internal/payment/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// The SQL migrations are written for postgres. Other dialects are
		// used for local development and tests, where the gorm schema is
		// authoritative.
		return conn.AutoMigrate(
			&customerdomain.Customer{},
			&invoicedomain.Invoice{},
			&invoicedomain.InvoiceLine{},
			&creditnotedomain.CreditNote{},
			&paymentdomain.Payment{},
			&activitydomain.Entry{},
			&invoicetemplatedomain.InvoiceTemplate{},
		)
	}),
)
