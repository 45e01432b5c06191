package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/billora/billora/internal/activity"
	activitydomain "github.com/billora/billora/internal/activity/domain"
	"github.com/billora/billora/internal/config"
	"github.com/billora/billora/internal/creditnote"
	creditnotedomain "github.com/billora/billora/internal/creditnote/domain"
	"github.com/billora/billora/internal/customer"
	customerdomain "github.com/billora/billora/internal/customer/domain"
	"github.com/billora/billora/internal/invoice"
	invoicedomain "github.com/billora/billora/internal/invoice/domain"
	"github.com/billora/billora/internal/invoicetemplate"
	invoicetemplatedomain "github.com/billora/billora/internal/invoicetemplate/domain"
	"github.com/billora/billora/internal/observability"
	obsmiddleware "github.com/billora/billora/internal/observability/logger"
	obsmetrics "github.com/billora/billora/internal/observability/metrics"
	obstracing "github.com/billora/billora/internal/observability/tracing"
	"github.com/billora/billora/internal/payment"
	paymentdomain "github.com/billora/billora/internal/payment/domain"
	"github.com/billora/billora/internal/providers"
	"github.com/billora/billora/internal/providers/email"
	"github.com/billora/billora/internal/providers/pdf"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	activity.Module,
	customer.Module,
	creditnote.Module,
	invoice.Module,
	invoicetemplate.Module,
	payment.Module,
	providers.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	genID       *snowflake.Node
	settings    *config.DocumentSettingsHolder
	customerSvc customerdomain.Service
	invoiceSvc  invoicedomain.Service
	creditSvc   creditnotedomain.Service
	paymentSvc  paymentdomain.Service
	activitySvc activitydomain.Service
	templateSvc invoicetemplatedomain.Service
	pdfProvider pdf.Provider
	emailSender email.Provider
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	GenID       *snowflake.Node
	Settings    *config.DocumentSettingsHolder
	CustomerSvc customerdomain.Service
	InvoiceSvc  invoicedomain.Service
	CreditSvc   creditnotedomain.Service
	PaymentSvc  paymentdomain.Service
	ActivitySvc activitydomain.Service
	TemplateSvc invoicetemplatedomain.Service
	PDFProvider pdf.Provider
	EmailSender email.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		genID:       p.GenID,
		settings:    p.Settings,
		customerSvc: p.CustomerSvc,
		invoiceSvc:  p.InvoiceSvc,
		creditSvc:   p.CreditSvc,
		paymentSvc:  p.PaymentSvc,
		activitySvc: p.ActivitySvc,
		templateSvc: p.TemplateSvc,
		pdfProvider: p.PDFProvider,
		emailSender: p.EmailSender,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Customers --------
	v1.GET("/customers", s.ListCustomers)
	v1.POST("/customers", s.CreateCustomer)
	v1.GET("/customers/:id", s.GetCustomerByID)
	v1.PATCH("/customers/:id", s.UpdateCustomer)

	// -------- Invoices --------
	v1.GET("/invoices", s.ListInvoices)
	v1.POST("/invoices", s.CreateInvoice)
	v1.GET("/invoices/:id", s.GetInvoiceByID)
	v1.PATCH("/invoices/:id", s.UpdateInvoice)
	v1.DELETE("/invoices/:id", s.DeleteInvoice)
	v1.POST("/invoices/:id/issue", s.IssueInvoice)
	v1.POST("/invoices/:id/void", s.VoidInvoice)
	v1.GET("/invoices/:id/pdf", s.RenderInvoicePDF)
	v1.POST("/invoices/:id/send", s.SendInvoice)
	v1.GET("/invoices/:id/timeline", s.GetInvoiceTimeline)

	// -------- Credit notes --------
	v1.GET("/invoices/:id/credit-notes", s.ListInvoiceCreditNotes)
	v1.POST("/invoices/:id/credit-notes", s.CreateCreditNote)
	v1.DELETE("/credit-notes/:id", s.DeleteCreditNote)

	// -------- Payments --------
	v1.GET("/invoices/:id/payments", s.ListInvoicePayments)
	v1.POST("/invoices/:id/payments", s.RecordPayment)
	v1.DELETE("/payments/:id", s.DeletePayment)

	// -------- Activity --------
	v1.GET("/activity", s.ListActivity)

	// -------- Templates --------
	v1.GET("/templates", s.ListInvoiceTemplates)
	v1.POST("/templates", s.CreateInvoiceTemplate)
	v1.GET("/templates/:code", s.GetInvoiceTemplateByCode)
	v1.PATCH("/templates/:code", s.UpdateInvoiceTemplate)
	v1.DELETE("/templates/:code", s.DeleteInvoiceTemplate)
	v1.POST("/templates/:code/set-default", s.SetDefaultInvoiceTemplate)

	// -------- Document settings --------
	v1.GET("/settings/documents", s.GetDocumentSettings)
}
