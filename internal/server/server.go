package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jubileu50/pedidos/internal/config"
	"github.com/jubileu50/pedidos/internal/ledger"
	"github.com/jubileu50/pedidos/internal/observability"
	obsmiddleware "github.com/jubileu50/pedidos/internal/observability/logger"
	obstracing "github.com/jubileu50/pedidos/internal/observability/tracing"
	"github.com/jubileu50/pedidos/internal/order"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
	"github.com/jubileu50/pedidos/internal/payment"
	paymentdomain "github.com/jubileu50/pedidos/internal/payment/domain"
	"github.com/jubileu50/pedidos/internal/report"
	reportdomain "github.com/jubileu50/pedidos/internal/report/domain"
	"github.com/jubileu50/pedidos/internal/settings"
	settingsdomain "github.com/jubileu50/pedidos/internal/settings/domain"
	"github.com/jubileu50/pedidos/internal/stats"
	statsdomain "github.com/jubileu50/pedidos/internal/stats/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	order.Module,
	ledger.Module,
	payment.Module,
	stats.Module,
	settings.Module,
	report.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, tp trace.TracerProvider) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(tp))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, tp trace.TracerProvider) *gin.Engine {
	return NewEngine(obsCfg, tp)
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
	orderSvc    orderdomain.Service
	paymentSvc  paymentdomain.Service
	statsSvc    statsdomain.Service
	settingsSvc settingsdomain.Service
	reportSvc   reportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	OrderSvc    orderdomain.Service
	PaymentSvc  paymentdomain.Service
	StatsSvc    statsdomain.Service
	SettingsSvc settingsdomain.Service
	ReportSvc   reportdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		orderSvc:    p.OrderSvc,
		paymentSvc:  p.PaymentSvc,
		statsSvc:    p.StatsSvc,
		settingsSvc: p.SettingsSvc,
		reportSvc:   p.ReportSvc,
	}

	svc.registerPublicRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api")

	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/availability/sector", s.CheckSector)
	api.GET("/orders/availability/email", s.CheckEmail)
	api.GET("/orders/code/:code", s.GetOrderByCode)
	api.GET("/orders/lookup", s.LookupOrdersByEmail)
	api.GET("/settings", s.GetSettings)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AdminRequired())

	// -------- Orders --------
	admin.GET("/orders", s.ListOrders)
	admin.GET("/orders/:id", s.GetOrder)
	admin.PATCH("/orders/:id", s.UpdateOrder)
	admin.DELETE("/orders/:id", s.DeleteOrder)

	// -------- Payments --------
	admin.POST("/orders/:id/payments", s.RecordPayment)
	admin.DELETE("/orders/:id/payments/last", s.CancelLastPayment)
	admin.GET("/orders/:id/payments", s.ListPayments)
	admin.GET("/ledgers", s.ListLedgers)

	// -------- Stats --------
	admin.GET("/stats", s.GetStats)
	admin.POST("/stats/resync", s.ResyncStats)

	// -------- Settings / batches --------
	admin.PATCH("/settings", s.UpdateSettings)
	admin.POST("/batches", s.NewBatch)
	admin.DELETE("/batches/current", s.RevertBatch)
	admin.POST("/event/end", s.EndEvent)

	// -------- Reports --------
	admin.GET("/reports/orders.pdf", s.OrderListReport)
	admin.GET("/reports/sizes.pdf", s.SizeMatrixReport)
}
