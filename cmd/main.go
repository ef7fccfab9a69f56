package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"billdesk/internal/caching"
	"billdesk/internal/config"
	"billdesk/internal/handlers"
	"billdesk/internal/httpclient"
	"billdesk/internal/jobs"
	"billdesk/internal/jobs/background"
	"billdesk/internal/logger"
	"billdesk/internal/middleware"
	"billdesk/internal/pdf"
	"billdesk/internal/repositories"
	"billdesk/internal/services"
	"billdesk/pkg/database"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "billdesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, log); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, log)

	storageSvc, err := services.NewStorageService(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.UseSSL,
	)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	if err := storageSvc.EnsureBucketExists(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", cfg.Storage.Bucket, err)
	}

	renderer, err := pdf.NewRenderer(pdf.Config{
		TemplatePath: cfg.PDF.TemplatePath,
		Flatten:      cfg.PDF.Flatten,
	}, log.With("component", "pdf"))
	if err != nil {
		return fmt.Errorf("load bill template: %w", err)
	}

	// Repositories
	store := repositories.NewStore(pool)
	txRunner := repositories.NewTxRunner(pool)

	// Services
	mpClient := httpclient.NewClient(httpclient.ClientConfig{
		Timeout:  cfg.MercadoPago.Timeout,
		RetryMax: cfg.MercadoPago.RetryMax,
	}, log.With("component", "mercadopago"))
	mercadoPagoSvc := services.NewMercadoPagoService(cfg.MercadoPago, mpClient)
	paymentSvc := services.NewPaymentLinkService(store.Companies, mercadoPagoSvc, cacheSvc, cfg.Server.JWTSecret, log)
	emailSvc := services.NewEmailService(cfg.SMTP, log)
	authSvc := services.NewAuthService(store.Companies, emailSvc, cfg.Server.JWTSecret, cfg.Server.TokenTTL, cfg.Server.PublicURL, log)
	companySvc := services.NewCompanyService(store.Companies, storageSvc, cacheSvc, cfg.Storage.PresignTTL, log)
	customerSvc := services.NewCustomerService(store.Customers, log)
	productSvc := services.NewProductService(store.Products, log)
	billSvc := services.NewBillService(
		store,
		txRunner,
		services.NewBillLineBuilder(),
		renderer,
		storageSvc,
		cacheSvc,
		paymentSvc,
		services.NewQRService(),
		emailSvc,
		cfg.Storage.PresignTTL,
		log,
	)

	// Background jobs
	scheduler, err := background.NewJobScheduler(log)
	if err != nil {
		return fmt.Errorf("create job scheduler: %w", err)
	}
	if cfg.Jobs.Enabled {
		if err := scheduler.AddJob(jobs.NewBillRecoveryJob(billSvc, 0, cfg.Jobs.RecoveryInterval/2, log), cfg.Jobs.RecoveryInterval, true); err != nil {
			return err
		}
		if err := scheduler.AddJob(jobs.NewCredentialRefreshJob(paymentSvc, cfg.Jobs.CredentialRefreshInterval*2, 0, log), cfg.Jobs.CredentialRefreshInterval, false); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop() //nolint:errcheck

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, cfg.Server.AllowedOrigin)
	companyHandlers := handlers.NewCompanyHandlers(companySvc)
	customerHandlers := handlers.NewCustomerHandlers(customerSvc)
	productHandlers := handlers.NewProductHandlers(productSvc)
	billHandlers := handlers.NewBillHandlers(billSvc)
	mpHandlers := handlers.NewMercadoPagoHandlers(paymentSvc, log)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, storageSvc, version)

	e := echo.New()
	e.HideBanner = true

	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				log.Errorw("request failed", append(fields, "error", v.Error)...)
				return nil
			}
			log.Infow("request", fields...)
			return nil
		},
	}))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.Server.AllowedOrigin},
		AllowCredentials: true,
	}))
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.VersionHeader(version))

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	auth := e.Group("/auth")
	auth.POST("/sign-up", authHandlers.SignUp)
	auth.POST("/log-in", authHandlers.LogIn)
	auth.GET("/verify", authHandlers.Verify)

	// The provider redirects the browser here without our token.
	e.GET("/mp/callback", mpHandlers.Callback)

	protected := e.Group("")
	protected.Use(middleware.CompanyAuth(authSvc))

	protected.GET("/companies", companyHandlers.GetCompany)
	protected.PUT("/companies/name", companyHandlers.UpdateName)
	protected.PUT("/companies/email", companyHandlers.UpdateEmail)
	protected.PUT("/companies/address", companyHandlers.UpdateAddress)
	protected.PUT("/companies/password", companyHandlers.UpdatePassword)
	protected.DELETE("/companies", companyHandlers.DeleteCompany)
	protected.GET("/companies/logo", companyHandlers.GetLogo)
	protected.POST("/companies/logo", companyHandlers.UploadLogo)

	protected.GET("/customers", customerHandlers.ListCustomers)
	protected.POST("/customers", customerHandlers.CreateCustomer)
	protected.GET("/customers/:id", customerHandlers.GetCustomer)
	protected.PUT("/customers/:id", customerHandlers.UpdateCustomer)
	protected.DELETE("/customers/:id", customerHandlers.DeleteCustomer)

	protected.GET("/products", productHandlers.ListProducts)
	protected.POST("/products", productHandlers.CreateProduct)
	protected.GET("/products/:id", productHandlers.GetProduct)
	protected.PUT("/products/:id", productHandlers.UpdateProduct)
	protected.DELETE("/products/:id", productHandlers.DeleteProduct)

	billLimit := middleware.RateLimitPerCompany(cacheSvc, "bills", cfg.RateLimit.BillCreationsPerMinute, time.Minute, log)
	protected.POST("/bills", billHandlers.CreateBill, billLimit)
	protected.GET("/bills", billHandlers.ListBills)
	protected.GET("/bills/:id", billHandlers.GetBill)
	protected.GET("/bills/:id/pdf", billHandlers.GetBillPDF)
	protected.GET("/bills/:id/pdf-url", billHandlers.GetBillPDFURL)

	protected.GET("/mp/connect", mpHandlers.Connect)

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("billdesk server starting", "version", version, "address", cfg.Server.Address)
		if err := e.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
