package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"eventra/config"
	"eventra/internal/handlers"
	"eventra/internal/services"
	"eventra/internal/services/gateway"
	"eventra/internal/services/gateway/paystack"
	"eventra/internal/services/notifier"
	"eventra/internal/store"
	_ "eventra/migrations"
	"eventra/monitoring"
	"eventra/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go/v7"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub (optional, realtime payment events)
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUUID))
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gatewayClient, err := buildGatewayClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer gatewayClient.Close(ctx)

	// Initialize services
	pbStore := store.NewPBStore(app)
	dispatcher := notifier.NewRedisDispatcher(redisClient, pn, cfg.NotifyQueueKey)
	ticketService := services.NewTicketService(pbStore)
	paymentService := services.NewPaymentService(pbStore, gatewayClient, ticketService, dispatcher, redisClient, cfg)

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(paymentService, gatewayClient)
	ticketHandler := handlers.NewTicketHandler(ticketService, cfg.CheckinKeyHash)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	if cfg.EnableMetrics {
		go monitoring.StartMetricsServer(ctx, cfg.MetricsPort)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Payment endpoints
		e.Router.POST("/api/v1/payments/{ticketTypeId}/initialize", paymentHandler.InitializePayment)
		e.Router.GET("/api/v1/payments/verify", paymentHandler.VerifyPayment)
		e.Router.GET("/api/v1/payments/{reference}/status", paymentHandler.PaymentStatus)

		// Gateway callback
		e.Router.POST("/api/v1/webhooks/paystack", paymentHandler.HandleGatewayWebhook)

		// Ticket endpoints
		e.Router.POST("/api/v1/tickets/check-in", ticketHandler.CheckInTicket)
		e.Router.GET("/api/v1/tickets/mine", ticketHandler.MyTickets)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// buildGatewayClient selects the configured provider. A development
// environment without gateway credentials falls back to the mock provider so
// the full purchase flow stays exercisable locally.
func buildGatewayClient(ctx context.Context, cfg *config.Config) (gateway.Client, error) {
	factory := gateway.NewFactory()

	provider := gateway.Provider(cfg.GatewayProvider)
	if provider == gateway.ProviderPaystack && cfg.PaystackSecretKey == "" && cfg.Environment == "development" {
		log.Println("No gateway secret configured, using mock gateway")
		provider = gateway.ProviderMock
	}

	switch provider {
	case gateway.ProviderPaystack:
		return factory.CreateClient(ctx, provider, &paystack.Config{
			BaseURL:   cfg.PaystackBaseURL,
			SecretKey: cfg.PaystackSecretKey,
		})
	default:
		return factory.CreateClient(ctx, provider, cfg.PaystackSecretKey)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
