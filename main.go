package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"serenity/config"
	"serenity/cron"
	"serenity/database"
	appointmentRepoPkg "serenity/database/repository/appointment"
	clientRepoPkg "serenity/database/repository/client"
	"serenity/handlers"
	"serenity/routes"
	"serenity/services/agent"
	"serenity/services/appointment"
	"serenity/services/nlu"
	"serenity/services/payment"
	"serenity/services/scheduling"
	"serenity/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	businessCfg := config.LoadBusinessConfig()

	database.InitDB()
	utils.InitSessionCache()
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	clientRepo := clientRepoPkg.NewMongoClientRepo()
	apptRepo := appointmentRepoPkg.NewMongoAppointmentRepo()

	// services.
	engine := scheduling.NewEngine(apptRepo, businessCfg)
	processor := payment.NewStripeProcessor(logger,
		config.AppConfig.PaymentSuccessURL,
		config.AppConfig.PaymentCancelURL)
	lifecycle := appointment.NewService(clientRepo, apptRepo, engine, processor, businessCfg, logger)

	sessionTTL := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	sessionStore := agent.NewRedisSessionStore(utils.GetSessionCacheClient(), sessionTTL)
	extractor := nlu.NewExtractor(businessCfg)
	bookingAgent := agent.NewBookingAgent(sessionStore, extractor, engine, lifecycle, processor, businessCfg, logger)

	// Background worker: reminders, session expiry, appointment completion.
	cron.InitWorker(cron.WorkerDeps{
		Appointments: apptRepo,
		Lifecycle:    lifecycle,
		Sessions:     sessionStore,
		Cfg:          businessCfg,
	})

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		MessageHandler:       handlers.MessageHandler(bookingAgent),
		ServicesHandler:      handlers.ServicesHandler(engine, businessCfg),
		AvailabilityHandler:  handlers.AvailabilityHandler(engine, businessCfg),
		StripeWebhookHandler: handlers.StripeWebhookHandler(lifecycle, config.AppConfig.StripeWebhookSecret),

		AdminLoginHandler:        handlers.AdminLoginHandler(config.AppConfig.AdminAPIKey),
		AdminAppointmentsHandler: handlers.AdminAppointmentsHandler(apptRepo),
		AdminCancelHandler:       handlers.AdminCancelHandler(lifecycle),
		AdminCompleteHandler:     handlers.AdminCompleteHandler(lifecycle),
		AdminClientHandler:       handlers.AdminClientHandler(clientRepo),
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
