package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"healthtrip/config"
	"healthtrip/cron"
	"healthtrip/database"
	catalogRepo "healthtrip/database/repository/catalog"
	"healthtrip/handlers"
	"healthtrip/middleware"
	"healthtrip/routes"
	"healthtrip/services/availability"
	"healthtrip/services/reservation"
	"healthtrip/services/wizard"
	"healthtrip/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitWizardCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// External collaborators.
	availabilityClient := availability.NewClient(config.AppConfig.AvailabilityBaseURL, logger)
	reservationClient := reservation.NewClient(config.AppConfig.ReservationBaseURL, logger)

	// Repositories and stores.
	catalog := catalogRepo.NewMongoCatalogRepo()
	snapshotTTL := time.Duration(config.AppConfig.SnapshotTTLMinutes) * time.Minute
	snapshots := wizard.NewRedisSnapshotStore(utils.GetWizardCacheClient(), snapshotTTL)

	reminderClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	})
	defer reminderClient.Close()
	cron.InitReminderWorker()

	// Wizard session service and handlers.
	sessionService := wizard.NewSessionService(
		catalog,
		availabilityClient,
		reservationClient,
		snapshots,
		reminderClient,
		logger,
	)
	wizardHandler := handlers.NewWizardHandler(sessionService, logger)

	routes.RegisterRoutes(router, wizardHandler)

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
