package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campushub/internal/config"
	"campushub/internal/logger"
	"campushub/internal/reminder"
)

func main() {
	log.Println("Starting reminders service...")

	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Reminders run under their own NATS client identity
	cfg.NATS.ClientID = "campushub-reminders"

	svc, err := reminder.NewService(cfg)
	if err != nil {
		log.Fatalf("Failed to create reminder service: %v", err)
	}

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := svc.Start(runCtx); err != nil {
		log.Fatalf("Failed to start reminder service: %v", err)
	}

	log.Println("Reminders service started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down reminders service...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Reminders service stopped")
}
