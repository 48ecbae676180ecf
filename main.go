package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/shaheerasim320/event-hub/config"
	"github.com/shaheerasim320/event-hub/database"
	"github.com/shaheerasim320/event-hub/handlers"
	"github.com/shaheerasim320/event-hub/metrics"
	"github.com/shaheerasim320/event-hub/payment"
	"github.com/shaheerasim320/event-hub/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	cancel()
	if err != nil {
		log.Fatalf("database error: %v", err)
	}

	provider := payment.NewStripeProvider(cfg.StripeKey, cfg.StripeWebhookSecret, cfg.BaseURL)

	h := handlers.New(
		database.NewEventStore(db),
		database.NewBookingStore(db),
		database.NewUserStore(db),
		provider,
		metrics.New(),
		cfg.JWTSecret,
	)

	app := fiber.New()
	router.SetupRoutes(app, h, cfg.JWTSecret)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	if err := app.Shutdown(); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Close(ctx); err != nil {
		log.Printf("database shutdown error: %v", err)
	}
}
