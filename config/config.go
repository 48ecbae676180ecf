package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the service needs from the environment. It is built
// once in main and handed to the components that need it.
type Config struct {
	Port                string
	MongoURI            string
	MongoDatabase       string
	JWTSecret           string
	StripeKey           string
	StripeWebhookSecret string
	BaseURL             string
}

func Load() (*Config, error) {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "event-hub"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:3000"),
	}

	var err error
	if cfg.MongoURI, err = GetSecret("MONGODB_CONNSTRING"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret, err = GetSecret("JWT_SECRET"); err != nil {
		return nil, err
	}
	if cfg.StripeKey, err = GetSecret("STRIPE_SECRET_KEY"); err != nil {
		return nil, err
	}
	if cfg.StripeWebhookSecret, err = GetSecret("STRIPE_WEBHOOK_SECRET"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func GetSecret(key string) (string, error) {
	val, exist := os.LookupEnv(key)
	if exist && val != "" {
		return val, nil
	}
	return "", fmt.Errorf("no env variable with key %v", key)
}

func getEnv(key, fallback string) string {
	if val, exist := os.LookupEnv(key); exist && val != "" {
		return val
	}
	return fallback
}
