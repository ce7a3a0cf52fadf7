package app

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the service configuration, loaded from the environment with
// an optional .env file for local development.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	LogMode  string `env:"LOG_MODE" envDefault:"dev"`

	KafkaBootstrap string `env:"KAFKA_BOOTSTRAP" envDefault:"localhost:9092"`
	GroupID        string `env:"KAFKA_GROUP_ID" envDefault:"gdash"`

	TopicCustomers string `env:"TOPIC_CUSTOMERS" envDefault:"globex.updates.public.customers"`
	TopicOrders    string `env:"TOPIC_ORDERS" envDefault:"globex.updates.public.orders"`
	TopicLineItems string `env:"TOPIC_LINE_ITEMS" envDefault:"globex.updates.public.line_items"`
}

func LoadConfig() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
