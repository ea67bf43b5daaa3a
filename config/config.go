package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// App holds every runtime setting the server needs. Values come from the
// environment, optionally seeded from a .env file.
type App struct {
	// HTTP
	AppHost     string `envconfig:"APP_HOST" default:"0.0.0.0"`
	AppPort     string `envconfig:"APP_PORT" default:"8080"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"*"`

	// Database
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBDatabase string `envconfig:"DB_DATABASE" required:"true"`
	DBUsername string `envconfig:"DB_USERNAME" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// Auth
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Payment providers
	WalletBaseURL     string `envconfig:"WALLET_BASE_URL" required:"true"`
	WalletAccessToken string `envconfig:"WALLET_ACCESS_TOKEN" required:"true"`
	IntlBaseURL       string `envconfig:"INTL_BASE_URL" required:"true"`
	IntlClientID      string `envconfig:"INTL_CLIENT_ID" required:"true"`
	IntlClientSecret  string `envconfig:"INTL_CLIENT_SECRET" required:"true"`

	// Messaging
	AMQPURL      string `envconfig:"AMQP_URL" default:""`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"rally.events"`

	// Quotes
	QuoteBaseURL  string `envconfig:"QUOTE_BASE_URL" default:""`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:""`
	QuoteCacheTTL int    `envconfig:"QUOTE_CACHE_TTL_SECONDS" default:"600"`

	// Lifecycle
	SweepSchedule        string `envconfig:"SWEEP_SCHEDULE" default:"@hourly"`
	PurchaseValidityDays int    `envconfig:"PURCHASE_VALIDITY_DAYS" default:"365"`
	TokenValidityMinutes int    `envconfig:"TOKEN_VALIDITY_MINUTES" default:"60"`
}

// Load reads the .env file if present and then the process environment.
func Load() (App, error) {
	_ = godotenv.Load()

	var c App
	err := envconfig.Process("", &c)
	return c, err
}
