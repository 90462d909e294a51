package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`
	DBHost      string `envconfig:"DB_HOST" required:"true"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" required:"true"`
	DBPassword  string `envconfig:"DB_PASSWORD" required:"true"`
	DBName      string `envconfig:"DB_NAME" required:"true"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`

	// Listing image storage (S3-compatible)
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// Payment gateway settings
	GatewayBaseURL       string `envconfig:"GATEWAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	GatewayKeyID         string `envconfig:"GATEWAY_KEY_ID" required:"true"`
	GatewayKeySecret     string `envconfig:"GATEWAY_KEY_SECRET"`
	GatewayWebhookSecret string `envconfig:"GATEWAY_WEBHOOK_SECRET"`
	// Name of the Secret Manager secret holding the gateway key secret.
	// Consulted in non-development environments when GATEWAY_KEY_SECRET is unset.
	GatewaySecretName string `envconfig:"GATEWAY_SECRET_NAME" default:"payment-gateway-key"`

	// Event publishing
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	ListingEventsTopic string `envconfig:"LISTING_EVENTS_TOPIC" default:"listing_events"`
	RewardEventsTopic  string `envconfig:"REWARD_EVENTS_TOPIC" default:"reward_events"`

	// Scheduler settings
	ListingExpiryIntervalHours int `envconfig:"LISTING_EXPIRY_INTERVAL_HOURS" default:"24"`
	OTPPurgeIntervalHours      int `envconfig:"OTP_PURGE_INTERVAL_HOURS" default:"2"`
	ChatPurgeIntervalHours     int `envconfig:"CHAT_PURGE_INTERVAL_HOURS" default:"24"`
	OTPMaxAgeHours             int `envconfig:"OTP_MAX_AGE_HOURS" default:"2"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
