package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	ClientURL                        string `mapstructure:"CLIENT_URL"`

	// Public card links and QR payloads.
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`
	QRRendererURL string `mapstructure:"QR_RENDERER_URL"`
	QRSize        int    `mapstructure:"QR_SIZE"`

	// PlansFile points at a YAML plan catalog; the built-in catalog is used when empty.
	PlansFile string `mapstructure:"PLANS_FILE"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CardCacheTTL  time.Duration `mapstructure:"CARD_CACHE_TTL"`
	CardCacheSize int           `mapstructure:"CARD_CACHE_SIZE"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	EventsQueue string `mapstructure:"EVENTS_QUEUE"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	S3Region          string `mapstructure:"S3_REGION"`
	S3Bucket          string `mapstructure:"S3_BUCKET"`
	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3PublicBaseURL   string `mapstructure:"S3_PUBLIC_BASE_URL"`
	UploadMaxBytes    int64  `mapstructure:"UPLOAD_MAX_BYTES"`
}

var envKeys = []string{
	"PORT", "GIN_MODE",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"CLIENT_URL", "PUBLIC_BASE_URL", "QR_RENDERER_URL", "QR_SIZE", "PLANS_FILE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CARD_CACHE_TTL", "CARD_CACHE_SIZE",
	"RABBITMQ_URL", "EVENTS_QUEUE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "MAIL_FROM",
	"S3_REGION", "S3_BUCKET", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
	"S3_PUBLIC_BASE_URL", "UPLOAD_MAX_BYTES",
}

// LoadConfig loads configuration from environment variables using Viper.
// A .env file in the working directory is honored outside release mode.
func LoadConfig() (*Config, error) {
	if !strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		// Missing .env is not an error; real deployments inject the environment.
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("QR_RENDERER_URL", "https://api.qrserver.com/v1/create-qr-code/")
	v.SetDefault("QR_SIZE", 300)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CARD_CACHE_TTL", "5m")
	v.SetDefault("CARD_CACHE_SIZE", 1024)
	v.SetDefault("EVENTS_QUEUE", "card-events")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("UPLOAD_MAX_BYTES", 5<<20)

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the server cannot start without.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.PublicBaseURL == "" {
		return errors.New("PUBLIC_BASE_URL is required")
	}
	if c.QRSize <= 0 {
		return errors.New("QR_SIZE must be positive")
	}
	if c.CardCacheTTL < 0 {
		return errors.New("CARD_CACHE_TTL cannot be negative")
	}
	if c.S3Bucket != "" && c.S3PublicBaseURL == "" && c.S3Endpoint == "" {
		return errors.New("S3_PUBLIC_BASE_URL or S3_ENDPOINT is required when S3_BUCKET is set")
	}
	return nil
}

// IsRelease reports whether the server runs in gin release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}

// MailEnabled reports whether outgoing mail is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}

// UploadsEnabled reports whether an image bucket is configured.
func (c *Config) UploadsEnabled() bool {
	return c.S3Bucket != ""
}
