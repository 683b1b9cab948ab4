package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"gorod-sporta/internal/core/domain/entities"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Logger           LoggerConfig
	Database         DatabaseConfig
	HTTP             HTTPConfig
	Admin            AdminConfig
	Bot              BotConfig
	VK               VKConfig
	Storage          StorageConfig
	GRPC             GRPCConfig
	Scheduler        SchedulerConfig
	LeaderboardLimit int  `env:"LEADERBOARD_LIMIT" envDefault:"20"`
	SmokeTest        bool `env:"SMOKE_TEST" envDefault:"false"`
}

type LoggerConfig struct {
	Env   string `env:"LOGGER_ENV" envDefault:"development"`
	Level string `env:"LOGGER_LEVEL" envDefault:""`
}

type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Name     string `env:"POSTGRES_DB" envDefault:"gorod_sporta"`
	User     string `env:"POSTGRES_USER" envDefault:"gorod_sporta"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"gorod_sporta"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns int32  `env:"POSTGRES_MIN_CONNS" envDefault:"1"`
}

type HTTPConfig struct {
	Addr           string        `env:"HTTP_ADDR" envDefault:":3000"`
	AllowedOrigins []string      `env:"HTTP_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	BodyLimitMB    int           `env:"HTTP_BODY_LIMIT_MB" envDefault:"12"`
	ShutdownGrace  time.Duration `env:"HTTP_SHUTDOWN_GRACE" envDefault:"10s"`
}

type AdminConfig struct {
	// Credentials are "login:role:secret" triples separated by commas.
	Credentials []string `env:"ADMIN_CREDENTIALS" envSeparator:","`
	// Password is the single admin secret of older deployments.
	Password string `env:"ADMIN_PASSWORD"`
}

type BotConfig struct {
	Token         string `env:"BOT_TOKEN"`
	Mode          string `env:"BOT_MODE" envDefault:"polling"`
	WebhookURL    string `env:"BOT_WEBHOOK_URL"`
	WebhookSecret string `env:"BOT_WEBHOOK_SECRET"`
	WebAppURL     string `env:"WEBAPP_URL"`
}

type VKConfig struct {
	Token      string `env:"VK_GROUP_TOKEN"`
	APIVersion string `env:"VK_API_VERSION" envDefault:"5.199"`
	APIURL     string `env:"VK_API_URL" envDefault:"https://api.vk.com/method"`
}

type StorageConfig struct {
	Driver        string `env:"STORAGE_DRIVER" envDefault:"local"`
	Bucket        string `env:"S3_BUCKET"`
	Endpoint      string `env:"S3_ENDPOINT"`
	Region        string `env:"S3_REGION" envDefault:"auto"`
	AccessKey     string `env:"S3_ACCESS_KEY"`
	SecretKey     string `env:"S3_SECRET_KEY"`
	PublicBaseURL string `env:"STORAGE_PUBLIC_URL" envDefault:"/uploads"`
	LocalDir      string `env:"STORAGE_LOCAL_DIR" envDefault:"uploads"`
}

type GRPCConfig struct {
	Port int `env:"GRPC_HEALTH_PORT" envDefault:"50051"`
}

type SchedulerConfig struct {
	DigestInterval time.Duration `env:"REVIEW_DIGEST_INTERVAL" envDefault:"1h"`
	AdminChatID    int64         `env:"ADMIN_CHAT_ID"`
	HealthInterval time.Duration `env:"DB_HEALTH_INTERVAL" envDefault:"30s"`
}

const (
	BotModePolling = "polling"
	BotModeWebhook = "webhook"

	StorageDriverS3    = "s3"
	StorageDriverLocal = "local"
)

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Bot.Mode {
	case BotModePolling, BotModeWebhook:
	default:
		return fmt.Errorf("config: unknown BOT_MODE %q", c.Bot.Mode)
	}
	if c.Bot.Mode == BotModeWebhook && c.Bot.Token != "" && c.Bot.WebhookURL == "" {
		return errors.New("config: BOT_WEBHOOK_URL is required in webhook mode")
	}
	switch c.Storage.Driver {
	case StorageDriverLocal:
	case StorageDriverS3:
		if c.Storage.Bucket == "" {
			return errors.New("config: S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if _, err := c.Admin.Parse(); err != nil {
		return err
	}
	return nil
}

func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return dsn.String()
}

// Parse turns the configured credential list into role-tagged secrets.
// A bare ADMIN_PASSWORD becomes a single admin credential.
func (a AdminConfig) Parse() ([]entities.AdminCredential, error) {
	creds := make([]entities.AdminCredential, 0, len(a.Credentials)+1)
	for _, raw := range a.Credentials {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("config: admin credential %q must be login:role:secret", parts[0])
		}
		role := entities.Role(strings.TrimSpace(parts[1]))
		if role != entities.RoleAdmin && role != entities.RoleStaff {
			return nil, fmt.Errorf("config: admin credential %q has unknown role %q", parts[0], role)
		}
		creds = append(creds, entities.AdminCredential{
			Login:  strings.TrimSpace(parts[0]),
			Role:   role,
			Secret: parts[2],
		})
	}
	if a.Password != "" {
		creds = append(creds, entities.AdminCredential{
			Login:  "admin",
			Role:   entities.RoleAdmin,
			Secret: a.Password,
		})
	}
	return creds, nil
}
