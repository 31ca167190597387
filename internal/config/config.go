package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Log       LogConfig
	Auth      AuthConfig
	Ledger    LedgerConfig
	NATS      NATSConfig
	Bootstrap BootstrapConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER" envDefault:"postgres"`
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       string `env:"DB_PORT" envDefault:"5432"`
	User       string `env:"DB_USER" envDefault:"postgres"`
	Password   string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"event_tickets"`
	SSLMode    string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"tickets.db"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string   `env:"SERVER_PORT" envDefault:"8080"`
	GinMode     string   `env:"GIN_MODE" envDefault:"release"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// AuthConfig holds wallet login settings
type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET"`
	JWTTTL       time.Duration `env:"JWT_TTL" envDefault:"24h"`
	Message      string        `env:"AUTH_MESSAGE" envDefault:"Sign this message to authenticate with the ticket ledger"`
	ChallengeTTL time.Duration `env:"AUTH_CHALLENGE_TTL" envDefault:"5m"`
}

// LedgerConfig holds ledger settings
type LedgerConfig struct {
	Store         string `env:"LEDGER_STORE" envDefault:"database"`
	Decimals      int32  `env:"CURRENCY_DECIMALS" envDefault:"9"`
	Symbol        string `env:"CURRENCY_SYMBOL" envDefault:"SOL"`
	FaucetEnabled bool   `env:"FAUCET_ENABLED" envDefault:"false"`
}

// NATSConfig holds notification broker settings. An empty URL disables NATS.
type NATSConfig struct {
	URL     string `env:"NATS_URL"`
	Subject string `env:"NATS_SUBJECT" envDefault:"tickets.events.created"`
}

// BootstrapConfig describes one event created at start-up when EventID is set
type BootstrapConfig struct {
	EventID string `env:"BOOTSTRAP_EVENT_ID"`
	Supply  uint64 `env:"BOOTSTRAP_SUPPLY"`
	Price   uint64 `env:"BOOTSTRAP_PRICE"`
	Owner   string `env:"BOOTSTRAP_OWNER"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if config.Auth.ChallengeTTL <= 0 {
		return nil, fmt.Errorf("AUTH_CHALLENGE_TTL must be positive")
	}
	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}
	switch config.Ledger.Store {
	case "database", "memory":
	default:
		return nil, fmt.Errorf("unsupported LEDGER_STORE %q", config.Ledger.Store)
	}
	if config.Ledger.Decimals < 0 || config.Ledger.Decimals > 18 {
		return nil, fmt.Errorf("CURRENCY_DECIMALS must be between 0 and 18")
	}
	if config.Bootstrap.EventID != "" && config.Bootstrap.Owner == "" {
		return nil, fmt.Errorf("BOOTSTRAP_OWNER is required with BOOTSTRAP_EVENT_ID")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}
