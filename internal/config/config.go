package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Store backends understood by cmd/server.
const (
	BackendXLSX     = "xlsx"
	BackendSQL      = "sql"
	BackendSnapshot = "snapshot"
	BackendMemory   = "memory"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Session   SessionConfig
	Inventory InventoryConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr string
}

// StoreConfig selects where the inventory tables live.
type StoreConfig struct {
	Backend string
	Path    string
}

// DatabaseConfig contains the database connection settings used by the sql backend.
type DatabaseConfig struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	UseMock         bool
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// SessionConfig configures the cookie session that holds the open cart.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// InventoryConfig holds pricing and stock policy.
type InventoryConfig struct {
	VATRate          decimal.Decimal
	CriticalFraction decimal.Decimal
}

var (
	defaultVATRate          = decimal.RequireFromString("0.12")
	defaultCriticalFraction = decimal.RequireFromString("0.25")
)

// Load inspects the environment and builds a Config value. Variables from a
// .env file (or ENV_FILE) are applied first without overriding the process
// environment.
func Load() (Config, error) {
	if err := loadEnvFile(firstNonEmpty(os.Getenv("ENV_FILE"), ".env")); err != nil {
		return Config{}, err
	}

	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
	}

	backend := strings.ToLower(strings.TrimSpace(firstNonEmpty(os.Getenv("STORE_BACKEND"), BackendXLSX)))
	cfg.Store = StoreConfig{
		Backend: backend,
		Path:    firstNonEmpty(os.Getenv("STORE_PATH"), defaultStorePath(backend)),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_IDLE_CONNS"), 5),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_OPEN_CONNS"), 10),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), time.Hour),
		ConnMaxIdleTime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), 15*time.Minute),
		UseMock:         parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), false),
	}

	cfg.Logging = LoggingConfig{
		Level:  firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
		Format: firstNonEmpty(os.Getenv("LOG_FORMAT"), "text"),
	}

	cfg.Session = SessionConfig{
		Lifetime:     parseDurationWithDefault(os.Getenv("SESSION_LIFETIME"), 12*time.Hour),
		CookieName:   firstNonEmpty(os.Getenv("SESSION_COOKIE_NAME"), "pantrypos_session"),
		CookieDomain: strings.TrimSpace(os.Getenv("SESSION_COOKIE_DOMAIN")),
		CookieSecure: parseBoolWithDefault(os.Getenv("SESSION_COOKIE_SECURE"), false),
	}

	cfg.Inventory = InventoryConfig{
		VATRate:          parseDecimalWithDefault(os.Getenv("VAT_RATE"), defaultVATRate),
		CriticalFraction: parseDecimalWithDefault(os.Getenv("CRITICAL_STOCK_FRACTION"), defaultCriticalFraction),
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}
	switch cfg.Store.Backend {
	case BackendXLSX, BackendSnapshot:
		if strings.TrimSpace(cfg.Store.Path) == "" {
			return Config{}, fmt.Errorf("STORE_PATH must be set for the %s backend", cfg.Store.Backend)
		}
	case BackendSQL:
		if strings.TrimSpace(cfg.Database.URL) == "" && !cfg.Database.UseMock {
			return Config{}, fmt.Errorf("DATABASE_URL must be set for the sql backend")
		}
	case BackendMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
	if cfg.Inventory.VATRate.IsNegative() {
		return Config{}, fmt.Errorf("VAT_RATE must not be negative")
	}
	if cfg.Inventory.CriticalFraction.IsNegative() || cfg.Inventory.CriticalFraction.GreaterThan(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("CRITICAL_STOCK_FRACTION must be between 0 and 1")
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func defaultStorePath(backend string) string {
	switch backend {
	case BackendXLSX:
		return "pantry.xlsx"
	case BackendSnapshot:
		return "pantry.msgpack"
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseDecimalWithDefault(value string, def decimal.Decimal) decimal.Decimal {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}
