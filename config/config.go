package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Client    ClientConfig
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Session   SessionConfig
	Password  PasswordConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Scheduler SchedulerConfig
}

// ClientConfig configures the terminal storefront client.
type ClientConfig struct {
	APIBaseURL       string
	Timeout          time.Duration
	ReceiptCountdown int
	ReceiptTick      time.Duration
	RefreshGrace     time.Duration
	LocalReceipts    bool
	LogLevel         string
	LogFile          string
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret        string
	SessionExpiry time.Duration
}

// PasswordConfig sets the bcrypt cost for new password hashes. Stored
// hashes with another cost are upgraded on the next login.
type PasswordConfig struct {
	BcryptCost int
}

type SessionConfig struct {
	CookieName   string
	CookieSecure bool
}

// RedisConfig is optional; an empty Host keeps revoked sessions in memory.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type SchedulerConfig struct {
	CartCleanupSchedule string
	CartTTL             time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Client: ClientConfig{
			APIBaseURL:       getEnv("STOREFRONT_API_URL", "http://localhost:8080/v1/api/"),
			Timeout:          parseDuration(getEnv("STOREFRONT_TIMEOUT", "30s"), 30*time.Second),
			ReceiptCountdown: parseInt(getEnv("STOREFRONT_RECEIPT_COUNTDOWN", "4"), 4),
			ReceiptTick:      parseDuration(getEnv("STOREFRONT_RECEIPT_TICK", "1s"), time.Second),
			RefreshGrace:     parseDuration(getEnv("STOREFRONT_REFRESH_GRACE", "500ms"), 500*time.Millisecond),
			LocalReceipts:    parseBool(getEnv("STOREFRONT_LOCAL_RECEIPTS", "false")),
			LogLevel:         getEnv("STOREFRONT_LOG_LEVEL", "info"),
			LogFile:          getEnv("STOREFRONT_LOG_FILE", ""),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "vibe_commerce"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxIdleConns:    parseInt(getEnv("DB_MAX_IDLE_CONNS", "10"), 10),
			MaxOpenConns:    parseInt(getEnv("DB_MAX_OPEN_CONNS", "100"), 100),
			ConnMaxLifetime: parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "your-secret-key"),
			SessionExpiry: parseDuration(getEnv("JWT_SESSION_EXPIRY", "24h"), 24*time.Hour),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_COOKIE_NAME", "vibe_session"),
			CookieSecure: parseBool(getEnv("SESSION_COOKIE_SECURE", "false")),
		},
		Password: PasswordConfig{
			BcryptCost: parseInt(getEnv("BCRYPT_COST", "12"), 12),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		Scheduler: SchedulerConfig{
			CartCleanupSchedule: getEnv("CART_CLEANUP_SCHEDULE", "0 3 * * *"),
			CartTTL:             parseDuration(getEnv("CART_TTL", "168h"), 7*24*time.Hour),
		},
	}

	if config.Client.ReceiptCountdown < 1 {
		return nil, fmt.Errorf("STOREFRONT_RECEIPT_COUNTDOWN must be at least 1, got %d", config.Client.ReceiptCountdown)
	}

	if config.Database.MaxOpenConns < 1 {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1, got %d", config.Database.MaxOpenConns)
	}
	if config.Database.MaxIdleConns > config.Database.MaxOpenConns {
		config.Database.MaxIdleConns = config.Database.MaxOpenConns
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Enabled reports whether a Redis server was configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for i := 0; i < len(s); {
		end := i
		for end < len(s) && s[end] != ',' {
			end++
		}
		result = append(result, s[i:end])
		i = end + 1
	}
	return result
}
