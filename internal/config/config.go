package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL    string `env:"DATABASE_URL"`
	HTTPPort       string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"postgres"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`

	// Redis Config
	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"true"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass     string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	AlertCacheTTL time.Duration `env:"ALERT_CACHE_TTL" envDefault:"5m"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Alert engine
	GeofenceCooldown time.Duration `env:"GEOFENCE_COOLDOWN" envDefault:"15m"`
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" envDefault:"3s"`
	StatsWindowDays  int           `env:"STATS_WINDOW_DAYS" envDefault:"7"`

	// Location history
	LocationRetentionDays int    `env:"LOCATION_RETENTION_DAYS" envDefault:"30"`
	RetentionSchedule     string `env:"RETENTION_SCHEDULE" envDefault:"0 3 * * *"`
	LocationRateLimit     string `env:"LOCATION_RATE_LIMIT" envDefault:"120-M"`

	// User directory cache
	UserCacheSize int           `env:"USER_CACHE_SIZE" envDefault:"1024"`
	UserCacheTTL  time.Duration `env:"USER_CACHE_TTL" envDefault:"1m"`

	// WebSocket
	WSBufferSize     int           `env:"WS_BUFFER_SIZE" envDefault:"64"`
	WSPingInterval   time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`
	WSPongTimeout    time.Duration `env:"WS_PONG_TIMEOUT" envDefault:"60s"`
	WSMaxMessageSize int64         `env:"WS_MAX_MESSAGE_SIZE" envDefault:"4096"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`

	// Начальное наполнение каталога пользователей: id:role[:name],...
	SeedUsers []SeedUser `env:"SEED_USERS"`
}

// SeedUser - запись каталога, создаваемая при старте
type SeedUser struct {
	ID   string
	Role string
	Name string
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		StorageBackend:        strings.ToLower(getEnv("STORAGE_BACKEND", StoragePostgres)),
		MigrationsPath:        getEnv("MIGRATIONS_PATH", "file://migrations"),
		RedisEnabled:          getEnvAsBool("REDIS_ENABLED", true),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:             os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvAsInt("REDIS_DB", 0),
		AlertCacheTTL:         getEnvAsDuration("ALERT_CACHE_TTL", 5*time.Minute),
		WebhookURL:            os.Getenv("WEBHOOK_URL"),
		WebhookSecret:         os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:        getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:     getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:      getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		GeofenceCooldown:      getEnvAsDuration("GEOFENCE_COOLDOWN", 15*time.Minute),
		OperationTimeout:      getEnvAsDuration("OPERATION_TIMEOUT", 3*time.Second),
		StatsWindowDays:       getEnvAsInt("STATS_WINDOW_DAYS", 7),
		LocationRetentionDays: getEnvAsInt("LOCATION_RETENTION_DAYS", 30),
		RetentionSchedule:     getEnv("RETENTION_SCHEDULE", "0 3 * * *"),
		LocationRateLimit:     getEnv("LOCATION_RATE_LIMIT", "120-M"),
		UserCacheSize:         getEnvAsInt("USER_CACHE_SIZE", 1024),
		UserCacheTTL:          getEnvAsDuration("USER_CACHE_TTL", time.Minute),
		WSBufferSize:          getEnvAsInt("WS_BUFFER_SIZE", 64),
		WSPingInterval:        getEnvAsDuration("WS_PING_INTERVAL", 30*time.Second),
		WSPongTimeout:         getEnvAsDuration("WS_PONG_TIMEOUT", 60*time.Second),
		WSMaxMessageSize:      int64(getEnvAsInt("WS_MAX_MESSAGE_SIZE", 4096)),
	}

	// Загрузка API ключей
	apiKeysStr := os.Getenv("API_KEYS")
	if apiKeysStr != "" {
		for _, key := range strings.Split(apiKeysStr, ",") {
			if key = strings.TrimSpace(key); key != "" {
				cfg.APIKeys = append(cfg.APIKeys, key)
			}
		}
	}

	seeds, err := ParseSeedUsers(os.Getenv("SEED_USERS"))
	if err != nil {
		return nil, err
	}
	cfg.SeedUsers = seeds

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.GeofenceCooldown <= 0 {
		return fmt.Errorf("GEOFENCE_COOLDOWN must be positive")
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("OPERATION_TIMEOUT must be positive")
	}
	if c.WebhookMaxRetries < 1 {
		c.WebhookMaxRetries = 1
	}
	if c.StatsWindowDays < 1 {
		c.StatsWindowDays = 7
	}
	return nil
}

// ParseSeedUsers разбирает список вида "tourist-1:tourist:Asha,officer-1:authority".
// Роль здесь не проверяется, это делает каталог при записи.
func ParseSeedUsers(raw string) ([]SeedUser, error) {
	var seeds []SeedUser
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, ":", 3)
		if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, fmt.Errorf("invalid SEED_USERS entry %q, expected id:role[:name]", item)
		}
		seed := SeedUser{ID: strings.TrimSpace(parts[0]), Role: strings.ToLower(strings.TrimSpace(parts[1]))}
		if len(parts) == 3 {
			seed.Name = strings.TrimSpace(parts[2])
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
