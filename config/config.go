package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"marketplace-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config collects runtime settings, injected through environment variables
type Config struct {
	Port    string
	GinMode string
	DBPath  string

	// JWTSecret signs and verifies bearer tokens
	JWTSecret []byte
	JWTTTL    time.Duration

	// Redis order snapshot cache; empty address disables it
	RedisAddr     string
	OrderCacheTTL time.Duration

	// Kafka status-changed events; no brokers disables publishing
	KafkaBrokers     []string
	KafkaStatusTopic string

	// OpenTelemetry; empty exporter URL disables tracing
	OTelExporterURL string
	OTelSampleRate  float64

	ServiceName string
	Environment string
}

// Load reads the configuration, using defaults for missing values
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		GinMode:          getEnv("GIN_MODE", ""),
		DBPath:           getEnv("DB_PATH", "marketplace.db"),
		JWTSecret:        []byte(getEnv("JWT_SECRET", "marketplace_super_secret_2024")),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		KafkaBrokers:     splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaStatusTopic: getEnv("KAFKA_STATUS_TOPIC", "order.status.changed"),
		OTelExporterURL:  getEnv("OTEL_EXPORTER_URL", ""),
		ServiceName:      getEnv("SERVICE_NAME", "marketplace-api"),
		Environment:      getEnv("APP_ENV", "development"),
	}

	ttlHours, err := getEnvInt("JWT_TTL_HOURS", 24)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JWT_TTL_HOURS: %w", err)
	}
	if ttlHours <= 0 {
		return Config{}, fmt.Errorf("JWT_TTL_HOURS must be > 0")
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	cacheSec, err := getEnvInt("ORDER_CACHE_TTL_SEC", 300)
	if err != nil {
		return Config{}, fmt.Errorf("invalid ORDER_CACHE_TTL_SEC: %w", err)
	}
	if cacheSec <= 0 {
		return Config{}, fmt.Errorf("ORDER_CACHE_TTL_SEC must be > 0")
	}
	cfg.OrderCacheTTL = time.Duration(cacheSec) * time.Second

	rate, err := getEnvFloat("OTEL_SAMPLE_RATE", 1.0)
	if err != nil {
		return Config{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
	}
	if rate < 0 || rate > 1 {
		return Config{}, fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1]")
	}
	cfg.OTelSampleRate = rate

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaStatusTopic == "" {
		return Config{}, fmt.Errorf("KAFKA_STATUS_TOPIC must not be empty when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// Addr is the listen address of the HTTP server
func (c Config) Addr() string {
	return ":" + c.Port
}

// OpenDB connects to SQLite and migrates every model
func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite has a single writer
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.RoleGrant{},
		&models.Vendor{},
		&models.Shopper{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log.Println("✅ Database connected and migrated successfully")
	return db, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
