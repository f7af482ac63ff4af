package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"milovat/pkg/client"
	"milovat/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration
	MongoReadTimeout  time.Duration
	MongoWriteTimeout time.Duration
	MongoTransactions bool

	Port     string
	LogLevel string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	CORSAllowedOrigins []string

	JWTSecret  string
	JWTExpires time.Duration

	PassSealingKey string
	PassTTL        time.Duration

	BookingTimezone string
	BookingLocation *time.Location
	BookingLockMode string
	BookingLockTTL  time.Duration
	BookingLockWait time.Duration

	AdminUsername string
	AdminPassword string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the optional .env file, then the environment, and exits on invalid configuration.
func Load(serviceName string) *Config {
	return load(serviceName, (*Config).Validate)
}

// LoadJob is Load for jobs that only talk to the store, such as migrations and the audit
// consumer; API secrets are not required.
func LoadJob(serviceName string) *Config {
	return load(serviceName, (*Config).ValidateStore)
}

func load(serviceName string, validate func(*Config) error) *Config {
	envFileErr := loadEnvFile()

	cfg := FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    getEnvStr(EnvLogFormat, logger.JSON),
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if envFileErr != nil {
		cfg.Log.Warn("Failed to load env file", "error", envFileErr)
	}

	if err := validate(cfg); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config from the process environment without validating it.
func FromEnv() *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		MongoReadTimeout:  getEnvDuration(EnvMongoReadTimeout, DefaultMongoReadTimeout),
		MongoWriteTimeout: getEnvDuration(EnvMongoWriteTimeout, DefaultMongoWriteTimeout),
		MongoTransactions: getEnvBool(EnvMongoTransactions, false),

		Port:     getEnvStr(EnvPort, DefaultPort),
		LogLevel: getEnvStr(EnvLogLevel, DefaultLogLevel),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		CORSAllowedOrigins: getEnvList(EnvCORSAllowedOrigins, DefaultCORSAllowedOrigins),

		JWTSecret:  getEnvStr(EnvJWTSecret, ""),
		JWTExpires: time.Duration(getEnvNum(EnvJWTExpires, DefaultJWTExpires)) * time.Minute,

		PassSealingKey: getEnvStr(EnvPassSealingKey, ""),
		PassTTL:        getEnvDuration(EnvPassTTL, DefaultPassTTL),

		BookingTimezone: getEnvStr(EnvBookingTimezone, DefaultBookingTimezone),
		BookingLockMode: strings.ToLower(getEnvStr(EnvBookingLockMode, DefaultBookingLockMode)),
		BookingLockTTL:  getEnvDuration(EnvBookingLockTTL, DefaultBookingLockTTL),
		BookingLockWait: getEnvDuration(EnvBookingLockWait, DefaultBookingLockWait),

		AdminUsername: getEnvStr(EnvAdminUsername, ""),
		AdminPassword: getEnvStr(EnvAdminPassword, ""),
	}

	if loc, err := time.LoadLocation(cfg.BookingTimezone); err == nil {
		cfg.BookingLocation = loc
	}
	return cfg
}

func loadEnvFile() error {
	path := getEnvStr(EnvFile, DefaultEnvFile)
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	errs := cfg.storeProblems()

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	for name, d := range map[string]time.Duration{
		"RateLimitWindow":   cfg.RateLimitWindow,
		"RequestTimeout":    cfg.RequestTimeout,
		"IdempotencyTTL":    cfg.IdempotencyTTL,
		"ReadTimeout":       cfg.ReadTimeout,
		"WriteTimeout":      cfg.WriteTimeout,
		"IdleTimeout":       cfg.IdleTimeout,
		"JWTExpires":        cfg.JWTExpires,
		"PassTTL":           cfg.PassTTL,
		"BookingLockTTL":    cfg.BookingLockTTL,
		"BookingLockWait":   cfg.BookingLockWait,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(cfg.JWTSecret) < 16 {
		errs = append(errs, "JWTSecret must be set and at least 16 characters long")
	}
	if err := validateSealingKey(cfg.PassSealingKey); err != nil {
		errs = append(errs, err.Error())
	}

	if cfg.BookingLocation == nil {
		errs = append(errs, fmt.Sprintf("BookingTimezone must be a valid IANA zone, got: %s", cfg.BookingTimezone))
	}
	if cfg.BookingLockMode != LockModeStore && cfg.BookingLockMode != LockModeMemory {
		errs = append(errs, fmt.Sprintf("BookingLockMode must be %q or %q, got: %s", LockModeStore, LockModeMemory, cfg.BookingLockMode))
	}
	// a holder may spend one read and one write inside the lock
	if worst := cfg.MongoReadTimeout + cfg.MongoWriteTimeout; cfg.BookingLockMode == LockModeStore && cfg.BookingLockTTL <= worst {
		errs = append(errs, fmt.Sprintf("BookingLockTTL (%s) must exceed MongoReadTimeout + MongoWriteTimeout (%s)", cfg.BookingLockTTL, worst))
	}
	if cfg.BookingLockWait > cfg.RequestTimeout {
		errs = append(errs, fmt.Sprintf("BookingLockWait (%s) must not exceed RequestTimeout (%s)", cfg.BookingLockWait, cfg.RequestTimeout))
	}

	return joinProblems(errs)
}

// ValidateStore checks only the settings needed to reach the store and seed the admin.
func (cfg *Config) ValidateStore() error {
	return joinProblems(cfg.storeProblems())
}

func (cfg *Config) storeProblems() []string {
	var errs []string

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	for name, d := range map[string]time.Duration{
		"MongoConnTimeout":  cfg.MongoConnTimeout,
		"MongoReadTimeout":  cfg.MongoReadTimeout,
		"MongoWriteTimeout": cfg.MongoWriteTimeout,
		"ShutdownTimeout":   cfg.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if (cfg.AdminUsername == "") != (cfg.AdminPassword == "") {
		errs = append(errs, "BootstrapAdminUsername and BootstrapAdminPassword must be set together")
	}
	return errs
}

func joinProblems(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	errMsg := "Configuration validation failed:\n"
	for i, err := range errs {
		errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
	}
	return fmt.Errorf("%s", errMsg)
}

func validateSealingKey(key string) error {
	if key == "" {
		return fmt.Errorf("PassSealingKey must be set (base64 encoded 32 byte key)")
	}
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return fmt.Errorf("PassSealingKey must be base64 encoded: %v", err)
	}
	if len(raw) != 16 && len(raw) != 24 && len(raw) != 32 {
		return fmt.Errorf("PassSealingKey must decode to 16, 24 or 32 bytes, got: %d", len(raw))
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"mongo_read_timeout", cfg.MongoReadTimeout,
		"mongo_write_timeout", cfg.MongoWriteTimeout,
		"mongo_transactions", cfg.MongoTransactions,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"cors_allowed_origins", cfg.CORSAllowedOrigins,
		"jwt_secret_set", cfg.JWTSecret != "",
		"jwt_expires", cfg.JWTExpires,
		"pass_sealing_key_set", cfg.PassSealingKey != "",
		"pass_ttl", cfg.PassTTL,
		"booking_timezone", cfg.BookingTimezone,
		"booking_lock_mode", cfg.BookingLockMode,
		"booking_lock_ttl", cfg.BookingLockTTL,
		"booking_lock_wait", cfg.BookingLockWait,
		"bootstrap_admin_set", cfg.AdminUsername != "",
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}
