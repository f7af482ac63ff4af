package config

import "time"

const (
	DefaultEnvFile = ".env"

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "residencial_db"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultMongoReadTimeout  = 5 * time.Second
	DefaultMongoWriteTimeout = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultCORSAllowedOrigins = "http://localhost:5173"

	// minutes
	DefaultJWTExpires = 30

	DefaultPassTTL = 12 * time.Hour

	DefaultBookingTimezone = "UTC"
	DefaultBookingLockMode = LockModeStore
	DefaultBookingLockTTL  = 30 * time.Second
	DefaultBookingLockWait = 3 * time.Second
)

const (
	LockModeStore  = "store"
	LockModeMemory = "memory"
)
