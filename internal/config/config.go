// Package config provides configuration structures and validation for the application.
// It covers the sync worker, the notifier and the API gateway: HTTP server settings,
// database and cache connections, message topics, the remote ledger bridge and the
// reconciliation parameters.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration with settings for all components.
// Every binary loads the same structure from its own env file and validates it at startup.
type Config struct {
	Application    ApplicationConfig
	Logging        LoggingConfig
	Server         ServerConfig
	Kafka          KafkaConfig
	Postgres       PostgresConfig
	MongoDB        MongoDBConfig
	Redis          RedisConfig
	Outbox         OutboxConfig
	WorkerPool     WorkerPoolConfig
	Source         SourceConfig
	Sync           SyncConfig
	Reconciliation ReconciliationConfig
	Metrics        MetricsConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	ChangeEventTopic  string // Voucher change events published from the outbox
	SyncRequestTopic  string // On-demand sync requests from the API gateway
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

// BrokerList splits Brokers, e.g. "kafka-1:9092,kafka-2:9092"
func (k KafkaConfig) BrokerList() []string {
	return splitList(k.Brokers)
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Minimum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files, empty skips migrations
	ConnectAttempts uint64        // Startup connection attempts before giving up
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains the connection used for sync status snapshots
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	KeyPrefix   string
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
	Retention        time.Duration // Processed rows older than this are purged, 0 keeps them
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// SourceConfig describes the HTTP bridge in front of the remote ledger system
type SourceConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration // Bound on a single fetch
	MinInterval    time.Duration // Minimum gap between two outbound requests
	MaxRetries     int
	RetryBaseDelay time.Duration
	VoucherTypes   []string // Allow-list of voucher types to mirror
}

// SyncConfig contains the scheduler periods
type SyncConfig struct {
	Interval       time.Duration
	MasterInterval time.Duration
	RunOnStart     bool
}

// ReconciliationConfig contains ledger builder inputs that are not stored in the database
type ReconciliationConfig struct {
	Timezone            string
	SettlementKeywords  []string
	PortalSuccessStatus string
}

// MetricsConfig contains the ops endpoint of the sync worker
type MetricsConfig struct {
	Port int
}

// validate performs comprehensive validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Kafka config
	if len(c.Kafka.BrokerList()) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.ChangeEventTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_CHANGE_EVENT_TOPIC is required")
	}
	if c.Kafka.SyncRequestTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_SYNC_REQUEST_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate MongoDB config
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}

	// Validate Redis config
	if c.Redis.Addr == "" {
		validationErrors = append(validationErrors, "REDIS_ADDR is required")
	}
	if c.Redis.DialTimeout <= 0 {
		validationErrors = append(validationErrors, "REDIS_DIAL_TIMEOUT must be greater than 0")
	}

	// Validate Outbox config
	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	// Validate Source config
	if c.Source.BaseURL == "" {
		validationErrors = append(validationErrors, "SOURCE_BASE_URL is required")
	}
	if c.Source.Timeout <= 0 {
		validationErrors = append(validationErrors, "SOURCE_TIMEOUT must be greater than 0")
	}
	if c.Source.MinInterval < 0 {
		validationErrors = append(validationErrors, "SOURCE_MIN_INTERVAL cannot be negative")
	}
	if c.Source.MaxRetries < 0 {
		validationErrors = append(validationErrors, "SOURCE_MAX_RETRIES cannot be negative")
	}
	if c.Source.RetryBaseDelay <= 0 {
		validationErrors = append(validationErrors, "SOURCE_RETRY_BASE_DELAY must be greater than 0")
	}
	if len(c.Source.VoucherTypes) == 0 {
		validationErrors = append(validationErrors, "SOURCE_VOUCHER_TYPES is required")
	}

	// Validate Sync config
	if c.Sync.Interval <= 0 {
		validationErrors = append(validationErrors, "SYNC_INTERVAL must be greater than 0")
	}
	if c.Sync.MasterInterval <= 0 {
		validationErrors = append(validationErrors, "MASTER_SYNC_INTERVAL must be greater than 0")
	}

	// Validate Reconciliation config
	if _, err := time.LoadLocation(c.Reconciliation.Timezone); err != nil {
		validationErrors = append(validationErrors, "RECONCILIATION_TIMEZONE must be a valid IANA zone")
	}
	if len(c.Reconciliation.SettlementKeywords) == 0 {
		validationErrors = append(validationErrors, "RECONCILIATION_SETTLEMENT_KEYWORDS is required")
	}
	if c.Reconciliation.PortalSuccessStatus == "" {
		validationErrors = append(validationErrors, "RECONCILIATION_PORTAL_SUCCESS_STATUS is required")
	}

	if c.Metrics.Port <= 0 {
		validationErrors = append(validationErrors, "METRICS_PORT must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}

// splitList turns a comma separated env value into a trimmed list without empty items
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
