package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Log       LogConfig
	Tracing   TracingConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Schedule  ScheduleConfig
	Bootstrap BootstrapConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	BodyLimitBytes  int64
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver             string
	Host               string
	Port               int
	Name               string
	User               string
	Password           string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
	LockTimeout        time.Duration
	AutoMigrate        bool
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// AdminURL points at the maintenance database; used to create Name when it does not exist.
func (d DatabaseConfig) AdminURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/postgres?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	SampleRate  float64
	Insecure    bool
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type RateLimitConfig struct {
	Enabled bool
	// Fixed window applied per client IP
	Requests int
	Window   time.Duration
	// Burst for the in-process limiter used when Redis is not configured
	BurstSize int
	// FailOpen lets requests through when Redis is unreachable
	FailOpen bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ClientID      string
	SASLUser      string
	SASLPassword  string
	SASLMechanism string
	TLS           bool
	QueueSize     int
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type ScheduleConfig struct {
	// TimeZone is the practice's IANA zone; working hours are wall-clock times in it.
	TimeZone string
	SlotStep time.Duration
}

func (s ScheduleConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.TimeZone)
}

type BootstrapConfig struct {
	Seed          bool
	AdminEmail    string
	AdminPassword string
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: v.GetString("APP_ENV"),
			Version:     v.GetString("APP_VERSION"),
		},
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			BodyLimitBytes:  v.GetInt64("SERVER_BODY_LIMIT_BYTES"),
		},
		Database: DatabaseConfig{
			Driver:             strings.ToLower(v.GetString("DB_DRIVER")),
			Host:               v.GetString("DB_HOST"),
			Port:               v.GetInt("DB_PORT"),
			Name:               v.GetString("DB_NAME"),
			User:               v.GetString("DB_USER"),
			Password:           v.GetString("DB_PASSWORD"),
			SSLMode:            v.GetString("DB_SSLMODE"),
			MaxOpenConns:       v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:       v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime:    v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime:    v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			SlowQueryThreshold: v.GetDuration("DB_SLOW_QUERY_THRESHOLD"),
			LockTimeout:        v.GetDuration("DB_LOCK_TIMEOUT"),
			AutoMigrate:        v.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			AccessTokenTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTokenTTL: v.GetDuration("JWT_REFRESH_TTL"),
			Issuer:          v.GetString("JWT_ISSUER"),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			OutputPath: v.GetString("LOG_OUTPUT"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("TRACING_ENABLED"),
			ServiceName: v.GetString("TRACING_SERVICE_NAME"),
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			SampleRate:  v.GetFloat64("TRACING_SAMPLE_RATE"),
			Insecure:    v.GetBool("TRACING_INSECURE"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getSlice(v, "CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   getSlice(v, "CORS_ALLOWED_METHODS"),
			AllowedHeaders:   getSlice(v, "CORS_ALLOWED_HEADERS"),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetDuration("CORS_MAX_AGE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:   v.GetBool("RATE_LIMIT_ENABLED"),
			Requests:  v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:    v.GetDuration("RATE_LIMIT_WINDOW"),
			BurstSize: v.GetInt("RATE_LIMIT_BURST"),
			FailOpen:  v.GetBool("RATE_LIMIT_FAIL_OPEN"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers:       getSlice(v, "KAFKA_BROKERS"),
			Topic:         v.GetString("KAFKA_TOPIC"),
			ClientID:      v.GetString("KAFKA_CLIENT_ID"),
			SASLUser:      v.GetString("KAFKA_SASL_USER"),
			SASLPassword:  v.GetString("KAFKA_SASL_PASSWORD"),
			SASLMechanism: strings.ToUpper(v.GetString("KAFKA_SASL_MECHANISM")),
			TLS:           v.GetBool("KAFKA_TLS"),
			QueueSize:     v.GetInt("KAFKA_QUEUE_SIZE"),
		},
		Schedule: ScheduleConfig{
			TimeZone: v.GetString("SCHEDULE_TIMEZONE"),
			SlotStep: v.GetDuration("SCHEDULE_SLOT_STEP"),
		},
		Bootstrap: BootstrapConfig{
			Seed:          v.GetBool("SEED_DEFAULTS"),
			AdminEmail:    v.GetString("BOOTSTRAP_ADMIN_EMAIL"),
			AdminPassword: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"APP_NAME":    "optiflow-api",
		"APP_ENV":     "development",
		"APP_VERSION": "0.0.0",

		"SERVER_HOST":             "0.0.0.0",
		"SERVER_PORT":             5001,
		"SERVER_READ_TIMEOUT":     15 * time.Second,
		"SERVER_WRITE_TIMEOUT":    15 * time.Second,
		"SERVER_IDLE_TIMEOUT":     60 * time.Second,
		"SERVER_SHUTDOWN_TIMEOUT": 30 * time.Second,
		"SERVER_BODY_LIMIT_BYTES": int64(10 << 20),

		"DB_DRIVER":               "postgres",
		"DB_HOST":                 "localhost",
		"DB_PORT":                 5432,
		"DB_NAME":                 "optometrist_practice",
		"DB_USER":                 "optiflow",
		"DB_PASSWORD":             "",
		"DB_SSLMODE":              "disable",
		"DB_MAX_OPEN_CONNS":       25,
		"DB_MAX_IDLE_CONNS":       10,
		"DB_CONN_MAX_LIFETIME":    30 * time.Minute,
		"DB_CONN_MAX_IDLE_TIME":   5 * time.Minute,
		"DB_SLOW_QUERY_THRESHOLD": 200 * time.Millisecond,
		"DB_LOCK_TIMEOUT":         5 * time.Second,
		"DB_AUTO_MIGRATE":         true,

		"JWT_SECRET":      "",
		"JWT_ACCESS_TTL":  15 * time.Minute,
		"JWT_REFRESH_TTL": 7 * 24 * time.Hour,
		"JWT_ISSUER":      "optiflow-api",

		"LOG_LEVEL":  "info",
		"LOG_FORMAT": "json",
		"LOG_OUTPUT": "stdout",

		"TRACING_ENABLED":             false,
		"TRACING_SERVICE_NAME":        "optiflow-api",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4318",
		"TRACING_SAMPLE_RATE":         0.1,
		"TRACING_INSECURE":            true,

		"CORS_ALLOWED_ORIGINS":   "http://localhost:3000,http://localhost:3001",
		"CORS_ALLOWED_METHODS":   "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		"CORS_ALLOWED_HEADERS":   "Authorization,Content-Type,X-Request-ID",
		"CORS_ALLOW_CREDENTIALS": true,
		"CORS_MAX_AGE":           12 * time.Hour,

		"RATE_LIMIT_ENABLED":   true,
		"RATE_LIMIT_REQUESTS":  100,
		"RATE_LIMIT_WINDOW":    15 * time.Minute,
		"RATE_LIMIT_BURST":     20,
		"RATE_LIMIT_FAIL_OPEN": true,

		"REDIS_ADDR":     "",
		"REDIS_PASSWORD": "",
		"REDIS_DB":       0,

		"KAFKA_BROKERS":        "",
		"KAFKA_TOPIC":          "appointments.events",
		"KAFKA_CLIENT_ID":      "optiflow-api",
		"KAFKA_SASL_USER":      "",
		"KAFKA_SASL_PASSWORD":  "",
		"KAFKA_SASL_MECHANISM": "",
		"KAFKA_TLS":            false,
		"KAFKA_QUEUE_SIZE":     1000,

		"SCHEDULE_TIMEZONE":  "Africa/Johannesburg",
		"SCHEDULE_SLOT_STEP": 15 * time.Minute,

		"SEED_DEFAULTS":            true,
		"BOOTSTRAP_ADMIN_EMAIL":    "",
		"BOOTSTRAP_ADMIN_PASSWORD": "",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// validate enforces production security requirements.
func validate(cfg *Config) error {
	var errs []string

	if cfg.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWT.Secret) < 32 && cfg.App.Environment == "production" {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}

	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.Password == "" && cfg.App.Environment != "development" {
			errs = append(errs, "DB_PASSWORD is required in non-development environments")
		}
		if cfg.Database.SSLMode == "disable" && cfg.App.Environment == "production" {
			errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
		}
	case "memory":
		if cfg.App.Environment == "production" {
			errs = append(errs, "DB_DRIVER=memory is not allowed in production")
		}
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER %q is not supported", cfg.Database.Driver))
	}

	if _, err := cfg.Schedule.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("SCHEDULE_TIMEZONE %q is invalid", cfg.Schedule.TimeZone))
	}

	if cfg.Kafka.SASLMechanism != "" {
		switch cfg.Kafka.SASLMechanism {
		case "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
		default:
			errs = append(errs, fmt.Sprintf("KAFKA_SASL_MECHANISM %q is not supported", cfg.Kafka.SASLMechanism))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getSlice(v *viper.Viper, key string) []string {
	parts := strings.Split(v.GetString(key), ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			result = append(result, t)
		}
	}
	return result
}
