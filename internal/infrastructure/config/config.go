package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bibbank/skills/pkg/auth"
	"github.com/bibbank/skills/pkg/kafka"
	"github.com/bibbank/skills/pkg/observability"
	"github.com/bibbank/skills/pkg/postgres"
	"github.com/bibbank/skills/pkg/tlsutil"
)

// Reference table sources.
const (
	RefdataEmbedded = "embedded"
	RefdataDir      = "dir"
	RefdataPostgres = "postgres"
)

// Config holds all configuration for the skills service.
type Config struct {
	GRPCPort    string `yaml:"grpc_port"`
	HTTPPort    string `yaml:"http_port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`

	DatabaseURL string `yaml:"database_url"`
	DBMaxConns  int32  `yaml:"db_max_conns"`
	// AutoMigrate applies the embedded migrations at start-up.
	AutoMigrate bool `yaml:"auto_migrate"`

	KafkaBrokers  []string `yaml:"kafka_brokers"`
	KafkaClientID string   `yaml:"kafka_client_id"`
	KafkaSASL     string   `yaml:"kafka_sasl_mechanism"`
	KafkaUsername string   `yaml:"kafka_username"`
	KafkaPassword string   `yaml:"kafka_password"`
	KafkaTLS      bool     `yaml:"kafka_tls"`
	EventsTopic   string   `yaml:"events_topic"`

	RefdataSource string `yaml:"refdata_source"`
	RefdataDir    string `yaml:"refdata_dir"`

	JWTSecret        string `yaml:"jwt_secret"`
	JWTPublicKeyFile string `yaml:"jwt_public_key_file"`
	JWTIssuer        string `yaml:"jwt_issuer"`

	TLSCertFile     string `yaml:"tls_cert_file"`
	TLSKeyFile      string `yaml:"tls_key_file"`
	TLSClientCAFile string `yaml:"tls_client_ca_file"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
	GRPCReflection bool    `yaml:"grpc_reflection"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
}

func defaults() *Config {
	return &Config{
		GRPCPort:       "8090",
		HTTPPort:       "9090",
		Environment:    "development",
		LogLevel:       "info",
		LogFormat:      "json",
		DBMaxConns:     10,
		AutoMigrate:    true,
		KafkaClientID:  "skilld",
		EventsTopic:    "skills.events",
		RefdataSource:  RefdataEmbedded,
		JWTIssuer:      "bib-skills",
		RateLimitBurst: 20,
	}
}

// Load reads configuration. A .env file in the working directory seeds the
// environment without overriding it, SKILLS_CONFIG_FILE names an optional
// YAML file applied over the defaults, and environment variables win over both.
func Load() (*Config, error) {
	if err := godotenv.Load(getEnv("SKILLS_ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load env file: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("SKILLS_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.GRPCPort = getEnv("GRPC_PORT", c.GRPCPort)
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.KafkaClientID = getEnv("KAFKA_CLIENT_ID", c.KafkaClientID)
	c.KafkaSASL = getEnv("KAFKA_SASL_MECHANISM", c.KafkaSASL)
	c.KafkaUsername = getEnv("KAFKA_USERNAME", c.KafkaUsername)
	c.KafkaPassword = getEnv("KAFKA_PASSWORD", c.KafkaPassword)
	c.EventsTopic = getEnv("EVENTS_TOPIC", c.EventsTopic)
	c.RefdataSource = strings.ToLower(getEnv("REFDATA_SOURCE", c.RefdataSource))
	c.RefdataDir = getEnv("REFDATA_DIR", c.RefdataDir)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTPublicKeyFile = getEnv("JWT_PUBLIC_KEY_FILE", c.JWTPublicKeyFile)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.TLSCertFile = getEnv("TLS_CERT_FILE", c.TLSCertFile)
	c.TLSKeyFile = getEnv("TLS_KEY_FILE", c.TLSKeyFile)
	c.TLSClientCAFile = getEnv("TLS_CLIENT_CA_FILE", c.TLSClientCAFile)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		c.KafkaBrokers = splitList(v)
	}

	var err error
	if c.DBMaxConns, err = getEnvInt("DB_MAX_CONNS", c.DBMaxConns); err != nil {
		return err
	}
	if c.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst); err != nil {
		return err
	}
	if c.RateLimitRPS, err = getEnvFloat("RATE_LIMIT_RPS", c.RateLimitRPS); err != nil {
		return err
	}
	if c.AutoMigrate, err = getEnvBool("AUTO_MIGRATE", c.AutoMigrate); err != nil {
		return err
	}
	if c.KafkaTLS, err = getEnvBool("KAFKA_TLS", c.KafkaTLS); err != nil {
		return err
	}
	if c.GRPCReflection, err = getEnvBool("GRPC_REFLECTION", c.GRPCReflection); err != nil {
		return err
	}
	return nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.RefdataSource {
	case RefdataEmbedded:
	case RefdataDir:
		if c.RefdataDir == "" {
			return fmt.Errorf("config: REFDATA_SOURCE=dir requires REFDATA_DIR")
		}
	case RefdataPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: REFDATA_SOURCE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("config: unknown REFDATA_SOURCE %q", c.RefdataSource)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("config: RATE_LIMIT_RPS must not be negative")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("config: TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

// Log returns the logger settings.
func (c *Config) Log() observability.LogConfig {
	return observability.LogConfig{Level: c.LogLevel, Format: c.LogFormat, Service: "skilld"}
}

// Trace returns the tracer settings.
func (c *Config) Trace() observability.TraceConfig {
	return observability.TraceConfig{
		ServiceName: "skilld",
		Endpoint:    c.OTLPEndpoint,
		Insecure:    c.Environment == "development",
	}
}

// Postgres returns the database settings.
func (c *Config) Postgres() postgres.Config {
	return postgres.Config{URL: c.DatabaseURL, MaxConns: c.DBMaxConns}
}

// Kafka returns the broker settings.
func (c *Config) Kafka() kafka.Config {
	return kafka.Config{
		Brokers:       c.KafkaBrokers,
		ClientID:      c.KafkaClientID,
		SASLMechanism: c.KafkaSASL,
		SASLUsername:  c.KafkaUsername,
		SASLPassword:  c.KafkaPassword,
		TLS:           c.KafkaTLS,
	}
}

// TLS returns the server certificate settings.
func (c *Config) TLS() tlsutil.Config {
	return tlsutil.Config{CertFile: c.TLSCertFile, KeyFile: c.TLSKeyFile, ClientCAFile: c.TLSClientCAFile}
}

// JWT returns the token settings, reading the public key file when one is named.
func (c *Config) JWT() (auth.JWTConfig, error) {
	cfg := auth.JWTConfig{Secret: c.JWTSecret, Issuer: c.JWTIssuer}
	if c.JWTPublicKeyFile != "" {
		key, err := auth.LoadKeyFromFile(c.JWTPublicKeyFile)
		if err != nil {
			return auth.JWTConfig{}, fmt.Errorf("config: %w", err)
		}
		cfg.PublicKeyPEM = key
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt[T int | int32](key string, defaultValue T) (T, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return T(n), nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
