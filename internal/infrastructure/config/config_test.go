package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SKILLS_ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("SKILLS_CONFIG_FILE", "")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8090", cfg.GRPCAddress())
	assert.Equal(t, ":9090", cfg.HTTPAddress())
	assert.Equal(t, RefdataEmbedded, cfg.RefdataSource)
	assert.Equal(t, "skills.events", cfg.EventsTopic)
	assert.False(t, cfg.Postgres().Enabled())
	assert.False(t, cfg.Kafka().Enabled())
	assert.False(t, cfg.TLS().Enabled())

	jwt, err := cfg.JWT()
	require.NoError(t, err)
	assert.False(t, jwt.Enabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("SKILLS_CONFIG_FILE", writeFile(t, dir, "skills.yaml", `
grpc_port: "7000"
http_port: "7001"
kafka_brokers: [a:9092, b:9092]
rate_limit_rps: 5
`))
	t.Setenv("HTTP_PORT", "7777")
	t.Setenv("GRPC_REFLECTION", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.GRPCPort)
	assert.Equal(t, "7777", cfg.HTTPPort)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka().Brokers)
	assert.InDelta(t, 5.0, cfg.RateLimitRPS, 1e-9)
	assert.True(t, cfg.GRPCReflection)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("SKILLS_ENV_FILE", writeFile(t, dir, ".env", "KAFKA_BROKERS=k1:9092, k2:9092\nLOG_LEVEL=debug\n"))
	t.Setenv("LOG_LEVEL", "warn")
	// godotenv sets variables in the process; make sure they do not leak.
	t.Cleanup(func() { _ = os.Unsetenv("KAFKA_BROKERS") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "warn", cfg.LogLevel, "existing environment wins over .env")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown refdata source", map[string]string{"REFDATA_SOURCE": "s3"}},
		{"dir without path", map[string]string{"REFDATA_SOURCE": "dir"}},
		{"postgres without database", map[string]string{"REFDATA_SOURCE": "postgres"}},
		{"bad integer", map[string]string{"DB_MAX_CONNS": "many"}},
		{"bad bool", map[string]string{"GRPC_REFLECTION": "sometimes"}},
		{"negative rate", map[string]string{"RATE_LIMIT_RPS": "-1"}},
		{"cert without key", map[string]string{"TLS_CERT_FILE": "cert.pem"}},
		{"missing config file", map[string]string{"SKILLS_CONFIG_FILE": "/nonexistent/skills.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b,"))
	assert.Nil(t, splitList(""))
}
