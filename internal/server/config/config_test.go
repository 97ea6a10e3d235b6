package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = append([]string{"testbin"}, args...)
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetArgs(t)

	cfg := LoadConfig()
	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 10*time.Minute, cfg.CodeValidityDuration)
	assert.Equal(t, 3, cfg.MaxCodeAttempts)
}

func TestLoadConfig_Flags(t *testing.T) {
	resetArgs(t, "-a", ":9090", "-d", "postgres://x/y", "-s", "k1", "-t", "5", "-o", "2", "-m", "7")

	cfg := LoadConfig()
	assert.Equal(t, ":9090", cfg.EndpointAddr)
	assert.Equal(t, "postgres://x/y", cfg.DatabaseDSN)
	assert.Equal(t, "k1", cfg.SecretKey)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 2*time.Minute, cfg.CodeValidityDuration)
	assert.Equal(t, 7, cfg.MaxCodeAttempts)
}

func TestLoadConfig_JsonThenFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	body, err := json.Marshal(map[string]any{
		"endpoint_addr":          ":7070",
		"secret_key":             "from-json",
		"code_validity_duration": "4m",
		"max_code_attempts":      5,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	resetArgs(t, "-c", path)
	cfg := LoadConfig()
	assert.Equal(t, ":7070", cfg.EndpointAddr)
	assert.Equal(t, "from-json", cfg.SecretKey)
	assert.Equal(t, 4*time.Minute, cfg.CodeValidityDuration)
	assert.Equal(t, 5, cfg.MaxCodeAttempts)

	resetArgs(t, "-c", path, "-a", ":6060")
	cfg = LoadConfig()
	assert.Equal(t, ":6060", cfg.EndpointAddr, "flags win over JSON")
	assert.Equal(t, "from-json", cfg.SecretKey)
}

func TestLoadConfig_TwilioFromEnv(t *testing.T) {
	resetArgs(t)
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_FROM_NUMBER", "+15550009999")

	cfg := LoadConfig()
	assert.Equal(t, "AC123", cfg.TwilioAccountSID)
	assert.Equal(t, "tok", cfg.TwilioAuthToken)
	assert.Equal(t, "+15550009999", cfg.TwilioFromNumber)
}
