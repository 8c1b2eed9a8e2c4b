package main

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetConfig(t *testing.T, args ...string) {
	t.Helper()

	oldArgs, oldFlags := os.Args, pflag.CommandLine
	os.Args = append([]string{"server"}, args...)
	pflag.CommandLine = pflag.NewFlagSet("server", pflag.ContinueOnError)
	viper.Reset()

	t.Cleanup(func() {
		os.Args, pflag.CommandLine = oldArgs, oldFlags
		viper.Reset()
	})
}

func TestAllowedOriginsFromEnv(t *testing.T) {
	resetConfig(t)
	t.Setenv(allowedOrigins.envKey, "http://a.example, http://b.example")

	cfg, err := loadAppConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
}

func TestAllowedOriginsFromFlag(t *testing.T) {
	resetConfig(t, "--allowed-origins=http://a.example,http://b.example")

	cfg, err := loadAppConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
}

func TestDefaultConfig(t *testing.T) {
	resetConfig(t)

	cfg, err := loadAppConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "redis", cfg.DeviceStore)
}

func TestInvalidConfigRejected(t *testing.T) {
	resetConfig(t, "--llm-max-attempts=0")

	_, err := loadAppConfig()
	assert.Error(t, err)
}
