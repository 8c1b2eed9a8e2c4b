package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/generation/generationtest"
	"github.com/syncsphere/server/internal/repository/device"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Host:            "127.0.0.1",
		Port:            8080,
		LogLevel:        "debug",
		DeviceStore:     DeviceStoreRedis,
		LLMModel:        "test-model",
		LLMMaxAttempts:  1,
		CaptionInterval: time.Hour,
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := map[string]func(*AppConfig){
		"port":             func(c *AppConfig) { c.Port = 0 },
		"store":            func(c *AppConfig) { c.DeviceStore = "sqlite" },
		"file store path":  func(c *AppConfig) { c.DeviceStore = DeviceStoreFile },
		"model":            func(c *AppConfig) { c.LLMModel = "" },
		"attempts":         func(c *AppConfig) { c.LLMMaxAttempts = 0 },
		"caption interval": func(c *AppConfig) { c.CaptionInterval = 0 },
		"scan delay":       func(c *AppConfig) { c.ScanDelay = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func listDevices(t *testing.T, handler http.Handler) []domain.Device {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.Device `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Data
}

func TestApplicationWithRedisStore(t *testing.T) {
	s := miniredis.RunT(t)
	cfg := validConfig()
	cfg.RedisHost = s.Host()
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)
	cfg.RedisPort = port

	ctx := context.Background()
	gen := generationtest.New()
	app, err := newApplication(ctx, cfg, gen)
	require.NoError(t, err)
	t.Cleanup(func() { app.close() })

	devices := listDevices(t, app.handler)
	assert.Len(t, devices, 8)

	cached, err := s.Get(device.DefaultKey)
	require.NoError(t, err)
	decoded, err := device.Decode([]byte(cached))
	require.NoError(t, err)
	assert.Equal(t, devices, decoded)

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/devices/2/toggle", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// a fresh application sees the persisted selection
	restarted, err := newApplication(ctx, cfg, gen)
	require.NoError(t, err)
	t.Cleanup(func() { restarted.close() })

	devices = listDevices(t, restarted.handler)
	require.Len(t, devices, 8)
	assert.True(t, devices[1].Selected)
}

func TestApplicationWithFileStore(t *testing.T) {
	cfg := validConfig()
	cfg.DeviceStore = DeviceStoreFile
	cfg.DeviceStorePath = filepath.Join(t.TempDir(), "devices.json")

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, generationtest.New())
	require.NoError(t, err)
	t.Cleanup(func() { app.close() })

	assert.Len(t, listDevices(t, app.handler), 8)
	assert.FileExists(t, cfg.DeviceStorePath)
}

func TestApplicationRedisUnavailable(t *testing.T) {
	s := miniredis.RunT(t)
	cfg := validConfig()
	cfg.RedisHost = s.Host()
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)
	cfg.RedisPort = port
	s.Close()

	_, err = newApplication(context.Background(), cfg, generationtest.New())
	assert.Error(t, err)
}
