package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/syncsphere/server/internal/app"
	"github.com/syncsphere/server/internal/generation/openai"
	"github.com/syncsphere/server/internal/platform"
	"github.com/syncsphere/server/internal/service/party"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	configFile = configVar[string]{
		envKey:       "SERVER_CONFIG",
		flagKey:      "config",
		defaultValue: "",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	allowedOrigins = configVar[[]string]{
		envKey:       "SERVER_ALLOWED_ORIGINS",
		flagKey:      "allowed-origins",
		defaultValue: nil,
	}
	deviceStore = configVar[string]{
		envKey:       "DEVICE_STORE",
		flagKey:      "device-store",
		defaultValue: app.DeviceStoreRedis,
	}
	deviceStorePath = configVar[string]{
		envKey:       "DEVICE_STORE_PATH",
		flagKey:      "device-store-path",
		defaultValue: "devices.json",
	}
	deviceStoreKey = configVar[string]{
		envKey:       "DEVICE_STORE_KEY",
		flagKey:      "device-store-key",
		defaultValue: "",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	redisDB = configVar[int]{
		envKey:       "REDIS_DB",
		flagKey:      "redis-db",
		defaultValue: 0,
	}
	llmAPIKey = configVar[string]{
		envKey:       "LLM_API_KEY",
		flagKey:      "llm-api-key",
		defaultValue: "",
	}
	llmBaseURL = configVar[string]{
		envKey:       "LLM_BASE_URL",
		flagKey:      "llm-base-url",
		defaultValue: openai.DefaultBaseURL,
	}
	llmModel = configVar[string]{
		envKey:       "LLM_MODEL",
		flagKey:      "llm-model",
		defaultValue: "google/gemini-2.0-flash-001",
	}
	llmTimeout = configVar[int]{
		envKey:       "LLM_TIMEOUT_SECONDS",
		flagKey:      "llm-timeout",
		defaultValue: 30,
	}
	llmMaxAttempts = configVar[int]{
		envKey:       "LLM_MAX_ATTEMPTS",
		flagKey:      "llm-max-attempts",
		defaultValue: 1,
	}
	captionInterval = configVar[time.Duration]{
		envKey:       "CAPTION_INTERVAL",
		flagKey:      "caption-interval",
		defaultValue: party.DefaultCaptionInterval,
	}
	scanDelay = configVar[time.Duration]{
		envKey:       "SCAN_DELAY",
		flagKey:      "scan-delay",
		defaultValue: platform.DefaultScanDelay,
	}
)

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

// stringSlice reads a list that may come from a flag, a config file list or a comma
// separated env var.
func stringSlice(key string) []string {
	raw, ok := viper.Get(key).(string)
	if !ok {
		return viper.GetStringSlice(key)
	}

	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func loadAppConfig() (*app.AppConfig, error) {
	pflag.String(configFile.flagKey, configFile.defaultValue, "Path to a config file (json, yaml or toml)")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.StringSlice(allowedOrigins.flagKey, allowedOrigins.defaultValue, "Allowed CORS origins, all when empty")
	pflag.String(deviceStore.flagKey, deviceStore.defaultValue, "Device list store: redis or file")
	pflag.String(deviceStorePath.flagKey, deviceStorePath.defaultValue, "Device list file for the file store")
	pflag.String(deviceStoreKey.flagKey, deviceStoreKey.defaultValue, "Redis key for the device list")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Int(redisDB.flagKey, redisDB.defaultValue, "Redis database")
	pflag.String(llmAPIKey.flagKey, llmAPIKey.defaultValue, "Generation backend API key")
	pflag.String(llmBaseURL.flagKey, llmBaseURL.defaultValue, "Generation backend chat completions URL")
	pflag.String(llmModel.flagKey, llmModel.defaultValue, "Generation model")
	pflag.Int(llmTimeout.flagKey, llmTimeout.defaultValue, "Generation request timeout in seconds")
	pflag.Int(llmMaxAttempts.flagKey, llmMaxAttempts.defaultValue, "Generation attempts for retryable failures")
	pflag.Duration(captionInterval.flagKey, captionInterval.defaultValue, "Live caption refresh interval")
	pflag.Duration(scanDelay.flagKey, scanDelay.defaultValue, "Simulated Bluetooth scan duration")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bind(configFile)
	bind(port)
	bind(host)
	bind(logLevel)
	bind(allowedOrigins)
	bind(deviceStore)
	bind(deviceStorePath)
	bind(deviceStoreKey)
	bind(redisPort)
	bind(redisHost)
	bind(redisPassword)
	bind(redisDB)
	bind(llmAPIKey)
	bind(llmBaseURL)
	bind(llmModel)
	bind(llmTimeout)
	bind(llmMaxAttempts)
	bind(captionInterval)
	bind(scanDelay)

	if path := viper.GetString(configFile.flagKey); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &app.AppConfig{
		Host:            viper.GetString(host.flagKey),
		Port:            viper.GetInt(port.flagKey),
		LogLevel:        viper.GetString(logLevel.flagKey),
		AllowedOrigins:  stringSlice(allowedOrigins.flagKey),
		DeviceStore:     viper.GetString(deviceStore.flagKey),
		DeviceStorePath: viper.GetString(deviceStorePath.flagKey),
		DeviceStoreKey:  viper.GetString(deviceStoreKey.flagKey),
		RedisHost:       viper.GetString(redisHost.flagKey),
		RedisPort:       viper.GetInt(redisPort.flagKey),
		RedisPassword:   viper.GetString(redisPassword.flagKey),
		RedisDB:         viper.GetInt(redisDB.flagKey),
		LLMAPIKey:       viper.GetString(llmAPIKey.flagKey),
		LLMBaseURL:      viper.GetString(llmBaseURL.flagKey),
		LLMModel:        viper.GetString(llmModel.flagKey),
		LLMTimeout:      viper.GetInt(llmTimeout.flagKey),
		LLMMaxAttempts:  viper.GetInt(llmMaxAttempts.flagKey),
		CaptionInterval: viper.GetDuration(captionInterval.flagKey),
		ScanDelay:       viper.GetDuration(scanDelay.flagKey),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func main() {
	ctx := context.Background()

	appConfig, err := loadAppConfig()
	if err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
