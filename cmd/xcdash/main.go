package main

import (
	"os"
	"time"

	"xcdash/internal/api"
	"xcdash/internal/backends"
	"xcdash/internal/creds"
	"xcdash/internal/fetch"
	"xcdash/internal/metrics"
	"xcdash/internal/types"
	"xcdash/internal/upstream"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	SecretKeyEnvKey  = "XCDASH_SECRET_KEY"
	ConfigPathEnvKey = "XCDASH_CONFIG"
	UpstreamEnvKey   = "XCDASH_UPSTREAM_URL"
)

func main() {
	// Load environment variables
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	err := godotenv.Load(envFile)
	if err != nil {
		log.Info("The .env file not found.")
	}

	configPath := os.Getenv(ConfigPathEnvKey)
	if configPath == "" {
		configPath = "config.yml"
	}
	cfg, err := types.LoadAppConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if u := os.Getenv(UpstreamEnvKey); u != "" {
		cfg.UpstreamBaseURL = u
	}
	if cfg.UpstreamBaseURL == "" {
		log.Fatalf("Upstream base URL is not configured (set upstream_base_url or %s)", UpstreamEnvKey)
	}

	hexKey := os.Getenv(SecretKeyEnvKey)
	if hexKey == "" {
		log.Fatalf("%s is required (hex-encoded %d-byte key)", SecretKeyEnvKey, creds.KeyLenBytes)
	}
	store, err := creds.NewStoreFromHex(hexKey)
	if err != nil {
		log.Fatalf("Failed to initialize credential store: %v", err)
	}

	cache, err := backends.CacheBackendFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize cache backend: %v", err)
	}

	up := upstream.New(cfg.UpstreamBaseURL, time.Duration(cfg.UpstreamTimeoutSeconds)*time.Second)

	metrics.Init()

	h := api.NewHandler(store, cache, up, fetch.TTLsFromConfig(cfg.TTL))
	api.RunServer(cfg.ListenPort, h)
}
