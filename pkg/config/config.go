package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SiteConfig describes one WordPress installation to mirror.
type SiteConfig struct {
	Name        string         `json:"name"`
	URL         string         `json:"url"`
	Collections []string       `json:"collections"`
	PageSize    int            `json:"page_size"`
	MaxPages    int            `json:"max_pages"`
	Params      map[string]any `json:"params"`
}

type Config struct {
	MongoURI       string
	MongoDBName    string
	MongoColl      string
	PollInterval   time.Duration
	HTTPTimeout    time.Duration
	ServerPort     string
	Sites          []SiteConfig
	WorkerPoolSize int
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaDLQTopic  string
	KafkaGroupID   string
	SitesFilePath  string
	OTLPEndpoint   string
	LogLevel       slog.Level
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "kafka:29092"
	}

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "wp_mirror"),
		MongoColl:      getEnv("MONGO_COLLECTION", "entries"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://mongodb:27017"),
		PollInterval:   getDurationEnv("POLL_INTERVAL", 5*time.Minute),
		HTTPTimeout:    getDurationEnv("WP_HTTP_TIMEOUT", 10*time.Second),
		WorkerPoolSize: getIntEnv("WORKER_POOL_SIZE", 4),
		KafkaBrokers:   strings.Split(brokers, ","),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "wp_entries"),
		KafkaDLQTopic:  getEnv("KAFKA_DLQ_TOPIC", "wp_entries_dlq"),
		KafkaGroupID:   getEnv("KAFKA_GROUP_ID", "wp-index-sync"),
		SitesFilePath:  getEnv("SITES_FILE_PATH", "config/sites.json"),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		LogLevel:       getLevelEnv("LOG_LEVEL", slog.LevelInfo),
	}
	cfg.Sites = loadSites(cfg.SitesFilePath)
	return cfg
}

func loadSites(path string) []SiteConfig {
	// Running from cmd/server during development puts config one level up.
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "config/sites.json" {
		fallback := "../config/sites.json"
		if _, err := os.Stat(fallback); err == nil {
			path = fallback
		}
	}

	file, err := os.Open(path)
	if err != nil {
		slog.Warn("Could not open sites file, using WP_SITE_URL", "path", path, "error", err)
		return []SiteConfig{
			{
				Name:        getEnv("WP_SITE_NAME", "default"),
				URL:         getEnv("WP_SITE_URL", "https://wordpress.org/news"),
				Collections: []string{"posts", "pages"},
			},
		}
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("Failed to close config file", "error", err)
		}
	}()

	return decodeSites(file)
}

func decodeSites(r io.Reader) []SiteConfig {
	var sites []SiteConfig
	if err := json.NewDecoder(r).Decode(&sites); err != nil {
		slog.Error("Error decoding sites file", "error", err)
		return nil
	}
	for i := range sites {
		if len(sites[i].Collections) == 0 {
			sites[i].Collections = []string{"posts"}
		}
	}
	return sites
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		// Try parsing as duration string (e.g. "1m", "60s")
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Try parsing as integer seconds
		if i, err := strconv.Atoi(value); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}

func getLevelEnv(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fallback
	}
	return level
}
