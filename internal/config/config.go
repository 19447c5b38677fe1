package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Postal configures the postal lookup client, its cache and the resolver.
type Postal struct {
	BaseURL        string
	Timeout        time.Duration
	ResolveTimeout time.Duration
	Rate           float64
	Burst          int
	CacheTTL       time.Duration
	CacheCapacity  int
	RedisAddr      string
}

// Worker holds configuration for the Kafka -> Elasticsearch worker.
type Worker struct {
	Common
	Postal
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaConsumer  string
	DedupeCapacity int
	DedupeTTL      time.Duration
	BatchSize      int
	WikiBaseURL    string
	WikiTimeout    time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Postal
	BindAddr   string
	AuthSecret string
	AuthIssuer string
}

// Refresh configures the pincode backfill loop.
type Refresh struct {
	Common
	Postal
	Interval    time.Duration
	BatchSize   int
	Concurrency int
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "travel"),
	}
}

func loadPostal() (Postal, error) {
	p := Postal{
		BaseURL:        getEnv("POSTAL_BASE_URL", "https://api.postalpincode.in"),
		Timeout:        getDuration("POSTAL_TIMEOUT", "5s"),
		ResolveTimeout: getDuration("POSTAL_RESOLVE_TIMEOUT", "20s"),
		Rate:           getFloat("POSTAL_RATE", 5),
		Burst:          getInt("POSTAL_BURST", 5),
		CacheTTL:       getDuration("POSTAL_CACHE_TTL", "24h"),
		CacheCapacity:  getInt("POSTAL_CACHE_CAPACITY", 5000),
		RedisAddr:      strings.TrimSpace(os.Getenv("REDIS_ADDR")),
	}

	if p.Timeout <= 0 {
		return p, fmt.Errorf("POSTAL_TIMEOUT must be positive")
	}
	if p.ResolveTimeout < 0 {
		return p, fmt.Errorf("POSTAL_RESOLVE_TIMEOUT cannot be negative")
	}
	if p.Rate < 0 {
		return p, fmt.Errorf("POSTAL_RATE cannot be negative")
	}
	if p.Burst <= 0 {
		return p, fmt.Errorf("POSTAL_BURST must be positive")
	}
	if p.CacheCapacity <= 0 {
		return p, fmt.Errorf("POSTAL_CACHE_CAPACITY must be positive")
	}
	return p, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	postal, err := loadPostal()
	if err != nil {
		return nil, err
	}
	c := &Worker{
		Common:         loadCommon(),
		Postal:         postal,
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "records_raw"),
		KafkaConsumer:  getEnv("KAFKA_CONSUMER_GROUP", "records-worker"),
		DedupeCapacity: getInt("WORKER_DEDUPE_CAPACITY", 20000),
		DedupeTTL:      getDuration("WORKER_DEDUPE_TTL", "24h"),
		BatchSize:      getInt("WORKER_BATCH_SIZE", 10),
		WikiBaseURL:    getEnv("WIKI_BASE_URL", "https://en.wikipedia.org/api/rest_v1"),
		WikiTimeout:    getDuration("WIKI_TIMEOUT", "5s"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	postal, err := loadPostal()
	if err != nil {
		return nil, err
	}
	c := &API{
		Common:     loadCommon(),
		Postal:     postal,
		BindAddr:   getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		AuthSecret: os.Getenv("AUTH_SECRET"),
		AuthIssuer: getEnv("AUTH_ISSUER", "travel-guide"),
	}

	if c.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET is required")
	}

	return c, nil
}

// LoadRefresh builds a Refresh config from environment variables.
func LoadRefresh() (*Refresh, error) {
	postal, err := loadPostal()
	if err != nil {
		return nil, err
	}
	c := &Refresh{
		Common:      loadCommon(),
		Postal:      postal,
		Interval:    getDuration("REFRESH_INTERVAL", "6h"),
		BatchSize:   getInt("REFRESH_BATCH_SIZE", 100),
		Concurrency: getInt("REFRESH_CONCURRENCY", 4),
	}

	if c.Interval <= 0 {
		return nil, fmt.Errorf("REFRESH_INTERVAL must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("REFRESH_BATCH_SIZE must be positive")
	}
	if c.Concurrency <= 0 {
		return nil, fmt.Errorf("REFRESH_CONCURRENCY must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
