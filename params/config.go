package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Engine struct {
	Symbol string
	// BookDepth is how many aggregated levels per side the book query returns.
	BookDepth int
}

type API struct {
	Addr           string
	AllowedOrigins []string
}

// Feed configures the simulated market-data generator.
//
// The engine itself imposes no cadence; Interval only paces the simulator.
type Feed struct {
	Enabled   bool
	Interval  time.Duration
	BasePrice decimal.Decimal
	Levels    int
	TickSize  decimal.Decimal
}

type Journal struct {
	// Path of the pebble directory for the fill journal. Empty disables it.
	Path string
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Config struct {
	Engine  Engine
	API     API
	Feed    Feed
	Journal Journal
	Kafka   Kafka
	LogFile string
	Verbose bool
}

func Default() Config {
	return Config{
		Engine: Engine{
			Symbol:    "BTCUSD",
			BookDepth: 10,
		},
		API: API{
			Addr:           ":8001",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:80"},
		},
		Feed: Feed{
			Enabled:   true,
			Interval:  2 * time.Second,
			BasePrice: decimal.NewFromInt(100000),
			Levels:    5,
			TickSize:  decimal.NewFromInt(10),
		},
		Kafka: Kafka{
			Topic: "fills",
		},
		LogFile: "data/broker.log",
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// .env is optional
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Engine.Symbol = getEnv("SYMBOL", cfg.Engine.Symbol)
	if depth := os.Getenv("BOOK_DEPTH"); depth != "" {
		if n, err := strconv.Atoi(depth); err == nil && n > 0 {
			cfg.Engine.BookDepth = n
		}
	}

	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.API.AllowedOrigins = splitList(origins)
	}

	if enabled := os.Getenv("FEED_ENABLED"); enabled != "" {
		cfg.Feed.Enabled = enabled == "true"
	}
	if interval := os.Getenv("FEED_INTERVAL_MS"); interval != "" {
		if ms, err := strconv.Atoi(interval); err == nil && ms > 0 {
			cfg.Feed.Interval = time.Duration(ms) * time.Millisecond
		}
	}
	if base := os.Getenv("FEED_BASE_PRICE"); base != "" {
		if d, err := decimal.NewFromString(base); err == nil && d.IsPositive() {
			cfg.Feed.BasePrice = d
		}
	}
	if levels := os.Getenv("FEED_LEVELS"); levels != "" {
		if n, err := strconv.Atoi(levels); err == nil && n > 0 {
			cfg.Feed.Levels = n
		}
	}

	cfg.Journal.Path = os.Getenv("JOURNAL_PATH")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)

	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.Verbose = os.Getenv("VERBOSE") == "true"

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
