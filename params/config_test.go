package params

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg := LoadFromEnv(filepath.Join(t.TempDir(), "missing.env"))
	def := Default()

	if cfg.Engine.Symbol != def.Engine.Symbol || cfg.Engine.BookDepth != def.Engine.BookDepth {
		t.Errorf("engine = %+v, want %+v", cfg.Engine, def.Engine)
	}
	if cfg.API.Addr != ":8001" {
		t.Errorf("addr = %s", cfg.API.Addr)
	}
	if !cfg.Feed.Enabled || cfg.Feed.Interval != 2*time.Second || cfg.Feed.Levels != 5 {
		t.Errorf("feed = %+v", cfg.Feed)
	}
	if cfg.Journal.Path != "" || len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("journal/kafka should be off by default: %+v %+v", cfg.Journal, cfg.Kafka)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("SYMBOL", "ETHUSD")
	t.Setenv("BOOK_DEPTH", "25")
	t.Setenv("API_ADDR", ":9000")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("FEED_ENABLED", "false")
	t.Setenv("FEED_INTERVAL_MS", "500")
	t.Setenv("FEED_BASE_PRICE", "2500.5")
	t.Setenv("FEED_LEVELS", "3")
	t.Setenv("JOURNAL_PATH", "/tmp/journal")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("KAFKA_TOPIC", "trades")
	t.Setenv("VERBOSE", "true")

	cfg := LoadFromEnv(filepath.Join(t.TempDir(), "missing.env"))

	if cfg.Engine.Symbol != "ETHUSD" || cfg.Engine.BookDepth != 25 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.API.Addr != ":9000" || len(cfg.API.AllowedOrigins) != 2 || cfg.API.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Feed.Enabled || cfg.Feed.Interval != 500*time.Millisecond || cfg.Feed.Levels != 3 {
		t.Errorf("feed = %+v", cfg.Feed)
	}
	if !cfg.Feed.BasePrice.Equal(decimal.RequireFromString("2500.5")) {
		t.Errorf("base price = %s", cfg.Feed.BasePrice)
	}
	if cfg.Journal.Path != "/tmp/journal" {
		t.Errorf("journal = %s", cfg.Journal.Path)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Topic != "trades" {
		t.Errorf("kafka = %+v", cfg.Kafka)
	}
	if !cfg.Verbose {
		t.Error("verbose should be on")
	}
}

func TestLoadFromEnv_IgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("BOOK_DEPTH", "-3")
	t.Setenv("FEED_INTERVAL_MS", "soon")
	t.Setenv("FEED_BASE_PRICE", "0")

	cfg := LoadFromEnv(filepath.Join(t.TempDir(), "missing.env"))
	def := Default()
	if cfg.Engine.BookDepth != def.Engine.BookDepth {
		t.Errorf("depth = %d", cfg.Engine.BookDepth)
	}
	if cfg.Feed.Interval != def.Feed.Interval {
		t.Errorf("interval = %s", cfg.Feed.Interval)
	}
	if !cfg.Feed.BasePrice.Equal(def.Feed.BasePrice) {
		t.Errorf("base price = %s", cfg.Feed.BasePrice)
	}
}

func TestLoadFromEnv_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SYMBOL=SOLUSD\nFEED_LEVELS=7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("SYMBOL")
		os.Unsetenv("FEED_LEVELS")
	})

	cfg := LoadFromEnv(path)
	if cfg.Engine.Symbol != "SOLUSD" || cfg.Feed.Levels != 7 {
		t.Errorf("dotenv not applied: %+v %+v", cfg.Engine, cfg.Feed)
	}
}
