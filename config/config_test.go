package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"setup-scanner/internal/scanner"
)

// clearEnv isolates a test from scanner variables set in the environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ASSETS", "TIMEFRAME", "CANDLE_COUNT", "COOLDOWN_SECONDS",
		"THROTTLE_BACKEND", "REDIS_ADDR", "POSTGRES_DSN", "SQLITE_PATH", "LOG_LEVEL",
		"LEVEL_MULTIPLIERS", "SCANNER_CONFIG", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
		"KAFKA_BROKERS", "EMA_LONG"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if strings.Join(cfg.Assets, ",") != "BTC/USDT,ETH/USDT" {
		t.Errorf("assets: %v", cfg.Assets)
	}
	if cfg.Timeframe != 4*time.Hour || cfg.CandleCount != 250 || cfg.Cooldown() != time.Hour {
		t.Errorf("scan defaults: %+v", cfg)
	}
	if cfg.HeartbeatInterval != 4*time.Hour || cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("durations: %+v", cfg)
	}
	if cfg.ThrottleBackend != "file" || cfg.ThrottleFile != "last_alerts.txt" {
		t.Errorf("throttle defaults: %+v", cfg)
	}
	if cfg.IndicatorParams().MinCandles() != 200 {
		t.Errorf("indicator params: %+v", cfg.IndicatorParams())
	}

	sc := cfg.Scanner()
	if sc.MultipliersFor("BTC/USDT") != (scanner.Multipliers{Stop: 1.2, Target: 2.5}) {
		t.Errorf("BTC levels: %v", sc.MultipliersFor("BTC/USDT"))
	}
	if sc.MultipliersFor("ETH/USDT") != scanner.DefaultMultipliers {
		t.Errorf("ETH levels: %v", sc.MultipliersFor("ETH/USDT"))
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSETS", "SOL/USDT, BTC/USDT ,")
	t.Setenv("TIMEFRAME", "1h")
	t.Setenv("COOLDOWN_SECONDS", "900")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if strings.Join(cfg.Assets, ",") != "SOL/USDT,BTC/USDT" {
		t.Errorf("assets: %q", cfg.Assets)
	}
	if cfg.Timeframe != time.Hour || cfg.Cooldown() != 15*time.Minute {
		t.Errorf("overrides: timeframe=%s cooldown=%s", cfg.Timeframe, cfg.Cooldown())
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.LogLevel != "debug" {
		t.Errorf("brokers=%v level=%q", cfg.KafkaBrokers, cfg.LogLevel)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "scanner.yaml")
	yaml := "assets:\n  - ETH/USDT\n" +
		"candle_count: 300\n" +
		"throttle_backend: sqlite\n" +
		"sqlite_path: /tmp/scanner.db\n" +
		"level_multipliers: \"ETH/USDT:1:2\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Assets) != 1 || cfg.Assets[0] != "ETH/USDT" || cfg.CandleCount != 300 {
		t.Errorf("yaml values: %+v", cfg)
	}
	if cfg.ThrottleBackend != "sqlite" || cfg.SQLitePath != "/tmp/scanner.db" {
		t.Errorf("backend: %+v", cfg)
	}
	if got := cfg.Scanner().MultipliersFor("ETH/USDT"); got != (scanner.Multipliers{Stop: 1, Target: 2}) {
		t.Errorf("levels: %v", got)
	}

	// Environment wins over the file.
	t.Setenv("CANDLE_COUNT", "260")
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CandleCount != 260 {
		t.Errorf("env override: got %d", cfg.CandleCount)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"backend", map[string]string{"THROTTLE_BACKEND": "etcd"}, "ThrottleBackend must be one of"},
		{"redis addr", map[string]string{"THROTTLE_BACKEND": "redis"}, "RedisAddr is required"},
		{"postgres dsn", map[string]string{"THROTTLE_BACKEND": "postgres"}, "PostgresDSN is required"},
		{"cooldown", map[string]string{"COOLDOWN_SECONDS": "0"}, "CooldownSeconds must be greater than 0"},
		{"candles", map[string]string{"CANDLE_COUNT": "150"}, "below the indicator minimum 200"},
		{"levels", map[string]string{"LEVEL_MULTIPLIERS": "BTC/USDT:1"}, "asset:stop:target"},
		{"telegram", map[string]string{"TELEGRAM_BOT_TOKEN": "123:abc"}, "TelegramChatID is required"},
		{"log level", map[string]string{"LOG_LEVEL": "loud"}, "LogLevel must be one of"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_ShorterEMAAllowsFewerCandles(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMA_LONG", "50")
	t.Setenv("CANDLE_COUNT", "60")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IndicatorParams().MinCandles() != 50 {
		t.Errorf("min candles: got %d", cfg.IndicatorParams().MinCandles())
	}
}
