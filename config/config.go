package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"setup-scanner/internal/indicator"
	"setup-scanner/internal/scanner"
	"setup-scanner/internal/throttle"
)

// Config holds all application configuration. Values come from defaults,
// an optional YAML file, .env and the environment, in increasing priority.
type Config struct {
	// Scan
	Assets            []string      `mapstructure:"assets" validate:"min=1,dive,required"`
	Timeframe         time.Duration `mapstructure:"timeframe" validate:"gt=0"`
	CandleCount       int           `mapstructure:"candle_count" validate:"gt=0"`
	CooldownSeconds   int           `mapstructure:"cooldown_seconds" validate:"gt=0"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"gte=0"`
	LevelMultipliers  string        `mapstructure:"level_multipliers"`

	// Collaborators
	OKXBaseURL       string        `mapstructure:"okx_base_url" validate:"omitempty,url"`
	CoinGeckoBaseURL string        `mapstructure:"coingecko_base_url" validate:"omitempty,url"`
	FNGBaseURL       string        `mapstructure:"fng_base_url" validate:"omitempty,url"`
	HTTPTimeout      time.Duration `mapstructure:"http_timeout" validate:"gt=0"`

	// Notification
	TelegramBotToken string   `mapstructure:"telegram_bot_token" validate:"required_with=TelegramChatID"`
	TelegramChatID   string   `mapstructure:"telegram_chat_id" validate:"required_with=TelegramBotToken"`
	WebhookURL       string   `mapstructure:"webhook_url" validate:"omitempty,url"`
	KafkaBrokers     []string `mapstructure:"kafka_brokers"`
	KafkaTopic       string   `mapstructure:"kafka_topic"`

	// Throttle store
	ThrottleBackend string `mapstructure:"throttle_backend" validate:"oneof=file memory sqlite redis postgres"`
	ThrottleFile    string `mapstructure:"throttle_file" validate:"required_if=ThrottleBackend file"`
	SQLitePath      string `mapstructure:"sqlite_path" validate:"required_if=ThrottleBackend sqlite"`
	RedisAddr       string `mapstructure:"redis_addr" validate:"required_if=ThrottleBackend redis"`
	RedisPassword   string `mapstructure:"redis_password"`
	RedisDB         int    `mapstructure:"redis_db" validate:"gte=0"`
	PostgresDSN     string `mapstructure:"postgres_dsn" validate:"required_if=ThrottleBackend postgres"`

	// Observability
	PushgatewayURL string `mapstructure:"pushgateway_url" validate:"omitempty,url"`
	LogLevel       string `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`

	// Indicator periods
	EMAFast              int     `mapstructure:"ema_fast"`
	EMAMid               int     `mapstructure:"ema_mid"`
	EMALong              int     `mapstructure:"ema_long"`
	RSIPeriod            int     `mapstructure:"rsi_period"`
	ATRPeriod            int     `mapstructure:"atr_period"`
	MACDFast             int     `mapstructure:"macd_fast"`
	MACDSlow             int     `mapstructure:"macd_slow"`
	MACDSignal           int     `mapstructure:"macd_signal"`
	ADXPeriod            int     `mapstructure:"adx_period"`
	SupertrendPeriod     int     `mapstructure:"supertrend_period"`
	SupertrendMultiplier float64 `mapstructure:"supertrend_multiplier"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	p := indicator.DefaultParams()
	defaults := map[string]any{
		"assets":             []string{"BTC/USDT", "ETH/USDT"},
		"timeframe":          "4h",
		"candle_count":       250,
		"cooldown_seconds":   int(throttle.DefaultCooldown / time.Second),
		"heartbeat_interval": "4h",
		"level_multipliers":  "BTC/USDT:1.2:2.5",

		"okx_base_url":       "",
		"coingecko_base_url": "",
		"fng_base_url":       "",
		"http_timeout":       "10s",

		"telegram_bot_token": "",
		"telegram_chat_id":   "",
		"webhook_url":        "",
		"kafka_brokers":      []string{},
		"kafka_topic":        "scanner.alerts",

		"throttle_backend": "file",
		"throttle_file":    "last_alerts.txt",
		"sqlite_path":      "",
		"redis_addr":       "",
		"redis_password":   "",
		"redis_db":         0,
		"postgres_dsn":     "",

		"pushgateway_url": "",
		"log_level":       "info",

		"ema_fast":              p.EMAFast,
		"ema_mid":               p.EMAMid,
		"ema_long":              p.EMALong,
		"rsi_period":            p.RSI,
		"atr_period":            p.ATR,
		"macd_fast":             p.MACDFast,
		"macd_slow":             p.MACDSlow,
		"macd_signal":           p.MACDSignal,
		"adx_period":            p.ADX,
		"supertrend_period":     p.SupertrendPeriod,
		"supertrend_multiplier": p.SupertrendMultiplier,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Load reads configuration. path names an optional YAML file; when empty,
// SCANNER_CONFIG is consulted. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv("SCANNER_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		log.Printf("[config] loaded %s", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Assets = splitList(cfg.Assets)
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints plus the cross-field rules: valid
// indicator periods, enough candles, parseable level multipliers.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}

	p := c.IndicatorParams()
	if err := p.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.CandleCount < p.MinCandles() {
		return fmt.Errorf("config: candle_count %d is below the indicator minimum %d", c.CandleCount, p.MinCandles())
	}
	if _, err := scanner.ParseLevels(c.LevelMultipliers); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// IndicatorParams returns the configured indicator periods.
func (c *Config) IndicatorParams() indicator.Params {
	return indicator.Params{
		EMAFast:              c.EMAFast,
		EMAMid:               c.EMAMid,
		EMALong:              c.EMALong,
		RSI:                  c.RSIPeriod,
		ATR:                  c.ATRPeriod,
		MACDFast:             c.MACDFast,
		MACDSlow:             c.MACDSlow,
		MACDSignal:           c.MACDSignal,
		ADX:                  c.ADXPeriod,
		SupertrendPeriod:     c.SupertrendPeriod,
		SupertrendMultiplier: c.SupertrendMultiplier,
	}
}

// Cooldown returns the throttle cooldown.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// Scanner returns the pipeline configuration. Call after Validate.
func (c *Config) Scanner() scanner.Config {
	levels, _ := scanner.ParseLevels(c.LevelMultipliers)
	return scanner.Config{
		Assets:            c.Assets,
		Timeframe:         c.Timeframe,
		CandleCount:       c.CandleCount,
		Cooldown:          c.Cooldown(),
		HeartbeatInterval: c.HeartbeatInterval,
		Levels:            levels,
	}
}

// splitList flattens comma-separated entries and trims blanks. Env values
// arrive as one comma-joined string, YAML values as a list.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, p := range strings.Split(item, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
