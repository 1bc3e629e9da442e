// cmd/scanner runs one setup-scanner pass over the configured assets and
// exits. Scheduling is left to cron or CI.
//
// Usage:
//
//	go run ./cmd/scanner --config=scanner.yaml
//	go run ./cmd/scanner --dry-run
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"setup-scanner/config"
	"setup-scanner/internal/indicator"
	"setup-scanner/internal/logger"
	"setup-scanner/internal/marketdata/okx"
	"setup-scanner/internal/marketdata/sentiment"
	"setup-scanner/internal/metrics"
	"setup-scanner/internal/model"
	"setup-scanner/internal/notification"
	"setup-scanner/internal/scanner"
	filestore "setup-scanner/internal/store/file"
	pgstore "setup-scanner/internal/store/postgres"
	redisstore "setup-scanner/internal/store/redis"
	sqlitestore "setup-scanner/internal/store/sqlite"
	"setup-scanner/internal/throttle"
)

const service = "setup-scanner"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	configPath := flag.String("config", "", "Path to an optional YAML config file (default: $SCANNER_CONFIG)")
	dryRun := flag.Bool("dry-run", false, "Log alerts instead of delivering them")
	flag.Parse()

	os.Exit(run(*configPath, *dryRun))
}

func run(configPath string, dryRun bool) (code int) {
	// Top-level catch-all: report and exit non-zero. Failures before the
	// notifier exists are only logged. The notifier closes after reporting.
	var (
		notifier      notification.Notifier
		closeNotifier = func() {}
	)
	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("panic: %v", r)
			slog.Error("scanner crashed", "component", "main", "error", perr)
			if notifier != nil {
				reportFailure(notifier, perr)
			}
			code = 1
		}
		closeNotifier()
	}()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("[scanner] %v", err)
		return 1
	}
	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.Init(service, level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.NewMetrics()
	defer pushMetrics(m, cfg.PushgatewayURL)

	notifier, closeNotifier, err = buildNotifier(cfg, dryRun)
	if err != nil {
		slog.Error("notifier init failed", "component", "main", "error", err)
		return 1
	}

	store, journal, err := openStore(ctx, cfg, m)
	if err != nil {
		slog.Error("throttle store init failed", "component", "main", "error", err)
		reportFailure(notifier, err)
		return 1
	}
	th := throttle.New(store, cfg.Cooldown())
	defer th.Close()

	engine, err := indicator.NewEngine(cfg.IndicatorParams())
	if err != nil {
		slog.Error("indicator engine init failed", "component", "main", "error", err)
		reportFailure(notifier, err)
		return 1
	}

	sc, err := scanner.New(cfg.Scanner(), scanner.Deps{
		Candles:    okx.NewClient(cfg.OKXBaseURL, cfg.HTTPTimeout),
		Market:     sentiment.NewClient(cfg.CoinGeckoBaseURL, cfg.FNGBaseURL, cfg.HTTPTimeout),
		Notifier:   notifier,
		Throttle:   th,
		Journal:    journal,
		Metrics:    m,
		Indicators: engine,
	})
	if err != nil {
		slog.Error("scanner init failed", "component", "main", "error", err)
		reportFailure(notifier, err)
		return 1
	}
	slog.Info("scanner ready", "component", "main", "run_id", sc.RunID(),
		"backend", cfg.ThrottleBackend, "dry_run", dryRun)

	sum, err := sc.Run(ctx)
	log.Printf("[scanner] run %s: analyzed=%d matched=%d sent=%d suppressed=%d notify_failures=%d failed=%d heartbeat=%v",
		sum.RunID, sum.Analyzed, sum.Matched, sum.Sent, sum.Suppressed, sum.NotifyFailures, len(sum.Failed), sum.HeartbeatSent)
	if err != nil {
		slog.Error("scan failed", "component", "main", "run_id", sum.RunID, "error", err)
		if rerr := sc.ReportFailure(context.WithoutCancel(ctx), err); rerr != nil {
			slog.Error("failure report not delivered", "component", "main", "error", rerr)
		}
		return 1
	}
	return 0
}

// buildNotifier fans out to every configured channel, or logs when none is
// configured or dryRun is set.
func buildNotifier(cfg *config.Config, dryRun bool) (notification.Notifier, func(), error) {
	noop := func() {}
	if dryRun {
		log.Println("[scanner] dry run: alerts are logged only")
		return notification.NewLogNotifier(), noop, nil
	}

	var (
		multi  notification.Multi
		closer = noop
	)
	if cfg.TelegramBotToken != "" {
		multi = append(multi, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.WebhookURL != "" {
		multi = append(multi, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if len(cfg.KafkaBrokers) > 0 {
		k, err := notification.NewKafkaNotifier(notification.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			return nil, noop, err
		}
		multi = append(multi, k)
		closer = func() {
			if err := k.Close(); err != nil {
				log.Printf("[scanner] kafka close: %v", err)
			}
		}
	}

	switch len(multi) {
	case 0:
		log.Println("[scanner] no notification channel configured, logging alerts")
		return notification.NewLogNotifier(), closer, nil
	case 1:
		return multi[0], closer, nil
	default:
		return multi, closer, nil
	}
}

// openStore selects the throttle backend. SQL backends double as the alert
// journal.
func openStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (throttle.Store, model.AlertJournal, error) {
	prune := throttle.PruneAfter(cfg.Cooldown(), cfg.HeartbeatInterval)
	switch cfg.ThrottleBackend {
	case "memory":
		return throttle.NewMemoryStore(), nil, nil
	case "sqlite":
		st, err := sqlitestore.New(sqlitestore.Config{DBPath: cfg.SQLitePath, PruneAfter: prune})
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	case "redis":
		st := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      prune,
		})
		cb := st.Breaker()
		logChange := cb.OnStateChange
		cb.OnStateChange = func(from, to redisstore.State) {
			if logChange != nil {
				logChange(from, to)
			}
			m.ObserveBreaker(int(to))
		}
		m.ObserveBreaker(int(cb.CurrentState()))
		return st, nil, nil
	case "postgres":
		st, err := pgstore.New(ctx, pgstore.Config{DSN: cfg.PostgresDSN, PruneAfter: prune})
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	default:
		return filestore.Open(cfg.ThrottleFile, prune), nil, nil
	}
}

// reportFailure delivers a failure alert outside a scanner run.
func reportFailure(n notification.Notifier, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := n.Send(ctx, scanner.FailureAlert(err, time.Now())); serr != nil {
		slog.Error("failure report not delivered", "component", "main", "error", serr)
	}
}

func pushMetrics(m *metrics.Metrics, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	host, _ := os.Hostname()
	if err := m.Push(ctx, url, "setup_scanner", host); err != nil {
		slog.Warn("metrics push failed", "component", "main", "error", err)
	}
}
