// Package scanner runs one evaluation pass over the configured assets:
// fetch candles, compute indicators, classify, score, and emit throttled
// alerts.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"setup-scanner/internal/indicator"
	"setup-scanner/internal/logger"
	"setup-scanner/internal/metrics"
	"setup-scanner/internal/model"
	"setup-scanner/internal/notification"
	"setup-scanner/internal/scoring"
	"setup-scanner/internal/strategy"
	"setup-scanner/internal/throttle"
)

// ErrPanic marks an asset whose analysis panicked.
var ErrPanic = errors.New("analysis panicked")

// FrameBuilder computes the indicator frame of a series.
type FrameBuilder interface {
	Compute(series model.Series) (*indicator.Frame, error)
	MinCandles() int
}

// Classifier selects at most one setup for an input.
type Classifier interface {
	Classify(in *strategy.Input) *strategy.Match
}

// Deps are the scanner's collaborators. Candles, Notifier and Throttle are
// required; the rest default as documented.
type Deps struct {
	Candles  model.CandleSource
	Market   model.ContextSource // nil: no market block
	Notifier notification.Notifier
	Throttle *throttle.Throttle
	Journal  model.AlertJournal // nil: alerts are not journaled
	Metrics  *metrics.Metrics   // nil: private throwaway metrics

	Indicators FrameBuilder // nil: indicator.NewEngine(DefaultParams())
	Strategies Classifier   // nil: strategy.DefaultEngine()

	Now   func() time.Time // nil: time.Now
	RunID string           // empty: random uuid
}

// Scanner is the pipeline controller. It is not safe for concurrent Run calls.
type Scanner struct {
	cfg  Config
	deps Deps

	heartbeat *throttle.Throttle
}

// Result is the outcome of one asset's analysis.
type Result struct {
	Asset   string
	Match   *strategy.Match // nil when no setup matched
	Score   float64
	Payload *Payload

	Sent       bool
	Suppressed bool
	// NotifyErr is the delivery failure, if any. The analysis itself succeeded.
	NotifyErr error
}

// Summary aggregates one Run.
type Summary struct {
	RunID          string
	Analyzed       int
	Matched        int
	Sent           int
	Suppressed     int
	NotifyFailures int
	HeartbeatSent  bool
	Failed         map[string]error
}

// Err returns the joined per-asset failures other than missing data, or nil.
func (s Summary) Err() error {
	assets := make([]string, 0, len(s.Failed))
	for a := range s.Failed {
		assets = append(assets, a)
	}
	sort.Strings(assets)

	var errs []error
	for _, a := range assets {
		if err := s.Failed[a]; !errors.Is(err, model.ErrDataUnavailable) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New validates cfg and fills in defaulted dependencies.
func New(cfg Config, deps Deps) (*Scanner, error) {
	if len(cfg.Assets) == 0 {
		return nil, errors.New("scanner: no assets configured")
	}
	if cfg.Timeframe <= 0 {
		return nil, fmt.Errorf("scanner: invalid timeframe %s", cfg.Timeframe)
	}
	if deps.Candles == nil || deps.Notifier == nil || deps.Throttle == nil {
		return nil, errors.New("scanner: candle source, notifier and throttle are required")
	}
	if cfg.Levels == nil {
		cfg.Levels = DefaultLevels()
	}
	if deps.Indicators == nil {
		eng, err := indicator.NewEngine(indicator.DefaultParams())
		if err != nil {
			return nil, err
		}
		deps.Indicators = eng
	}
	if cfg.CandleCount < deps.Indicators.MinCandles() {
		return nil, fmt.Errorf("scanner: candle count %d below indicator minimum %d",
			cfg.CandleCount, deps.Indicators.MinCandles())
	}
	if deps.Strategies == nil {
		deps.Strategies = strategy.DefaultEngine()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewMetrics()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.RunID == "" {
		deps.RunID = logger.NewRunID()
	}
	if deps.Throttle.OnError == nil {
		m := deps.Metrics
		deps.Throttle.OnError = func(string, error) { m.ThrottleErrors.Inc() }
	}

	if cfg.Cooldown > 0 && cfg.Cooldown != deps.Throttle.Cooldown() {
		deps.Throttle = deps.Throttle.WithCooldown(cfg.Cooldown)
	}

	s := &Scanner{cfg: cfg, deps: deps}
	if cfg.HeartbeatInterval > 0 {
		s.heartbeat = deps.Throttle.WithCooldown(cfg.HeartbeatInterval)
	}
	return s, nil
}

// RunID returns the identifier attached to this scanner's logs and journal.
func (s *Scanner) RunID() string { return s.deps.RunID }

// Run analyses every asset in order. A failing asset never stops the
// others. When no alert was sent, a heartbeat is emitted at most once per
// HeartbeatInterval. The returned error is Summary.Err.
func (s *Scanner) Run(ctx context.Context) (Summary, error) {
	ctx = logger.WithTraceID(ctx, s.deps.RunID)
	sum := Summary{RunID: s.deps.RunID, Failed: make(map[string]error)}
	slog.Info("scan started", append(logger.LogWithTrace(ctx),
		"component", "scanner", "assets", s.cfg.Assets, "timeframe", s.cfg.Timeframe.String())...)

	for _, asset := range s.cfg.Assets {
		if err := ctx.Err(); err != nil {
			sum.Failed[asset] = fmt.Errorf("scanner: %s: %w", asset, err)
			continue
		}
		res, err := s.AnalyzeAsset(ctx, asset)
		if err != nil {
			sum.Failed[asset] = err
			s.deps.Metrics.AnalysisErrors.WithLabelValues(errorKind(err)).Inc()
			slog.Error("asset analysis failed", append(logger.LogWithTrace(ctx),
				"component", "scanner", "asset", asset, "error", err)...)
			continue
		}
		sum.Analyzed++
		if res.Match != nil {
			sum.Matched++
		}
		switch {
		case res.Sent:
			sum.Sent++
		case res.Suppressed:
			sum.Suppressed++
		case res.NotifyErr != nil:
			sum.NotifyFailures++
		}
	}

	if sum.Sent == 0 && s.heartbeat != nil && ctx.Err() == nil {
		sum.HeartbeatSent = s.sendHeartbeat(ctx)
	}

	slog.Info("scan finished", append(logger.LogWithTrace(ctx),
		"component", "scanner", "analyzed", sum.Analyzed, "matched", sum.Matched,
		"sent", sum.Sent, "suppressed", sum.Suppressed, "failed", len(sum.Failed))...)
	return sum, sum.Err()
}

// AnalyzeAsset runs the pipeline for one asset. Insufficient or invalid data
// aborts before classification with an error wrapping model.ErrDataUnavailable.
// A panic is recovered and returned wrapping ErrPanic.
func (s *Scanner) AnalyzeAsset(ctx context.Context, asset string) (res *Result, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("scanner: %s: %w: %v", asset, ErrPanic, r)
		}
		s.deps.Metrics.AnalysisDur.Observe(time.Since(start).Seconds())
	}()

	attrs := append(logger.LogWithTrace(ctx), "component", "scanner", "asset", asset)
	at := s.deps.Now()

	series, err := s.deps.Candles.FetchCandles(ctx, asset, s.cfg.Timeframe, s.cfg.CandleCount)
	if err != nil {
		return nil, fmt.Errorf("scanner: %s: fetch: %w", asset, err)
	}
	frame, err := s.deps.Indicators.Compute(series)
	if err != nil {
		return nil, fmt.Errorf("scanner: %s: indicators: %w", asset, err)
	}
	s.deps.Metrics.AssetsAnalyzed.Inc()
	if frame.SupertrendFallback {
		s.deps.Metrics.SupertrendFallbacks.Inc()
		slog.Warn("supertrend fallback engaged", append(attrs, "error", frame.Err())...)
	}

	in := strategy.NewInput(series, frame)
	match := s.deps.Strategies.Classify(in)
	res = &Result{Asset: asset, Match: match}
	if match == nil {
		slog.Info("no setup detected", attrs...)
		return res, nil
	}

	res.Score = scoring.Score(series, in.Row)
	s.deps.Metrics.SetupsMatched.WithLabelValues(match.SetupID).Inc()
	s.deps.Metrics.LastScore.WithLabelValues(asset).Set(res.Score)
	attrs = append(attrs, "setup", match.SetupID, "score", res.Score)

	p := NewPayload(asset, *match, in, res.Score, s.cfg.MultipliersFor(asset), at)
	if s.deps.Market != nil {
		p.MarketContext = s.deps.Market.MarketContext(ctx)
	}
	res.Payload = p

	key := p.Key()
	if !s.deps.Throttle.ShouldSend(ctx, key, at) {
		res.Suppressed = true
		s.deps.Metrics.AlertsSuppressed.Inc()
		slog.Info("recent alert, suppressed", attrs...)
		return res, nil
	}

	if err := s.deps.Notifier.Send(ctx, p.Alert()); err != nil {
		res.NotifyErr = err
		s.deps.Metrics.NotifyFailures.Inc()
		slog.Error("alert delivery failed", append(attrs, "error", err)...)
		return res, nil
	}
	res.Sent = true
	s.deps.Metrics.AlertsSent.Inc()
	slog.Info("alert sent", attrs...)

	// Delivery already happened; record failures are only logged.
	if err := s.deps.Throttle.RecordSent(ctx, key, at); err != nil {
		slog.Warn("throttle record failed", append(attrs, "error", err)...)
	}
	if s.deps.Journal != nil {
		target, stop := p.Levels()
		rec := model.AlertRecord{
			RunID:   s.deps.RunID,
			Asset:   asset,
			SetupID: match.SetupID,
			Score:   res.Score,
			Close:   p.Close,
			Target:  target,
			Stop:    stop,
			SentAt:  at,
		}
		if err := s.deps.Journal.RecordAlert(ctx, rec); err != nil {
			slog.Warn("alert journal write failed", append(attrs, "error", err)...)
		}
	}
	return res, nil
}

func (s *Scanner) sendHeartbeat(ctx context.Context) bool {
	at := s.deps.Now()
	if !s.heartbeat.ShouldSend(ctx, heartbeatKey, at) {
		return false
	}
	if err := s.deps.Notifier.Send(ctx, heartbeatAlert(s.cfg.Assets, s.cfg.HeartbeatInterval, at)); err != nil {
		s.deps.Metrics.NotifyFailures.Inc()
		slog.Error("heartbeat delivery failed", append(logger.LogWithTrace(ctx),
			"component", "scanner", "error", err)...)
		return false
	}
	if err := s.heartbeat.RecordSent(ctx, heartbeatKey, at); err != nil {
		slog.Warn("heartbeat record failed", "component", "scanner", "error", err)
	}
	return true
}

// ReportFailure sends a best-effort critical notification for err.
func (s *Scanner) ReportFailure(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if sendErr := s.deps.Notifier.Send(ctx, FailureAlert(err, s.deps.Now())); sendErr != nil {
		s.deps.Metrics.NotifyFailures.Inc()
		return fmt.Errorf("scanner: report failure: %w", sendErr)
	}
	return nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, indicator.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, model.ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrPanic):
		return "panic"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
