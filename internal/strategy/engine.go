// Package strategy classifies an analysed candle series into at most one
// alert-worthy setup.
//
// A Strategy evaluates an Input (the series, its indicator frame and derived
// aggregates) and returns a Match or nil. The Engine holds strategies in
// priority order and returns the first match, never evaluating the rest.
package strategy

import (
	"log/slog"

	"setup-scanner/internal/indicator"
	"setup-scanner/internal/model"
	"setup-scanner/internal/pattern"
)

// Match describes the setup a series satisfied.
type Match struct {
	SetupID string `json:"setup_id"`
	Label   string `json:"label"`
	Tier    string `json:"tier"`
	Icon    string `json:"icon"`
	Matched int    `json:"matched"` // conditions satisfied
	Total   int    `json:"total"`   // conditions evaluated
	// Conditions lists the names of the satisfied conditions.
	Conditions []string `json:"conditions"`
}

// Strategy is the interface that all setup classifiers must implement.
type Strategy interface {
	// Name returns the stable setup identifier.
	Name() string

	// Evaluate returns a Match if the input satisfies the setup, or nil.
	Evaluate(in *Input) *Match
}

// Input is the read-only view a strategy evaluates: the series, its frame,
// the frame's last row and series-wide aggregates computed once.
type Input struct {
	Series model.Series
	Frame  *indicator.Frame
	Row    indicator.Row
	Last   model.Candle

	MeanVolume float64
	StrongBody bool
	Engulfing  bool
}

// NewInput builds an Input for the final index of series.
func NewInput(series model.Series, frame *indicator.Frame) *Input {
	return &Input{
		Series:     series,
		Frame:      frame,
		Row:        frame.Last(),
		Last:       series.Last(),
		MeanVolume: series.MeanVolume(),
		StrongBody: pattern.StrongBody(series),
		Engulfing:  pattern.BullishEngulfing(series),
	}
}

// VolumeAbove reports whether the last candle's volume exceeds mult times
// the series mean volume.
func (in *Input) VolumeAbove(mult float64) bool {
	return in.Last.Volume > in.MeanVolume*mult
}

// Engine manages registered strategies in priority order.
type Engine struct {
	strategies []Strategy
}

// NewEngine creates an empty strategy engine.
func NewEngine() *Engine {
	return &Engine{}
}

// DefaultEngine returns an engine with conservative, momentum and reversal
// registered in that order.
func DefaultEngine() *Engine {
	e := NewEngine()
	e.Register(Conservative())
	e.Register(Momentum())
	e.Register(Reversal())
	return e
}

// Register appends a strategy at the lowest priority.
func (e *Engine) Register(s Strategy) {
	e.strategies = append(e.strategies, s)
}

// Strategies returns the registered strategies in priority order.
func (e *Engine) Strategies() []Strategy {
	return e.strategies
}

// Classify evaluates strategies in priority order and returns the first
// match. Later strategies are not evaluated once one matches.
func (e *Engine) Classify(in *Input) *Match {
	for _, s := range e.strategies {
		if m := s.Evaluate(in); m != nil {
			slog.Debug("setup matched", "component", "strategy", "setup", m.SetupID,
				"matched", m.Matched, "total", m.Total)
			return m
		}
	}
	return nil
}
