// Package factcheck drives one fact-check per submission: validate, call the
// analyzer, classify the answer and publish the page state.
package factcheck

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stake-plus/trustek/src/ai/core"
	"github.com/stake-plus/trustek/src/logging"
	"github.com/stake-plus/trustek/src/metrics"
	"github.com/stake-plus/trustek/src/verdict"
	"github.com/stake-plus/trustek/src/webclient"
)

// Config tunes a Service.
type Config struct {
	Options core.Options
	Slots   Slots
	Logger  *slog.Logger
	Now     func() time.Time
}

// Service runs analyses and keeps the latest State per user.
type Service struct {
	analyzer core.Analyzer
	opts     core.Options
	slots    Slots
	log      *slog.Logger
	now      func() time.Time

	mu     sync.RWMutex
	states map[string]State
}

func NewService(analyzer core.Analyzer, cfg Config) *Service {
	s := &Service{
		analyzer: analyzer,
		opts:     cfg.Options,
		slots:    cfg.Slots,
		log:      cfg.Logger,
		now:      cfg.Now,
		states:   make(map[string]State),
	}
	if s.slots == nil {
		s.slots = NewMemorySlots()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// State returns the current page state for userID; unknown users are idle.
func (s *Service) State(userID string) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[userID]
	if !ok {
		return State{Phase: PhaseIdle}
	}
	return st
}

// Reset clears a settled state back to idle. A loading state is left alone.
func (s *Service) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states[userID].Phase != PhaseLoading {
		delete(s.states, userID)
	}
}

func (s *Service) setState(userID string, st State) {
	st.UpdatedAt = s.now()
	s.mu.Lock()
	s.states[userID] = st
	s.mu.Unlock()
}

// Submit runs one analysis for userID. Invalid input and a concurrent
// submission are rejected without touching the analyzer or the page state.
// On failure the page settles with GenericFailureMessage and the returned
// error wraps ErrAnalysisFailed.
func (s *Service) Submit(ctx context.Context, userID string, req core.AnalysisRequest) (*Report, error) {
	prepared, err := Prepare(req)
	if err != nil {
		metrics.RejectedSubmissionsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	id := uuid.NewString()
	ok, err := s.slots.Acquire(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	if !ok {
		metrics.RejectedSubmissionsTotal.WithLabelValues("busy").Inc()
		return nil, ErrBusy
	}
	defer func() {
		if rerr := s.slots.Release(context.WithoutCancel(ctx), userID, id); rerr != nil {
			s.log.Warn("factcheck: release slot", "user", userID, "err", rerr)
		}
	}()

	mode := string(prepared.Mode)
	s.setState(userID, State{Phase: PhaseLoading, Progress: initialProgress(prepared.Mode)})

	ctx = webclient.WithObserver(ctx, func(rs webclient.RetryState) {
		metrics.UpstreamRetriesTotal.WithLabelValues(mode).Inc()
		s.log.Warn("factcheck: retrying analysis", "id", id, "attempt", rs.Attempt+1, "delay", rs.Delay, "err", rs.LastErr)
		s.setState(userID, State{
			Phase:    PhaseLoading,
			Progress: fmt.Sprintf("Retrying (attempt %d of %d)...", rs.Attempt+2, rs.MaxAttempts),
		})
	})

	start := s.now()
	res, err := s.analyzer.Analyze(ctx, prepared, s.opts)
	elapsed := s.now().Sub(start)
	metrics.AnalysisLatency.WithLabelValues(mode).Observe(elapsed.Seconds())

	if err != nil {
		outcome := "error"
		if errors.Is(err, context.Canceled) {
			outcome = "cancelled"
		}
		metrics.AnalysesTotal.WithLabelValues(mode, outcome, "").Inc()
		s.log.Error("factcheck: analysis failed", "id", id, "user", userID, "mode", mode,
			"rate_limited", logging.IsRateLimit(err), "err", err)
		s.setState(userID, State{Phase: PhaseSettled, Error: GenericFailureMessage})
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	report := buildReport(id, prepared.Mode, res, elapsed)
	metrics.AnalysesTotal.WithLabelValues(mode, "ok", string(report.Label)).Inc()
	s.log.Info("factcheck: analysis settled", "id", id, "user", userID, "mode", mode,
		"label", report.Label, "sources", len(report.Sources), "elapsed", elapsed)
	s.setState(userID, State{Phase: PhaseSettled, Report: report})
	return report, nil
}

func initialProgress(mode core.Mode) string {
	if mode == core.ModeImage {
		return "Analyzing image..."
	}
	return "Analyzing claim..."
}

func buildReport(id string, mode core.Mode, res core.AnalysisResult, elapsed time.Duration) *Report {
	label := verdict.Classify(res.Text)
	sources := make([]SourceView, 0, len(res.Sources))
	for _, src := range core.FilterSources(res.Sources) {
		sources = append(sources, SourceView{URI: src.URI, Title: src.Title, Host: src.Host()})
	}
	return &Report{
		ID:          id,
		Mode:        mode,
		Label:       label,
		Tone:        label.Tone(),
		Text:        res.Text,
		SummaryHTML: "<p>" + html.EscapeString(res.Text) + "</p>",
		Sources:     sources,
		ElapsedMS:   elapsed.Milliseconds(),
	}
}
