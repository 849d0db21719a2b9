package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/exportsync/internal/logging"
	"github.com/google/uuid"
)

// ServiceOptions tunes a Service. Zero values select the defaults.
type ServiceOptions struct {
	MaxConcurrentRuns int
	RunWait           time.Duration
	HistorySize       int
}

// Service runs conversions of configured sources into a store.
type Service struct {
	opener  StoreOpener
	sources map[string]SourceSpec
	order   []string

	limiter *RunLimiter
	history *History

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService creates a Service for the given sources. Source names must be
// unique and every source must use a registered layout.
func NewService(opener StoreOpener, sources []SourceSpec, opts ServiceOptions) (*Service, error) {
	if opener == nil {
		return nil, fmt.Errorf("store opener is required")
	}

	s := &Service{
		opener:  opener,
		sources: make(map[string]SourceSpec, len(sources)),
		order:   make([]string, 0, len(sources)),
		limiter: NewRunLimiter(opts.MaxConcurrentRuns, opts.RunWait),
		history: NewHistory(opts.HistorySize),
		locks:   make(map[string]*sync.Mutex, len(sources)),
	}

	for _, spec := range sources {
		if _, dup := s.sources[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate source name %q", spec.Name)
		}
		if _, err := Lookup(spec.Layout); err != nil {
			return nil, fmt.Errorf("source %s: %w", spec.Name, err)
		}
		s.sources[spec.Name] = spec
		s.order = append(s.order, spec.Name)
	}

	return s, nil
}

// Sources returns the configured sources in declaration order.
func (s *Service) Sources() []SourceSpec {
	out := make([]SourceSpec, len(s.order))
	for i, name := range s.order {
		out[i] = s.sources[name]
	}
	return out
}

// Source returns a configured source by name.
func (s *Service) Source(name string) (SourceSpec, bool) {
	spec, ok := s.sources[name]
	return spec, ok
}

// History returns up to n recent outcomes, newest first.
func (s *Service) History(n int) []Outcome {
	return s.history.Recent(n)
}

// LastOutcome returns the newest outcome of a source.
func (s *Service) LastOutcome(source string) (Outcome, bool) {
	return s.history.Last(source)
}

// Limiter exposes the run limiter for status reporting and shutdown drain.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

// RunByName runs a configured source. The error is non-nil only when no
// source has that name; run failures are reported in the Outcome.
func (s *Service) RunByName(ctx context.Context, name string) (Outcome, error) {
	spec, ok := s.sources[name]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return s.Run(ctx, spec), nil
}

// RunAll runs every configured source sequentially in declaration order.
// A failed source does not stop the remaining ones.
func (s *Service) RunAll(ctx context.Context) []Outcome {
	outcomes := make([]Outcome, 0, len(s.order))
	for _, name := range s.order {
		outcomes = append(outcomes, s.Run(ctx, s.sources[name]))
	}
	return outcomes
}

// Run converts one source and writes it to the store. It never returns an
// error: every failure, including a panic inside the run, ends in an
// Outcome with a non-success status.
func (s *Service) Run(ctx context.Context, spec SourceSpec) (out Outcome) {
	runID := uuid.New().String()
	ctx = logging.WithRun(ctx, runID)
	log := logging.WithFields(ctx,
		"source", spec.Name,
		"table", spec.Table,
		"layout", spec.Layout,
	)

	out = Outcome{
		RunID:   runID,
		Trigger: TriggerFromContext(ctx),
		Source:  spec.Name,
		Table:   spec.Table,
		Started: time.Now(),
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in run", "panic", r)
			s.finish(&out, fmt.Errorf("internal error: %v", r))
		}
		s.history.Add(out)
	}()

	if err := s.limiter.Acquire(ctx); err != nil {
		log.Warn("run rejected", "error", err)
		s.finish(&out, err)
		return out
	}
	defer s.limiter.Release()

	lock := s.lockFor(spec.Name)
	lock.Lock()
	defer lock.Unlock()

	log.Info("run started", "path", spec.Path, "policy", spec.Policy)

	written, stats, err := s.convertAndWrite(ctx, spec)
	out.Written = written
	out.Stats = stats
	s.finish(&out, err)

	for reason, n := range stats.Discarded {
		log.Debug("rows discarded", "reason", reason, "count", n)
	}

	if err != nil {
		log.Error("run failed",
			"status", out.Status,
			"code", out.Code,
			"error", err,
			"duration_ms", out.Duration.Milliseconds(),
		)
		return out
	}

	log.Info("run finished",
		"rows_read", stats.RowsRead,
		"emitted", stats.Emitted,
		"markers", stats.Markers,
		"dropped", stats.Dropped,
		"skipped_bad_lines", stats.SkippedBad,
		"encoding", stats.Encoding,
		"written", written,
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out
}

// convertAndWrite is one run body. The store is opened only after the
// source normalized successfully and is closed before returning.
func (s *Service) convertAndWrite(ctx context.Context, spec SourceSpec) (int64, RunStats, error) {
	table, stats, err := Convert(spec)
	if err != nil {
		return 0, stats, err
	}

	store, err := s.opener.Open(ctx, spec.Destination)
	if err != nil {
		return 0, stats, fmt.Errorf("open destination: %w", err)
	}
	defer store.Close()

	written, err := store.Write(ctx, table)
	if err != nil {
		return written, stats, fmt.Errorf("write %s: %w", table.Name, err)
	}
	return written, stats, nil
}

func (s *Service) finish(out *Outcome, err error) {
	out.Duration = time.Since(out.Started)
	out.Status = StatusFor(err)

	if err == nil {
		out.Message = fmt.Sprintf("Wrote %d rows to %s", out.Written, out.Table)
		out.Code, out.Action, out.Error = "", "", ""
		return
	}

	msg := MapError(err)
	out.Code = msg.Code
	out.Message = msg.Message
	out.Action = msg.Action
	out.Error = err.Error()
}

func (s *Service) lockFor(name string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}
