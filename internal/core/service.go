package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/JonMunkholm/tidycsv/internal/logging"
	"github.com/JonMunkholm/tidycsv/internal/storage"
	"github.com/JonMunkholm/tidycsv/internal/table"
	"github.com/google/uuid"
)

// DefaultRetention is how long a finished run stays available via Run.
var DefaultRetention = 15 * time.Minute

// ErrRunNotFound is returned by Run for unknown or evicted run ids.
var ErrRunNotFound = errors.New("run not found")

// Recorder receives run outcomes. internal/metrics provides the
// Prometheus implementation.
type Recorder interface {
	RunCompleted(format string, rows, duplicates, filled int, d time.Duration)
	RunFailed(code string)
}

type noopRecorder struct{}

func (noopRecorder) RunCompleted(string, int, int, int, time.Duration) {}
func (noopRecorder) RunFailed(string)                                  {}

// CleanRequest is one uploaded file plus the submitted strategies.
type CleanRequest struct {
	FileName            string
	Body                io.Reader
	NumericStrategy     string
	CategoricalStrategy string
}

// RunResult describes a finished cleaning run.
type RunResult struct {
	ID              string    `json:"run_id" yaml:"run_id"`
	FileName        string    `json:"file_name" yaml:"file_name"`
	CleanedFileName string    `json:"cleaned_file_name" yaml:"cleaned_file_name"`
	Format          string    `json:"format" yaml:"format"`
	Summary         Summary   `json:"summary" yaml:"summary"`
	DurationMS      int64     `json:"duration_ms" yaml:"duration_ms"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

// Service runs uploads through the cleaning pipeline and keeps recent
// results in memory.
type Service struct {
	store     *storage.FileStore
	recorder  Recorder
	retention time.Duration

	mu     sync.RWMutex
	runs   map[string]*RunResult
	timers map[string]*time.Timer
	closed bool
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithRetention sets how long results stay available. Zero or negative
// disables result lookup.
func WithRetention(d time.Duration) Option {
	return func(s *Service) { s.retention = d }
}

// NewService creates a new Service backed by store.
func NewService(store *storage.FileStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		recorder:  noopRecorder{},
		retention: DefaultRetention,
		runs:      make(map[string]*RunResult),
		timers:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clean saves the upload, cleans it, and writes the cleaned file next to
// the other cleaned outputs. Any error is terminal: no cleaned file is
// written for a failed run.
func (s *Service) Clean(ctx context.Context, req CleanRequest) (*RunResult, error) {
	start := time.Now()
	runID := uuid.New().String()

	logger := logging.WithFields(ctx,
		"run_id", runID,
		"file", req.FileName,
		"client_ip", GetIPAddressFromContext(ctx),
		"user_agent", GetUserAgentFromContext(ctx),
	)

	result, err := s.clean(ctx, runID, req, logger.Warn)
	if err != nil {
		code := MapError(err).Code
		s.recorder.RunFailed(code)
		logger.Error("clean failed", "error", err, "code", code)
		return nil, err
	}

	elapsed := time.Since(start)
	result.DurationMS = elapsed.Milliseconds()
	s.recorder.RunCompleted(result.Format, result.Summary.RowsBefore,
		result.Summary.DuplicatesRemoved, result.Summary.ValuesFilled, elapsed)
	s.remember(result)

	logger.Info("clean completed",
		"format", result.Format,
		"rows_before", result.Summary.RowsBefore,
		"rows_after", result.Summary.RowsAfter,
		"duplicates_removed", result.Summary.DuplicatesRemoved,
		"missing_before", result.Summary.MissingBefore,
		"missing_after", result.Summary.MissingAfter,
		"duration", elapsed,
	)
	return result, nil
}

func (s *Service) clean(ctx context.Context, runID string, req CleanRequest, warn func(string, ...any)) (_ *RunResult, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Body == nil {
		return nil, errors.New("no file provided")
	}

	name, err := storage.SafeName(req.FileName)
	if err != nil {
		return nil, err
	}
	format, err := table.FormatFromName(name)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.SaveUpload(name, req.Body)
	if err != nil {
		return nil, err
	}
	// A failed run leaves nothing behind in the upload directory.
	defer func() {
		if err == nil {
			return
		}
		if rmErr := s.store.RemoveUpload(saved); rmErr != nil {
			warn("failed to remove upload", "file", saved, "error", rmErr)
		}
	}()

	f, err := s.store.OpenUpload(saved)
	if err != nil {
		return nil, err
	}
	t, err := table.Read(f, format, saved)
	f.Close()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary, err := Clean(t, Options{
		NumericStrategy:     req.NumericStrategy,
		CategoricalStrategy: req.CategoricalStrategy,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range summary.Warnings {
		warn("cleaning warning", "warning", w)
	}

	cleaned, err := s.store.WriteCleaned(saved, func(w io.Writer) error {
		return table.Write(w, t, format)
	})
	if err != nil {
		return nil, err
	}

	return &RunResult{
		ID:              runID,
		FileName:        saved,
		CleanedFileName: cleaned,
		Format:          format.String(),
		Summary:         summary,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Run returns a recent result by id.
func (s *Service) Run(id string) (*RunResult, error) {
	s.mu.RLock()
	r, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, nil
}

// OpenCleaned opens a cleaned file for download and reports its format.
func (s *Service) OpenCleaned(name string) (io.ReadSeekCloser, table.Format, error) {
	format, err := table.FormatFromName(name)
	if err != nil {
		return nil, 0, err
	}
	f, err := s.store.OpenCleaned(name)
	if err != nil {
		return nil, 0, err
	}
	return f, format, nil
}

// Close stops pending evictions and drops all kept results.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.runs = make(map[string]*RunResult)
	s.closed = true
}

func (s *Service) remember(r *RunResult) {
	if s.retention <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.runs[r.ID] = r
	s.timers[r.ID] = time.AfterFunc(s.retention, func() { s.evict(r.ID) })
}

func (s *Service) evict(id string) {
	s.mu.Lock()
	delete(s.runs, id)
	delete(s.timers, id)
	s.mu.Unlock()
}
