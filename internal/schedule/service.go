// Package schedule runs recurring maintenance jobs on cron patterns.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

type Service struct {
	cron    *cron.Cron
	parser  cron.Parser
	logger  *slog.Logger
	timeout time.Duration

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// NewService creates a stopped scheduler. Each run gets a context that is
// cancelled after timeout (0 means no limit).
func NewService(log *slog.Logger, timeout time.Duration) *Service {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Service{
		cron:    cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		parser:  parser,
		logger:  log.With(slog.String("service", "schedule")),
		timeout: timeout,
		jobs:    map[string]cron.EntryID{},
	}
}

// Validate reports whether pattern parses.
func (s *Service) Validate(pattern string) error {
	if _, err := s.parser.Parse(pattern); err != nil {
		return fmt.Errorf("invalid cron pattern: %w", err)
	}
	return nil
}

// Add registers job under name, replacing any job with the same name.
func (s *Service) Add(name, pattern string, job Job) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("job name is required")
	}
	if job == nil {
		return errors.New("job is required")
	}
	if err := s.Validate(pattern); err != nil {
		return err
	}
	entryID, err := s.cron.AddFunc(pattern, func() { s.run(name, job) })
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old)
	}
	s.jobs[name] = entryID
	s.logger.Info("job scheduled", slog.String("job", name), slog.String("pattern", pattern))
	return nil
}

// Remove unregisters the named job.
func (s *Service) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}
}

// Next returns the next activation time of the named job.
func (s *Service) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	entryID, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(entryID).Next, true
}

// Start begins dispatching jobs.
func (s *Service) Start() {
	s.cron.Start()
}

// Stop stops dispatching and waits for running jobs or ctx.
func (s *Service) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) run(name string, job Job) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error("job failed", slog.String("job", name), slog.Any("error", err))
		return
	}
	s.logger.Info("job finished", slog.String("job", name), slog.Duration("took", time.Since(start)))
}
