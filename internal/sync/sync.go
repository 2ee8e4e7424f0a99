// Package sync periodically exports every project graph to backup
// destinations such as S3 or a git repository.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Destination is the interface for a sync target (S3, git, etc.).
type Destination interface {
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic syncs to one or more destinations. A sync can
// also be requested early with Trigger, e.g. after a project is saved.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from source to the given
// destinations at the specified interval.
func NewScheduler(source Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:       source,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		trigger:      make(chan struct{}, 1),
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Trigger requests a sync as soon as the current one (if any) finishes.
// Requests made while one is already pending are coalesced.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context) {
	// Run once immediately at startup.
	_ = s.SyncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.SyncOnce(ctx)
		case <-s.trigger:
			_ = s.SyncOnce(ctx)
		}
	}
}

// SyncOnce exports and writes to every destination. A failing destination
// does not stop the others; their errors are joined.
func (s *Scheduler) SyncOnce(ctx context.Context) error {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.source, &buf); err != nil {
		s.logger.Error("sync export failed", "err", err)
		return err
	}
	data := buf.Bytes()

	var errs []error
	for i, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			s.logger.Error("sync destination write failed", "destination", i, "err", err)
			errs = append(errs, fmt.Errorf("destination %d: %w", i, err))
		}
	}

	s.logger.Info("sync completed", "destinations", len(s.destinations), "bytes", len(data), "failed", len(errs))
	return errors.Join(errs...)
}
