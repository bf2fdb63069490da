package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/botswana-harvard/edc-configuration/internal/store"
)

// Destination receives rendered exports.
type Destination interface {
	Write(ctx context.Context, data []byte) error
	// Name identifies the destination in logs and errors.
	Name() string
}

// Scheduler exports the store on an interval and writes each export to its
// destinations. A destination is only written when the export differs from
// the last one it accepted.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	mu   sync.Mutex
	sent map[string]string // destination name -> checksum last written

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler. interval is only used by Start; a
// scheduler that is only driven through SyncNow may pass zero.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger.With("component", "sync"),
		sent:         make(map[string]string, len(destinations)),
	}
}

// Start syncs immediately and then on every tick until Stop. Without an
// interval it syncs once.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
}

// Stop cancels the loop and waits for an in-flight sync.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	if s.interval <= 0 {
		if err := s.SyncNow(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("sync failed", "err", err)
		}
		return
	}
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		if err := s.SyncNow(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("sync failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

// SyncNow takes a snapshot and writes it to every destination that has not
// already accepted the same content. A failing destination does not stop
// the others; the failures are joined.
func (s *Scheduler) SyncNow(ctx context.Context) error {
	snap, err := TakeSnapshot(ctx, s.store)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	written := 0
	for _, dest := range s.destinations {
		if s.sent[dest.Name()] == snap.Checksum {
			continue
		}
		if err := dest.Write(ctx, snap.Data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dest.Name(), err))
			continue
		}
		s.sent[dest.Name()] = snap.Checksum
		written++
	}

	if written > 0 || len(errs) > 0 {
		s.logger.Info("sync completed",
			"written", written,
			"failed", len(errs),
			"attributes", snap.Attributes,
			"checksum", snap.Checksum[:12],
		)
	}
	return errors.Join(errs...)
}
