package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/dpaola2/show-notes/internal/services/jobs"
	"github.com/dpaola2/show-notes/internal/services/units"
)

const (
	// StuckThreshold is how long a unit may sit in transcribing or
	// summarizing before it is declared dead. One second past thirty
	// minutes so a unit at exactly the boundary is left alone.
	StuckThreshold = 30*time.Minute + time.Second

	// StuckMessage is what users see on a swept unit
	StuckMessage = "Processing timed out after 30 minutes"

	// DefaultSweepInterval is how often the sweep runs
	DefaultSweepInterval = 5 * time.Minute

	// DefaultJobRetentionDays is how long terminal job rows are kept
	DefaultJobRetentionDays = 7
)

// Service periodically fails units stranded mid-pipeline (worker crash,
// lost database connection) and prunes old job rows
type Service struct {
	units            units.Store
	jobService       jobs.Service
	threshold        time.Duration
	interval         time.Duration
	jobRetentionDays int
	now              func() time.Time
	cancel           context.CancelFunc
}

// Config carries the sweeper's collaborators. Zero durations fall back
// to the package defaults.
type Config struct {
	Units            units.Store
	Jobs             jobs.Service
	Threshold        time.Duration
	Interval         time.Duration
	JobRetentionDays int
	Now              func() time.Time
}

// NewService creates a new sweeper service
func NewService(cfg Config) *Service {
	s := &Service{
		units:            cfg.Units,
		jobService:       cfg.Jobs,
		threshold:        cfg.Threshold,
		interval:         cfg.Interval,
		jobRetentionDays: cfg.JobRetentionDays,
		now:              cfg.Now,
	}
	if s.threshold <= 0 {
		s.threshold = StuckThreshold
	}
	if s.interval <= 0 {
		s.interval = DefaultSweepInterval
	}
	if s.jobRetentionDays <= 0 {
		s.jobRetentionDays = DefaultJobRetentionDays
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Start begins the sweep loop
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-ctx.Done():
				log.Println("[INFO] Sweeper stopped")
				return
			}
		}
	}()

	log.Printf("[INFO] Sweeper started (interval: %v, stuck threshold: %v)", s.interval, s.threshold)
}

// Stop stops the sweep loop
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// sweep runs one pass. Safe to run repeatedly: swept units leave the
// in-flight statuses, so a second pass finds nothing.
func (s *Service) sweep(ctx context.Context) {
	if _, err := s.SweepStuck(ctx); err != nil {
		log.Printf("[ERROR] Sweeper: failing stuck units: %v", err)
	}

	deleted, err := s.jobService.CleanupOldJobs(ctx, s.jobRetentionDays)
	if err != nil {
		log.Printf("[ERROR] Sweeper: pruning old jobs: %v", err)
	} else if deleted > 0 {
		log.Printf("[INFO] Sweeper: pruned %d old job rows", deleted)
	}
}

// SweepStuck fails every unit that has been transcribing or summarizing
// for longer than the threshold. Returns counts per unit kind.
func (s *Service) SweepStuck(ctx context.Context) (map[units.Kind]int64, error) {
	now := s.now()
	cutoff := now.Add(-s.threshold)

	counts, err := s.units.FailStuck(ctx, cutoff, StuckMessage, now)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	if total > 0 {
		log.Printf("[WARN] Sweeper: failed %d stuck units (%v)", total, counts)
	}
	return counts, nil
}
