// Package scheduler runs the periodic milestone reconciliation scan.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appconstruction "github.com/realtyerp/backend/internal/application/construction"
)

// MilestoneScanScheduler periodically re-derives milestone triggering from
// current construction data. It is the safety net behind the synchronous
// workflow: anything the orchestrator missed (crash, draft failure,
// manual progress import) is picked up on the next sweep.
type MilestoneScanScheduler struct {
	detection    *appconstruction.DetectionService
	orchestrator *appconstruction.WorkflowOrchestrator
	logger       *zap.Logger
	config       MilestoneScanSchedulerConfig
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.Mutex
	isRunning    bool
}

// MilestoneScanSchedulerConfig holds configuration for the scan scheduler
type MilestoneScanSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// ScanInterval is the time between reconciliation sweeps
	ScanInterval time.Duration

	// ScanTimeout is the maximum time for a single sweep
	ScanTimeout time.Duration

	// AutoTrigger enables acting on matches; when false the sweep only
	// reports what it found
	AutoTrigger bool
}

// DefaultMilestoneScanSchedulerConfig returns default configuration
func DefaultMilestoneScanSchedulerConfig() MilestoneScanSchedulerConfig {
	return MilestoneScanSchedulerConfig{
		Enabled:      true,
		ScanInterval: 15 * time.Minute,
		ScanTimeout:  5 * time.Minute,
		AutoTrigger:  true,
	}
}

// NewMilestoneScanScheduler creates a new milestone scan scheduler
func NewMilestoneScanScheduler(
	detection *appconstruction.DetectionService,
	orchestrator *appconstruction.WorkflowOrchestrator,
	logger *zap.Logger,
	config MilestoneScanSchedulerConfig,
) *MilestoneScanScheduler {
	return &MilestoneScanScheduler{
		detection:    detection,
		orchestrator: orchestrator,
		logger:       logger,
		config:       config,
	}
}

// Start starts the scheduler loop
func (s *MilestoneScanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Milestone scan scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Milestone scan scheduler started",
		zap.Duration("scan_interval", s.config.ScanInterval),
		zap.Duration("scan_timeout", s.config.ScanTimeout),
		zap.Bool("auto_trigger", s.config.AutoTrigger),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *MilestoneScanScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Milestone scan scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Milestone scan scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *MilestoneScanScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Milestone scan loop stopping")
			return
		case <-ticker.C:
			s.executeScan(ctx)
		}
	}
}

// executeScan runs one reconciliation sweep
func (s *MilestoneScanScheduler) executeScan(ctx context.Context) {
	scanCtx, cancel := context.WithTimeout(ctx, s.config.ScanTimeout)
	defer cancel()

	startTime := time.Now()
	matches, err := s.detection.DetectMilestones(scanCtx)
	if err != nil {
		s.logger.Error("Milestone reconciliation scan failed",
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err),
		)
		return
	}

	triggered := 0
	if len(matches) > 0 && s.config.AutoTrigger {
		triggered = s.orchestrator.ReconcileMatches(scanCtx, matches)
	}

	s.logger.Info("Milestone reconciliation scan completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("matches", len(matches)),
		zap.Int("triggered", triggered),
	)
}

// TriggerImmediateScan triggers an out-of-band sweep (operator endpoint)
func (s *MilestoneScanScheduler) TriggerImmediateScan(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate milestone reconciliation scan")

	go func() {
		defer s.wg.Done()
		s.executeScan(ctx)
	}()
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *MilestoneScanScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
