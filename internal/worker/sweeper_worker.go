package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/service"
)

const sweeperLockKey = "complaint-service:sweeper:lock"

// SweeperWorker drives the SLA/escalation sweeps on a fixed interval,
// decoupled from the request cycle. A Redis lock keeps exactly one
// instance sweeping when multiple replicas run.
type SweeperWorker struct {
	sweeper *service.SweeperService
	redis   *persistence.Redis
	logger  *zap.Logger
	cfg     config.SweeperConfig
	stop    chan struct{}
	done    chan struct{}
}

// NewSweeperWorker constructs the worker.
func NewSweeperWorker(sweeper *service.SweeperService, redis *persistence.Redis, logger *zap.Logger, cfg config.SweeperConfig) *SweeperWorker {
	return &SweeperWorker{
		sweeper: sweeper,
		redis:   redis,
		logger:  logger,
		cfg:     cfg,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the sweep loop. No-op when disabled by config.
func (w *SweeperWorker) Start() {
	if !w.cfg.Enabled {
		w.logger.Info("sweeper disabled")
		close(w.done)
		return
	}
	go w.run()
}

// Stop signals the loop to exit and waits for the in-flight sweep.
func (w *SweeperWorker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *SweeperWorker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.cfg.Interval())
	defer ticker.Stop()

	w.logger.Info("sweeper started", zap.Duration("interval", w.cfg.Interval()))
	for {
		select {
		case <-w.stop:
			w.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			w.sweepOnce()
		}
	}
}

func (w *SweeperWorker) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.LockTTL())
	defer cancel()

	acquired, err := w.redis.AcquireLock(ctx, sweeperLockKey, w.cfg.LockTTL())
	if err != nil {
		w.logger.Error("sweeper lock acquisition failed", zap.Error(err))
		return
	}
	if !acquired {
		w.logger.Debug("sweeper lock held elsewhere, skipping")
		return
	}
	defer func() {
		if err := w.redis.ReleaseLock(context.Background(), sweeperLockKey); err != nil {
			w.logger.Warn("sweeper lock release failed", zap.Error(err))
		}
	}()

	w.sweeper.Run(ctx)
}
