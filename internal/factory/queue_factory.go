package factory

import (
	"fmt"

	"github.com/itx-nasir/phish-guard/internal/adapters/queue"
	"github.com/itx-nasir/phish-guard/internal/config"
	"github.com/itx-nasir/phish-guard/internal/ports"
	"go.uber.org/zap"
)

// QueueFactory creates the analysis dispatcher from configuration
type QueueFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewQueueFactory creates a new queue factory
func NewQueueFactory(cfg *config.Config, logger *zap.Logger) *QueueFactory {
	return &QueueFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDispatcher creates a dispatcher based on the configuration
func (f *QueueFactory) CreateDispatcher() (ports.Dispatcher, error) {
	queueCfg := f.cfg.GetQueue()

	retryBackoff, err := f.cfg.GetDuration("queue.retry_backoff")
	if err != nil {
		return nil, fmt.Errorf("invalid queue retry backoff: %w", err)
	}
	resultTTL, err := f.cfg.GetDuration("queue.result_ttl")
	if err != nil {
		return nil, fmt.Errorf("invalid queue result TTL: %w", err)
	}
	cleanupFreq, err := f.cfg.GetDuration("queue.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid queue cleanup frequency: %w", err)
	}

	return queue.NewDispatcher(queue.Options{
		Workers:      queueCfg.Workers,
		MaxRetries:   queueCfg.MaxRetries,
		RetryBackoff: retryBackoff,
		ResultTTL:    resultTTL,
		CleanupFreq:  cleanupFreq,
	}, f.logger), nil
}
