package promoter

import (
	"context"
	"log/slog"
	"time"
)

// PendingPromoter advances every PENDING order and reports how many moved.
type PendingPromoter interface {
	PromotePending(ctx context.Context) (int64, error)
}

// Promoter periodically sweeps PENDING orders into PROCESSING, standing in
// for a payment confirmation step.
type Promoter struct {
	repo     PendingPromoter
	interval time.Duration
	logger   *slog.Logger
}

func New(repo PendingPromoter, interval time.Duration, logger *slog.Logger) *Promoter {
	return &Promoter{
		repo:     repo,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (p *Promoter) Run(ctx context.Context) {
	p.logger.Info("order promoter started", "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("order promoter stopped")
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *Promoter) sweep(ctx context.Context) {
	promoted, err := p.repo.PromotePending(ctx)
	if err != nil {
		p.logger.Error("failed to promote pending orders", "error", err)
		return
	}
	if promoted > 0 {
		p.logger.Info("promoted pending orders", "count", promoted)
	}
}
