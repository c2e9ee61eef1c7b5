// Package scheduler runs the periodic expiry sweep over quotes and
// contracts whose deadlines have passed.
package scheduler

import (
	"context"
	"time"

	"github.com/smallbiznis/dealdesk/internal/config"
	contractdomain "github.com/smallbiznis/dealdesk/internal/contract/domain"
	quotedomain "github.com/smallbiznis/dealdesk/internal/quote/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const runTimeout = 2 * time.Minute

type Params struct {
	fx.In

	Log         *zap.Logger
	Quoting     *config.QuotingConfigHolder
	QuoteSvc    quotedomain.Service
	ContractSvc contractdomain.Service
}

type Worker struct {
	log         *zap.Logger
	quoting     *config.QuotingConfigHolder
	quoteSvc    quotedomain.Service
	contractSvc contractdomain.Service
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:         p.Log.Named("scheduler.expiry"),
		quoting:     p.Quoting,
		quoteSvc:    p.QuoteSvc,
		contractSvc: p.ContractSvc,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	for {
		interval := w.quoting.Get().ExpirySweepInterval

		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("expiry sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func (w *Worker) RunOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, runTimeout)
	defer cancel()

	batchSize := w.quoting.Get().ExpirySweepBatchSize

	quotes, err := w.quoteSvc.ExpireOverdue(ctx, batchSize)
	if err != nil {
		return err
	}

	contracts, err := w.contractSvc.ExpireOverdue(ctx, batchSize)
	if err != nil {
		return err
	}

	if quotes > 0 || contracts > 0 {
		w.log.Info("expiry sweep completed",
			zap.Int("quotes", quotes),
			zap.Int("contracts", contracts),
		)
	}
	return nil
}
