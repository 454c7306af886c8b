// Package scheduler runs the periodic batch jobs: policy and invoice
// status recomputation, the liquidation deadline scan, and the
// response-alert scans. Every job is idempotent; overlapping runs
// recompute already-correct state as a no-op.
package scheduler

import (
	"context"
	"time"

	"github.com/segurosandina/backoffice/internal/alert"
	"github.com/segurosandina/backoffice/internal/config"
	invoicedomain "github.com/segurosandina/backoffice/internal/invoice/domain"
	obsmetrics "github.com/segurosandina/backoffice/internal/observability/metrics"
	policydomain "github.com/segurosandina/backoffice/internal/policy/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const jobTimeout = 10 * time.Minute

type Params struct {
	fx.In

	Log      *zap.Logger
	Cfg      config.Config
	Policies policydomain.Service
	Invoices invoicedomain.Service
	Alerts   *alert.Service
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Scheduler struct {
	log      *zap.Logger
	interval time.Duration
	policies policydomain.Service
	invoices invoicedomain.Service
	alerts   *alert.Service
	metrics  *obsmetrics.Metrics
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:      p.Log.Named("scheduler"),
		interval: p.Cfg.SchedulerInterval,
		policies: p.Policies,
		invoices: p.Invoices,
		alerts:   p.Alerts,
		metrics:  p.Metrics,
	}
}

// RunOnce executes every job in sequence. One failing job never stops
// the others.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runJob(ctx, "policy_status_refresh", s.policies.RefreshStatuses)
	s.runJob(ctx, "invoice_status_refresh", s.invoices.RecomputeAll)
	s.runJob(ctx, "liquidation_deadline_scan", s.alerts.ScanLiquidationDeadlines)
	s.runJob(ctx, "response_alert_scan", s.alerts.ScanResponseAlerts)
}

func (s *Scheduler) runJob(ctx context.Context, name string, fn func(context.Context) (int, error)) {
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	if s.metrics != nil {
		s.metrics.IncJobRun(name)
	}

	items, err := fn(jobCtx)
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveJobDuration(name, elapsed)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncJobError(name)
		}
		s.log.Error("job failed", zap.String("job", name), zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.AddJobItems(name, "updated", items)
	}
	s.log.Info("job finished",
		zap.String("job", name),
		zap.Int("items", items),
		zap.Duration("elapsed", elapsed))
}

// RunForever ticks until ctx is cancelled. The first run happens one
// interval after start, not immediately, so boot-time migrations and
// seeds settle first.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, s *Scheduler, cfg config.Config, log *zap.Logger) {
		if !cfg.SchedulerEnabled {
			log.Info("scheduler disabled")
			return
		}
		runCtx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go s.RunForever(runCtx)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				cancel()
				return nil
			},
		})
	}),
)
