package inventory

import (
	"context"
	"sync"
	"time"

	"leasemeter/internal/report"
	"leasemeter/internal/retry"
	"leasemeter/internal/types"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RouterInspector inspects a single router
type RouterInspector interface {
	Inspect(ctx context.Context, router types.Router) (*Result, error)
}

// Summary describes the outcome of a run
type Summary struct {
	Total       int           `json:"total"`
	Succeeded   int           `json:"succeeded"`
	Unreachable int           `json:"unreachable"`
	Malformed   int           `json:"malformed"`
	Failed      int           `json:"failed"` // all failures, including the two above
	Rows        int           `json:"rows"`
	Duration    time.Duration `json:"duration"`
}

// Manager fans router inspections out over a bounded number of goroutines
type Manager struct {
	inspector   RouterInspector
	concurrency int
	retry       *retry.Config
	logger      *zap.Logger

	mu      sync.Mutex
	summary Summary
}

// NewManager creates new inventory manager
func NewManager(inspector RouterInspector, concurrency int, retryCfg *retry.Config, logger *zap.Logger) *Manager {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Manager{
		inspector:   inspector,
		concurrency: concurrency,
		retry:       retryCfg,
		logger:      logger,
	}
}

// Run inspects every router and returns the assembled rows once all
// inspections have finished. Router failures are logged and counted, they
// never stop the other inspections.
func (m *Manager) Run(ctx context.Context, routers []types.Router) (*report.Assembler, Summary) {
	start := time.Now()
	assembler := report.NewAssembler()

	m.mu.Lock()
	m.summary = Summary{Total: len(routers)}
	m.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(m.concurrency)

	for _, router := range routers {
		g.Go(func() error {
			m.inspect(ctx, router, assembler)
			return nil
		})
	}
	_ = g.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary.Rows = assembler.Len()
	m.summary.Duration = time.Since(start)
	return assembler, m.summary
}

// inspect runs one inspection, retrying connection failures when enabled
func (m *Manager) inspect(ctx context.Context, router types.Router, assembler *report.Assembler) {
	logger := m.logger.With(zap.String("router", router.String()), zap.String("address", router.Address))

	var result *Result
	err := retry.Execute(ctx, m.retry, func(ctx context.Context) error {
		var err error
		result, err = m.inspector.Inspect(ctx, router)
		if err != nil && !types.IsConnectionFailure(err) {
			return retry.StopRetry(err)
		}
		return err
	}, func(attempt, attempts int, err error, wait time.Duration) {
		logger.Info("Retrying router",
			zap.Int("attempt", attempt),
			zap.Int("attempts", attempts),
			zap.Duration("wait", wait),
			zap.Error(err))
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.summary.Failed++
		switch {
		case types.IsConnectionFailure(err):
			m.summary.Unreachable++
			logger.Warn("Skipping unreachable router", zap.Error(err))
		case types.IsMalformed(err):
			m.summary.Malformed++
			logger.Warn("Skipping router with malformed response", zap.Error(err))
		default:
			logger.Warn("Skipping router", zap.Error(err))
		}
		return
	}

	m.summary.Succeeded++
	assembler.Add(result.Usage)
	logger.Info("Router inspected",
		zap.String("identity", result.Name),
		zap.Int("servers", len(result.Servers)),
		zap.Int("subnets", len(result.Usage)))
}
