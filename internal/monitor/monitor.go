// Package monitor sweeps the stored AOIs on a schedule, persisting a fresh
// composite report for each and pushing alert-eligible ones to the publisher.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sethvargo/go-retry"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/engine"
	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/observability"
)

// Assessor runs one risk assessment. *engine.Engine implements it.
type Assessor interface {
	Assess(ctx context.Context, req engine.AssessmentRequest) (domain.CompositeReport, error)
}

// Store is the slice of the persistence layer the monitor needs.
// *postgres.Store implements it.
type Store interface {
	ListAOIs(ctx context.Context) ([]domain.AOI, error)
	ListSamples(ctx context.Context, aoiID string) ([]domain.DisplacementSample, error)
	SaveReport(ctx context.Context, aoiID string, report domain.CompositeReport) error
	RecentAlertExists(ctx context.Context, aoiID string, category domain.Category, window time.Duration) (bool, error)
	RecordAlert(ctx context.Context, aoiID string, category domain.Category, sentAt time.Time) error
	PurgeAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AlertPublisher pushes an alert-eligible composite report to the outside
// world. *kafka.Publisher implements it.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, aoiID string, report domain.CompositeReport) error
}

// Options tunes the sweep cadence and the alert policy.
type Options struct {
	Interval        time.Duration
	DedupWindow     time.Duration
	Retention       time.Duration
	PublishAttempts int
}

// Monitor is the scheduled sweep loop. One instance runs per process.
type Monitor struct {
	store     Store
	engine    Assessor
	publisher AlertPublisher // nil keeps reports local, nothing is published
	opts      Options
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New builds a monitor. Zero option values fall back to the documented
// defaults: 3h interval, 6h dedup window, 168h retention, 5 publish attempts.
func New(store Store, assessor Assessor, publisher AlertPublisher, opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = 3 * time.Hour
	}
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = 6 * time.Hour
	}
	if opts.Retention <= 0 {
		opts.Retention = 168 * time.Hour
	}
	if opts.PublishAttempts <= 0 {
		opts.PublishAttempts = 5
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Monitor{
		store:     store,
		engine:    assessor,
		publisher: publisher,
		opts:      opts,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one sweep has completed.
func (m *Monitor) CheckReadiness(_ context.Context) error {
	if !m.ready.Load() {
		return errors.New("monitor has not completed a sweep yet")
	}
	return nil
}

// Run executes the sweep loop until the context is cancelled. The first
// sweep starts immediately so a fresh deployment does not wait a full
// interval for coverage.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", "interval", m.opts.Interval)
	m.metrics.MonitorRunning.Set(1)
	defer m.metrics.MonitorRunning.Set(0)

	ticker := m.clock.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			m.sweep(ctx)
		}
	}
}

// sweep assesses every stored AOI once. Per-AOI failures are logged and
// skipped; only a failed AOI listing aborts the sweep.
func (m *Monitor) sweep(ctx context.Context) {
	start := m.clock.Now()

	aois, err := m.store.ListAOIs(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Error("sweep: list aois failed", "error", err)
		}
		return
	}

	for _, aoi := range aois {
		if ctx.Err() != nil {
			return
		}
		if err := m.assessAOI(ctx, aoi); err != nil {
			m.logger.Error("sweep: aoi skipped", "aoi_id", aoi.ID, "error", err)
		}
	}

	cutoff := m.clock.Now().UTC().Add(-m.opts.Retention)
	if purged, err := m.store.PurgeAlertsBefore(ctx, cutoff); err != nil {
		m.logger.Error("sweep: purge alert log failed", "error", err)
	} else if purged > 0 {
		m.logger.Info("sweep: purged alert log", "rows", purged)
	}

	m.metrics.MonitorSweeps.Inc()
	m.ready.Store(true)
	m.logger.Info("sweep completed", "aois", len(aois), "duration", m.clock.Since(start))
}

func (m *Monitor) assessAOI(ctx context.Context, aoi domain.AOI) error {
	samples, err := m.store.ListSamples(ctx, aoi.ID)
	if err != nil {
		return fmt.Errorf("load samples: %w", err)
	}

	report, err := m.engine.Assess(ctx, engine.AssessmentRequest{
		AOIID:    aoi.ID,
		Geometry: aoi.Geometry,
		Samples:  samples,
	})
	if err != nil {
		return fmt.Errorf("assess: %w", err)
	}

	if err := m.store.SaveReport(ctx, aoi.ID, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	if report.AlertEligible && m.publisher != nil {
		if err := m.publishAlert(ctx, aoi.ID, report); err != nil {
			return fmt.Errorf("publish alert: %w", err)
		}
	}
	return nil
}

// publishAlert sends the composite unless every severe category already
// alerted within the dedup window. Publishing is retried with fibonacci
// backoff; the alert log is updated only after a successful publish.
func (m *Monitor) publishAlert(ctx context.Context, aoiID string, report domain.CompositeReport) error {
	fresh := make([]domain.Category, 0, len(report.Reports))
	for _, r := range report.Reports {
		if r.Severity.Rank() < domain.SeverityHigh.Rank() {
			continue
		}
		recent, err := m.store.RecentAlertExists(ctx, aoiID, r.Category, m.opts.DedupWindow)
		if err != nil {
			return fmt.Errorf("alert dedup lookup: %w", err)
		}
		if !recent {
			fresh = append(fresh, r.Category)
		}
	}

	if len(fresh) == 0 {
		m.metrics.AlertsSuppressed.Inc()
		m.logger.Info("alert suppressed, recent duplicate",
			"aoi_id", aoiID, "report_id", report.ID, "severity", report.HighestSeverity)
		return nil
	}

	// WithMaxRetries counts retries, not attempts.
	b := retry.NewFibonacci(500 * time.Millisecond)
	err := retry.Do(ctx, retry.WithMaxRetries(uint64(m.opts.PublishAttempts-1), b), func(ctx context.Context) error {
		if err := m.publisher.PublishAlert(ctx, aoiID, report); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.metrics.AlertsPublished.Inc()
	sentAt := m.clock.Now().UTC()
	for _, category := range fresh {
		if err := m.store.RecordAlert(ctx, aoiID, category, sentAt); err != nil {
			return fmt.Errorf("record alert: %w", err)
		}
	}
	m.logger.Info("alert published",
		"aoi_id", aoiID, "report_id", report.ID, "severity", report.HighestSeverity, "categories", len(fresh))
	return nil
}
