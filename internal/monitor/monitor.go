// Package monitor runs the recurring outbreak-monitoring cycle: it pulls
// case series for every configured (region, disease) pair, assesses the
// outbreak risk and raises alerts when the risk crosses threshold.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/healthwatch/go-health-alerts/internal/detection"
	"github.com/healthwatch/go-health-alerts/internal/models"
	"github.com/healthwatch/go-health-alerts/internal/notify"
	"github.com/healthwatch/go-health-alerts/internal/repository"
	"github.com/healthwatch/go-health-alerts/internal/surveillance"
)

const (
	outbreakAlertTTL = 7 * 24 * time.Hour
	manualAlertTTL   = 3 * 24 * time.Hour

	// Rough reach estimate used when no census data is wired in.
	populationPerCase = 100
)

// Dispatcher is the notification fan-out the monitor hands new alerts to.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert *models.Alert) (*notify.Summary, error)
}

type Options struct {
	Interval     time.Duration // delay after a clean cycle
	ErrorBackoff time.Duration // shorter delay after a failed cycle
	Regions      []string
	Diseases     []string
}

// Monitor owns the background worker's lifecycle. Start and Stop are safe
// to call from any goroutine; Start while running is a no-op and Stop
// blocks until the worker has joined.
type Monitor struct {
	opts       Options
	store      repository.Store
	provider   surveillance.Provider
	engine     *detection.Engine
	dispatcher Dispatcher
	log        *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options, store repository.Store, provider surveillance.Provider, engine *detection.Engine, dispatcher Dispatcher, log *slog.Logger) *Monitor {
	return &Monitor{
		opts:       opts,
		store:      store,
		provider:   provider,
		engine:     engine,
		dispatcher: dispatcher,
		log:        log,
	}
}

func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go m.run(ctx)
	m.log.Info("outbreak monitoring started",
		"interval", m.opts.Interval, "regions", len(m.opts.Regions), "diseases", len(m.opts.Diseases))
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
	m.log.Info("outbreak monitoring stopped")
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		delay := m.opts.Interval
		if err := m.cycle(ctx); err != nil {
			m.log.Error("monitoring cycle failed", "error", err)
			delay = m.opts.ErrorBackoff
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// cycle evaluates every configured pair once. Errors are contained per
// pair and joined so one bad feed never hides the others.
func (m *Monitor) cycle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var errs []error
	for _, region := range m.opts.Regions {
		for _, disease := range m.opts.Diseases {
			if err := m.checkPair(ctx, region, disease); err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", disease, region, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (m *Monitor) checkPair(ctx context.Context, region, disease string) error {
	series, err := m.provider.GetCaseSeries(ctx, disease, region)
	if err != nil {
		return fmt.Errorf("error fetching case series: %w", err)
	}

	assessment := m.engine.Assess(disease, region, series)
	if assessment.Level != detection.RiskHigh && assessment.Level != detection.RiskCritical {
		return nil
	}

	// Idempotency guard: while an alert for this pair is still active,
	// re-raising it every cycle would flood subscribers.
	exists, err := m.store.HasActiveAlert(ctx, region, disease)
	if err != nil {
		return fmt.Errorf("error checking for active alert: %w", err)
	}
	if exists {
		m.log.Debug("active alert exists, skipping", "region", region, "disease", disease)
		return nil
	}

	alert := buildOutbreakAlert(disease, region, assessment, time.Now())
	if err := m.store.SaveAlert(ctx, alert); err != nil {
		return fmt.Errorf("error saving alert: %w", err)
	}
	m.log.Info("outbreak alert created",
		"id", alert.ID, "region", region, "disease", disease,
		"severity", alert.Severity, "recent_cases", assessment.RecentCases)

	return m.dispatch(ctx, alert)
}

func (m *Monitor) dispatch(ctx context.Context, alert *models.Alert) error {
	summary, err := m.dispatcher.Dispatch(ctx, alert)
	if summary != nil {
		m.log.Info("alert dispatched",
			"id", alert.ID, "total", summary.Total,
			"succeeded", summary.Succeeded, "failed", summary.Failed)
	}
	if err != nil {
		return fmt.Errorf("error dispatching alert: %w", err)
	}
	return nil
}

// ManualAlertParams carries an operator-entered alert. Fields are expected
// to be validated at the API boundary.
type ManualAlertParams struct {
	Type            models.AlertType
	Severity        models.AlertSeverity
	Region          string
	Disease         string
	Message         string
	Recommendations []string
}

// CreateManualAlert bypasses the detection engine but reuses the same
// save-then-dispatch path, with a shorter lifetime than automatic alerts.
func (m *Monitor) CreateManualAlert(ctx context.Context, p ManualAlertParams) (string, error) {
	now := time.Now()
	alert := &models.Alert{
		ID:              models.ManualAlertID(p.Type, p.Region, now),
		Type:            p.Type,
		Severity:        p.Severity,
		Region:          p.Region,
		Disease:         p.Disease,
		Message:         p.Message,
		Recommendations: p.Recommendations,
		CreatedAt:       now,
		ExpiresAt:       now.Add(manualAlertTTL),
		Sources:         []string{"Manual Entry"},
		Status:          models.AlertStatusActive,
	}

	if err := m.store.SaveAlert(ctx, alert); err != nil {
		return "", fmt.Errorf("error saving manual alert: %w", err)
	}
	m.log.Info("manual alert created", "id", alert.ID, "region", p.Region, "severity", p.Severity)

	if err := m.dispatch(ctx, alert); err != nil {
		// The alert is already committed; notification gaps are surfaced
		// through the dispatch summary and logs.
		return alert.ID, err
	}
	return alert.ID, nil
}

func buildOutbreakAlert(disease, region string, a detection.Assessment, now time.Time) *models.Alert {
	return &models.Alert{
		ID:       models.OutbreakAlertID(disease, region, now),
		Type:     models.AlertTypeOutbreak,
		Severity: a.Level.Severity(),
		Region:   region,
		Disease:  titleCase(disease),
		Message: fmt.Sprintf("%s outbreak detected in %s. %d cases reported in the last week. Please follow safety guidelines.",
			titleCase(disease), region, a.RecentCases),
		Recommendations:    a.Recommendations,
		CreatedAt:          now,
		ExpiresAt:          now.Add(outbreakAlertTTL),
		AffectedPopulation: a.RecentCases * populationPerCase,
		Sources:            []string{"Regional Health Department", "Disease Surveillance System"},
		Status:             models.AlertStatusActive,
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
