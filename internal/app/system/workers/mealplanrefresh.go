// internal/app/system/workers/mealplanrefresh.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	restrictionstore "github.com/dalemusser/mealplanner/internal/app/store/restrictions"
	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/app/system/metrics"
	"github.com/dalemusser/mealplanner/internal/app/system/timeouts"
	"github.com/dalemusser/mealplanner/internal/domain/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRefreshSchedule fires at midnight every Sunday.
const DefaultRefreshSchedule = "0 0 * * SUN"

// FamilyLister enumerates families eligible for a refresh.
type FamilyLister interface {
	LoadAll(ctx context.Context, plans restrictionstore.PlanIndex) ([]models.RestrictionRecord, error)
}

// PlanReader reads stored plans.
type PlanReader interface {
	restrictionstore.PlanIndex
	LoadPrimary(ctx context.Context, familyID string) ([]byte, error)
}

// PlanGenerator generates and stores a plan for one family.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, rec models.RestrictionRecord, prior []byte, trigger string) (models.PlanVersion, error)
}

// UpdateNotifier tells a member their plan was refreshed.
type UpdateNotifier interface {
	PlanUpdated(ctx context.Context, email, firstName string)
}

// RefreshSummary reports the outcome of one cycle.
type RefreshSummary struct {
	Families  int
	Refreshed int
	Failed    int
}

// MealPlanRefresh is a background worker that regenerates every family's
// plan on a cron schedule. Families are processed one at a time; a failure
// for one family is logged and the cycle moves on.
type MealPlanRefresh struct {
	families FamilyLister
	plans    PlanReader
	gen      PlanGenerator
	notifier UpdateNotifier
	metrics  *metrics.Metrics
	log      *zap.Logger

	schedule string
	loc      *time.Location
	cron     *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc

	// cycle keeps RunCycle from overlapping with itself when it is also
	// invoked outside the schedule.
	cycle sync.Mutex
}

// RefreshConfig holds the worker's collaborators and schedule.
type RefreshConfig struct {
	Families  FamilyLister
	Plans     PlanReader
	Generator PlanGenerator
	Notifier  UpdateNotifier
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Schedule  string         // standard 5-field cron spec; empty uses DefaultRefreshSchedule
	Location  *time.Location // nil uses time.Local
}

// ParseSchedule validates a refresh schedule.
func ParseSchedule(spec string) (cron.Schedule, error) {
	if spec == "" {
		spec = DefaultRefreshSchedule
	}
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

// NewMealPlanRefresh creates a new refresh worker.
func NewMealPlanRefresh(cfg RefreshConfig) (*MealPlanRefresh, error) {
	if _, err := ParseSchedule(cfg.Schedule); err != nil {
		return nil, err
	}
	if cfg.Families == nil || cfg.Plans == nil || cfg.Generator == nil {
		return nil, errors.New("refresh worker: families, plans and generator are required")
	}
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &MealPlanRefresh{
		families: cfg.Families,
		plans:    cfg.Plans,
		gen:      cfg.Generator,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		log:      logger,
		schedule: schedule,
		loc:      loc,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start registers the cycle with the scheduler and starts it. A tick that
// arrives while the previous cycle is still running is skipped.
func (w *MealPlanRefresh) Start() error {
	cl := cronLogger{log: w.log}
	w.cron = cron.New(
		cron.WithLocation(w.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := w.cron.AddFunc(w.schedule, func() { w.RunCycle(w.ctx) }); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	w.cron.Start()

	next := w.cron.Entries()[0].Next
	w.log.Info("meal plan refresh worker started",
		zap.String("schedule", w.schedule),
		zap.String("location", w.loc.String()),
		zap.Time("next_run", next))
	return nil
}

// Stop halts the scheduler and waits for an in-flight cycle. If ctx ends
// first the cycle is cancelled and Stop waits for it to unwind.
func (w *MealPlanRefresh) Stop(ctx context.Context) {
	if w.cron == nil {
		w.cancel()
		return
	}
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		w.log.Warn("meal plan refresh still running at shutdown; cancelling")
		w.cancel()
		<-done.Done()
	}
	w.cancel()
	w.log.Info("meal plan refresh worker stopped")
}

// RunCycle refreshes every eligible family once.
func (w *MealPlanRefresh) RunCycle(ctx context.Context) RefreshSummary {
	w.cycle.Lock()
	defer w.cycle.Unlock()

	start := time.Now()
	defer func() { w.metrics.ObserveRefreshCycle(time.Since(start)) }()

	w.log.Info("meal plan refresh cycle starting")

	recs, err := w.families.LoadAll(ctx, w.plans)
	if err != nil {
		// LoadAll still returns the families it could read.
		w.log.Error("some families could not be loaded for refresh", zap.Error(err))
	}

	sum := RefreshSummary{Families: len(recs)}
	for _, rec := range recs {
		if ctx.Err() != nil {
			w.log.Warn("meal plan refresh cycle cancelled",
				zap.Int("remaining", sum.Families-sum.Refreshed-sum.Failed))
			break
		}
		if err := w.refreshFamily(ctx, rec); err != nil {
			sum.Failed++
			w.metrics.RefreshFamily("failed")
			w.log.Error("meal plan refresh failed",
				zap.String("family_id", rec.FamilyID),
				zap.Error(err))
			continue
		}
		sum.Refreshed++
		w.metrics.RefreshFamily("ok")
	}

	w.log.Info("meal plan refresh cycle finished",
		zap.Int("families", sum.Families),
		zap.Int("refreshed", sum.Refreshed),
		zap.Int("failed", sum.Failed),
		zap.Duration("elapsed", time.Since(start)))
	return sum
}

func (w *MealPlanRefresh) refreshFamily(parent context.Context, rec models.RestrictionRecord) error {
	ctx, cancel := timeouts.WithTimeout(parent, timeouts.Batch(), w.log, "refresh family "+rec.FamilyID)
	defer cancel()

	prior, err := w.plans.LoadPrimary(ctx, rec.FamilyID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		w.log.Warn("plan 1 missing; refreshing without prior context", zap.String("family_id", rec.FamilyID))
		prior = nil
	case err != nil:
		return err
	}

	pv, err := w.gen.GeneratePlan(ctx, rec, prior, metrics.TriggerRefresh)
	if err != nil {
		return err
	}
	w.log.Info("meal plan refreshed",
		zap.String("family_id", rec.FamilyID),
		zap.Int("version", pv.Version),
		zap.String("path", pv.Path))

	if w.notifier != nil {
		for _, m := range rec.ActiveMembers() {
			w.notifier.PlanUpdated(ctx, m.Email, m.FirstName)
		}
	}
	return nil
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
