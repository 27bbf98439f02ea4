package ocdd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vantapay/compliance/internal/audit"
	"github.com/vantapay/compliance/internal/compliance/regional"
	"github.com/vantapay/compliance/internal/compliance/screening"
	"github.com/vantapay/compliance/internal/storage"
	"github.com/vantapay/compliance/pkg/models"
)

type fakeStore struct {
	schedules  []models.OCDDSchedule
	customers  map[uuid.UUID]*models.Customer
	screenings map[uuid.UUID]*models.ScreeningRecord

	savedExecutions  []*models.OCDDExecution
	updatedSchedules []*models.OCDDSchedule
	savedScreenings  []*models.ScreeningRecord
	reviewUpdates    int

	overdue  int64
	upcoming int64

	dueErr       error
	customerErr  error
	saveExecErr  error
	screeningErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers:  make(map[uuid.UUID]*models.Customer),
		screenings: make(map[uuid.UUID]*models.ScreeningRecord),
	}
}

func (f *fakeStore) DueSchedules(context.Context, uuid.UUID, time.Time) ([]models.OCDDSchedule, error) {
	return f.schedules, f.dueErr
}

func (f *fakeStore) UpdateSchedule(_ context.Context, s *models.OCDDSchedule) error {
	f.updatedSchedules = append(f.updatedSchedules, s)
	return nil
}

func (f *fakeStore) SaveExecution(_ context.Context, e *models.OCDDExecution) error {
	if f.saveExecErr != nil {
		return f.saveExecErr
	}
	f.savedExecutions = append(f.savedExecutions, e)
	return nil
}

func (f *fakeStore) GetCustomer(_ context.Context, _, customerID uuid.UUID) (*models.Customer, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	c, ok := f.customers[customerID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) UpdateCustomerReview(context.Context, uuid.UUID, uuid.UUID, time.Time, time.Time) error {
	f.reviewUpdates++
	return nil
}

func (f *fakeStore) LatestScreening(_ context.Context, _, customerID uuid.UUID, _ string) (*models.ScreeningRecord, error) {
	if f.screeningErr != nil {
		return nil, f.screeningErr
	}
	r, ok := f.screenings[customerID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) SaveScreening(_ context.Context, r *models.ScreeningRecord) error {
	f.savedScreenings = append(f.savedScreenings, r)
	return nil
}

func (f *fakeStore) CountOverdueSchedules(context.Context, uuid.UUID, time.Time) (int64, error) {
	return f.overdue, nil
}

func (f *fakeStore) CountUpcomingSchedules(context.Context, uuid.UUID, time.Time, int) (int64, error) {
	return f.upcoming, nil
}

type fakeScreener struct {
	result *screening.Result
	err    error
}

func (f *fakeScreener) Screen(context.Context, screening.Query) (*screening.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &screening.Result{Status: "completed"}, nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Notify(_ context.Context, _ uuid.UUID, eventType string, _ map[string]interface{}) error {
	f.events = append(f.events, eventType)
	return nil
}

type noopDedup struct{}

func (noopDedup) Seen(context.Context, uuid.UUID, models.ReportType, string) (bool, error) {
	return false, nil
}
func (noopDedup) Mark(context.Context, uuid.UUID, models.ReportType, string) error { return nil }

func testConfig(t *testing.T) *regional.Config {
	t.Helper()
	cfg, err := regional.Resolve("AU", nil)
	require.NoError(t, err)
	return cfg
}

func addCustomer(store *fakeStore, level models.RiskLevel) *models.Customer {
	c := &models.Customer{
		ID:        uuid.New(),
		TenantID:  uuid.New(),
		FullName:  "Jordan Blake",
		RiskLevel: level,
	}
	store.customers[c.ID] = c
	return c
}

func addSchedule(store *fakeStore, customerID uuid.UUID) *models.OCDDSchedule {
	s := models.OCDDSchedule{
		ID:             uuid.New(),
		CustomerID:     customerID,
		Status:         models.ScheduleStatusActive,
		SanctionsCheck: true,
		PEPCheck:       true,
		DocumentCheck:  true,
	}
	store.schedules = append(store.schedules, s)
	return &store.schedules[len(store.schedules)-1]
}

func newTestScheduler(store *fakeStore, screener screening.Provider, notifier *fakeNotifier) *Scheduler {
	return NewScheduler(store, screener, nil, notifier, audit.NopRecorder{}, noopDedup{}, zap.NewNop().Sugar())
}

func TestRunDueSchedulesCleanCustomerPasses(t *testing.T) {
	store := newFakeStore()
	customer := addCustomer(store, models.RiskLevelLow)
	addSchedule(store, customer.ID)
	sched := newTestScheduler(store, &fakeScreener{}, &fakeNotifier{})

	now := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	summary, err := sched.RunDueSchedules(context.Background(), uuid.New(), testConfig(t), now)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Passed)
	assert.Empty(t, summary.Errors)

	require.Len(t, store.savedExecutions, 1)
	execution := store.savedExecutions[0]
	assert.Equal(t, models.ExecutionResultPassed, execution.Result)
	assert.Len(t, execution.Checks, 3)
	assert.Empty(t, execution.Findings)
}

func TestRunDueSchedulesSanctionsMatchEscalates(t *testing.T) {
	store := newFakeStore()
	customer := addCustomer(store, models.RiskLevelLow)
	addSchedule(store, customer.ID)
	notifier := &fakeNotifier{}
	screener := &fakeScreener{result: &screening.Result{
		IsMatch:    true,
		MatchScore: 0.97,
		Matches:    []screening.Match{{EntryID: "sdn-1", Kind: "sanctions"}},
		Status:     "completed",
	}}
	sched := newTestScheduler(store, screener, notifier)

	summary, err := sched.RunDueSchedules(context.Background(), uuid.New(), testConfig(t), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Escalated)
	require.Len(t, store.savedExecutions, 1)
	assert.Equal(t, models.ExecutionResultEscalated, store.savedExecutions[0].Result)
	assert.Contains(t, notifier.events, "ocdd.review.escalated")
}

func TestRunDueSchedulesMissingCustomerSkipped(t *testing.T) {
	store := newFakeStore()
	customer := addCustomer(store, models.RiskLevelLow)
	addSchedule(store, uuid.New()) // dangling schedule
	addSchedule(store, customer.ID)
	sched := newTestScheduler(store, &fakeScreener{}, &fakeNotifier{})

	summary, err := sched.RunDueSchedules(context.Background(), uuid.New(), testConfig(t), time.Now())
	require.NoError(t, err)

	// The dangling schedule is skipped and the batch continues.
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Processed)
	assert.Empty(t, summary.Errors)
}

func TestRunDueSchedulesAdvancesNextDate(t *testing.T) {
	store := newFakeStore()
	customer := addCustomer(store, models.RiskLevelHigh)
	addSchedule(store, customer.ID)
	sched := newTestScheduler(store, &fakeScreener{}, &fakeNotifier{})

	now := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	_, err := sched.RunDueSchedules(context.Background(), uuid.New(), testConfig(t), now)
	require.NoError(t, err)

	require.Len(t, store.updatedSchedules, 1)
	updated := store.updatedSchedules[0]
	// HIGH tier reviews every 90 days under the AU defaults.
	assert.Equal(t, now.AddDate(0, 0, 90), updated.NextScheduledAt)
	require.NotNil(t, updated.LastExecutedAt)
	assert.Equal(t, models.ExecutionResultPassed, updated.LastResult)
	assert.Equal(t, 1, store.reviewUpdates)
}

func TestRunDueSchedulesFrequencyOverrideWins(t *testing.T) {
	store := newFakeStore()
	customer := addCustomer(store, models.RiskLevelHigh)
	schedule := addSchedule(store, customer.ID)
	schedule.FrequencyOverrides = map[string]int{"HIGH": 30}
	sched := newTestScheduler(store, &fakeScreener{}, &fakeNotifier{})

	now := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	_, err := sched.RunDueSchedules(context.Background(), uuid.New(), testConfig(t), now)
	require.NoError(t, err)

	require.Len(t, store.updatedSchedules, 1)
	assert.Equal(t, now.AddDate(0, 0, 30), store.updatedSchedules[0].NextScheduledAt)
}

func TestRunDueSchedulesScreenerErrorRecordsErrorResult(t *testing.T) {
	store := newFakeStore()
	customer := addCustomer(store, models.RiskLevelLow)
	addSchedule(store, customer.ID)
	screener := &fakeScreener{err: errors.New("provider timeout")}
	sched := newTestScheduler(store, screener, &fakeNotifier{})

	summary, err := sched.RunDueSchedules(context.Background(), uuid.New(), testConfig(t), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Errored)
	require.Len(t, store.savedExecutions, 1)
	execution := store.savedExecutions[0]
	assert.Equal(t, models.ExecutionResultError, execution.Result)

	// The schedule still advances so a flaky provider cannot wedge reviews.
	assert.Len(t, store.updatedSchedules, 1)
}

func TestRunDueSchedulesPEPFallsBackToCustomerFlag(t *testing.T) {
	store := newFakeStore()
	customer := addCustomer(store, models.RiskLevelLow)
	customer.IsPEP = true
	schedule := addSchedule(store, customer.ID)
	schedule.SanctionsCheck = false
	schedule.DocumentCheck = false
	sched := newTestScheduler(store, &fakeScreener{}, &fakeNotifier{})

	summary, err := sched.RunDueSchedules(context.Background(), uuid.New(), testConfig(t), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.RequiresAction)
	require.Len(t, store.savedExecutions, 1)
	execution := store.savedExecutions[0]
	assert.Equal(t, models.ExecutionResultRequiresAction, execution.Result)
	require.Len(t, execution.Findings, 1)
	assert.Equal(t, "pep_match", execution.Findings[0].Type)
}

func TestRunDueSchedulesPEPUsesStoredScreening(t *testing.T) {
	store := newFakeStore()
	customer := addCustomer(store, models.RiskLevelLow)
	store.screenings[customer.ID] = &models.ScreeningRecord{
		Kind:       CheckPEP,
		IsMatch:    false,
		ScreenedAt: time.Now().AddDate(0, -1, 0),
	}
	schedule := addSchedule(store, customer.ID)
	schedule.SanctionsCheck = false
	schedule.DocumentCheck = false
	// Live screening would match, but the stored record is authoritative.
	screener := &fakeScreener{result: &screening.Result{IsMatch: true, MatchScore: 1}}
	sched := newTestScheduler(store, screener, &fakeNotifier{})

	summary, err := sched.RunDueSchedules(context.Background(), uuid.New(), testConfig(t), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Passed)
}

func TestRunDueSchedulesPEPRescreenWhenConfigured(t *testing.T) {
	cfg, err := regional.Resolve("AU", map[string]interface{}{
		"pep_rescreen_on_review": true,
	})
	require.NoError(t, err)

	store := newFakeStore()
	customer := addCustomer(store, models.RiskLevelLow)
	schedule := addSchedule(store, customer.ID)
	schedule.SanctionsCheck = false
	schedule.DocumentCheck = false
	screener := &fakeScreener{result: &screening.Result{IsMatch: true, MatchScore: 0.95}}
	sched := newTestScheduler(store, screener, &fakeNotifier{})

	summary, err := sched.RunDueSchedules(context.Background(), uuid.New(), cfg, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.RequiresAction)
	require.Len(t, store.savedScreenings, 1)
	assert.Equal(t, CheckPEP, store.savedScreenings[0].Kind)
}

func TestRunDueSchedulesReportsOverdueCounts(t *testing.T) {
	store := newFakeStore()
	store.overdue = 3
	store.upcoming = 5
	notifier := &fakeNotifier{}
	sched := newTestScheduler(store, &fakeScreener{}, notifier)

	summary, err := sched.RunDueSchedules(context.Background(), uuid.New(), testConfig(t), time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.Overdue)
	assert.Equal(t, int64(5), summary.Upcoming)
	assert.Contains(t, notifier.events, "ocdd.schedules.overdue")
}

func TestRunDueSchedulesUpcomingOnlyUsesUpcomingEvent(t *testing.T) {
	store := newFakeStore()
	store.upcoming = 4
	notifier := &fakeNotifier{}
	sched := newTestScheduler(store, &fakeScreener{}, notifier)

	summary, err := sched.RunDueSchedules(context.Background(), uuid.New(), testConfig(t), time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(4), summary.Upcoming)
	assert.Contains(t, notifier.events, "ocdd.schedules.upcoming")
	assert.NotContains(t, notifier.events, "ocdd.schedules.overdue")
}

func TestRunDueSchedulesStoreErrorFailsRun(t *testing.T) {
	store := newFakeStore()
	store.dueErr = errors.New("database down")
	sched := newTestScheduler(store, &fakeScreener{}, &fakeNotifier{})

	_, err := sched.RunDueSchedules(context.Background(), uuid.New(), testConfig(t), time.Now())
	assert.Error(t, err)
}

func TestEscalateNeverDowngrades(t *testing.T) {
	assert.Equal(t, models.ExecutionResultEscalated,
		escalate(models.ExecutionResultEscalated, models.ExecutionResultRequiresAction))
	assert.Equal(t, models.ExecutionResultEscalated,
		escalate(models.ExecutionResultPassed, models.ExecutionResultEscalated))
	assert.Equal(t, models.ExecutionResultError,
		escalate(models.ExecutionResultEscalated, models.ExecutionResultError))
}
