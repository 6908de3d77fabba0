// Package sync implements the client-side fee synchronization engine: a
// debounced filter controller, a generation-guarded fee store, a mutation
// coordinator with conflict fallback, and a purely derived view.
package sync

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-sync/internal/models"
	"github.com/noah-isme/sma-fee-sync/internal/store"
	"github.com/noah-isme/sma-fee-sync/internal/view"
)

// EngineConfig wires an engine together.
type EngineConfig struct {
	Gateway          feeGateway
	DebounceInterval time.Duration
	SuccessNoticeTTL time.Duration
	ErrorNoticeTTL   time.Duration
	Validator        *validator.Validate
	Logger           *zap.Logger
}

// Engine is the top-level facade over the fee store, filter controller,
// mutation coordinator and derived view. All methods are safe for
// concurrent use.
type Engine struct {
	store       *store.FeeStore
	controller  *Controller
	coordinator *Coordinator
	notices     *Notices
	busy        *busySet
	scheduler   *ReloadScheduler
	gateway     feeGateway
	logger      *zap.Logger

	cancel context.CancelFunc

	sortMu sync.Mutex
	sort   models.SortState
}

// NewEngine assembles an engine around the given gateway client.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	root, cancel := context.WithCancel(context.Background())

	st := store.NewFeeStore()
	notices := NewNotices(cfg.SuccessNoticeTTL, cfg.ErrorNoticeTTL)
	busy := newBusySet()

	controller := newController(root, st, cfg.Gateway, notices, busy, logger)
	controller.scheduler = NewReloadScheduler(cfg.DebounceInterval, controller.reloadFromTimer)

	return &Engine{
		store:       st,
		controller:  controller,
		coordinator: newCoordinator(st, cfg.Gateway, notices, busy, cfg.Validator, logger),
		notices:     notices,
		busy:        busy,
		scheduler:   controller.scheduler,
		gateway:     cfg.Gateway,
		logger:      logger,
		cancel:      cancel,
		sort:        models.SortState{Column: models.SortByStudentClass},
	}
}

// SetFilter merges a partial filter change; scope changes schedule a
// debounced reload.
func (e *Engine) SetFilter(patch models.FeeFilterPatch) models.FeeFilter {
	return e.controller.SetFilter(patch)
}

// Filter returns the active filter scope.
func (e *Engine) Filter() models.FeeFilter {
	return e.controller.Filter()
}

// Reload forces an immediate reload, bypassing the debounce window.
func (e *Engine) Reload(ctx context.Context) error {
	return e.controller.Reload(ctx)
}

// View derives the current presentation: search-filtered, sorted, grouped,
// with totals. The store is never mutated by a read.
func (e *Engine) View() models.FeeView {
	e.sortMu.Lock()
	sortState := e.sort
	e.sortMu.Unlock()
	return view.Derive(e.store.Snapshot(), e.controller.Filter().Search, sortState)
}

// SetSort applies a column click: new column sorts ascending, the active
// column toggles direction.
func (e *Engine) SetSort(column models.SortColumn) models.SortState {
	e.sortMu.Lock()
	defer e.sortMu.Unlock()
	e.sort = view.Toggle(e.sort, column)
	return e.sort
}

// CreateSingle creates one fee record with conflict fallback to update.
func (e *Engine) CreateSingle(ctx context.Context, input CreateSingleInput) (CreateSingleResult, error) {
	return e.coordinator.CreateSingle(ctx, input)
}

// CreateMonthlyBatch bulk-generates fee records for a school and month.
func (e *Engine) CreateMonthlyBatch(ctx context.Context, input BatchInput) (BatchOutcome, error) {
	return e.coordinator.CreateMonthlyBatch(ctx, input)
}

// UpdateFee applies a partial update to one record.
func (e *Engine) UpdateFee(ctx context.Context, id string, input UpdateFeeInput) (models.FeeRecord, error) {
	return e.coordinator.UpdateFee(ctx, id, input)
}

// BulkUpdate sets the paid amount of all given records, fail-fast validated.
func (e *Engine) BulkUpdate(ctx context.Context, ids []string, paidAmount float64) error {
	return e.coordinator.BulkUpdate(ctx, ids, paidAmount)
}

// DeleteMany removes records after gateway confirmation.
func (e *Engine) DeleteMany(ctx context.Context, ids []string) error {
	return e.coordinator.DeleteMany(ctx, ids)
}

// Students lists the active students of a school for the fee picker.
func (e *Engine) Students(ctx context.Context, schoolID string) ([]models.StudentSummary, error) {
	return e.gateway.ListStudents(ctx, schoolID)
}

// ToggleSelect flips one record's selection state.
func (e *Engine) ToggleSelect(id string) bool {
	return e.coordinator.ToggleSelect(id)
}

// Selected returns the selected record ids.
func (e *Engine) Selected() []string {
	return e.coordinator.Selected()
}

// ClearSelection empties the selection set.
func (e *Engine) ClearSelection() {
	e.coordinator.ClearSelection()
}

// Notices returns the currently visible user messages.
func (e *Engine) Notices() []models.Notice {
	return e.notices.Active()
}

// DismissNotice removes a notice before it expires.
func (e *Engine) DismissNotice(id string) {
	e.notices.Dismiss(id)
}

// Busy reports which operation kinds are in flight.
func (e *Engine) Busy() map[BusyKind]bool {
	return e.busy.snapshot()
}

// Close tears the engine down: the pending debounce timer is cancelled and
// in-flight reloads lose the right to commit. In-flight HTTP requests are
// left to complete; their results are discarded.
func (e *Engine) Close() {
	e.scheduler.Stop()
	e.cancel()
}
