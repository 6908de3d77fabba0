package sync

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-sync/internal/models"
	"github.com/noah-isme/sma-fee-sync/internal/store"
	appErrors "github.com/noah-isme/sma-fee-sync/pkg/errors"
)

// Controller owns the active filter scope and drives debounced reloads of
// the fee store.
type Controller struct {
	mu     sync.Mutex
	filter models.FeeFilter

	store     *store.FeeStore
	gateway   feeGateway
	notices   *Notices
	busy      *busySet
	scheduler *ReloadScheduler
	logger    *zap.Logger

	// root is the engine lifetime; once cancelled no reload result may be
	// committed or surfaced.
	root context.Context
}

func newController(root context.Context, st *store.FeeStore, gw feeGateway, notices *Notices, busy *busySet, logger *zap.Logger) *Controller {
	return &Controller{
		root:    root,
		store:   st,
		gateway: gw,
		notices: notices,
		busy:    busy,
		logger:  logger,
	}
}

// SetFilter merges the patch into the current scope. A change to school,
// class or month schedules a debounced reload; search changes only affect
// the derived view and never hit the network.
func (c *Controller) SetFilter(patch models.FeeFilterPatch) models.FeeFilter {
	c.mu.Lock()
	scopeChanged := false
	if patch.SchoolID != nil && *patch.SchoolID != c.filter.SchoolID {
		c.filter.SchoolID = *patch.SchoolID
		scopeChanged = true
	}
	if patch.StudentClass != nil && *patch.StudentClass != c.filter.StudentClass {
		c.filter.StudentClass = *patch.StudentClass
		scopeChanged = true
	}
	if patch.Month != nil && *patch.Month != c.filter.Month {
		c.filter.Month = *patch.Month
		scopeChanged = true
	}
	if patch.Search != nil {
		c.filter.Search = *patch.Search
	}
	filter := c.filter
	c.mu.Unlock()

	if scopeChanged && c.scheduler != nil {
		c.scheduler.Notify()
	}
	return filter
}

// Filter returns the current scope.
func (c *Controller) Filter() models.FeeFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Reload fetches the fee list for the current scope and replaces the store
// contents. When the scope is empty nothing is fetched and the store is left
// untouched, distinguishing "not yet filtered" from "filtered to empty".
// A reload superseded by a newer one discards its result on arrival, and a
// failed reload keeps the previous contents visible.
func (c *Controller) Reload(ctx context.Context) error {
	filter := c.Filter()
	if filter.ScopeEmpty() {
		return nil
	}

	token := c.store.Begin()

	// Reloads are ordered by generation, not serialized; the flag only
	// drives the loading indicator, so the first holder keeps it.
	if c.busy.tryAcquire(BusyReload) {
		defer c.busy.release(BusyReload)
	}

	fees, err := c.gateway.ListFees(ctx, filter)
	if c.root.Err() != nil {
		// Engine tore down while the request was in flight; the response
		// still arrives but is no longer relevant.
		return nil
	}
	if err != nil {
		c.logger.Warn("fee reload failed", zap.Error(err), zap.String("school_id", filter.SchoolID))
		c.notices.Error(appErrors.ErrGatewayUnavailable.Message)
		return err
	}

	if !c.store.ReplaceIfCurrent(token, fees) {
		c.logger.Debug("discarded stale reload result", zap.Uint64("token", token))
	}
	return nil
}

// reloadFromTimer is the scheduler callback; it runs off the timer goroutine
// with the engine lifetime as request context.
func (c *Controller) reloadFromTimer() {
	if c.root.Err() != nil {
		return
	}
	_ = c.Reload(c.root)
}
