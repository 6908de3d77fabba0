package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-sync/internal/dto"
	"github.com/noah-isme/sma-fee-sync/internal/gateway"
	"github.com/noah-isme/sma-fee-sync/internal/models"
	"github.com/noah-isme/sma-fee-sync/internal/store"
	appErrors "github.com/noah-isme/sma-fee-sync/pkg/errors"
)

// CreateOutcome distinguishes a fresh insert from the conflict fallback that
// updated an already-existing record. The two must stay distinguishable for
// user messaging.
type CreateOutcome string

const (
	OutcomeCreated         CreateOutcome = "created"
	OutcomeUpdatedExisting CreateOutcome = "updated_existing"
)

// CreateSingleInput is the payload for a single fee creation. The total fee
// is never supplied by the client; the gateway derives it.
type CreateSingleInput struct {
	StudentID  string  `json:"studentId" validate:"required"`
	Month      string  `json:"month" validate:"required"`
	PaidAmount float64 `json:"paidAmount" validate:"gte=0"`
}

// CreateSingleResult reports what a single create actually did.
type CreateSingleResult struct {
	Outcome CreateOutcome    `json:"outcome"`
	Fee     models.FeeRecord `json:"fee"`
}

// BatchInput is the payload for a monthly batch generation.
type BatchInput struct {
	SchoolID       string `json:"schoolId" validate:"required"`
	Month          string `json:"month" validate:"required"`
	ForceOverwrite bool   `json:"forceOverwrite"`
}

// BatchOutcome reports a batch generation. When RequiresConfirmation is set
// the caller must re-invoke with ForceOverwrite to proceed; nothing was
// written.
type BatchOutcome struct {
	Message              string `json:"message,omitempty"`
	Warning              string `json:"warning,omitempty"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
}

// UpdateFeeInput carries the mutable fields of one record.
type UpdateFeeInput struct {
	PaidAmount   *float64   `json:"paidAmount" validate:"omitempty,gte=0"`
	DateReceived *time.Time `json:"dateReceived"`
}

// Coordinator serializes fee mutations against the store and the gateway.
// Each operation kind is guarded by its own busy flag; delete is never
// optimistic.
type Coordinator struct {
	store    *store.FeeStore
	gateway  feeGateway
	notices  *Notices
	busy     *busySet
	validate *validator.Validate
	logger   *zap.Logger

	mu       sync.Mutex
	selected map[string]struct{}
}

func newCoordinator(st *store.FeeStore, gw feeGateway, notices *Notices, busy *busySet, validate *validator.Validate, logger *zap.Logger) *Coordinator {
	if validate == nil {
		validate = validator.New()
	}
	return &Coordinator{
		store:    st,
		gateway:  gw,
		notices:  notices,
		busy:     busy,
		validate: validate,
		logger:   logger,
		selected: make(map[string]struct{}),
	}
}

// CreateSingle creates a fee record for one student and month. When the
// gateway reports the record already exists, the call transparently falls
// back to updating that record and reports OutcomeUpdatedExisting.
func (c *Coordinator) CreateSingle(ctx context.Context, input CreateSingleInput) (CreateSingleResult, error) {
	if err := c.validate.Struct(input); err != nil {
		return CreateSingleResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}
	if !c.busy.tryAcquire(BusyCreate) {
		return CreateSingleResult{}, appErrors.Clone(appErrors.ErrConflict, "a fee creation is already in progress")
	}
	defer c.busy.release(BusyCreate)

	result, err := c.gateway.CreateSingle(ctx, dto.CreateSingleRequest{
		StudentID:  input.StudentID,
		Month:      input.Month,
		PaidAmount: input.PaidAmount,
	})
	if err != nil {
		c.notices.Error(appErrors.FromError(err).Message)
		return CreateSingleResult{}, err
	}

	switch result.Kind {
	case gateway.ResultOK:
		c.store.Insert(*result.Fee)
		c.notices.Success("fee record created")
		return CreateSingleResult{Outcome: OutcomeCreated, Fee: *result.Fee}, nil

	case gateway.ResultConflict:
		// The record already exists for this student and month; reconcile by
		// updating it instead of failing the user's action.
		c.logger.Info("fee already exists, falling back to update",
			zap.String("student_id", input.StudentID),
			zap.String("month", input.Month),
			zap.String("existing_fee_id", result.ExistingFeeID),
		)
		updated, err := c.applyUpdate(ctx, dto.FeeUpdate{ID: result.ExistingFeeID, PaidAmount: &input.PaidAmount})
		if err != nil {
			c.notices.Error(appErrors.FromError(err).Message)
			return CreateSingleResult{}, err
		}
		c.notices.Success("existing fee record updated")
		return CreateSingleResult{Outcome: OutcomeUpdatedExisting, Fee: updated}, nil

	default:
		return CreateSingleResult{}, appErrors.Clone(appErrors.ErrInternal, "unexpected gateway result")
	}
}

// CreateMonthlyBatch generates one fee record per active student of a school
// for a month. An existing-records conflict is never auto-resolved: the
// warning is surfaced and the caller must confirm with ForceOverwrite.
func (c *Coordinator) CreateMonthlyBatch(ctx context.Context, input BatchInput) (BatchOutcome, error) {
	if err := c.validate.Struct(input); err != nil {
		return BatchOutcome{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	if !c.busy.tryAcquire(BusyBatch) {
		return BatchOutcome{}, appErrors.Clone(appErrors.ErrConflict, "a batch generation is already in progress")
	}
	defer c.busy.release(BusyBatch)

	result, err := c.gateway.CreateMonthlyBatch(ctx, dto.CreateBatchRequest{
		SchoolID:       input.SchoolID,
		Month:          input.Month,
		ForceOverwrite: input.ForceOverwrite,
	})
	if err != nil {
		c.notices.Error(appErrors.FromError(err).Message)
		return BatchOutcome{}, err
	}

	if result.Kind == gateway.ResultConflict {
		c.notices.Warning(result.Warning)
		return BatchOutcome{Warning: result.Warning, RequiresConfirmation: true}, nil
	}

	c.notices.Success(result.Message)
	return BatchOutcome{Message: result.Message}, nil
}

// UpdateFee applies a partial update to one record and merges the echoed
// fields onto the store entry.
func (c *Coordinator) UpdateFee(ctx context.Context, id string, input UpdateFeeInput) (models.FeeRecord, error) {
	if id == "" {
		return models.FeeRecord{}, appErrors.Clone(appErrors.ErrValidation, "fee id is required")
	}
	if err := c.validate.Struct(input); err != nil {
		return models.FeeRecord{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	if !c.busy.tryAcquire(BusyUpdate) {
		return models.FeeRecord{}, appErrors.Clone(appErrors.ErrConflict, "an update is already in progress")
	}
	defer c.busy.release(BusyUpdate)

	update := dto.FeeUpdate{ID: id, PaidAmount: input.PaidAmount}
	if input.DateReceived != nil {
		formatted := input.DateReceived.Format(dto.DateLayout)
		update.DateReceived = &formatted
	}

	updated, err := c.applyUpdate(ctx, update)
	if err != nil {
		c.notices.Error(appErrors.FromError(err).Message)
		return models.FeeRecord{}, err
	}
	c.notices.Success("fee record updated")
	return updated, nil
}

// BulkUpdate sets the paid amount on every selected record. Validation is
// fail-fast and entirely client-side: one out-of-range record aborts the
// whole batch before any network call, naming the offending student.
func (c *Coordinator) BulkUpdate(ctx context.Context, ids []string, paidAmount float64) error {
	if len(ids) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "no fee records selected")
	}
	if paidAmount < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "paid amount must not be negative")
	}

	updates := make([]dto.FeeUpdate, 0, len(ids))
	for _, id := range ids {
		rec, ok := c.store.Find(id)
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("fee record %s is no longer loaded", id))
		}
		if paidAmount > rec.TotalFee {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("paid amount %.2f exceeds the total fee %.2f of %s", paidAmount, rec.TotalFee, rec.StudentName))
		}
		amount := paidAmount
		updates = append(updates, dto.FeeUpdate{ID: id, PaidAmount: &amount})
	}

	if !c.busy.tryAcquire(BusyUpdate) {
		return appErrors.Clone(appErrors.ErrConflict, "an update is already in progress")
	}
	defer c.busy.release(BusyUpdate)

	echoed, err := c.gateway.UpdateFees(ctx, updates)
	if err != nil {
		c.notices.Error(appErrors.FromError(err).Message)
		return err
	}
	for _, rec := range echoed {
		c.patchStore(rec)
	}
	c.ClearSelection()
	c.notices.Success(fmt.Sprintf("%d fee records updated", len(echoed)))
	return nil
}

// DeleteMany removes records. There is no optimistic pre-removal: rows stay
// visible until the gateway confirms, and a failed delete changes nothing.
func (c *Coordinator) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "no fee records selected")
	}
	if !c.busy.tryAcquire(BusyDelete) {
		return appErrors.Clone(appErrors.ErrConflict, "a delete is already in progress")
	}
	defer c.busy.release(BusyDelete)

	if err := c.gateway.DeleteFees(ctx, ids); err != nil {
		c.notices.Error(appErrors.FromError(err).Message)
		return err
	}

	removed := c.store.Remove(ids)
	c.mu.Lock()
	for _, id := range ids {
		delete(c.selected, id)
	}
	c.mu.Unlock()
	c.notices.Success(fmt.Sprintf("%d fee records deleted", removed))
	return nil
}

// ToggleSelect flips the selection state of one record.
func (c *Coordinator) ToggleSelect(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		return false
	}
	c.selected[id] = struct{}{}
	return true
}

// Selected returns the selected record ids.
func (c *Coordinator) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.selected))
	for id := range c.selected {
		out = append(out, id)
	}
	return out
}

// ClearSelection empties the selection set.
func (c *Coordinator) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = make(map[string]struct{})
}

// applyUpdate sends one update and patches the store from the echo.
func (c *Coordinator) applyUpdate(ctx context.Context, update dto.FeeUpdate) (models.FeeRecord, error) {
	echoed, err := c.gateway.UpdateFees(ctx, []dto.FeeUpdate{update})
	if err != nil {
		return models.FeeRecord{}, err
	}
	if len(echoed) == 0 {
		return models.FeeRecord{}, appErrors.Clone(appErrors.ErrInternal, "gateway echoed no updated record")
	}
	rec := echoed[0]
	c.patchStore(rec)
	return rec, nil
}

// patchStore merges only the fields the gateway echoes back; a record
// outside the loaded scope is simply not present and nothing happens.
func (c *Coordinator) patchStore(rec models.FeeRecord) {
	c.store.Patch(rec.ID, models.FeePatch{
		PaidAmount:   rec.PaidAmount,
		BalanceDue:   rec.BalanceDue,
		Status:       rec.Status,
		DateReceived: rec.DateReceived,
	})
}
