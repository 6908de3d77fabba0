package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-sync/internal/dto"
	"github.com/noah-isme/sma-fee-sync/internal/gateway"
	"github.com/noah-isme/sma-fee-sync/internal/models"
	"github.com/noah-isme/sma-fee-sync/internal/store"
	appErrors "github.com/noah-isme/sma-fee-sync/pkg/errors"
)

func newTestCoordinator(gw feeGateway) (*Coordinator, *store.FeeStore, *Notices, *busySet) {
	st := store.NewFeeStore()
	notices := NewNotices(0, 0)
	busy := newBusySet()
	return newCoordinator(st, gw, notices, busy, nil, zap.NewNop()), st, notices, busy
}

func TestCreateSingleInsertsNewRecord(t *testing.T) {
	created := models.FeeRecord{ID: "fee-9", StudentID: "stu-1", StudentName: "Amara Okafor", TotalFee: 1200, PaidAmount: 300, BalanceDue: 900, Status: models.FeeStatusPending, Month: "Mar-2025"}
	gw := &fakeGateway{createSingle: func(_ context.Context, req dto.CreateSingleRequest) (gateway.CreateSingleResult, error) {
		assert.Equal(t, "stu-1", req.StudentID)
		assert.Equal(t, "Mar-2025", req.Month)
		assert.Equal(t, 300.0, req.PaidAmount)
		return gateway.CreateSingleResult{Kind: gateway.ResultOK, Fee: &created}, nil
	}}
	c, st, notices, _ := newTestCoordinator(gw)

	result, err := c.CreateSingle(context.Background(), CreateSingleInput{StudentID: "stu-1", Month: "Mar-2025", PaidAmount: 300})
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreated, result.Outcome)
	assert.Equal(t, created, result.Fee)

	stored, ok := st.Find("fee-9")
	require.True(t, ok)
	assert.Equal(t, created, stored)

	active := notices.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "fee record created", active[0].Message)
}

func TestCreateSingleConflictFallsBackToUpdate(t *testing.T) {
	var sentUpdates []dto.FeeUpdate
	echo := models.FeeRecord{ID: "fee-1", StudentName: "Amara Okafor", TotalFee: 1200, PaidAmount: 500, BalanceDue: 700, Status: models.FeeStatusPending}

	gw := &fakeGateway{
		createSingle: func(context.Context, dto.CreateSingleRequest) (gateway.CreateSingleResult, error) {
			return gateway.CreateSingleResult{Kind: gateway.ResultConflict, ExistingFeeID: "fee-1"}, nil
		},
		updateFees: func(_ context.Context, updates []dto.FeeUpdate) ([]models.FeeRecord, error) {
			sentUpdates = updates
			return []models.FeeRecord{echo}, nil
		},
	}
	c, st, notices, _ := newTestCoordinator(gw)
	seedStore(t, st, models.FeeRecord{ID: "fee-1", StudentName: "Amara Okafor", TotalFee: 1200, PaidAmount: 200, BalanceDue: 1000, Status: models.FeeStatusPending})

	result, err := c.CreateSingle(context.Background(), CreateSingleInput{StudentID: "stu-1", Month: "Mar-2025", PaidAmount: 500})
	require.NoError(t, err)

	assert.Equal(t, OutcomeUpdatedExisting, result.Outcome)
	assert.Equal(t, echo, result.Fee)

	require.Len(t, sentUpdates, 1)
	assert.Equal(t, "fee-1", sentUpdates[0].ID)
	require.NotNil(t, sentUpdates[0].PaidAmount)
	assert.Equal(t, 500.0, *sentUpdates[0].PaidAmount)

	stored, ok := st.Find("fee-1")
	require.True(t, ok)
	assert.Equal(t, 500.0, stored.PaidAmount)
	assert.Equal(t, 700.0, stored.BalanceDue)
	assert.Equal(t, 1, st.Len())

	active := notices.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "existing fee record updated", active[0].Message)
}

func TestCreateSingleRejectsInvalidInput(t *testing.T) {
	calls := 0
	gw := &fakeGateway{createSingle: func(context.Context, dto.CreateSingleRequest) (gateway.CreateSingleResult, error) {
		calls++
		return gateway.CreateSingleResult{}, nil
	}}
	c, _, _, _ := newTestCoordinator(gw)

	_, err := c.CreateSingle(context.Background(), CreateSingleInput{Month: "Mar-2025"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Equal(t, 0, calls)
}

func TestCreateSingleDoubleSubmitRejected(t *testing.T) {
	calls := 0
	gw := &fakeGateway{createSingle: func(context.Context, dto.CreateSingleRequest) (gateway.CreateSingleResult, error) {
		calls++
		return gateway.CreateSingleResult{Kind: gateway.ResultOK, Fee: &models.FeeRecord{}}, nil
	}}
	c, _, _, busy := newTestCoordinator(gw)

	require.True(t, busy.tryAcquire(BusyCreate))
	defer busy.release(BusyCreate)

	_, err := c.CreateSingle(context.Background(), CreateSingleInput{StudentID: "stu-1", Month: "Mar-2025"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	assert.Equal(t, 0, calls)
}

func TestCreateMonthlyBatchConflictRequiresConfirmation(t *testing.T) {
	var forced []bool
	gw := &fakeGateway{createBatch: func(_ context.Context, req dto.CreateBatchRequest) (gateway.BatchResult, error) {
		forced = append(forced, req.ForceOverwrite)
		if !req.ForceOverwrite {
			return gateway.BatchResult{Kind: gateway.ResultConflict, Warning: "fee records already exist for Mar-2025"}, nil
		}
		return gateway.BatchResult{Kind: gateway.ResultOK, Message: "5 fee records created"}, nil
	}}
	c, _, notices, _ := newTestCoordinator(gw)

	outcome, err := c.CreateMonthlyBatch(context.Background(), BatchInput{SchoolID: "school-1", Month: "Mar-2025"})
	require.NoError(t, err)
	assert.True(t, outcome.RequiresConfirmation)
	assert.Equal(t, "fee records already exist for Mar-2025", outcome.Warning)

	// The conflict is never auto-resolved; a second explicit call confirms.
	require.Equal(t, []bool{false}, forced)

	active := notices.Active()
	require.Len(t, active, 1)
	assert.Equal(t, models.NoticeWarning, active[0].Level)

	outcome, err = c.CreateMonthlyBatch(context.Background(), BatchInput{SchoolID: "school-1", Month: "Mar-2025", ForceOverwrite: true})
	require.NoError(t, err)
	assert.False(t, outcome.RequiresConfirmation)
	assert.Equal(t, "5 fee records created", outcome.Message)
	assert.Equal(t, []bool{false, true}, forced)
}

func TestUpdateFeeFormatsDateAndPatchesStore(t *testing.T) {
	var sent dto.FeeUpdate
	received := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	echo := models.FeeRecord{ID: "fee-1", PaidAmount: 1200, BalanceDue: 0, Status: models.FeeStatusPaid, DateReceived: &received}

	gw := &fakeGateway{updateFees: func(_ context.Context, updates []dto.FeeUpdate) ([]models.FeeRecord, error) {
		require.Len(t, updates, 1)
		sent = updates[0]
		return []models.FeeRecord{echo}, nil
	}}
	c, st, notices, _ := newTestCoordinator(gw)
	seedStore(t, st, models.FeeRecord{ID: "fee-1", StudentName: "Amara Okafor", TotalFee: 1200, PaidAmount: 200, BalanceDue: 1000, Status: models.FeeStatusPending})

	amount := 1200.0
	updated, err := c.UpdateFee(context.Background(), "fee-1", UpdateFeeInput{PaidAmount: &amount, DateReceived: &received})
	require.NoError(t, err)
	assert.Equal(t, echo, updated)

	require.NotNil(t, sent.DateReceived)
	assert.Equal(t, "2025-03-14", *sent.DateReceived)

	stored, _ := st.Find("fee-1")
	assert.Equal(t, models.FeeStatusPaid, stored.Status)
	assert.Equal(t, "Amara Okafor", stored.StudentName) // untouched fields survive

	active := notices.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "fee record updated", active[0].Message)
}

func TestBulkUpdateFailsFastBeforeNetwork(t *testing.T) {
	calls := 0
	gw := &fakeGateway{updateFees: func(context.Context, []dto.FeeUpdate) ([]models.FeeRecord, error) {
		calls++
		return nil, nil
	}}
	c, st, _, _ := newTestCoordinator(gw)
	seedStore(t, st,
		models.FeeRecord{ID: "f1", StudentName: "Amara Okafor", TotalFee: 1000},
		models.FeeRecord{ID: "f2", StudentName: "Brian Kiptoo", TotalFee: 2000},
		models.FeeRecord{ID: "f3", StudentName: "Chidi Obi", TotalFee: 500},
	)

	err := c.BulkUpdate(context.Background(), []string{"f1", "f2", "f3"}, 600)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "Chidi Obi")
	assert.Equal(t, 0, calls)

	// Nothing was written locally either.
	f1, _ := st.Find("f1")
	assert.Zero(t, f1.PaidAmount)
}

func TestBulkUpdateAppliesEchoAndClearsSelection(t *testing.T) {
	gw := &fakeGateway{updateFees: func(_ context.Context, updates []dto.FeeUpdate) ([]models.FeeRecord, error) {
		out := make([]models.FeeRecord, 0, len(updates))
		for _, u := range updates {
			out = append(out, models.FeeRecord{ID: u.ID, PaidAmount: *u.PaidAmount, BalanceDue: 0, Status: models.FeeStatusPaid})
		}
		return out, nil
	}}
	c, st, notices, _ := newTestCoordinator(gw)
	seedStore(t, st,
		models.FeeRecord{ID: "f1", StudentName: "Amara Okafor", TotalFee: 1000, BalanceDue: 1000},
		models.FeeRecord{ID: "f2", StudentName: "Brian Kiptoo", TotalFee: 2000, BalanceDue: 2000},
	)
	c.ToggleSelect("f1")
	c.ToggleSelect("f2")

	require.NoError(t, c.BulkUpdate(context.Background(), []string{"f1", "f2"}, 500))

	f1, _ := st.Find("f1")
	assert.Equal(t, 500.0, f1.PaidAmount)
	assert.Equal(t, models.FeeStatusPaid, f1.Status)

	assert.Empty(t, c.Selected())

	active := notices.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "2 fee records updated", active[0].Message)
}

func TestDeleteManyIsNotOptimistic(t *testing.T) {
	gw := &fakeGateway{deleteFees: func(context.Context, []string) error {
		return appErrors.Clone(appErrors.ErrGatewayUnavailable, "")
	}}
	c, st, notices, _ := newTestCoordinator(gw)
	seedStore(t, st,
		models.FeeRecord{ID: "f1", StudentName: "Amara Okafor"},
		models.FeeRecord{ID: "f2", StudentName: "Brian Kiptoo"},
	)

	err := c.DeleteMany(context.Background(), []string{"f1"})
	require.Error(t, err)

	// The row stays visible until the gateway confirms.
	assert.Equal(t, 2, st.Len())

	active := notices.Active()
	require.Len(t, active, 1)
	assert.Equal(t, models.NoticeError, active[0].Level)
}

func TestDeleteManyRemovesConfirmedRows(t *testing.T) {
	var deleted []string
	gw := &fakeGateway{deleteFees: func(_ context.Context, feeIDs []string) error {
		deleted = feeIDs
		return nil
	}}
	c, st, notices, _ := newTestCoordinator(gw)
	seedStore(t, st,
		models.FeeRecord{ID: "f1", StudentName: "Amara Okafor"},
		models.FeeRecord{ID: "f2", StudentName: "Brian Kiptoo"},
	)
	c.ToggleSelect("f1")

	require.NoError(t, c.DeleteMany(context.Background(), []string{"f1"}))

	assert.Equal(t, []string{"f1"}, deleted)
	assert.Equal(t, 1, st.Len())
	_, ok := st.Find("f1")
	assert.False(t, ok)
	assert.Empty(t, c.Selected())

	active := notices.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "1 fee records deleted", active[0].Message)
}

func TestToggleSelect(t *testing.T) {
	c, _, _, _ := newTestCoordinator(&fakeGateway{})

	assert.True(t, c.ToggleSelect("f1"))
	assert.Equal(t, []string{"f1"}, c.Selected())
	assert.False(t, c.ToggleSelect("f1"))
	assert.Empty(t, c.Selected())
}
