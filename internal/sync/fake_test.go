package sync

import (
	"context"

	"github.com/noah-isme/sma-fee-sync/internal/dto"
	"github.com/noah-isme/sma-fee-sync/internal/gateway"
	"github.com/noah-isme/sma-fee-sync/internal/models"
)

// fakeGateway substitutes the remote fee service in tests. Unset hooks
// succeed with zero values.
type fakeGateway struct {
	listFees     func(ctx context.Context, filter models.FeeFilter) ([]models.FeeRecord, error)
	createSingle func(ctx context.Context, req dto.CreateSingleRequest) (gateway.CreateSingleResult, error)
	createBatch  func(ctx context.Context, req dto.CreateBatchRequest) (gateway.BatchResult, error)
	updateFees   func(ctx context.Context, updates []dto.FeeUpdate) ([]models.FeeRecord, error)
	deleteFees   func(ctx context.Context, feeIDs []string) error
	listStudents func(ctx context.Context, schoolID string) ([]models.StudentSummary, error)
}

func (f *fakeGateway) ListFees(ctx context.Context, filter models.FeeFilter) ([]models.FeeRecord, error) {
	if f.listFees == nil {
		return nil, nil
	}
	return f.listFees(ctx, filter)
}

func (f *fakeGateway) CreateSingle(ctx context.Context, req dto.CreateSingleRequest) (gateway.CreateSingleResult, error) {
	if f.createSingle == nil {
		return gateway.CreateSingleResult{Kind: gateway.ResultOK, Fee: &models.FeeRecord{}}, nil
	}
	return f.createSingle(ctx, req)
}

func (f *fakeGateway) CreateMonthlyBatch(ctx context.Context, req dto.CreateBatchRequest) (gateway.BatchResult, error) {
	if f.createBatch == nil {
		return gateway.BatchResult{Kind: gateway.ResultOK}, nil
	}
	return f.createBatch(ctx, req)
}

func (f *fakeGateway) UpdateFees(ctx context.Context, updates []dto.FeeUpdate) ([]models.FeeRecord, error) {
	if f.updateFees == nil {
		return nil, nil
	}
	return f.updateFees(ctx, updates)
}

func (f *fakeGateway) DeleteFees(ctx context.Context, feeIDs []string) error {
	if f.deleteFees == nil {
		return nil
	}
	return f.deleteFees(ctx, feeIDs)
}

func (f *fakeGateway) ListStudents(ctx context.Context, schoolID string) ([]models.StudentSummary, error) {
	if f.listStudents == nil {
		return nil, nil
	}
	return f.listStudents(ctx, schoolID)
}
