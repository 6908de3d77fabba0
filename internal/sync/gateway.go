package sync

import (
	"context"

	"github.com/noah-isme/sma-fee-sync/internal/dto"
	"github.com/noah-isme/sma-fee-sync/internal/gateway"
	"github.com/noah-isme/sma-fee-sync/internal/models"
)

// feeGateway is the slice of the remote fee service this package consumes.
// *gateway.Client satisfies it; tests substitute hand-written fakes.
type feeGateway interface {
	ListFees(ctx context.Context, filter models.FeeFilter) ([]models.FeeRecord, error)
	CreateSingle(ctx context.Context, req dto.CreateSingleRequest) (gateway.CreateSingleResult, error)
	CreateMonthlyBatch(ctx context.Context, req dto.CreateBatchRequest) (gateway.BatchResult, error)
	UpdateFees(ctx context.Context, updates []dto.FeeUpdate) ([]models.FeeRecord, error)
	DeleteFees(ctx context.Context, feeIDs []string) error
	ListStudents(ctx context.Context, schoolID string) ([]models.StudentSummary, error)
}
