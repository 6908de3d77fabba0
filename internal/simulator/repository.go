package simulator

import (
	"context"
	"time"
)

// Repository abstracts simulator persistence. The memory implementation
// backs tests and quick local runs; the Postgres one survives restarts.
type Repository interface {
	ListFees(ctx context.Context, query FeeQuery) ([]FeeRow, error)
	GetFee(ctx context.Context, id string) (*FeeRow, error)
	FindFeeByStudentMonth(ctx context.Context, studentID, month string) (*FeeRow, error)
	CountFeesBySchoolMonth(ctx context.Context, schoolID, month string) (int, error)
	DeleteFeesBySchoolMonth(ctx context.Context, schoolID, month string) (int, error)
	InsertFee(ctx context.Context, fee *Fee) error
	SaveFeePayment(ctx context.Context, id string, paidAmount *float64, dateReceived *time.Time) error
	DeleteFees(ctx context.Context, ids []string) (int, error)

	ListStudents(ctx context.Context, schoolID string, activeOnly bool) ([]Student, error)
	GetStudent(ctx context.Context, id string) (*Student, error)
	GetSchool(ctx context.Context, id string) (*School, error)

	FindUserByEmail(ctx context.Context, email string) (*User, error)
}
