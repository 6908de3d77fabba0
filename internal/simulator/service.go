// Package simulator is a reference implementation of the remote fee gateway
// contract, used for local development and integration tests. It enforces
// the one-record-per-student-per-month invariant and derives every amount
// server-side, exactly as the production gateway does.
package simulator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-sync/internal/collation"
	"github.com/noah-isme/sma-fee-sync/internal/models"
	appErrors "github.com/noah-isme/sma-fee-sync/pkg/errors"
)

// DuplicateFeeError signals a create-single collision and names the record
// already occupying the (student, month) slot.
type DuplicateFeeError struct {
	ExistingFeeID string
}

func (e *DuplicateFeeError) Error() string {
	return fmt.Sprintf("fee already exists: %s", e.ExistingFeeID)
}

// BatchConflictError signals that a batch generation would overwrite
// existing records and was not confirmed.
type BatchConflictError struct {
	Warning string
}

func (e *BatchConflictError) Error() string {
	return e.Warning
}

// ServiceConfig tunes fee status computation.
type ServiceConfig struct {
	// OverduePeriod is how long after the billed month an unpaid fee stays
	// Pending before turning Overdue.
	OverduePeriod time.Duration
}

// Service implements the fee gateway semantics over a Repository.
type Service struct {
	repo   Repository
	logger *zap.Logger
	config ServiceConfig
	now    func() time.Time
}

// NewService constructs a simulator service.
func NewService(repo Repository, logger *zap.Logger, config ServiceConfig) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.OverduePeriod <= 0 {
		config.OverduePeriod = 30 * 24 * time.Hour
	}
	return &Service{repo: repo, logger: logger, config: config, now: time.Now}
}

// ListFees returns the fee records matching the query, sorted ascending by
// class then student name.
func (s *Service) ListFees(ctx context.Context, query FeeQuery) ([]models.FeeRecord, error) {
	rows, err := s.repo.ListFees(ctx, query)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fees")
	}

	out := make([]models.FeeRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.toRecord(row))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := collation.Compare(out[i].StudentClass, out[j].StudentClass); c != 0 {
			return c < 0
		}
		return out[i].StudentName < out[j].StudentName
	})
	return out, nil
}

// CreateSingle creates one fee record, deriving the total fee from the
// student's monthly rate or, when the student has none, from the school's
// subscription amount split across its active students. A duplicate
// (student, month) pair returns a DuplicateFeeError.
func (s *Service) CreateSingle(ctx context.Context, studentID, month string, paidAmount float64) (models.FeeRecord, error) {
	if existing, err := s.repo.FindFeeByStudentMonth(ctx, studentID, month); err == nil {
		return models.FeeRecord{}, &DuplicateFeeError{ExistingFeeID: existing.ID}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return models.FeeRecord{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check fee uniqueness")
	}

	student, err := s.repo.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FeeRecord{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return models.FeeRecord{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	totalFee, err := s.deriveTotalFee(ctx, student)
	if err != nil {
		return models.FeeRecord{}, err
	}

	fee := &Fee{
		ID:         uuid.NewString(),
		SchoolID:   student.SchoolID,
		StudentID:  student.ID,
		Month:      month,
		TotalFee:   totalFee,
		PaidAmount: paidAmount,
		CreatedAt:  s.now().UTC(),
	}
	if paidAmount > 0 {
		received := s.now().UTC().Truncate(24 * time.Hour)
		fee.DateReceived = &received
	}

	if err := s.repo.InsertFee(ctx, fee); err != nil {
		return models.FeeRecord{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee")
	}

	return s.toRecord(FeeRow{Fee: *fee, StudentName: student.FullName, StudentClass: student.StudentClass}), nil
}

// CreateBatch generates one fee per active student of the school for the
// month. Existing records for that scope raise a BatchConflictError unless
// forceOverwrite is set, in which case they are replaced.
func (s *Service) CreateBatch(ctx context.Context, schoolID, month string, forceOverwrite bool) (string, error) {
	existing, err := s.repo.CountFeesBySchoolMonth(ctx, schoolID, month)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing fees")
	}
	if existing > 0 && !forceOverwrite {
		return "", &BatchConflictError{
			Warning: fmt.Sprintf("%d fee records already exist for %s; confirm to overwrite them", existing, month),
		}
	}

	students, err := s.repo.ListStudents(ctx, schoolID, true)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if len(students) == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "school has no active students")
	}

	if existing > 0 {
		if _, err := s.repo.DeleteFeesBySchoolMonth(ctx, schoolID, month); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace existing fees")
		}
	}

	created := 0
	for _, student := range students {
		totalFee, err := s.deriveTotalFee(ctx, &student)
		if err != nil {
			return "", err
		}
		fee := &Fee{
			ID:        uuid.NewString(),
			SchoolID:  student.SchoolID,
			StudentID: student.ID,
			Month:     month,
			TotalFee:  totalFee,
			CreatedAt: s.now().UTC(),
		}
		if err := s.repo.InsertFee(ctx, fee); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fees")
		}
		created++
	}

	s.logger.Info("monthly fees generated",
		zap.String("school_id", schoolID),
		zap.String("month", month),
		zap.Int("created", created),
	)
	return fmt.Sprintf("generated %d fee records for %s", created, month), nil
}

// UpdateFees applies the partial updates and echoes the updated records.
func (s *Service) UpdateFees(ctx context.Context, updates []FeePaymentUpdate) ([]models.FeeRecord, error) {
	echoed := make([]models.FeeRecord, 0, len(updates))
	for _, update := range updates {
		if err := s.repo.SaveFeePayment(ctx, update.ID, update.PaidAmount, update.DateReceived); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("fee %s not found", update.ID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee")
		}
		row, err := s.repo.GetFee(ctx, update.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload fee")
		}
		echoed = append(echoed, s.toRecord(*row))
	}
	return echoed, nil
}

// DeleteFees removes the given records.
func (s *Service) DeleteFees(ctx context.Context, ids []string) error {
	if _, err := s.repo.DeleteFees(ctx, ids); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fees")
	}
	return nil
}

// ListStudents returns the student summaries of a school.
func (s *Service) ListStudents(ctx context.Context, schoolID string) ([]models.StudentSummary, error) {
	students, err := s.repo.ListStudents(ctx, schoolID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	out := make([]models.StudentSummary, 0, len(students))
	for _, student := range students {
		out = append(out, models.StudentSummary{
			ID:           student.ID,
			FullName:     student.FullName,
			StudentClass: student.StudentClass,
			Active:       student.Active,
		})
	}
	return out, nil
}

// FeePaymentUpdate is one partial update entry.
type FeePaymentUpdate struct {
	ID           string
	PaidAmount   *float64
	DateReceived *time.Time
}

func (s *Service) deriveTotalFee(ctx context.Context, student *Student) (float64, error) {
	if student.MonthlyRate > 0 {
		return student.MonthlyRate, nil
	}

	school, err := s.repo.GetSchool(ctx, student.SchoolID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	active, err := s.repo.ListStudents(ctx, student.SchoolID, true)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active students")
	}
	if len(active) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "school has no active students to split the subscription across")
	}
	return school.SubscriptionAmount / float64(len(active)), nil
}

// toRecord computes balance and status on the way out; stored rows never
// carry derived values.
func (s *Service) toRecord(row FeeRow) models.FeeRecord {
	balance := row.TotalFee - row.PaidAmount

	status := models.FeeStatusPending
	if balance <= 0 {
		status = models.FeeStatusPaid
	} else if due, ok := monthEnd(row.Month); ok && s.now().After(due.Add(s.config.OverduePeriod)) {
		status = models.FeeStatusOverdue
	}

	return models.FeeRecord{
		ID:           row.ID,
		StudentID:    row.StudentID,
		StudentName:  row.StudentName,
		StudentClass: row.StudentClass,
		TotalFee:     row.TotalFee,
		PaidAmount:   row.PaidAmount,
		BalanceDue:   balance,
		DateReceived: row.DateReceived,
		Status:       status,
		Month:        row.Month,
	}
}

// monthEnd parses period identifiers like "Dec-2024" and returns the last
// instant of that month.
func monthEnd(month string) (time.Time, bool) {
	start, err := time.Parse("Jan-2006", month)
	if err != nil {
		return time.Time{}, false
	}
	return start.AddDate(0, 1, 0).Add(-time.Second), true
}
