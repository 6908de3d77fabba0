package dto

import (
	"fmt"
	"time"

	"github.com/noah-isme/sma-fee-sync/internal/models"
)

// DateLayout is the wire format for payment dates.
const DateLayout = "2006-01-02"

// FeeRecord is the gateway wire shape of a fee record.
type FeeRecord struct {
	ID           string  `json:"id"`
	StudentID    string  `json:"student_id"`
	StudentName  string  `json:"student_name"`
	StudentClass string  `json:"student_class"`
	TotalFee     float64 `json:"total_fee"`
	PaidAmount   float64 `json:"paid_amount"`
	BalanceDue   float64 `json:"balance_due"`
	DateReceived *string `json:"date_received,omitempty"`
	Status       string  `json:"status"`
	Month        string  `json:"month"`
}

// CreateBatchRequest is the payload of POST /fees/create.
type CreateBatchRequest struct {
	SchoolID       string `json:"school_id" validate:"required"`
	Month          string `json:"month" validate:"required"`
	ForceOverwrite bool   `json:"force_overwrite"`
}

// CreateBatchResponse is the success body of POST /fees/create.
type CreateBatchResponse struct {
	Message string `json:"message"`
}

// BatchConflict is the 409 body of POST /fees/create.
type BatchConflict struct {
	Warning string `json:"warning"`
}

// CreateSingleRequest is the payload of POST /fees/create-single. The client
// never supplies total_fee; the gateway derives it.
type CreateSingleRequest struct {
	StudentID  string  `json:"student_id" validate:"required"`
	Month      string  `json:"month" validate:"required"`
	PaidAmount float64 `json:"paid_amount" validate:"gte=0"`
}

// SingleConflict is the 409 body of POST /fees/create-single.
type SingleConflict struct {
	ExistingFeeID string `json:"existing_fee_id"`
}

// FeeUpdate is one entry of the POST /fees/update payload. Nil fields are
// left untouched by the gateway.
type FeeUpdate struct {
	ID           string   `json:"id" validate:"required"`
	PaidAmount   *float64 `json:"paid_amount,omitempty"`
	DateReceived *string  `json:"date_received,omitempty"`
}

// UpdateRequest is the payload of POST /fees/update.
type UpdateRequest struct {
	Fees []FeeUpdate `json:"fees" validate:"required,min=1,dive"`
}

// UpdateResponse echoes the updated records.
type UpdateResponse struct {
	Fees []FeeRecord `json:"fees"`
}

// DeleteRequest is the payload of POST /fees/delete.
type DeleteRequest struct {
	FeeIDs []string `json:"fee_ids" validate:"required,min=1"`
}

// Student is the wire shape of a student summary.
type Student struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	StudentClass string `json:"student_class"`
	Active       bool   `json:"active"`
}

// ToModel converts a wire fee record to the domain model, normalising a
// missing or empty date to nil.
func (f FeeRecord) ToModel() (models.FeeRecord, error) {
	rec := models.FeeRecord{
		ID:           f.ID,
		StudentID:    f.StudentID,
		StudentName:  f.StudentName,
		StudentClass: f.StudentClass,
		TotalFee:     f.TotalFee,
		PaidAmount:   f.PaidAmount,
		BalanceDue:   f.BalanceDue,
		Status:       models.FeeStatus(f.Status),
		Month:        f.Month,
	}

	if f.DateReceived != nil && *f.DateReceived != "" {
		ts, err := time.Parse(DateLayout, *f.DateReceived)
		if err != nil {
			return models.FeeRecord{}, fmt.Errorf("parse date_received for fee %s: %w", f.ID, err)
		}
		rec.DateReceived = &ts
	}

	return rec, nil
}

// FeesToModels converts a slice of wire records.
func FeesToModels(in []FeeRecord) ([]models.FeeRecord, error) {
	out := make([]models.FeeRecord, 0, len(in))
	for _, f := range in {
		rec, err := f.ToModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// FeeFromModel converts a domain record to its wire shape.
func FeeFromModel(rec models.FeeRecord) FeeRecord {
	f := FeeRecord{
		ID:           rec.ID,
		StudentID:    rec.StudentID,
		StudentName:  rec.StudentName,
		StudentClass: rec.StudentClass,
		TotalFee:     rec.TotalFee,
		PaidAmount:   rec.PaidAmount,
		BalanceDue:   rec.BalanceDue,
		Status:       string(rec.Status),
		Month:        rec.Month,
	}
	if rec.DateReceived != nil {
		formatted := rec.DateReceived.Format(DateLayout)
		f.DateReceived = &formatted
	}
	return f
}

// FeesFromModels converts a slice of domain records.
func FeesFromModels(in []models.FeeRecord) []FeeRecord {
	out := make([]FeeRecord, 0, len(in))
	for _, rec := range in {
		out = append(out, FeeFromModel(rec))
	}
	return out
}

// ToModel converts a wire student summary.
func (s Student) ToModel() models.StudentSummary {
	return models.StudentSummary{
		ID:           s.ID,
		FullName:     s.FullName,
		StudentClass: s.StudentClass,
		Active:       s.Active,
	}
}

// StudentsToModels converts a slice of wire student summaries.
func StudentsToModels(in []Student) []models.StudentSummary {
	out := make([]models.StudentSummary, 0, len(in))
	for _, s := range in {
		out = append(out, s.ToModel())
	}
	return out
}

// StudentFromModel converts a domain student summary to its wire shape.
func StudentFromModel(s models.StudentSummary) Student {
	return Student{
		ID:           s.ID,
		FullName:     s.FullName,
		StudentClass: s.StudentClass,
		Active:       s.Active,
	}
}
