package models

import "time"

// FeeStatus is computed by the fee gateway, never locally.
type FeeStatus string

const (
	FeeStatusPaid    FeeStatus = "Paid"
	FeeStatusPending FeeStatus = "Pending"
	FeeStatusOverdue FeeStatus = "Overdue"
)

// FeeRecord is one student's fee obligation and payment state for one month.
// DateReceived is nil when no payment date exists; nil is the only absent
// marker used anywhere in the module.
type FeeRecord struct {
	ID           string     `json:"id"`
	StudentID    string     `json:"studentId"`
	StudentName  string     `json:"studentName"`
	StudentClass string     `json:"studentClass"`
	TotalFee     float64    `json:"totalFee"`
	PaidAmount   float64    `json:"paidAmount"`
	BalanceDue   float64    `json:"balanceDue"`
	DateReceived *time.Time `json:"dateReceived,omitempty"`
	Status       FeeStatus  `json:"status"`
	Month        string     `json:"month"`
}

// FeeFilter is the active filter scope driving what is loaded and displayed.
type FeeFilter struct {
	SchoolID     string `json:"schoolId"`
	StudentClass string `json:"studentClass"`
	Month        string `json:"month"`
	Search       string `json:"search"`
}

// ScopeEmpty reports whether the filter selects nothing loadable. Both school
// and class unset means "not yet filtered", which never triggers a fetch.
func (f FeeFilter) ScopeEmpty() bool {
	return f.SchoolID == "" && f.StudentClass == ""
}

// FeeFilterPatch carries a partial filter update; nil fields are left as-is.
type FeeFilterPatch struct {
	SchoolID     *string `json:"schoolId"`
	StudentClass *string `json:"studentClass"`
	Month        *string `json:"month"`
	Search       *string `json:"search"`
}

// FeePatch holds the fields the gateway echoes back after an update. Only
// these are merged onto the matching store entry.
type FeePatch struct {
	PaidAmount   float64
	BalanceDue   float64
	Status       FeeStatus
	DateReceived *time.Time
}
