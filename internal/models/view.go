package models

// SortColumn identifies a sortable column of the fee table.
type SortColumn string

const (
	SortByStudentName  SortColumn = "student_name"
	SortByStudentClass SortColumn = "student_class"
	SortByTotalFee     SortColumn = "total_fee"
	SortByPaidAmount   SortColumn = "paid_amount"
	SortByBalanceDue   SortColumn = "balance_due"
	SortByDateReceived SortColumn = "date_received"
	SortByStatus       SortColumn = "status"
)

// SortState captures the chosen column and direction.
type SortState struct {
	Column     SortColumn `json:"column"`
	Descending bool       `json:"descending"`
}

// Totals aggregates amounts over a set of fee records.
type Totals struct {
	TotalFee   float64 `json:"totalFee"`
	PaidAmount float64 `json:"paidAmount"`
	BalanceDue float64 `json:"balanceDue"`
	Count      int     `json:"count"`
}

// ClassGroup is one class bucket of the derived view with its subtotal.
type ClassGroup struct {
	StudentClass string      `json:"studentClass"`
	Fees         []FeeRecord `json:"fees"`
	Subtotal     Totals      `json:"subtotal"`
}

// FeeView is the fully derived presentation of the current store contents:
// search-filtered, sorted, grouped by class, with subtotals and grand totals.
type FeeView struct {
	Fees   []FeeRecord  `json:"fees"`
	Groups []ClassGroup `json:"groups"`
	Totals Totals       `json:"totals"`
	Sort   SortState    `json:"sort"`
}
