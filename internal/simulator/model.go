package simulator

import "time"

// School holds the billing configuration used to derive fees when a student
// has no individual rate.
type School struct {
	ID                 string  `db:"id"`
	Name               string  `db:"name"`
	SubscriptionAmount float64 `db:"subscription_amount"`
}

// Student is the simulator-side student row.
type Student struct {
	ID           string  `db:"id"`
	SchoolID     string  `db:"school_id"`
	FullName     string  `db:"full_name"`
	StudentClass string  `db:"student_class"`
	Active       bool    `db:"active"`
	MonthlyRate  float64 `db:"monthly_rate"`
}

// Fee is the persisted fee row. Balance and status are computed on read,
// never stored.
type Fee struct {
	ID           string     `db:"id"`
	SchoolID     string     `db:"school_id"`
	StudentID    string     `db:"student_id"`
	Month        string     `db:"month"`
	TotalFee     float64    `db:"total_fee"`
	PaidAmount   float64    `db:"paid_amount"`
	DateReceived *time.Time `db:"date_received"`
	CreatedAt    time.Time  `db:"created_at"`
}

// FeeRow is a fee joined with its student's display fields.
type FeeRow struct {
	Fee
	StudentName  string `db:"student_name"`
	StudentClass string `db:"student_class"`
}

// User is a simulator login account.
type User struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	FullName     string `db:"full_name"`
	PasswordHash string `db:"password_hash"`
}

// FeeQuery filters the fee listing.
type FeeQuery struct {
	SchoolID     string
	StudentClass string
	Month        string
}
