package models

// StudentSummary is the slim student projection used by the single-fee
// creation picker.
type StudentSummary struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	StudentClass string `json:"studentClass"`
	Active       bool   `json:"active"`
}
