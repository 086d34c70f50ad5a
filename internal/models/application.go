package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a loan application.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusDisbursed Status = "DISBURSED"
	StatusClosed    Status = "CLOSED"
)

// Statuses lists every known application status in display order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusDisbursed, StatusClosed}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// LoanApplication is the canonical application record. Every field has been
// normalized at the gateway boundary; see NormalizeApplication.
type LoanApplication struct {
	ApplicationID string          `json:"applicationId"`
	UserID        string          `json:"userId,omitempty"`
	Name          string          `json:"name"`
	Profession    string          `json:"profession"`
	Purpose       string          `json:"purpose"`
	LoanAmount    decimal.Decimal `json:"loanAmount"`
	CreditScore   int             `json:"creditScore"`
	Status        Status          `json:"status"`

	// SubmittedAt is zero when the record carried no parseable timestamp.
	SubmittedAt  time.Time `json:"submittedAt,omitempty"`
	RawTimestamp string    `json:"rawTimestamp,omitempty"`
}

// HasTimestamp reports whether the record can be bucketed by month.
func (a LoanApplication) HasTimestamp() bool {
	return !a.SubmittedAt.IsZero()
}
