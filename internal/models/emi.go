package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EMIStatus string

const (
	EMIStatusPending EMIStatus = "PENDING"
	EMIStatusPaid    EMIStatus = "PAID"
)

// EMIRecord is one installment of a disbursed loan.
type EMIRecord struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"applicationId"`
	EMINumber     int             `json:"emiNumber"`
	DueDate       time.Time       `json:"dueDate"`
	Amount        decimal.Decimal `json:"amount"`
	Status        EMIStatus       `json:"status"`
}

// Payable is true for every installment that is not yet PAID.
func (e EMIRecord) Payable() bool {
	return e.Status != EMIStatusPaid
}
