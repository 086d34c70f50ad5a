package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"loan-dashboard/internal/models"
)

func TestAvailableActions(t *testing.T) {
	admin := &models.Principal{ID: "a1", Role: models.RoleAdmin}
	borrower := &models.Principal{ID: "u1", Role: "USER"}

	tests := []struct {
		name      string
		principal *models.Principal
		status    models.Status
		want      []Action
	}{
		{"admin pending", admin, models.StatusPending, []Action{ActionApprove, ActionReject}},
		{"admin approved", admin, models.StatusApproved, []Action{ActionDisburse}},
		{"admin disbursed", admin, models.StatusDisbursed, nil},
		{"borrower disbursed", borrower, models.StatusDisbursed, []Action{ActionViewEMIs}},
		{"borrower pending", borrower, models.StatusPending, nil},
		{"no principal", nil, models.StatusPending, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AvailableActions(tt.principal, app("1", tt.status, "", ""))
			assert.Equal(t, tt.want, got)
		})
	}
}
