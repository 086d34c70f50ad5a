package dashboard

import "loan-dashboard/internal/models"

// Action is a command a renderer may offer on an application card.
type Action string

const (
	ActionApprove  Action = "APPROVE"
	ActionReject   Action = "REJECT"
	ActionDisburse Action = "DISBURSE"
	ActionViewEMIs Action = "VIEW_EMIS"
)

// AvailableActions lists the card actions for principal on app. The list is
// advisory: commands are not refused when an action is absent, since the loan
// service enforces authorization.
func AvailableActions(principal *models.Principal, app models.LoanApplication) []Action {
	if !principal.Valid() {
		return nil
	}
	if principal.IsAdmin() {
		switch app.Status {
		case models.StatusPending:
			return []Action{ActionApprove, ActionReject}
		case models.StatusApproved:
			return []Action{ActionDisburse}
		}
		return nil
	}
	if app.Status == models.StatusDisbursed {
		return []Action{ActionViewEMIs}
	}
	return nil
}
