package dashboard

import (
	"context"

	"loan-dashboard/internal/common/errors"
	"loan-dashboard/internal/common/metrics"
	"loan-dashboard/internal/models"
)

type EMIDialogState string

const (
	EMIClosed  EMIDialogState = "CLOSED"
	EMILoading EMIDialogState = "LOADING"
	EMIOpen    EMIDialogState = "OPEN"
	EMIEmpty   EMIDialogState = "EMPTY"
)

// emiDialog is the EMI schedule of at most one application at a time.
type emiDialog struct {
	state         EMIDialogState
	applicationID string
	records       []models.EMIRecord
}

type EMIDialogSnapshot struct {
	State         EMIDialogState     `json:"state"`
	ApplicationID string             `json:"applicationId,omitempty"`
	Records       []models.EMIRecord `json:"records"`
}

func (d emiDialog) snapshot() EMIDialogSnapshot {
	records := d.records
	if records == nil {
		records = []models.EMIRecord{}
	}
	return EMIDialogSnapshot{State: d.state, ApplicationID: d.applicationID, Records: records}
}

// OpenEMIs loads the schedule of applicationID, discarding any schedule
// shown before. Ownership is not checked here.
func (v *View) OpenEMIs(ctx context.Context, applicationID string) error {
	if err := v.requirePrincipal(ctx, OpOpenEMIs, applicationID); err != nil {
		return err
	}

	v.ops.Lock()
	defer v.ops.Unlock()
	return v.fetchEMIs(ctx, applicationID)
}

func (v *View) fetchEMIs(ctx context.Context, applicationID string) error {
	v.mu.Lock()
	v.emi = emiDialog{state: EMILoading, applicationID: applicationID}
	v.mu.Unlock()

	records, err := v.gateway.ListEMIs(ctx, applicationID)
	metrics.CommandOutcomes.WithLabelValues(OpOpenEMIs, metrics.Outcome(err)).Inc()
	if err != nil {
		v.mu.Lock()
		v.emi = emiDialog{state: EMIClosed}
		v.mu.Unlock()

		v.logger.WithError(err).Error("Failed to load EMI details", map[string]interface{}{
			"applicationId": applicationID,
		})
		v.notify(ctx, models.NotificationError, errors.UserMessage(err, MsgEMILoadFailed), OpOpenEMIs, applicationID)
		return err
	}

	state := EMIOpen
	if len(records) == 0 {
		state = EMIEmpty
	}
	v.mu.Lock()
	v.emi = emiDialog{state: state, applicationID: applicationID, records: records}
	v.mu.Unlock()
	return nil
}

// PayEMI pays one installment and then re-fetches only that application's
// schedule. An empty applicationID means the application in the dialog.
func (v *View) PayEMI(ctx context.Context, repaymentID, applicationID string) error {
	if err := v.requirePrincipal(ctx, OpPayEMI, applicationID); err != nil {
		return err
	}

	v.ops.Lock()
	defer v.ops.Unlock()

	if applicationID == "" {
		v.mu.Lock()
		applicationID = v.emi.applicationID
		v.mu.Unlock()
	}
	if repaymentID == "" {
		return errors.NewInvalidCommandError("Repayment id is required", "")
	}

	err := v.gateway.PayEMI(ctx, repaymentID)
	metrics.CommandOutcomes.WithLabelValues(OpPayEMI, metrics.Outcome(err)).Inc()
	if err != nil {
		v.logger.WithError(err).Error("EMI payment failed", map[string]interface{}{
			"repaymentId":   repaymentID,
			"applicationId": applicationID,
		})
		v.notify(ctx, models.NotificationError, errors.UserMessage(err, MsgEMIPaymentFailed), OpPayEMI, applicationID)
		return err
	}

	v.logger.Info("EMI paid", map[string]interface{}{
		"repaymentId":   repaymentID,
		"applicationId": applicationID,
	})
	v.notify(ctx, models.NotificationSuccess, MsgEMIPaid, OpPayEMI, applicationID)
	if applicationID != "" {
		_ = v.fetchEMIs(ctx, applicationID)
	}
	return nil
}

// CloseEMIs discards the dialog's schedule.
func (v *View) CloseEMIs() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.emi = emiDialog{state: EMIClosed}
}
