package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"loan-dashboard/internal/common/errors"
	"loan-dashboard/internal/common/logger"
	"loan-dashboard/internal/common/metrics"
	"loan-dashboard/internal/models"
)

// Gateway is the remote loan service as the view needs it.
// *loanservice.Client implements it.
type Gateway interface {
	ListAll(ctx context.Context) ([]models.LoanApplication, error)
	ListByUser(ctx context.Context, userID string) ([]models.LoanApplication, error)
	UpdateStatus(ctx context.Context, applicationID string, status models.Status) error
	Disburse(ctx context.Context, applicationID string, amount decimal.Decimal) error
	ListEMIs(ctx context.Context, applicationID string) ([]models.EMIRecord, error)
	PayEMI(ctx context.Context, repaymentID string) error
}

type Phase string

const (
	PhaseIdle    Phase = "IDLE"
	PhaseLoading Phase = "LOADING"
	PhaseLoaded  Phase = "LOADED"
	PhaseFailed  Phase = "FAILED"
)

// User-facing messages.
const (
	MsgLoginRequired      = "Please log in to view your dashboard"
	MsgLoadFailed         = "Failed to load applications"
	MsgStatusFailed       = "Status update failed"
	MsgDisbursed          = "Loan disbursed!"
	MsgDisburseFailed     = "Disbursement failed"
	MsgEMILoadFailed      = "Failed to load EMI details"
	MsgEMIPaid            = "EMI payment successful!"
	MsgEMIPaymentFailed   = "Failed to process EMI payment"
	statusUpdatedTemplate = "Application %s!"
)

// Operation names carried on notifications and command metrics.
const (
	OpLoad         = "load"
	OpUpdateStatus = "update_status"
	OpDisburse     = "disburse"
	OpOpenEMIs     = "open_emis"
	OpPayEMI       = "pay_emi"
)

type ViewOptions struct {
	Principal *models.Principal
	Gateway   Gateway
	// Notifier receives every notification in addition to the view's inbox.
	Notifier  Notifier
	Logger    logger.Logger
	InboxSize int
	Clock     func() time.Time
}

// View is the state container behind one dashboard session. Operations are
// serialized; Snapshot may run while an operation is waiting on the network
// and then reports the in-progress phase.
type View struct {
	ops sync.Mutex // serializes operations
	mu  sync.Mutex // guards the fields below

	principal *models.Principal
	gateway   Gateway
	inbox     *Inbox
	notifier  Notifier
	logger    logger.Logger
	clock     func() time.Time

	phase        Phase
	err          error
	errMessage   string
	applications []models.LoanApplication
	searchQuery  string
	statusFilter string
	emi          emiDialog
}

func NewView(opts ViewOptions) *View {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	inbox := NewInbox(opts.InboxSize)
	var notifier Notifier = inbox
	if opts.Notifier != nil {
		notifier = MultiNotifier{inbox, opts.Notifier}
	}

	var principal *models.Principal
	if opts.Principal != nil {
		p := *opts.Principal
		principal = &p
	}

	fields := map[string]interface{}{"component": "dashboard-view"}
	if principal != nil {
		fields["userId"] = principal.ID
		fields["role"] = principal.Role
	}

	return &View{
		principal:    principal,
		gateway:      opts.Gateway,
		inbox:        inbox,
		notifier:     notifier,
		logger:       log.With(fields),
		clock:        clock,
		phase:        PhaseIdle,
		statusFilter: FilterAll,
		emi:          emiDialog{state: EMIClosed},
	}
}

// Principal returns a copy of the view's principal, nil when absent.
func (v *View) Principal() *models.Principal {
	if v.principal == nil {
		return nil
	}
	p := *v.principal
	return &p
}

// Mount is the first load. An invalid principal fails the view without any
// network call.
func (v *View) Mount(ctx context.Context) error {
	v.ops.Lock()
	defer v.ops.Unlock()
	return v.load(ctx)
}

// Refresh re-fetches the application list, replacing the cached list on
// success and emptying it on failure.
func (v *View) Refresh(ctx context.Context) error {
	v.ops.Lock()
	defer v.ops.Unlock()
	return v.load(ctx)
}

func (v *View) load(ctx context.Context) error {
	if !v.principal.Valid() {
		err := errors.NewNotAuthenticatedError("principal requires id and role")
		v.mu.Lock()
		v.phase = PhaseFailed
		v.err = err
		v.errMessage = err.Message
		v.applications = nil
		v.mu.Unlock()

		metrics.ViewLoads.WithLabelValues(metrics.OutcomeFailure).Inc()
		v.logger.Warn("Dashboard not mounted", map[string]interface{}{"reason": err.Message})
		v.notify(ctx, models.NotificationError, MsgLoginRequired, OpLoad, "")
		return err
	}

	v.mu.Lock()
	v.phase = PhaseLoading
	v.mu.Unlock()

	var (
		apps []models.LoanApplication
		err  error
	)
	if v.principal.IsAdmin() {
		apps, err = v.gateway.ListAll(ctx)
	} else {
		apps, err = v.gateway.ListByUser(ctx, v.principal.ID)
	}
	metrics.ViewLoads.WithLabelValues(metrics.Outcome(err)).Inc()

	if err != nil {
		message := errors.UserMessage(err, MsgLoadFailed)
		v.mu.Lock()
		v.phase = PhaseFailed
		v.err = err
		v.errMessage = message
		v.applications = nil
		v.mu.Unlock()

		v.logger.WithError(err).Error("Failed to load applications", map[string]interface{}{
			"errorCode": string(errors.CodeOf(err)),
		})
		v.notify(ctx, models.NotificationError, message, OpLoad, "")
		return err
	}

	if apps == nil {
		apps = []models.LoanApplication{}
	}
	v.mu.Lock()
	v.phase = PhaseLoaded
	v.err = nil
	v.errMessage = ""
	v.applications = apps
	v.mu.Unlock()

	v.logger.Debug("Applications loaded", map[string]interface{}{"count": len(apps)})
	return nil
}

func (v *View) SetSearchQuery(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.searchQuery = query
}

// SetStatusFilter accepts ALL, "" or a known status. Anything else is
// rejected and the current filter kept.
func (v *View) SetStatusFilter(statusFilter string) error {
	if err := ValidateStatusFilter(statusFilter); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if statusFilter == "" {
		statusFilter = FilterAll
	}
	v.statusFilter = statusFilter
	return nil
}

func (v *View) Approve(ctx context.Context, applicationID string) error {
	return v.UpdateStatus(ctx, applicationID, string(models.StatusApproved))
}

func (v *View) Reject(ctx context.Context, applicationID string) error {
	return v.UpdateStatus(ctx, applicationID, string(models.StatusRejected))
}

// UpdateStatus sends a status change and re-fetches the list once the loan
// service accepted it. The cached list is never changed optimistically.
func (v *View) UpdateStatus(ctx context.Context, applicationID, status string) error {
	target := models.Status(strings.ToUpper(strings.TrimSpace(status)))
	if !target.Valid() {
		return errors.NewInvalidCommandError("Unknown application status", fmt.Sprintf("status: %q", status))
	}
	if err := v.requirePrincipal(ctx, OpUpdateStatus, applicationID); err != nil {
		return err
	}

	v.ops.Lock()
	defer v.ops.Unlock()

	err := v.gateway.UpdateStatus(ctx, applicationID, target)
	metrics.CommandOutcomes.WithLabelValues(OpUpdateStatus, metrics.Outcome(err)).Inc()
	if err != nil {
		v.logger.WithError(err).Error("Status update failed", map[string]interface{}{
			"applicationId": applicationID,
			"status":        string(target),
		})
		v.notify(ctx, models.NotificationError, errors.UserMessage(err, MsgStatusFailed), OpUpdateStatus, applicationID)
		return err
	}

	v.logger.Info("Application status updated", map[string]interface{}{
		"applicationId": applicationID,
		"status":        string(target),
	})
	v.notify(ctx, models.NotificationSuccess,
		fmt.Sprintf(statusUpdatedTemplate, strings.ToLower(string(target))), OpUpdateStatus, applicationID)
	_ = v.load(ctx)
	return nil
}

// Disburse pays out the cached application's full loan amount. A zero or
// negative amount (e.g. one that failed to parse) is refused locally.
func (v *View) Disburse(ctx context.Context, applicationID string) error {
	if err := v.requirePrincipal(ctx, OpDisburse, applicationID); err != nil {
		return err
	}

	v.ops.Lock()
	defer v.ops.Unlock()

	app, ok := v.cachedApplication(applicationID)
	if !ok {
		return errors.NewInvalidCommandError("Unknown application", fmt.Sprintf("applicationId: %q", applicationID))
	}
	if !app.LoanAmount.IsPositive() {
		return errors.NewInvalidCommandError("Application has no payable loan amount",
			fmt.Sprintf("applicationId: %q, loanAmount: %s", applicationID, app.LoanAmount.String()))
	}

	err := v.gateway.Disburse(ctx, applicationID, app.LoanAmount)
	metrics.CommandOutcomes.WithLabelValues(OpDisburse, metrics.Outcome(err)).Inc()
	if err != nil {
		v.logger.WithError(err).Error("Disbursement failed", map[string]interface{}{
			"applicationId": applicationID,
			"amount":        app.LoanAmount.String(),
		})
		v.notify(ctx, models.NotificationError, errors.UserMessage(err, MsgDisburseFailed), OpDisburse, applicationID)
		return err
	}

	v.logger.Info("Loan disbursed", map[string]interface{}{
		"applicationId": applicationID,
		"amount":        app.LoanAmount.String(),
	})
	v.notify(ctx, models.NotificationSuccess, MsgDisbursed, OpDisburse, applicationID)
	_ = v.load(ctx)
	return nil
}

func (v *View) cachedApplication(applicationID string) (models.LoanApplication, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, app := range v.applications {
		if app.ApplicationID == applicationID {
			return app, true
		}
	}
	return models.LoanApplication{}, false
}

// requirePrincipal fails a command for a view without a usable principal.
// Role is not checked; the loan service decides.
func (v *View) requirePrincipal(ctx context.Context, operation, applicationID string) error {
	if v.principal.Valid() {
		return nil
	}
	v.notify(ctx, models.NotificationError, MsgLoginRequired, operation, applicationID)
	return errors.NewNotAuthenticatedError("principal requires id and role")
}

func (v *View) notify(ctx context.Context, level models.NotificationLevel, message, operation, applicationID string) {
	v.notifier.Notify(ctx, models.Notification{
		Level:         level,
		Message:       message,
		Operation:     operation,
		ApplicationID: applicationID,
		At:            v.clock().UTC(),
	})
}

// ApplicationCard is a filtered application with the actions offered on it.
type ApplicationCard struct {
	models.LoanApplication
	Actions []Action `json:"actions"`
}

// Snapshot is everything a renderer needs, computed under one lock.
type Snapshot struct {
	Phase              Phase                 `json:"phase"`
	Error              string                `json:"error,omitempty"`
	ErrorCode          errors.ErrorCode      `json:"errorCode,omitempty"`
	Empty              bool                  `json:"empty"`
	SearchQuery        string                `json:"searchQuery"`
	StatusFilter       string                `json:"statusFilter"`
	TotalApplications  int                   `json:"totalApplications"`
	Applications       []ApplicationCard     `json:"applications"`
	StatusDistribution []StatusSlice         `json:"statusDistribution"`
	MonthlyTrend       []MonthBucket         `json:"monthlyTrend"`
	AmountByPurpose    []PurposeAmount       `json:"amountByPurpose"`
	EMIDialog          EMIDialogSnapshot     `json:"emiDialog"`
	Notifications      []models.Notification `json:"notifications"`
}

// Snapshot returns the current state and drains pending notifications.
// Charts cover the whole cached list; only Applications is filtered.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	apps := v.applications
	snap := Snapshot{
		Phase:        v.phase,
		Error:        v.errMessage,
		ErrorCode:    errors.CodeOf(v.err),
		Empty:        v.phase == PhaseLoaded && len(apps) == 0,
		SearchQuery:  v.searchQuery,
		StatusFilter: v.statusFilter,
		EMIDialog:    v.emi.snapshot(),
	}
	query, filter := v.searchQuery, v.statusFilter
	v.mu.Unlock()

	filtered := Filter(apps, query, filter)
	cards := make([]ApplicationCard, 0, len(filtered))
	for _, app := range filtered {
		cards = append(cards, ApplicationCard{
			LoanApplication: app,
			Actions:         nonNil(AvailableActions(v.principal, app)),
		})
	}

	snap.TotalApplications = len(apps)
	snap.Applications = cards
	snap.StatusDistribution = StatusDistribution(apps)
	snap.MonthlyTrend = MonthlyTrend(apps)
	snap.AmountByPurpose = AmountByPurpose(apps)
	snap.Notifications = v.inbox.Drain()
	return snap
}

func nonNil(actions []Action) []Action {
	if actions == nil {
		return []Action{}
	}
	return actions
}
