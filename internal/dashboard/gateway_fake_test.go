package dashboard

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"loan-dashboard/internal/models"
)

type call struct {
	op     string
	id     string
	status models.Status
	amount decimal.Decimal
}

// fakeGateway records calls and answers from its fields.
type fakeGateway struct {
	mu    sync.Mutex
	calls []call

	apps    []models.LoanApplication
	listErr error

	updateErr   error
	disburseErr error

	emis    map[string][]models.EMIRecord
	emisErr error
	payErr  error

	// onUpdate runs after a successful update, e.g. to change what the next
	// list returns.
	onUpdate func(id string, status models.Status)
	// block, when set, is waited on inside ListAll/ListByUser.
	block chan struct{}
}

func (f *fakeGateway) record(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeGateway) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.op)
	}
	return out
}

func (f *fakeGateway) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeGateway) list() ([]models.LoanApplication, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.LoanApplication(nil), f.apps...), nil
}

func (f *fakeGateway) ListAll(ctx context.Context) ([]models.LoanApplication, error) {
	f.record(call{op: "ListAll"})
	return f.list()
}

func (f *fakeGateway) ListByUser(ctx context.Context, userID string) ([]models.LoanApplication, error) {
	f.record(call{op: "ListByUser", id: userID})
	return f.list()
}

func (f *fakeGateway) UpdateStatus(ctx context.Context, applicationID string, status models.Status) error {
	f.record(call{op: "UpdateStatus", id: applicationID, status: status})
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.onUpdate != nil {
		f.onUpdate(applicationID, status)
	}
	return nil
}

func (f *fakeGateway) Disburse(ctx context.Context, applicationID string, amount decimal.Decimal) error {
	f.record(call{op: "Disburse", id: applicationID, amount: amount})
	return f.disburseErr
}

func (f *fakeGateway) ListEMIs(ctx context.Context, applicationID string) ([]models.EMIRecord, error) {
	f.record(call{op: "ListEMIs", id: applicationID})
	if f.emisErr != nil {
		return nil, f.emisErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.EMIRecord(nil), f.emis[applicationID]...), nil
}

func (f *fakeGateway) PayEMI(ctx context.Context, repaymentID string) error {
	f.record(call{op: "PayEMI", id: repaymentID})
	if f.payErr != nil {
		return f.payErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for appID, records := range f.emis {
		for i := range records {
			if records[i].ID == repaymentID {
				records[i].Status = models.EMIStatusPaid
				f.emis[appID] = records
			}
		}
	}
	return nil
}
