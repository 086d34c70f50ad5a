package dashboard

import (
	"sort"

	"github.com/shopspring/decimal"

	"loan-dashboard/internal/models"
)

// StatusSlice is one wedge of the status distribution chart.
type StatusSlice struct {
	Label    string        `json:"label"`
	Status   models.Status `json:"status"`
	Count    int           `json:"count"`
	ColorKey string        `json:"colorKey"`
}

// MonthBucket counts submissions per calendar month.
type MonthBucket struct {
	Period              string `json:"period"`
	Total               int    `json:"total"`
	ApprovedOrDisbursed int    `json:"approvedOrDisbursed"`
}

type PurposeAmount struct {
	Purpose     string          `json:"purpose"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// chartedStatuses fixes the order and colors of the distribution. CLOSED is
// not charted.
var chartedStatuses = []struct {
	status   models.Status
	label    string
	colorKey string
}{
	{models.StatusPending, "Pending", "warning"},
	{models.StatusApproved, "Approved", "success"},
	{models.StatusRejected, "Rejected", "error"},
	{models.StatusDisbursed, "Disbursed", "primary"},
}

// StatusDistribution counts applications per charted status, omitting
// statuses with no applications.
func StatusDistribution(apps []models.LoanApplication) []StatusSlice {
	counts := make(map[models.Status]int, len(chartedStatuses))
	for _, app := range apps {
		counts[app.Status]++
	}

	out := make([]StatusSlice, 0, len(chartedStatuses))
	for _, c := range chartedStatuses {
		if n := counts[c.status]; n > 0 {
			out = append(out, StatusSlice{Label: c.label, Status: c.status, Count: n, ColorKey: c.colorKey})
		}
	}
	return out
}

// MonthlyTrend buckets applications by the YYYY-MM of their timestamp as sent.
// Applications without a timestamp are skipped.
func MonthlyTrend(apps []models.LoanApplication) []MonthBucket {
	buckets := make(map[string]*MonthBucket)
	for _, app := range apps {
		if !app.HasTimestamp() {
			continue
		}
		period := app.SubmittedAt.Format("2006-01")
		b, ok := buckets[period]
		if !ok {
			b = &MonthBucket{Period: period}
			buckets[period] = b
		}
		b.Total++
		if app.Status == models.StatusApproved || app.Status == models.StatusDisbursed {
			b.ApprovedOrDisbursed++
		}
	}

	out := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// AmountByPurpose sums loan amounts per exact purpose in first-seen order.
// Applications without a purpose are skipped.
func AmountByPurpose(apps []models.LoanApplication) []PurposeAmount {
	index := make(map[string]int)
	var out []PurposeAmount
	for _, app := range apps {
		if app.Purpose == "" {
			continue
		}
		i, ok := index[app.Purpose]
		if !ok {
			i = len(out)
			index[app.Purpose] = i
			out = append(out, PurposeAmount{Purpose: app.Purpose, TotalAmount: decimal.Zero})
		}
		out[i].TotalAmount = out[i].TotalAmount.Add(app.LoanAmount)
	}
	if out == nil {
		out = []PurposeAmount{}
	}
	return out
}
