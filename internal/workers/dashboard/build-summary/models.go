package buildsummary

import "loan-dashboard/internal/dashboard"

type Input struct {
	UserID       string `json:"userId"`
	Role         string `json:"role"`
	SearchQuery  string `json:"searchQuery,omitempty"`
	StatusFilter string `json:"statusFilter,omitempty"`
}

// Output is written back as process variables.
type Output struct {
	Phase                dashboard.Phase           `json:"phase"`
	TotalApplications    int                       `json:"totalApplications"`
	FilteredApplications int                       `json:"filteredApplications"`
	StatusDistribution   []dashboard.StatusSlice   `json:"statusDistribution"`
	MonthlyTrend         []dashboard.MonthBucket   `json:"monthlyTrend"`
	AmountByPurpose      []dashboard.PurposeAmount `json:"amountByPurpose"`
}
