// Package dashboard holds the loan dashboard's derived views and the
// per-session view state container.
package dashboard

import (
	"strings"

	"loan-dashboard/internal/common/errors"
	"loan-dashboard/internal/models"
)

// FilterAll is the status filter that matches every application. The empty
// string is accepted as an equivalent wildcard.
const FilterAll = "ALL"

func isWildcard(statusFilter string) bool {
	return statusFilter == FilterAll || statusFilter == ""
}

// Matches reports whether app passes both the free-text search (name or
// purpose, case-insensitive substring) and the exact status filter.
func Matches(app models.LoanApplication, searchQuery, statusFilter string) bool {
	return matchesSearch(app, strings.ToLower(searchQuery)) && matchesStatus(app, statusFilter)
}

func matchesSearch(app models.LoanApplication, loweredQuery string) bool {
	if loweredQuery == "" {
		return true
	}
	return strings.Contains(strings.ToLower(app.Name), loweredQuery) ||
		strings.Contains(strings.ToLower(app.Purpose), loweredQuery)
}

func matchesStatus(app models.LoanApplication, statusFilter string) bool {
	return isWildcard(statusFilter) || string(app.Status) == statusFilter
}

// Filter returns the matching applications in input order. The input slice
// is not modified.
func Filter(apps []models.LoanApplication, searchQuery, statusFilter string) []models.LoanApplication {
	lowered := strings.ToLower(searchQuery)
	out := make([]models.LoanApplication, 0, len(apps))
	for _, app := range apps {
		if matchesSearch(app, lowered) && matchesStatus(app, statusFilter) {
			out = append(out, app)
		}
	}
	return out
}

// ValidateStatusFilter accepts the wildcards and the known status values.
func ValidateStatusFilter(statusFilter string) error {
	if isWildcard(statusFilter) || models.Status(statusFilter).Valid() {
		return nil
	}
	return errors.NewInvalidFilterError(statusFilter)
}
