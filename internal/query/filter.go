// Package query holds the pure filters applied to loaded requisition sets. None of them
// mutate or reorder their input.
package query

import (
	"strings"

	"requisition-form-api-server/internal/models"
)

// FilterByName keeps records whose requester name contains substring, ignoring case.
// An empty substring returns records unchanged.
func FilterByName(records []models.Requisition, substring string) []models.Requisition {
	if substring == "" {
		return records
	}
	needle := strings.ToLower(substring)
	out := make([]models.Requisition, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.RequesterName), needle) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByNumber keeps records whose request number equals exact, ignoring case.
// An empty value returns records unchanged.
func FilterByNumber(records []models.Requisition, exact string) []models.Requisition {
	if exact == "" {
		return records
	}
	out := make([]models.Requisition, 0, 1)
	for _, r := range records {
		if strings.EqualFold(r.RequestNumber, exact) {
			out = append(out, r)
		}
	}
	return out
}

// Apply runs the name filter, then the number filter.
func Apply(records []models.Requisition, name, number string) []models.Requisition {
	return FilterByNumber(FilterByName(records, name), number)
}
