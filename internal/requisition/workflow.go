package requisition

import (
	"errors"
	"fmt"

	"requisition-form-api-server/internal/models"
)

var ErrTransitionNotAllowed = errors.New("status transition not allowed")

// TransitionPolicy is an adjacency table of permitted status moves.
// The zero value permits every move, including self-loops and backward moves.
type TransitionPolicy struct {
	allowed map[models.Status]map[models.Status]bool
}

func PermissivePolicy() TransitionPolicy {
	return TransitionPolicy{}
}

// NewTransitionPolicy builds a policy from config. Keys and targets may be status codes in
// any case or display labels. An empty table yields the permissive policy.
func NewTransitionPolicy(table map[string][]string) (TransitionPolicy, error) {
	if len(table) == 0 {
		return PermissivePolicy(), nil
	}
	allowed := make(map[models.Status]map[models.Status]bool, len(table))
	for from, targets := range table {
		fromStatus, err := models.ParseStatus(from)
		if err != nil {
			return TransitionPolicy{}, fmt.Errorf("workflow.transitions: %w", err)
		}
		next := make(map[models.Status]bool, len(targets))
		for _, to := range targets {
			toStatus, err := models.ParseStatus(to)
			if err != nil {
				return TransitionPolicy{}, fmt.Errorf("workflow.transitions[%s]: %w", from, err)
			}
			next[toStatus] = true
		}
		allowed[fromStatus] = next
	}
	return TransitionPolicy{allowed: allowed}, nil
}

func (p TransitionPolicy) Permissive() bool {
	return p.allowed == nil
}

func (p TransitionPolicy) Allows(from, to models.Status) bool {
	if p.allowed == nil {
		return true
	}
	return p.allowed[from][to]
}

// Next lists the statuses reachable from s, in workflow order.
func (p TransitionPolicy) Next(from models.Status) []models.Status {
	var out []models.Status
	for _, s := range models.Statuses() {
		if p.Allows(from, s) {
			out = append(out, s)
		}
	}
	return out
}

// Partition splits records into those still awaiting the purchase committee and the rest,
// keeping relative order in both.
func Partition(records []models.Requisition) (notYetProcessed, processed []models.Requisition) {
	notYetProcessed = []models.Requisition{}
	processed = []models.Requisition{}
	for _, r := range records {
		if r.Status == models.InitialStatus {
			notYetProcessed = append(notYetProcessed, r)
		} else {
			processed = append(processed, r)
		}
	}
	return notYetProcessed, processed
}
