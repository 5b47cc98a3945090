package workflow

import (
	"strings"

	"github.com/Additional-Code/brewbar/pkg/errorbank"
)

// Status is the lifecycle state of a persisted order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// All lists every valid status in lifecycle order.
var All = []Status{StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled}

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// Valid reports whether s is one of the fixed statuses.
func (s Status) Valid() bool {
	for _, candidate := range All {
		if s == candidate {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Parse validates raw against the fixed status set. Matching is exact and case-sensitive.
func Parse(raw string) (Status, error) {
	status := Status(raw)
	if !status.Valid() {
		return "", errorbank.BadRequest(
			"status must be one of: "+joinStatuses(All),
			errorbank.WithDetail("status", raw),
		)
	}
	return status, nil
}

func joinStatuses(statuses []Status) string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
