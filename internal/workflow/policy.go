package workflow

import (
	"fmt"

	"github.com/Additional-Code/brewbar/pkg/errorbank"
)

// Policy decides which stored statuses may move to a requested status.
type Policy interface {
	Name() string
	// Sources returns the statuses from which target is reachable, target included.
	Sources(target Status) []Status
}

// NewPolicy resolves a policy by its configured name.
func NewPolicy(name string) (Policy, error) {
	switch name {
	case "", PolicyForward:
		return forwardPolicy{}, nil
	case PolicyOpen:
		return openPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown status policy %q", name)
	}
}

const (
	PolicyForward = "forward"
	PolicyOpen    = "open"
)

// forwardPolicy walks pending, preparing, ready, delivered in order. Any
// non-terminal order may be cancelled and re-applying the current status is a no-op.
type forwardPolicy struct{}

func (forwardPolicy) Name() string { return PolicyForward }

func (forwardPolicy) Sources(target Status) []Status {
	switch target {
	case StatusPending:
		return []Status{StatusPending}
	case StatusPreparing:
		return []Status{StatusPending, StatusPreparing}
	case StatusReady:
		return []Status{StatusPreparing, StatusReady}
	case StatusDelivered:
		return []Status{StatusReady, StatusDelivered}
	case StatusCancelled:
		return []Status{StatusPending, StatusPreparing, StatusReady, StatusCancelled}
	default:
		return nil
	}
}

// openPolicy accepts any valid status from any other.
type openPolicy struct{}

func (openPolicy) Name() string { return PolicyOpen }

func (openPolicy) Sources(target Status) []Status {
	if !target.Valid() {
		return nil
	}
	return All
}

// Allowed reports whether p permits moving from one status to another.
func Allowed(p Policy, from, to Status) bool {
	for _, s := range p.Sources(to) {
		if s == from {
			return true
		}
	}
	return false
}

// Check returns a conflict error when p forbids the move.
func Check(p Policy, from, to Status) error {
	if Allowed(p, from, to) {
		return nil
	}
	return errorbank.Conflict(
		fmt.Sprintf("cannot move order from %s to %s", from, to),
		errorbank.WithDetails(map[string]any{"from": string(from), "to": string(to), "policy": p.Name()}),
	)
}
