package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAgentInactive      = errors.New("agent is not active")
	ErrDuplicateReference = errors.New("duplicate reference id")
	ErrPayoutInFlight     = errors.New("agent already has a payout in progress")

	// ErrBalanceInvariant marks a negative balance produced by a mutator.
	// It indicates a bug in the caller, not a bad user action, and must be
	// surfaced as an internal failure rather than silently corrected.
	ErrBalanceInvariant = errors.New("balance invariant violated")
)

// ValidationError reports malformed input, naming the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientBalanceError reports a payout or adjustment that exceeds the
// agent's available funds. The operation is rejected with no partial effect.
type InsufficientBalanceError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s, requested %s",
		e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

// InvalidStateError reports an operation attempted on an earning that is not
// in an eligible state.
type InvalidStateError struct {
	Current EarningStatus
	Allowed []EarningStatus
}

func (e *InvalidStateError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("earning in state %s, operation requires one of [%s]",
		e.Current, strings.Join(allowed, ", "))
}

// InvalidPayoutTransitionError reports a disallowed payout status change,
// naming the attempted transition and the transitions the current state
// permits.
type InvalidPayoutTransitionError struct {
	From    PayoutStatus
	To      PayoutStatus
	Allowed []PayoutStatus
}

func (e *InvalidPayoutTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("cannot transition payout from %s to %s, allowed: [%s]",
		e.From, e.To, strings.Join(allowed, ", "))
}
