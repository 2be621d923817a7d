package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EarningType string

const (
	EarningTypeReferralCommission EarningType = "REFERRAL_COMMISSION"
	EarningTypeBonus              EarningType = "BONUS"
	EarningTypePenalty            EarningType = "PENALTY"
	EarningTypeAdjustment         EarningType = "ADJUSTMENT"
	EarningTypePromotionBonus     EarningType = "PROMOTION_BONUS"
)

func (t EarningType) Valid() bool {
	switch t {
	case EarningTypeReferralCommission, EarningTypeBonus, EarningTypePenalty,
		EarningTypeAdjustment, EarningTypePromotionBonus:
		return true
	}
	return false
}

type EarningStatus string

const (
	EarningStatusPending   EarningStatus = "PENDING"
	EarningStatusConfirmed EarningStatus = "CONFIRMED"
	EarningStatusPaid      EarningStatus = "PAID"
	EarningStatusCancelled EarningStatus = "CANCELLED"
	EarningStatusDisputed  EarningStatus = "DISPUTED"
)

// earningTransitions is the allowed next-status table per earning status.
// CANCELLED, PAID and DISPUTED are terminal.
var earningTransitions = map[EarningStatus][]EarningStatus{
	EarningStatusPending:   {EarningStatusConfirmed, EarningStatusCancelled},
	EarningStatusConfirmed: {EarningStatusPaid, EarningStatusDisputed},
	EarningStatusPaid:      {},
	EarningStatusCancelled: {},
	EarningStatusDisputed:  {},
}

// CanTransitionTo reports whether the earning may move to the target status.
func (s EarningStatus) CanTransitionTo(target EarningStatus) bool {
	for _, allowed := range earningTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Earning is a single ledger entry. Rows are never deleted; cancellation is a
// status change so the audit trail stays complete.
type Earning struct {
	ID              uuid.UUID        `json:"id"`
	AgentID         uuid.UUID        `json:"agent_id"`
	Type            EarningType      `json:"type"`
	Status          EarningStatus    `json:"status"`
	Amount          decimal.Decimal  `json:"amount"` // negative for penalties and negative adjustments
	Currency        string           `json:"currency"`
	CommissionRate  *decimal.Decimal `json:"commission_rate,omitempty"` // snapshot of the rate used, when applicable
	ReferenceID     *string          `json:"reference_id,omitempty"`    // external dedup key, unique when present
	Description     string           `json:"description"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	EarnedAt        time.Time        `json:"earned_at"`
	ConfirmedAt     *time.Time       `json:"confirmed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// transitionTo validates and applies an earning status change.
func (e *Earning) transitionTo(target EarningStatus) error {
	if !e.Status.CanTransitionTo(target) {
		return &InvalidStateError{Current: e.Status, Allowed: statusesAllowing(target)}
	}
	e.Status = target
	return nil
}

// statusesAllowing lists the statuses from which target is reachable, used to
// build the error message for a rejected transition.
func statusesAllowing(target EarningStatus) []EarningStatus {
	var from []EarningStatus
	for status, allowed := range earningTransitions {
		for _, next := range allowed {
			if next == target {
				from = append(from, status)
			}
		}
	}
	return from
}

// Confirm marks a pending earning as confirmed.
func (e *Earning) Confirm(now time.Time) error {
	if err := e.transitionTo(EarningStatusConfirmed); err != nil {
		return err
	}
	e.ConfirmedAt = &now
	return nil
}

// Reject cancels a pending earning. The reason is mandatory and kept for
// audit.
func (e *Earning) Reject(reason string) error {
	if reason == "" {
		return NewValidationError("reason", "is required")
	}
	if err := e.transitionTo(EarningStatusCancelled); err != nil {
		return err
	}
	e.RejectionReason = reason
	return nil
}

// Dispute flags a confirmed earning as disputed.
func (e *Earning) Dispute(reason string) error {
	if reason == "" {
		return NewValidationError("reason", "is required")
	}
	if err := e.transitionTo(EarningStatusDisputed); err != nil {
		return err
	}
	e.RejectionReason = reason
	return nil
}

// MarkPaid moves a confirmed earning to its paid terminal state.
func (e *Earning) MarkPaid() error {
	return e.transitionTo(EarningStatusPaid)
}
