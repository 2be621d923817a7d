package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutStatusRequested     PayoutStatus = "REQUESTED"
	PayoutStatusPendingReview PayoutStatus = "PENDING_REVIEW"
	PayoutStatusApproved      PayoutStatus = "APPROVED"
	PayoutStatusProcessing    PayoutStatus = "PROCESSING"
	PayoutStatusCompleted     PayoutStatus = "COMPLETED"
	PayoutStatusFailed        PayoutStatus = "FAILED"
	PayoutStatusRejected      PayoutStatus = "REJECTED"
	PayoutStatusCancelled     PayoutStatus = "CANCELLED"
)

func (s PayoutStatus) Valid() bool {
	_, ok := payoutTransitions[s]
	return ok
}

// Terminal reports whether no further transitions are possible.
func (s PayoutStatus) Terminal() bool {
	return len(payoutTransitions[s]) == 0
}

// payoutTransitions is the allowed next-status table per payout status. This
// table is the correctness contract of the payout workflow: any transition
// not listed here is rejected.
var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutStatusRequested:     {PayoutStatusPendingReview, PayoutStatusApproved, PayoutStatusRejected, PayoutStatusCancelled},
	PayoutStatusPendingReview: {PayoutStatusApproved, PayoutStatusRejected, PayoutStatusCancelled},
	PayoutStatusApproved:      {PayoutStatusProcessing, PayoutStatusRejected, PayoutStatusCancelled},
	PayoutStatusProcessing:    {PayoutStatusCompleted, PayoutStatusFailed},
	PayoutStatusFailed:        {PayoutStatusProcessing},
	PayoutStatusCompleted:     {},
	PayoutStatusRejected:      {},
	PayoutStatusCancelled:     {},
}

// AllowedTransitions returns the statuses reachable from s.
func (s PayoutStatus) AllowedTransitions() []PayoutStatus {
	return payoutTransitions[s]
}

// CanTransitionTo reports whether the payout may move to the target status.
func (s PayoutStatus) CanTransitionTo(target PayoutStatus) bool {
	for _, allowed := range payoutTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

type PayoutMethod string

const (
	PayoutMethodBankTransfer     PayoutMethod = "BANK_TRANSFER"
	PayoutMethodMobileMoney      PayoutMethod = "MOBILE_MONEY"
	PayoutMethodPayPal           PayoutMethod = "PAYPAL"
	PayoutMethodPlanetTalkCredit PayoutMethod = "PLANETTALK_CREDIT"
)

func (m PayoutMethod) Valid() bool {
	switch m {
	case PayoutMethodBankTransfer, PayoutMethodMobileMoney, PayoutMethodPayPal, PayoutMethodPlanetTalkCredit:
		return true
	}
	return false
}

// PaymentDetails carries the method-specific payload of a payout request.
// Exactly one sub-struct must be populated, matching the payout method.
type PaymentDetails struct {
	BankTransfer     *BankTransferDetails     `json:"bank_transfer,omitempty"`
	MobileMoney      *MobileMoneyDetails      `json:"mobile_money,omitempty"`
	PayPal           *PayPalDetails           `json:"paypal,omitempty"`
	PlanetTalkCredit *PlanetTalkCreditDetails `json:"planettalk_credit,omitempty"`
}

type BankTransferDetails struct {
	AccountNumber string `json:"account_number" validate:"required"`
	RoutingNumber string `json:"routing_number" validate:"required"`
	AccountName   string `json:"account_name" validate:"required"`
	BankName      string `json:"bank_name" validate:"required"`
}

type MobileMoneyDetails struct {
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
	Provider    string `json:"provider" validate:"required"`
}

type PayPalDetails struct {
	Email string `json:"email" validate:"required,email"`
}

type PlanetTalkCreditDetails struct {
	AccountPhone string `json:"account_phone" validate:"required,e164"`
}

var detailsValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the details payload against the per-method required-field
// schema, failing fast with an error naming the first missing or malformed
// field.
func (d PaymentDetails) Validate(method PayoutMethod) error {
	var payload any
	switch method {
	case PayoutMethodBankTransfer:
		if d.BankTransfer == nil {
			return NewValidationError("bank_transfer", "details are required for BANK_TRANSFER")
		}
		payload = d.BankTransfer
	case PayoutMethodMobileMoney:
		if d.MobileMoney == nil {
			return NewValidationError("mobile_money", "details are required for MOBILE_MONEY")
		}
		payload = d.MobileMoney
	case PayoutMethodPayPal:
		if d.PayPal == nil {
			return NewValidationError("paypal", "details are required for PAYPAL")
		}
		payload = d.PayPal
	case PayoutMethodPlanetTalkCredit:
		if d.PlanetTalkCredit == nil {
			return NewValidationError("planettalk_credit", "details are required for PLANETTALK_CREDIT")
		}
		payload = d.PlanetTalkCredit
	default:
		return NewValidationError("method", "unsupported payout method")
	}

	if err := detailsValidator.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Tag() == "required" {
				return NewValidationError(snakeCase(fe.Field()), "is required")
			}
			return NewValidationError(snakeCase(fe.Field()), "must be a valid "+fe.Tag()+" value")
		}
		return NewValidationError("payment_details", err.Error())
	}
	return nil
}

// Payout is one withdrawal request driven through the workflow state machine.
type Payout struct {
	ID              uuid.UUID       `json:"id"`
	AgentID         uuid.UUID       `json:"agent_id"`
	Status          PayoutStatus    `json:"status"`
	Method          PayoutMethod    `json:"method"`
	Amount          decimal.Decimal `json:"amount"`
	Fees            decimal.Decimal `json:"fees"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	Currency        string          `json:"currency"`
	PaymentDetails  PaymentDetails  `json:"payment_details"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	RequestedAt     time.Time       `json:"requested_at"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TransitionTo validates and applies a status change, stamping the timestamp
// the target status carries. Balance movement is the caller's responsibility.
func (p *Payout) TransitionTo(target PayoutStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(target) {
		return &InvalidPayoutTransitionError{From: p.Status, To: target, Allowed: p.Status.AllowedTransitions()}
	}
	p.Status = target
	switch target {
	case PayoutStatusApproved:
		p.ApprovedAt = &now
	case PayoutStatusProcessing:
		p.ProcessedAt = &now
	case PayoutStatusCompleted:
		p.CompletedAt = &now
		p.NetAmount = p.Amount.Sub(p.Fees)
	}
	return nil
}

func snakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
