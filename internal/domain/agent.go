package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "ACTIVE"
	AgentStatusInactive AgentStatus = "INACTIVE"
)

type AgentTier string

const (
	AgentTierBronze   AgentTier = "BRONZE"
	AgentTierSilver   AgentTier = "SILVER"
	AgentTierGold     AgentTier = "GOLD"
	AgentTierPlatinum AgentTier = "PLATINUM"
	AgentTierDiamond  AgentTier = "DIAMOND"
)

// tierRank orders tiers for comparison; higher rank means higher tier.
var tierRank = map[AgentTier]int{
	AgentTierBronze:   0,
	AgentTierSilver:   1,
	AgentTierGold:     2,
	AgentTierPlatinum: 3,
	AgentTierDiamond:  4,
}

// tierBonusRate is the extra commission percentage granted per tier on top of
// the agent's own rate.
var tierBonusRate = map[AgentTier]decimal.Decimal{
	AgentTierBronze:   decimal.Zero,
	AgentTierSilver:   decimal.RequireFromString("0.5"),
	AgentTierGold:     decimal.RequireFromString("1"),
	AgentTierPlatinum: decimal.RequireFromString("1.5"),
	AgentTierDiamond:  decimal.RequireFromString("2"),
}

func (t AgentTier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// AtLeast reports whether tier t ranks at or above other.
func (t AgentTier) AtLeast(other AgentTier) bool {
	return tierRank[t] >= tierRank[other]
}

// BonusRate returns the commission bonus percentage for the tier.
func (t AgentTier) BonusRate() decimal.Decimal {
	return tierBonusRate[t]
}

// Agent is the aggregate root of the ledger. The three balance fields are
// mutated only through the methods below so the non-negativity invariants are
// enforced at a single choke point.
type Agent struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Status           AgentStatus     `json:"status"`
	Tier             AgentTier       `json:"tier"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	PendingBalance   decimal.Decimal `json:"pending_balance"`
	LastActivityAt   time.Time       `json:"last_activity_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ReserveForPendingEarning adds a newly created pending earning to the
// pending balance. Amount must be positive.
func (a *Agent) ReserveForPendingEarning(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError("amount", "must be greater than zero")
	}
	a.PendingBalance = a.PendingBalance.Add(amount)
	return a.checkBalances()
}

// ConfirmEarning moves a pending earning into available funds and cumulative
// earnings.
func (a *Agent) ConfirmEarning(amount decimal.Decimal) error {
	a.PendingBalance = a.PendingBalance.Sub(amount)
	a.AvailableBalance = a.AvailableBalance.Add(amount)
	a.TotalEarnings = a.TotalEarnings.Add(amount)
	return a.checkBalances()
}

// CancelPendingEarning reverses the reservation made at earning creation.
func (a *Agent) CancelPendingEarning(amount decimal.Decimal) error {
	a.PendingBalance = a.PendingBalance.Sub(amount)
	return a.checkBalances()
}

// ApplyAdjustment applies an immediate administrative adjustment. Negative
// adjustments are bounded by the available balance; total earnings never go
// below zero.
func (a *Agent) ApplyAdjustment(amount decimal.Decimal) error {
	if amount.IsNegative() {
		abs := amount.Abs()
		if a.AvailableBalance.LessThan(abs) {
			return &InsufficientBalanceError{Available: a.AvailableBalance, Requested: abs}
		}
		a.AvailableBalance = a.AvailableBalance.Sub(abs)
		a.TotalEarnings = decimal.Max(decimal.Zero, a.TotalEarnings.Sub(abs))
		return a.checkBalances()
	}
	a.AvailableBalance = a.AvailableBalance.Add(amount)
	a.TotalEarnings = a.TotalEarnings.Add(amount)
	return a.checkBalances()
}

// ReserveForPayout moves funds from available into pending while a payout is
// in flight.
func (a *Agent) ReserveForPayout(amount decimal.Decimal) error {
	if a.AvailableBalance.LessThan(amount) {
		return &InsufficientBalanceError{Available: a.AvailableBalance, Requested: amount}
	}
	a.AvailableBalance = a.AvailableBalance.Sub(amount)
	a.PendingBalance = a.PendingBalance.Add(amount)
	return a.checkBalances()
}

// SettlePayoutCompleted removes completed payout funds from the ledger.
func (a *Agent) SettlePayoutCompleted(amount decimal.Decimal) error {
	a.PendingBalance = a.PendingBalance.Sub(amount)
	return a.checkBalances()
}

// ReturnPayoutFunds puts a rejected or cancelled payout's reservation back
// into available funds.
func (a *Agent) ReturnPayoutFunds(amount decimal.Decimal) error {
	a.PendingBalance = a.PendingBalance.Sub(amount)
	a.AvailableBalance = a.AvailableBalance.Add(amount)
	return a.checkBalances()
}

func (a *Agent) checkBalances() error {
	if a.AvailableBalance.IsNegative() || a.PendingBalance.IsNegative() {
		return ErrBalanceInvariant
	}
	return nil
}
