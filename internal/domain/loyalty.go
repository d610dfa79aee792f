package domain

import "time"

type LoyaltyTier string

const (
	TierBase     LoyaltyTier = "BASE"
	TierSilver   LoyaltyTier = "SILVER"
	TierGold     LoyaltyTier = "GOLD"
	TierPlatinum LoyaltyTier = "PLATINUM"
)

// TierForBalance maps a point balance to a tier. Pure function, recomputed
// on every balance change.
func TierForBalance(balance int) LoyaltyTier {
	switch {
	case balance >= 100000:
		return TierPlatinum
	case balance >= 50000:
		return TierGold
	case balance >= 20000:
		return TierSilver
	default:
		return TierBase
	}
}

type LoyaltyAccount struct {
	ID           int64       `json:"id"`
	UserID       string      `json:"user_id"`
	MemberNumber string      `json:"member_number"`
	Balance      int         `json:"balance"`
	Tier         LoyaltyTier `json:"tier"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type TransactionType string

const (
	TransactionTypeEarn     TransactionType = "EARN"
	TransactionTypeBurn     TransactionType = "BURN"
	TransactionTypeBonus    TransactionType = "BONUS"
	TransactionTypeExpire   TransactionType = "EXPIRE"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// LoyaltyTransaction is an append-only record of a balance change. Amount is
// signed: positive for EARN/BONUS, negative for BURN/EXPIRE. The account's
// cached balance must always equal the sum of its transaction amounts.
type LoyaltyTransaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	Amount      int             `json:"amount"`
	Type        TransactionType `json:"type"`
	Reason      string          `json:"reason"`
	ReferenceID string          `json:"reference_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
