package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForBalance_Thresholds(t *testing.T) {
	testCases := []struct {
		balance int
		want    LoyaltyTier
	}{
		{0, TierBase},
		{19999, TierBase},
		{20000, TierSilver},
		{49999, TierSilver},
		{50000, TierGold},
		{99999, TierGold},
		{100000, TierPlatinum},
		{250000, TierPlatinum},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, TierForBalance(tc.balance), "balance %d", tc.balance)
	}
}

func TestTierForBalance_Monotonic(t *testing.T) {
	rank := map[LoyaltyTier]int{TierBase: 0, TierSilver: 1, TierGold: 2, TierPlatinum: 3}

	prev := TierForBalance(0)
	for balance := 0; balance <= 120000; balance += 500 {
		tier := TierForBalance(balance)
		assert.GreaterOrEqual(t, rank[tier], rank[prev], "tier dropped at balance %d", balance)
		prev = tier
	}
}

func TestFlight_AvailableSeats(t *testing.T) {
	f := &Flight{Capacity: 180, BookedSeats: 175}
	assert.Equal(t, 5, f.AvailableSeats())
	assert.True(t, f.HasAvailableSeats(5))
	assert.False(t, f.HasAvailableSeats(6))
}
