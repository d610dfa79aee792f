package loyalty

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/akarpov91/milesbook/internal/domain"
	"github.com/akarpov91/milesbook/internal/repository"
	"github.com/jackc/pgx/v5"
)

type LoyaltyUseCase interface {
	GetOrCreateAccount(ctx context.Context, userID string) (*domain.LoyaltyAccount, error)
	Earn(ctx context.Context, userID string, amount int, reason, refID string) (*domain.LoyaltyAccount, error)
	Burn(ctx context.Context, userID string, amount int, reason, refID string) (*domain.LoyaltyAccount, error)
	Bonus(ctx context.Context, userID string, amount int, reason string) (*domain.LoyaltyAccount, error)
	ListTransactions(ctx context.Context, userID string) ([]domain.LoyaltyTransaction, error)
}

// LoyaltyService owns point balances and the append-only transaction
// history explaining them. Every successful earn or burn appends exactly
// one transaction atomically with the cached balance update and recomputes
// the tier from the new balance.
type LoyaltyService struct {
	accounts repository.LoyaltyRepository
	runner   repository.TxRunner
}

func NewLoyaltyService(accounts repository.LoyaltyRepository, runner repository.TxRunner) *LoyaltyService {
	return &LoyaltyService{accounts: accounts, runner: runner}
}

func (s *LoyaltyService) GetOrCreateAccount(ctx context.Context, userID string) (*domain.LoyaltyAccount, error) {
	var account *domain.LoyaltyAccount
	err := s.runner.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		account, err = s.getOrCreateTx(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *LoyaltyService) Earn(ctx context.Context, userID string, amount int, reason, refID string) (*domain.LoyaltyAccount, error) {
	var account *domain.LoyaltyAccount
	err := s.runner.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		account, err = s.EarnTx(ctx, tx, userID, amount, reason, refID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *LoyaltyService) Burn(ctx context.Context, userID string, amount int, reason, refID string) (*domain.LoyaltyAccount, error) {
	var account *domain.LoyaltyAccount
	err := s.runner.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		account, err = s.BurnTx(ctx, tx, userID, amount, reason, refID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *LoyaltyService) Bonus(ctx context.Context, userID string, amount int, reason string) (*domain.LoyaltyAccount, error) {
	var account *domain.LoyaltyAccount
	err := s.runner.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		account, err = s.credit(ctx, tx, userID, amount, domain.TransactionTypeBonus, reason, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *LoyaltyService) ListTransactions(ctx context.Context, userID string) ([]domain.LoyaltyTransaction, error) {
	account, err := s.GetOrCreateAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.accounts.ListTransactions(ctx, account.ID)
}

// EarnTx credits points inside the caller's transaction.
func (s *LoyaltyService) EarnTx(ctx context.Context, tx pgx.Tx, userID string, amount int, reason, refID string) (*domain.LoyaltyAccount, error) {
	return s.credit(ctx, tx, userID, amount, domain.TransactionTypeEarn, reason, refID)
}

// BurnTx debits points inside the caller's transaction, so a booking paid
// with points commits or aborts together with its seat reservation.
// ErrInsufficientBalance leaves balance and history untouched.
func (s *LoyaltyService) BurnTx(ctx context.Context, tx pgx.Tx, userID string, amount int, reason, refID string) (*domain.LoyaltyAccount, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidAmount, amount)
	}

	account, err := s.getOrCreateTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if account.Balance < amount {
		return nil, domain.ErrInsufficientBalance
	}

	if err := s.accounts.AppendTransaction(ctx, tx, &domain.LoyaltyTransaction{
		AccountID:   account.ID,
		Amount:      -amount,
		Type:        domain.TransactionTypeBurn,
		Reason:      reason,
		ReferenceID: refID,
	}); err != nil {
		return nil, err
	}

	account.Balance -= amount
	account.Tier = domain.TierForBalance(account.Balance)
	if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance, account.Tier); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *LoyaltyService) credit(ctx context.Context, tx pgx.Tx, userID string, amount int, txnType domain.TransactionType, reason, refID string) (*domain.LoyaltyAccount, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidAmount, amount)
	}

	account, err := s.getOrCreateTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.AppendTransaction(ctx, tx, &domain.LoyaltyTransaction{
		AccountID:   account.ID,
		Amount:      amount,
		Type:        txnType,
		Reason:      reason,
		ReferenceID: refID,
	}); err != nil {
		return nil, err
	}

	account.Balance += amount
	account.Tier = domain.TierForBalance(account.Balance)
	if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance, account.Tier); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *LoyaltyService) getOrCreateTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.LoyaltyAccount, error) {
	account, err := s.accounts.GetByUserIDForUpdate(ctx, tx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	number, err := s.generateMemberNumber(ctx)
	if err != nil {
		return nil, err
	}
	account = &domain.LoyaltyAccount{
		UserID:       userID,
		MemberNumber: number,
		Balance:      0,
		Tier:         domain.TierBase,
	}
	if err := s.accounts.Insert(ctx, tx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// generateMemberNumber re-rolls on collision instead of failing the caller.
func (s *LoyaltyService) generateMemberNumber(ctx context.Context) (string, error) {
	for {
		number := fmt.Sprintf("ML%06d", rand.Intn(1000000))
		exists, err := s.accounts.MemberNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
}

var _ LoyaltyUseCase = (*LoyaltyService)(nil)
