package repository

import (
	"context"
	"errors"

	"github.com/akarpov91/milesbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LoyaltyRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.LoyaltyAccount, error)
	GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID string) (*domain.LoyaltyAccount, error)
	Insert(ctx context.Context, tx pgx.Tx, account *domain.LoyaltyAccount) error
	MemberNumberExists(ctx context.Context, memberNumber string) (bool, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, accountID int64, balance int, tier domain.LoyaltyTier) error
	AppendTransaction(ctx context.Context, tx pgx.Tx, txn *domain.LoyaltyTransaction) error
	ListTransactions(ctx context.Context, accountID int64) ([]domain.LoyaltyTransaction, error)
	SumTransactions(ctx context.Context, accountID int64) (int, error)
}

type PGLoyaltyRepository struct {
	db *pgxpool.Pool
}

func NewLoyaltyRepository(db *pgxpool.Pool) LoyaltyRepository {
	return &PGLoyaltyRepository{db: db}
}

const accountColumns = `id, user_id, member_number, balance, tier, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.LoyaltyAccount, error) {
	var a domain.LoyaltyAccount
	if err := row.Scan(&a.ID, &a.UserID, &a.MemberNumber, &a.Balance, &a.Tier, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PGLoyaltyRepository) GetByUserID(ctx context.Context, userID string) (*domain.LoyaltyAccount, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM loyalty_accounts WHERE user_id=$1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	return a, err
}

// GetByUserIDForUpdate locks the account row so concurrent earns/burns for
// the same user serialize on the balance.
func (r *PGLoyaltyRepository) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID string) (*domain.LoyaltyAccount, error) {
	a, err := scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM loyalty_accounts WHERE user_id=$1 FOR UPDATE`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	return a, err
}

func (r *PGLoyaltyRepository) Insert(ctx context.Context, tx pgx.Tx, account *domain.LoyaltyAccount) error {
	return tx.QueryRow(ctx, `INSERT INTO loyalty_accounts (user_id, member_number, balance, tier)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		account.UserID, account.MemberNumber, account.Balance, account.Tier).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *PGLoyaltyRepository) MemberNumberExists(ctx context.Context, memberNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM loyalty_accounts WHERE member_number=$1)`, memberNumber).Scan(&exists)
	return exists, err
}

func (r *PGLoyaltyRepository) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID int64, balance int, tier domain.LoyaltyTier) error {
	if balance < 0 {
		return domain.ErrNegativeBalance
	}
	res, err := tx.Exec(ctx, `UPDATE loyalty_accounts SET balance=$1, tier=$2, updated_at=now() WHERE id=$3`, balance, tier, accountID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *PGLoyaltyRepository) AppendTransaction(ctx context.Context, tx pgx.Tx, txn *domain.LoyaltyTransaction) error {
	return tx.QueryRow(ctx, `INSERT INTO loyalty_transactions (account_id, amount, type, reason, reference_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		txn.AccountID, txn.Amount, txn.Type, txn.Reason, txn.ReferenceID).
		Scan(&txn.ID, &txn.CreatedAt)
}

func (r *PGLoyaltyRepository) ListTransactions(ctx context.Context, accountID int64) ([]domain.LoyaltyTransaction, error) {
	rows, err := r.db.Query(ctx, `SELECT id, account_id, amount, type, reason, reference_id, created_at FROM loyalty_transactions WHERE account_id=$1 ORDER BY created_at DESC, id DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]domain.LoyaltyTransaction, 0)
	for rows.Next() {
		var t domain.LoyaltyTransaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Type, &t.Reason, &t.ReferenceID, &t.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// SumTransactions recomputes the balance from the append-only history. The
// cached balance column must always match this sum.
func (r *PGLoyaltyRepository) SumTransactions(ctx context.Context, accountID int64) (int, error) {
	var sum int
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM loyalty_transactions WHERE account_id=$1`, accountID).Scan(&sum)
	return sum, err
}

var _ LoyaltyRepository = (*PGLoyaltyRepository)(nil)
