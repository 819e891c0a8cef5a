package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, username, password_hash, role, balance, version, created_at, updated_at`

func (r *AccountRepository) Insert(ctx context.Context, a *domain.Account) error {
	const query = `
INSERT INTO accounts (` + accountColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Username, a.PasswordHash, a.Role, a.Balance, a.Version, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return r.getOne(ctx, query, username)
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg string) (*domain.Account, error) {
	var a domain.Account
	if err := scanAccount(r.db.QueryRowContext(ctx, query, arg), &a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	if err := updateAccount(ctx, r.db, a); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return err
	}
	a.Version++
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	return execRequiredRow(ctx, r.db, domain.ErrNotFound, `DELETE FROM accounts WHERE id = $1`, id)
}

func updateAccount(ctx context.Context, db execer, a *domain.Account) error {
	const query = `
UPDATE accounts
SET username = $2,
	password_hash = $3,
	balance = $4,
	updated_at = $5,
	version = version + 1
WHERE id = $1
  AND version = $6`

	err := execRequiredRow(ctx, db, domain.ErrStale, query,
		a.ID, a.Username, a.PasswordHash, a.Balance, a.UpdatedAt, a.Version)
	if err != nil && !errors.Is(err, domain.ErrStale) && !isUniqueViolation(err) {
		return fmt.Errorf("update account: %w", err)
	}
	return err
}

func scanAccount(row rowScanner, a *domain.Account) error {
	return row.Scan(
		&a.ID,
		&a.Username,
		&a.PasswordHash,
		&a.Role,
		&a.Balance,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Insert(ctx context.Context, s domain.Session) error {
	const query = `INSERT INTO sessions (token_hash, account_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, s.TokenHash, s.AccountID); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) AccountID(ctx context.Context, tokenHash string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT account_id FROM sessions WHERE token_hash = $1`, tokenHash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	return id, nil
}

func (r *SessionRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
