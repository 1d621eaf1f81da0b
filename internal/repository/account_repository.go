package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/identity-service/internal/domain"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

const uniqueViolationCode = "23505"

// AccountRepository defines persistence access for identity records.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	UpdateVerified(ctx context.Context, id int64, verified bool) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateActive(ctx context.Context, id int64, active bool) error
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountColumns = `id, email, phone_number, password_hash, role, is_active, is_verified, last_login, created_at, updated_at`

// Create inserts the account. The unique indexes on lower(email) and
// phone_number are the source of truth for registration uniqueness; a
// constraint violation maps to the matching duplicate error, so concurrent
// registrations cannot race past the pre-checks.
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (email, phone_number, password_hash, role, is_active, is_verified)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.Email,
		account.PhoneNumber,
		account.PasswordHash,
		account.Role,
		account.Active,
		account.Verified,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id=$1`
	return r.scanOne(ctx, query, id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email)=lower($1)`
	return r.scanOne(ctx, query, email)
}

func (r *accountRepository) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE phone_number=$1`
	return r.scanOne(ctx, query, phone)
}

func (r *accountRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	const query = `UPDATE accounts SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, hash, id)
}

func (r *accountRepository) UpdateVerified(ctx context.Context, id int64, verified bool) error {
	const query = `UPDATE accounts SET is_verified=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, verified, id)
}

func (r *accountRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE accounts SET last_login=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, at, id)
}

func (r *accountRepository) UpdateActive(ctx context.Context, id int64, active bool) error {
	const query = `UPDATE accounts SET is_active=$1, updated_at=NOW() WHERE id=$2`
	return r.exec(ctx, query, active, id)
}

func (r *accountRepository) scanOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var account domain.Account
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Email,
		&account.PhoneNumber,
		&account.PasswordHash,
		&account.Role,
		&account.Active,
		&account.Verified,
		&account.LastLogin,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return err
	}
	switch pgErr.ConstraintName {
	case "accounts_email_lower_key":
		return apperrors.NewDuplicateEmail()
	case "accounts_phone_number_key":
		return apperrors.NewDuplicatePhone()
	}
	return err
}
