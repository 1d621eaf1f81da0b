package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/identity-service/internal/domain"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// MemoryAccountRepository is a mutex-guarded in-memory implementation used in
// tests and local development. It enforces the same uniqueness rules as the
// Postgres schema, atomically under its lock, and reports missing rows with
// pgx.ErrNoRows so callers behave identically against either backend.
type MemoryAccountRepository struct {
	mu       sync.Mutex
	accounts map[int64]*domain.Account
	nextID   int64
}

// NewMemoryAccountRepository builds an empty store.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[int64]*domain.Account), nextID: 1}
}

func (r *MemoryAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return apperrors.NewDuplicateEmail()
		}
		if account.PhoneNumber != nil && existing.PhoneNumber != nil &&
			*existing.PhoneNumber == *account.PhoneNumber {
			return apperrors.NewDuplicatePhone()
		}
	}

	now := time.Now()
	account.ID = r.nextID
	account.CreatedAt = now
	account.UpdatedAt = now
	r.nextID++

	stored := *account
	r.accounts[stored.ID] = &stored
	return nil
}

func (r *MemoryAccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *account
	return &copied, nil
}

func (r *MemoryAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if strings.EqualFold(account.Email, email) {
			copied := *account
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryAccountRepository) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.PhoneNumber != nil && *account.PhoneNumber == phone {
			copied := *account
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryAccountRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, id, func(a *domain.Account) { a.PasswordHash = hash })
}

func (r *MemoryAccountRepository) UpdateVerified(ctx context.Context, id int64, verified bool) error {
	return r.update(ctx, id, func(a *domain.Account) { a.Verified = verified })
}

func (r *MemoryAccountRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id, func(a *domain.Account) { a.LastLogin = &at })
}

func (r *MemoryAccountRepository) UpdateActive(ctx context.Context, id int64, active bool) error {
	return r.update(ctx, id, func(a *domain.Account) { a.Active = active })
}

func (r *MemoryAccountRepository) update(ctx context.Context, id int64, fn func(*domain.Account)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(account)
	account.UpdatedAt = time.Now()
	return nil
}
