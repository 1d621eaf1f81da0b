package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// Hasher wraps bcrypt behind a bounded concurrency budget. Hashing is
// intentionally slow; the semaphore keeps a login burst from monopolizing
// every scheduler thread while unrelated requests wait.
type Hasher struct {
	cost int
	sem  chan struct{}
}

// NewHasher builds a hasher with the given bcrypt cost and worker budget.
func NewHasher(cost, maxConcurrent int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Hasher{cost: cost, sem: make(chan struct{}, maxConcurrent)}
}

// Hash produces a salted, self-describing bcrypt hash of the password.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare verifies a password against its hashed value. bcrypt performs the
// comparison in constant time with respect to the mismatch position.
func (h *Hasher) Compare(ctx context.Context, hashed, plain string) error {
	if err := h.acquire(ctx); err != nil {
		return err
	}
	defer h.release()

	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

func (h *Hasher) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return apperrors.NewRetryable(ctx.Err())
	}
}

func (h *Hasher) release() {
	<-h.sem
}
