package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/code"
)

// Store is the ephemeral TTL-backed code store. Put replaces any live entry
// for the same email. DeleteIfCode must be atomic: when two callers race on
// the same entry, at most one observes deleted=true.
type Store interface {
	Put(ctx context.Context, c *domain.OTPCode) error
	Get(ctx context.Context, email string) (*domain.OTPCode, error)
	DeleteIfCode(ctx context.Context, email, code string) (bool, error)
	Delete(ctx context.Context, email string) error
}

// Service issues, validates, and invalidates one-time codes per email.
type Service interface {
	// Issue generates a fresh code and stores it, permanently invalidating
	// any previously issued, unvalidated code for the same email.
	Issue(ctx context.Context, email string) (string, error)
	// Validate checks the presented code. Failure modes are distinct:
	// domain.ErrNoCodeIssued (nothing stored, or lost a concurrent
	// validation race), domain.ErrCodeExpired (entry removed),
	// domain.ErrCodeMismatch (entry retained, retry allowed).
	// A successful validation consumes the code: it can never validate twice.
	Validate(ctx context.Context, email, presented string) error
	// Invalidate unconditionally removes any stored code for email.
	Invalidate(ctx context.Context, email string) error
}

type service struct {
	store  Store
	length int
	expiry time.Duration
}

func NewService(store Store, length int, expiry time.Duration) Service {
	return &service{store: store, length: length, expiry: expiry}
}

func (s *service) Issue(ctx context.Context, email string) (string, error) {
	c := code.Generate(s.length)
	entry := &domain.OTPCode{
		Email:     email,
		Code:      c,
		ExpiresAt: time.Now().Add(s.expiry).Unix(),
	}
	if err := s.store.Put(ctx, entry); err != nil {
		return "", fmt.Errorf("issue otp: %w", err)
	}
	return c, nil
}

func (s *service) Validate(ctx context.Context, email, presented string) error {
	entry, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no code for %s: %w", email, domain.ErrNoCodeIssued)
		}
		return err
	}

	if time.Now().Unix() > entry.ExpiresAt {
		// The TTL eviction is lazy; remove the stale entry eagerly so a
		// later read cannot see it either. If the delete fails the entry is
		// still unusable — expiry is checked before the code.
		if err := s.store.Delete(ctx, email); err != nil {
			slog.Warn("failed to delete expired otp", "email", email, "err", err)
		}
		return fmt.Errorf("code expired: %w", domain.ErrCodeExpired)
	}

	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(presented)) != 1 {
		// Entry is retained: the caller may retry within the window.
		return fmt.Errorf("code mismatch: %w", domain.ErrCodeMismatch)
	}

	// Success is claimed by the conditional delete, not the compare above.
	// Concurrent validations of the same code all reach this point, but the
	// store lets only one of them remove the entry.
	deleted, err := s.store.DeleteIfCode(ctx, email, presented)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("code already consumed: %w", domain.ErrNoCodeIssued)
	}
	return nil
}

func (s *service) Invalidate(ctx context.Context, email string) error {
	return s.store.Delete(ctx, email)
}
