package otp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store with the same atomicity guarantees as the
// DynamoDB implementation: Put overwrites, DeleteIfCode is a single
// compare-and-delete under the lock.
type memStore struct {
	mu      sync.Mutex
	entries map[string]domain.OTPCode
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]domain.OTPCode)}
}

func (m *memStore) Put(_ context.Context, c *domain.OTPCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[c.Email] = *c
	return nil
}

func (m *memStore) Get(_ context.Context, email string) (*domain.OTPCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.entries[email]
	if !ok {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	return &c, nil
}

func (m *memStore) DeleteIfCode(_ context.Context, email, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.entries[email]
	if !ok || c.Code != code {
		return false, nil
	}
	delete(m.entries, email)
	return true, nil
}

func (m *memStore) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, email)
	return nil
}

func TestIssueAndValidate_HappyPath(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, 6, 2*time.Minute)

	c, err := svc.Issue(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Len(t, c, 6)

	require.NoError(t, svc.Validate(context.Background(), "alice@example.com", c))
}

func TestValidate_SingleUse(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, 6, 2*time.Minute)

	c, err := svc.Issue(context.Background(), "alice@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Validate(context.Background(), "alice@example.com", c))

	err = svc.Validate(context.Background(), "alice@example.com", c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoCodeIssued))
}

func TestValidate_NoCodeIssued(t *testing.T) {
	svc := NewService(newMemStore(), 6, 2*time.Minute)

	err := svc.Validate(context.Background(), "nobody@example.com", "123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoCodeIssued))
}

func TestValidate_MismatchRetainsEntry(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, 6, 2*time.Minute)

	c, err := svc.Issue(context.Background(), "alice@example.com")
	require.NoError(t, err)

	err = svc.Validate(context.Background(), "alice@example.com", "000000x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeMismatch))

	// Retry with the correct code within the same window still succeeds.
	require.NoError(t, svc.Validate(context.Background(), "alice@example.com", c))
}

func TestValidate_ExpiredDeletesEntry(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, 6, -time.Second)

	c, err := svc.Issue(context.Background(), "alice@example.com")
	require.NoError(t, err)

	err = svc.Validate(context.Background(), "alice@example.com", c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeExpired))

	// The entry is gone: a second attempt is indistinguishable from never
	// having issued a code.
	err = svc.Validate(context.Background(), "alice@example.com", c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoCodeIssued))
}

func TestIssue_SupersedesPriorCode(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, 6, 2*time.Minute)

	c1, err := svc.Issue(context.Background(), "alice@example.com")
	require.NoError(t, err)
	c2, err := svc.Issue(context.Background(), "alice@example.com")
	require.NoError(t, err)

	if c1 != c2 {
		err = svc.Validate(context.Background(), "alice@example.com", c1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrCodeMismatch))
	}
	require.NoError(t, svc.Validate(context.Background(), "alice@example.com", c2))
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, 6, 2*time.Minute)

	c, err := svc.Issue(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background(), "alice@example.com"))

	err = svc.Validate(context.Background(), "alice@example.com", c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoCodeIssued))
}

func TestValidate_ConcurrentExactlyOneSuccess(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, 6, 2*time.Minute)

	c, err := svc.Issue(context.Background(), "alice@example.com")
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	results := make([]error, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = svc.Validate(context.Background(), "alice@example.com", c)
		}(i)
	}
	close(start)
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			assert.True(t, errors.Is(err, domain.ErrNoCodeIssued))
		}
	}
	assert.Equal(t, 1, successes)
}
