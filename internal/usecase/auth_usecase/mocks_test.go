package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) SetRefreshToken(ctx context.Context, id string, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockUserRepository) SwapRefreshToken(ctx context.Context, id string, current string, next string) error {
	args := m.Called(ctx, id, current, next)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateContact(ctx context.Context, id string, contact model.Contact) error {
	args := m.Called(ctx, id, contact)
	return args.Error(0)
}

func (m *MockUserRepository) AddListItem(ctx context.Context, id string, list model.ListKind, productID string) ([]string, error) {
	panic("not used in auth tests")
}

func (m *MockUserRepository) RemoveListItem(ctx context.Context, id string, list model.ListKind, productID string) ([]string, error) {
	panic("not used in auth tests")
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	panic("not used in auth tests")
}

func (m *MockUserRepository) Ping(ctx context.Context) error {
	panic("not used in auth tests")
}

// =====================
// Clock / Publisher
// =====================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AuthEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.AuthEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []model.AuthEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.AuthEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// =====================
// Helper
// =====================

const testSecret = "test-secret-0123456789"

func newTestTokens(t *testing.T, clock Clock) *TokenService {
	t.Helper()
	s, err := NewTokenService(TokenConfig{
		Secret:     testSecret,
		Issuer:     "ecshop-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}, clock)
	require.NoError(t, err)
	return s
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := NewBcryptPasswordHasher(4).Hash(plain)
	require.NoError(t, err)
	return h
}
