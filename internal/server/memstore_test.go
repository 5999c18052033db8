package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/repository"

	"github.com/google/uuid"
)

// =====================
// in-memory UserRepository（CASはmutexで守る）
// =====================

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]string
}

var _ repository.UserRepository = (*memUsers)(nil)

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*model.User{}, byEmail: map[string]string{}}
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[user.Email]; ok {
		return repository.ErrEmailAlreadyExists
	}
	user.ID = uuid.NewString()
	user.Cart = []string{}
	user.Wishlist = []string{}
	user.RefreshToken = ""
	user.CreatedAt = time.Now()

	cp := *user
	m.byID[user.ID] = &cp
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	cp.Cart = append([]string(nil), u.Cart...)
	cp.Wishlist = append([]string(nil), u.Wishlist...)
	return &cp, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	id, ok := m.byEmail[email]
	m.mu.Unlock()
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return m.FindByID(ctx, id)
}

func (m *memUsers) SetRefreshToken(_ context.Context, id string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.RefreshToken = token
	return nil
}

func (m *memUsers) SwapRefreshToken(_ context.Context, id string, current string, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok || current == "" || u.RefreshToken != current {
		return repository.ErrRefreshTokenMismatch
	}
	u.RefreshToken = next
	return nil
}

func (m *memUsers) UpdateContact(_ context.Context, id string, c model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Contact = c
	return nil
}

func (m *memUsers) AddListItem(_ context.Context, id string, list model.ListKind, productID string) ([]string, error) {
	return m.editList(id, list, func(items []string) ([]string, bool) { return model.AddUnique(items, productID) })
}

func (m *memUsers) RemoveListItem(_ context.Context, id string, list model.ListKind, productID string) ([]string, error) {
	return m.editList(id, list, func(items []string) ([]string, bool) { return model.RemoveItem(items, productID) })
}

func (m *memUsers) editList(id string, list model.ListKind, edit func([]string) ([]string, bool)) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	items, _ := edit(u.List(list))
	u.SetList(list, items)
	return append([]string{}, items...), nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	delete(m.byEmail, u.Email)
	delete(m.byID, id)
	return nil
}

func (m *memUsers) Ping(context.Context) error { return nil }

func (m *memUsers) storedRefresh(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[m.byEmail[email]].RefreshToken
}

// =====================
// in-memory ProductRepository
// =====================

type memProducts struct {
	mu    sync.Mutex
	items map[string]model.Product
}

var _ repository.ProductRepository = (*memProducts)(nil)

func newMemProducts(seed ...model.Product) *memProducts {
	m := &memProducts{items: map[string]model.Product{}}
	for _, p := range seed {
		m.items[p.ID] = p
	}
	return m
}

func (m *memProducts) List(context.Context) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Product, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memProducts) FindByID(_ context.Context, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (m *memProducts) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	m.items[p.ID] = *p
	return nil
}
