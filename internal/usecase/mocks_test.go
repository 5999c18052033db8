package usecase

import (
	"context"
	"io"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// Mock: UserRepository（リスト操作だけ使う）
// =====================

type MockUserRepository struct {
	mock.Mock
}

var _ repo.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	panic("not used in list tests")
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	panic("not used in list tests")
}

func (m *MockUserRepository) SetRefreshToken(ctx context.Context, id string, token string) error {
	panic("not used in list tests")
}

func (m *MockUserRepository) SwapRefreshToken(ctx context.Context, id string, current string, next string) error {
	panic("not used in list tests")
}

func (m *MockUserRepository) UpdateContact(ctx context.Context, id string, contact model.Contact) error {
	panic("not used in list tests")
}

func (m *MockUserRepository) AddListItem(ctx context.Context, id string, list model.ListKind, productID string) ([]string, error) {
	args := m.Called(ctx, id, list, productID)
	items, _ := args.Get(0).([]string)
	return items, args.Error(1)
}

func (m *MockUserRepository) RemoveListItem(ctx context.Context, id string, list model.ListKind, productID string) ([]string, error) {
	args := m.Called(ctx, id, list, productID)
	items, _ := args.Get(0).([]string)
	return items, args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	panic("not used in list tests")
}

func (m *MockUserRepository) Ping(ctx context.Context) error {
	panic("not used in list tests")
}

// =====================
// Mock: ProductRepository
// =====================

type MockProductRepository struct {
	mock.Mock
}

var _ repo.ProductRepository = (*MockProductRepository)(nil)

func (m *MockProductRepository) List(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p *model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// =====================
// Fake: ImageStore
// =====================

type fakeImageStore struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (s *fakeImageStore) Upload(_ context.Context, key string, body io.Reader, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.key = key
	s.contentType = contentType
	s.body = b
	return "https://cdn.example.com/" + key, nil
}
