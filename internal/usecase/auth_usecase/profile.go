package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/repository"
)

// レスポンス用のユーザー（passwordとrefreshは含めない）
type UserProfile struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Cart      []string  `json:"cart"`
	Wishlist  []string  `json:"wishlist"`
	CreatedAt time.Time `json:"createdAt"`
	model.Contact
}

func NewUserProfile(u *model.User) UserProfile {
	p := UserProfile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Cart:      u.Cart,
		Wishlist:  u.Wishlist,
		CreatedAt: u.CreatedAt,
		Contact:   u.Contact,
	}
	if p.Cart == nil {
		p.Cart = []string{}
	}
	if p.Wishlist == nil {
		p.Wishlist = []string{}
	}
	return p
}

// 連絡先の入力（5項目すべて必須）
type ContactInput struct {
	Address string
	Phone   string
	Pincode string
	City    string
	State   string
}

type ProfileUsecase struct {
	userRepo repository.UserRepository
}

func NewProfileUsecase(userRepo repository.UserRepository) *ProfileUsecase {
	return &ProfileUsecase{userRepo: userRepo}
}

// ログイン中のユーザー情報
func (u *ProfileUsecase) Me(ctx context.Context, userID string) (UserProfile, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return UserProfile{}, ErrUnauthenticated
		}
		return UserProfile{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return NewUserProfile(user), nil
}

// 連絡先の更新
func (u *ProfileUsecase) UpdateContact(ctx context.Context, userID string, in ContactInput) error {
	fields := []string{
		strings.TrimSpace(in.Address),
		strings.TrimSpace(in.Phone),
		strings.TrimSpace(in.Pincode),
		strings.TrimSpace(in.City),
		strings.TrimSpace(in.State),
	}
	for _, f := range fields {
		if f == "" {
			return newValidationError("All fields are required")
		}
	}

	c := model.Contact{
		Address: &fields[0],
		Phone:   &fields[1],
		Pincode: &fields[2],
		City:    &fields[3],
		State:   &fields[4],
	}

	if err := u.userRepo.UpdateContact(ctx, userID, c); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return nil
}
