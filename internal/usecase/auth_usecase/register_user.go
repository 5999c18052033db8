package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"ecshop/internal/domain/model"
	"ecshop/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// 会員登録の入力
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// 会員登録の出力
type SignupOutput struct {
	UserID string
}

// SignupUsecaseは会員登録の処理
type SignupUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	events   EventPublisher
	clock    Clock
}

// DI
func NewSignupUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	events EventPublisher,
	clock Clock,
) *SignupUsecase {
	return &SignupUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		events:   events,
		clock:    clock,
	}
}

// 会員登録実行
func (u *SignupUsecase) Execute(ctx context.Context, in SignupInput) (SignupOutput, error) {
	var out SignupOutput

	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)

	// 必須チェック
	if name == "" || email == "" || in.Password == "" {
		return out, newValidationError("Name, email and password are required")
	}

	// emailの形式チェック
	if !isValidEmailFormat(email) {
		return out, newValidationError("Invalid email format")
	}

	// bcryptは72バイトまでしか扱えない
	if len(in.Password) > MaxPasswordBytes {
		return out, newValidationError("Password must be at most 72 bytes")
	}

	// email重複チェック
	existing, err := u.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return out, ErrConflict
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return out, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	// パスワードをハッシュ化（平文は保存しない）
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return out, newValidationError("Password must be at most 72 bytes")
		}
		return out, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	}

	// 同時登録はunique indexで弾かれる
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailAlreadyExists) {
			return out, ErrConflict
		}
		return out, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	publish(ctx, u.events, u.clock, model.AuthEventSignup, user.ID)

	out.UserID = user.ID
	return out, nil
}

// 前後の空白を落として小文字に
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// メールチェック（表示名付きの形式は受け付けない）
func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
