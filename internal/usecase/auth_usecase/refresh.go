package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/repository"
)

// refreshの出力
type RefreshOutput struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RefreshUsecaseはrefreshトークンのローテーション
type RefreshUsecase struct {
	userRepo repository.UserRepository
	tokens   *TokenService
	events   EventPublisher
	clock    Clock
}

func NewRefreshUsecase(
	userRepo repository.UserRepository,
	tokens *TokenService,
	events EventPublisher,
	clock Clock,
) *RefreshUsecase {
	return &RefreshUsecase{
		userRepo: userRepo,
		tokens:   tokens,
		events:   events,
		clock:    clock,
	}
}

// 失敗はすべてErrForbidden（ストア障害だけErrInternal）
func (u *RefreshUsecase) Execute(ctx context.Context, token string) (RefreshOutput, error) {
	var out RefreshOutput

	if token == "" {
		return out, fmt.Errorf("%w: no refresh token", ErrForbidden)
	}

	//署名・期限
	userID, err := u.tokens.RefreshSubject(token)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrForbidden, err)
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return out, fmt.Errorf("%w: %w", ErrForbidden, err)
		}
		return out, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	//保存中のものと一致するか（使い回し・ログアウト後はここで落ちる）
	if _, err := u.tokens.VerifyRefresh(token, user.RefreshToken); err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			publish(ctx, u.events, u.clock, model.AuthEventRefreshRevoked, user.ID)
		}
		return out, fmt.Errorf("%w: %w", ErrForbidden, err)
	}

	pair, err := u.tokens.Rotate(user.ID)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	//読んだ値のままなら差し替える（同時refreshは片方だけ通る）
	if err := u.userRepo.SwapRefreshToken(ctx, user.ID, user.RefreshToken, u.tokens.Digest(pair.RefreshToken)); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenMismatch) {
			publish(ctx, u.events, u.clock, model.AuthEventRefreshRevoked, user.ID)
			return out, fmt.Errorf("%w: %w", ErrForbidden, ErrTokenRevoked)
		}
		return out, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	publish(ctx, u.events, u.clock, model.AuthEventRefreshed, user.ID)

	out.AccessToken = pair.AccessToken
	out.AccessExpiresAt = pair.AccessExpiresAt
	out.RefreshToken = pair.RefreshToken
	out.RefreshExpiresAt = pair.RefreshExpiresAt
	return out, nil
}
