package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/repository"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string
	Password string
}

// handlerがJSONとCookieにするための出力
type LoginOutput struct {
	User             UserProfile
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	tokens   *TokenService
	events   EventPublisher
	clock    Clock
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	tokens *TokenService,
	events EventPublisher,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		tokens:   tokens,
		events:   events,
		clock:    clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	email := NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return out, ErrUnauthenticated
	}

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// いない場合も比較だけはしておく
			u.verifier.Verify(in.Password, "")
			return out, ErrUnauthenticated
		}
		return out, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return out, ErrUnauthenticated
	}

	//access/refresh発行
	pair, err := u.tokens.Issue(user.ID)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	//refreshのダイジェストを保存してからレスポンスを返す（前のセッションはここで無効になる）
	if err := u.userRepo.SetRefreshToken(ctx, user.ID, u.tokens.Digest(pair.RefreshToken)); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return out, ErrUnauthenticated
		}
		return out, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	publish(ctx, u.events, u.clock, model.AuthEventLogin, user.ID)

	out.User = NewUserProfile(user)
	out.AccessToken = pair.AccessToken
	out.AccessExpiresAt = pair.AccessExpiresAt
	out.RefreshToken = pair.RefreshToken
	out.RefreshExpiresAt = pair.RefreshExpiresAt
	return out, nil
}
