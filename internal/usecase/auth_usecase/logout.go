package auth

import (
	"context"
	"errors"
	"fmt"

	"ecshop/internal/domain/model"
	"ecshop/internal/repository"
)

type LogoutUsecase struct {
	userRepo repository.UserRepository
	events   EventPublisher
	clock    Clock
}

func NewLogoutUsecase(userRepo repository.UserRepository, events EventPublisher, clock Clock) *LogoutUsecase {
	return &LogoutUsecase{userRepo: userRepo, events: events, clock: clock}
}

// 保存中のrefreshを消す（何度呼んでも同じ結果）
func (u *LogoutUsecase) Execute(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	err := u.userRepo.SetRefreshToken(ctx, userID, "")
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	publish(ctx, u.events, u.clock, model.AuthEventLogout, userID)
	return nil
}
