package auth

import (
	"context"

	"ecshop/internal/domain/model"
)

// イベント送信の約束（失敗してもリクエストは止めない）
type EventPublisher interface {
	Publish(ctx context.Context, ev model.AuthEvent)
}

// 何もしないpublisher（AMQP_URL未設定時とテスト用）
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.AuthEvent) {}

func publish(ctx context.Context, p EventPublisher, clock Clock, typ model.AuthEventType, userID string) {
	if p == nil {
		return
	}
	p.Publish(ctx, model.AuthEvent{Type: typ, UserID: userID, At: clock.Now().UTC()})
}
