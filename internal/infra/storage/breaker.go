package storage

import (
	"context"
	"io"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// 画像アップロード先の約束
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type BreakerConfig struct {
	MaxFailures uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// 連続で失敗したらしばらくアップロードを試さない
type BreakerStore struct {
	next Uploader
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerStore(next Uploader, cfg BreakerConfig, log *zap.Logger) *BreakerStore {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:        "image-store",
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &BreakerStore{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *BreakerStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Upload(ctx, key, body, contentType)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// 今の状態（healthzやテスト用）
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}
