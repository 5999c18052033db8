package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ecshop/internal/domain/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const AuthEventsQueue = "auth.events"

const (
	defaultBuffer  = 256
	publishTimeout = 3 * time.Second
)

// AuthEventPublisherはイベントをバッファに積み、1つのgoroutineでRabbitMQに送る
// Publishはブロックしない（バッファが一杯なら捨ててログに残す）
type AuthEventPublisher struct {
	url  string
	log  *zap.Logger
	send func(ctx context.Context, msg amqp.Publishing) error

	mu     sync.RWMutex
	closed bool
	events chan model.AuthEvent
	done   chan struct{}
	once   sync.Once

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAuthEventPublisher(url string, log *zap.Logger) *AuthEventPublisher {
	p := newPublisher(log, defaultBuffer)
	p.url = url
	p.send = p.publishAMQP
	go p.run()
	return p
}

func newPublisher(log *zap.Logger, buffer int) *AuthEventPublisher {
	return &AuthEventPublisher{
		log:    log,
		events: make(chan model.AuthEvent, buffer),
		done:   make(chan struct{}),
	}
}

func (p *AuthEventPublisher) Publish(_ context.Context, ev model.AuthEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	select {
	case p.events <- ev:
	default:
		p.log.Warn("auth event dropped", zap.String("type", string(ev.Type)), zap.String("user_id", ev.UserID))
	}
}

// 残っているイベントを送り切ってから閉じる
func (p *AuthEventPublisher) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.events)
		p.mu.Unlock()

		<-p.done
		p.closeConn()
	})
}

func (p *AuthEventPublisher) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// 停止中に送信が失敗したら、残りは送らずに捨てる
func (p *AuthEventPublisher) run() {
	defer close(p.done)

	giveUp := false
	dropped := 0
	for ev := range p.events {
		if giveUp {
			dropped++
			continue
		}

		msg, err := encodeEvent(ev)
		if err != nil {
			p.log.Error("auth event marshal failed", zap.Error(err))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err = p.send(ctx, msg)
		cancel()
		if err != nil {
			p.log.Warn("auth event publish failed", zap.String("type", string(ev.Type)), zap.Error(err))
			giveUp = p.isClosed()
		}
	}
	if dropped > 0 {
		p.log.Warn("auth events dropped on shutdown", zap.Int("count", dropped))
	}
}

func encodeEvent(ev model.AuthEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.At,
		Type:         string(ev.Type),
		Body:         body,
	}, nil
}

// 失敗したら接続を捨てて次のイベントで張り直す
func (p *AuthEventPublisher) publishAMQP(ctx context.Context, msg amqp.Publishing) error {
	if err := p.ensureChannel(); err != nil {
		return err
	}

	err := p.ch.PublishWithContext(ctx,
		"",              // default exchange
		AuthEventsQueue, // routing key = queue name
		false,
		false,
		msg,
	)
	if err != nil {
		p.closeConn()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *AuthEventPublisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.closeConn()

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(publishTimeout),
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel open: %w", err)
	}
	// durableなのでブローカー再起動でも残る
	if _, err := ch.QueueDeclare(AuthEventsQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("queue declare: %w", err)
	}

	p.conn = conn
	p.ch = ch
	return nil
}

func (p *AuthEventPublisher) closeConn() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
