package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	sl "pricewatch/internal/lib/logger"
)

var (
	ErrNoSubscriptions   = errors.New("no channels subscribed")
	ErrAlreadyRunning    = errors.New("bus is already running")
	ErrHandlerRegistered = errors.New("handler already registered for channel")
)

// Handler обрабатывает сырое тело сообщения. Невалидный payload обработчик
// логирует и отбрасывает сам: шина не знает схем каналов.
type Handler func(ctx context.Context, payload []byte)

// Bus — pub/sub поверх Redis. Доставка at-most-once, без подтверждений и
// повторов; на канал регистрируется ровно один обработчик на процесс,
// сообщения одного канала обрабатываются последовательно.
type Bus struct {
	pub *redis.Client
	sub *redis.Client
	log *slog.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	running  bool
}

func New(ctx context.Context, addr string, db int, log *slog.Logger) (*Bus, error) {
	const op = "bus.New"

	pub := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	sub := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	if err := pub.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Bus{
		pub:      pub,
		sub:      sub,
		log:      log,
		handlers: make(map[string]Handler),
	}, nil
}

// Publish сериализует payload и отправляет его в канал. Ошибка транспорта
// возвращается вызывающему, а не глотается.
func (b *Bus) Publish(ctx context.Context, channel string, v any) error {
	const op = "bus.Publish"

	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}

	if err := b.pub.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	b.log.Debug("published", slog.String("channel", channel))

	return nil
}

// Subscribe регистрирует обработчик канала. Вызывать до Run.
func (b *Bus) Subscribe(channel string, h Handler) error {
	const op = "bus.Subscribe"

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return fmt.Errorf("%s: %w", op, ErrAlreadyRunning)
	}
	if _, ok := b.handlers[channel]; ok {
		return fmt.Errorf("%s: %s: %w", op, channel, ErrHandlerRegistered)
	}

	b.handlers[channel] = h

	return nil
}

// Run подписывается на все зарегистрированные каналы и крутит цикл доставки
// до отмены контекста. При обрыве соединения переподписывается с
// ограниченным экспоненциальным backoff; сообщения, опубликованные за время
// обрыва, теряются.
func (b *Bus) Run(ctx context.Context) error {
	const op = "bus.Run"

	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrAlreadyRunning)
	}
	if len(b.handlers) == 0 {
		b.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrNoSubscriptions)
	}
	b.running = true

	channels := make([]string, 0, len(b.handlers))
	for ch := range b.handlers {
		channels = append(channels, ch)
	}
	b.mu.Unlock()

	for {
		if err := b.consume(ctx, channels); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		select {
		case <-ctx.Done():
			return nil
		default:
			b.log.Warn("subscription lost, resubscribing")
		}
	}
}

func (b *Bus) consume(ctx context.Context, channels []string) error {
	pubsub := b.sub.Subscribe(ctx, channels...)
	defer pubsub.Close()

	confirm := func() error {
		_, err := pubsub.Receive(ctx)
		return err
	}
	if err := backoff.Retry(confirm, backoff.WithContext(newBackoff(), ctx)); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	b.log.Info("subscribed", slog.Any("channels", channels))

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			b.dispatch(ctx, msg)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, msg *redis.Message) {
	b.mu.Lock()
	h, ok := b.handlers[msg.Channel]
	b.mu.Unlock()

	if !ok {
		b.log.Warn("no handler for channel", slog.String("channel", msg.Channel))
		return
	}

	h(ctx, []byte(msg.Payload))
}

func (b *Bus) Close() error {
	if err := b.sub.Close(); err != nil {
		b.log.Error("failed to close subscriber", sl.Err(err))
	}
	return b.pub.Close()
}

func newBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 30 * time.Second
	return bo
}
