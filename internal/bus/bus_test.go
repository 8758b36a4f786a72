package bus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBus(t *testing.T) (*Bus, context.Context) {
	t.Helper()

	mr := miniredis.RunT(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	b, err := New(ctx, mr.Addr(), 0, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	return b, ctx
}

func TestBus_PublishDelivered(t *testing.T) {
	b, ctx := testBus(t)

	got := make(chan []byte, 1)
	require.NoError(t, b.Subscribe("scrape:request", func(_ context.Context, payload []byte) {
		got <- payload
	}))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- b.Run(runCtx) }()

	// ждём фактической подписки, иначе публикация уйдёт в пустоту
	require.Eventually(t, func() bool {
		return publish(ctx, b, "scrape:request", map[string]int64{"productId": 1}) &&
			received(got)
	}, 3*time.Second, 50*time.Millisecond)

	stop()
	require.NoError(t, <-done)
}

func TestBus_PayloadIsJSON(t *testing.T) {
	b, ctx := testBus(t)

	got := make(chan []byte, 8)
	require.NoError(t, b.Subscribe("alert:price-change", func(_ context.Context, payload []byte) {
		got <- payload
	}))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	go func() { _ = b.Run(runCtx) }()

	var payload []byte
	require.Eventually(t, func() bool {
		if !publish(ctx, b, "alert:price-change", map[string]string{"percentChange": "12.00"}) {
			return false
		}
		select {
		case payload = <-got:
			return true
		default:
			return false
		}
	}, 3*time.Second, 50*time.Millisecond)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "12.00", decoded["percentChange"])
}

func TestBus_SubscribeDuplicateChannel(t *testing.T) {
	b, _ := testBus(t)

	noop := func(context.Context, []byte) {}

	require.NoError(t, b.Subscribe("scrape:result", noop))

	err := b.Subscribe("scrape:result", noop)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHandlerRegistered))
}

func TestBus_RunWithoutSubscriptions(t *testing.T) {
	b, ctx := testBus(t)

	err := b.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSubscriptions))
}

func TestBus_RunTwice(t *testing.T) {
	b, ctx := testBus(t)

	require.NoError(t, b.Subscribe("scrape:result", func(context.Context, []byte) {}))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	go func() { _ = b.Run(runCtx) }()

	require.Eventually(t, func() bool {
		err := b.Run(runCtx)
		return err != nil && errors.Is(err, ErrAlreadyRunning)
	}, 3*time.Second, 50*time.Millisecond)
}

func TestBus_NoSubscriberMessageLost(t *testing.T) {
	b, ctx := testBus(t)

	// никто не подписан: публикация проходит без ошибки, сообщение пропадает
	require.NoError(t, b.Publish(ctx, "scrape:request", map[string]int64{"productId": 1}))
}

func publish(ctx context.Context, b *Bus, channel string, v any) bool {
	return b.Publish(ctx, channel, v) == nil
}

func received(ch chan []byte) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
