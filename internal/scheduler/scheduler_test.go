package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/events"
	"pricewatch/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeLister struct {
	products []models.Product
	err      error
}

func (l *fakeLister) Products(_ context.Context) ([]models.Product, error) {
	return l.products, l.err
}

type fakeBus struct {
	mu       sync.Mutex
	requests []events.ScrapeRequest
	failFor  map[int64]error
}

func (b *fakeBus) Publish(_ context.Context, _ string, v any) error {
	req, ok := v.(events.ScrapeRequest)
	if !ok {
		return errors.New("unexpected payload type")
	}

	if err, fail := b.failFor[req.ProductID]; fail {
		return err
	}

	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	return nil
}

func (b *fakeBus) published() []events.ScrapeRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.ScrapeRequest(nil), b.requests...)
}

func products(ids ...int64) []models.Product {
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Product{
			ID:       id,
			URL:      "https://www.flipkart.com/item",
			Platform: models.PlatformFlipkart,
		})
	}
	return out
}

func TestScheduler_FansOutRequests(t *testing.T) {
	lister := &fakeLister{products: products(1, 2, 3)}
	bus := &fakeBus{}

	s := New(testLogger(), lister, bus, "*/30 * * * *", 0)

	require.NoError(t, s.Run(context.Background()))

	reqs := bus.published()
	require.Len(t, reqs, 3)
	assert.Equal(t, int64(1), reqs[0].ProductID)
	assert.True(t, strings.HasPrefix(reqs[0].RequestID, "scheduled-1-"))

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.TotalRuns)
	assert.Equal(t, int64(3), stats.ProductsChecked)
	assert.Equal(t, int64(0), stats.Errors)
	require.NotNil(t, stats.LastRun)
}

func TestScheduler_PublishErrorDoesNotStopRun(t *testing.T) {
	lister := &fakeLister{products: products(1, 2, 3)}
	bus := &fakeBus{failFor: map[int64]error{2: errors.New("bus down")}}

	s := New(testLogger(), lister, bus, "*/30 * * * *", 0)

	require.NoError(t, s.Run(context.Background()))

	reqs := bus.published()
	require.Len(t, reqs, 2)

	stats := s.Stats()
	assert.Equal(t, int64(2), stats.ProductsChecked)
	assert.Equal(t, int64(1), stats.Errors)
}

func TestScheduler_StoreErrorCounted(t *testing.T) {
	lister := &fakeLister{err: errors.New("store unavailable")}
	bus := &fakeBus{}

	s := New(testLogger(), lister, bus, "*/30 * * * *", 0)

	require.Error(t, s.Run(context.Background()))

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.TotalRuns)
	assert.Equal(t, int64(1), stats.Errors)
}

func TestScheduler_OverlappingRunIsNoop(t *testing.T) {
	lister := &fakeLister{products: products(1, 2, 3, 4, 5)}
	bus := &fakeBus{}

	// заметная пауза удерживает первый проход активным
	s := New(testLogger(), lister, bus, "*/30 * * * *", 50*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Run(context.Background())
	}()

	require.Eventually(t, func() bool {
		return len(bus.published()) > 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Run(context.Background()))
	wg.Wait()

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.TotalRuns)
	assert.Equal(t, int64(5), stats.ProductsChecked)
}

func TestScheduler_CancelledContextStopsRun(t *testing.T) {
	lister := &fakeLister{products: products(1, 2, 3)}
	bus := &fakeBus{}

	s := New(testLogger(), lister, bus, "*/30 * * * *", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := s.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestScheduler_StartRejectsBadPattern(t *testing.T) {
	s := New(testLogger(), &fakeLister{}, &fakeBus{}, "not a cron", 0)

	require.Error(t, s.Start())
}

func TestScheduler_StatsCarryCronPattern(t *testing.T) {
	s := New(testLogger(), &fakeLister{}, &fakeBus{}, "*/30 * * * *", 0)

	assert.Equal(t, "*/30 * * * *", s.Stats().CronPattern)
	assert.Nil(t, s.Stats().NextRun)
}
