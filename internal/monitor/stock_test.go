package monitor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/events"
	"pricewatch/internal/models"
	"pricewatch/internal/store"
)

type fakeStockStore struct {
	product   models.Product
	latest    models.StockObservation
	latestErr error
	saved     []models.StockObservation
}

func (s *fakeStockStore) Product(_ context.Context, _ int64) (models.Product, error) {
	return s.product, nil
}

func (s *fakeStockStore) LatestStock(_ context.Context, _ int64) (models.StockObservation, error) {
	return s.latest, s.latestErr
}

func (s *fakeStockStore) SaveStock(_ context.Context, productID int64, inStock bool, stockText string) error {
	s.saved = append(s.saved, models.StockObservation{
		ProductID: productID,
		InStock:   inStock,
		StockText: stockText,
	})
	return nil
}

func stockResult(t *testing.T, inStock bool, text string) []byte {
	t.Helper()

	payload, err := json.Marshal(events.ScrapeResult{
		ProductID: 42,
		Platform:  models.PlatformAmazon,
		Data: models.Snapshot{
			Name:  "Phone",
			Stock: &models.Stock{InStock: inStock, Text: text},
		},
	})
	require.NoError(t, err)

	return payload
}

func lastStockAlert(t *testing.T, pub *fakePublisher) events.StockChangeAlert {
	t.Helper()
	require.NotEmpty(t, pub.payloads)
	alert, ok := pub.payloads[len(pub.payloads)-1].(events.StockChangeAlert)
	require.True(t, ok)
	return alert
}

func TestStockMonitor_OutOfStockTransition(t *testing.T) {
	st := &fakeStockStore{
		product: models.Product{ID: 42, UserID: "user-1", Platform: models.PlatformAmazon},
		latest:  models.StockObservation{ProductID: 42, InStock: true},
	}
	pub := &fakePublisher{}

	m := NewStockMonitor(discardLogger(), st, pub)
	m.HandleResult(context.Background(), stockResult(t, false, "Currently unavailable"))

	require.Len(t, pub.channels, 1)
	assert.Equal(t, events.ChannelAlertStockChange, pub.channels[0])

	alert := lastStockAlert(t, pub)
	assert.Equal(t, events.StockAlertOutOfStock, alert.AlertType)
	assert.True(t, alert.WasInStock)
	assert.False(t, alert.IsInStock)
	assert.Equal(t, "Currently unavailable", alert.StockText)
}

func TestStockMonitor_BackInStockTransition(t *testing.T) {
	st := &fakeStockStore{
		latest: models.StockObservation{ProductID: 42, InStock: false},
	}
	pub := &fakePublisher{}

	m := NewStockMonitor(discardLogger(), st, pub)
	m.HandleResult(context.Background(), stockResult(t, true, "In stock"))

	alert := lastStockAlert(t, pub)
	assert.Equal(t, events.StockAlertBackInStock, alert.AlertType)
	assert.False(t, alert.WasInStock)
	assert.True(t, alert.IsInStock)
}

func TestStockMonitor_NoTransitionNoAlert(t *testing.T) {
	st := &fakeStockStore{
		latest: models.StockObservation{ProductID: 42, InStock: true},
	}
	pub := &fakePublisher{}

	m := NewStockMonitor(discardLogger(), st, pub)
	m.HandleResult(context.Background(), stockResult(t, true, "In stock"))

	assert.Empty(t, pub.channels)
	require.Len(t, st.saved, 1)
	assert.True(t, st.saved[0].InStock)
}

func TestStockMonitor_FirstObservationIsBaseline(t *testing.T) {
	st := &fakeStockStore{latestErr: store.ErrNotFound}
	pub := &fakePublisher{}

	m := NewStockMonitor(discardLogger(), st, pub)
	m.HandleResult(context.Background(), stockResult(t, false, ""))

	assert.Empty(t, pub.channels)
	require.Len(t, st.saved, 1)
	assert.Equal(t, "Out of Stock", st.saved[0].StockText)
}

func TestStockMonitor_DefaultStockText(t *testing.T) {
	st := &fakeStockStore{latestErr: store.ErrNotFound}
	pub := &fakePublisher{}

	m := NewStockMonitor(discardLogger(), st, pub)
	m.HandleResult(context.Background(), stockResult(t, true, ""))

	require.Len(t, st.saved, 1)
	assert.Equal(t, "In Stock", st.saved[0].StockText)
}

func TestStockMonitor_NoStockDataSkipped(t *testing.T) {
	st := &fakeStockStore{}
	pub := &fakePublisher{}

	payload, err := json.Marshal(events.ScrapeResult{ProductID: 42})
	require.NoError(t, err)

	m := NewStockMonitor(discardLogger(), st, pub)
	m.HandleResult(context.Background(), payload)

	assert.Empty(t, st.saved)
	assert.Empty(t, pub.channels)
}
