package products

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/events"
	"pricewatch/internal/models"
)

type fakeSaver struct {
	product models.Product
	created bool
	err     error
}

func (s *fakeSaver) SaveProduct(_ context.Context, _ string, _ models.Platform, _, _ string) (models.Product, bool, error) {
	return s.product, s.created, s.err
}

type fakeBus struct {
	channels []string
	payloads []any
}

func (b *fakeBus) Publish(_ context.Context, channel string, v any) error {
	b.channels = append(b.channels, channel)
	b.payloads = append(b.payloads, v)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postProduct(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	return rec
}

func TestAdd_CreatesProductAndPublishesScrapeRequest(t *testing.T) {
	saver := &fakeSaver{
		product: models.Product{
			ID:       1,
			URL:      "https://www.flipkart.com/item",
			Platform: models.PlatformFlipkart,
			UserID:   "user-1",
		},
		created: true,
	}
	bus := &fakeBus{}

	handler := NewAdd(testLogger(), saver, bus, validator.New())
	rec := postProduct(t, handler, `{
		"url": "https://www.flipkart.com/item",
		"platform": "flipkart",
		"user_id": "user-1"
	}`)

	assert.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, bus.channels, 1)
	assert.Equal(t, events.ChannelScrapeRequest, bus.channels[0])

	scrapeReq, ok := bus.payloads[0].(events.ScrapeRequest)
	require.True(t, ok)
	assert.Equal(t, int64(1), scrapeReq.ProductID)
	assert.True(t, strings.HasPrefix(scrapeReq.RequestID, "track-1-"))

	var got models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.ID)
}

func TestAdd_DuplicateURLReturnsExisting(t *testing.T) {
	saver := &fakeSaver{
		product: models.Product{ID: 1, URL: "https://www.flipkart.com/item", Platform: models.PlatformFlipkart},
		created: false,
	}
	bus := &fakeBus{}

	handler := NewAdd(testLogger(), saver, bus, validator.New())
	rec := postProduct(t, handler, `{
		"url": "https://www.flipkart.com/item",
		"platform": "flipkart",
		"user_id": "user-2"
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdd_RejectsInvalidURL(t *testing.T) {
	handler := NewAdd(testLogger(), &fakeSaver{}, &fakeBus{}, validator.New())
	rec := postProduct(t, handler, `{
		"url": "not-a-url",
		"platform": "flipkart",
		"user_id": "user-1"
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a valid URL")
}

func TestAdd_RejectsUnsupportedPlatform(t *testing.T) {
	handler := NewAdd(testLogger(), &fakeSaver{}, &fakeBus{}, validator.New())
	rec := postProduct(t, handler, `{
		"url": "https://example.com/item",
		"platform": "ebay",
		"user_id": "user-1"
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unsupported platform")
}

func TestAdd_RejectsMissingFields(t *testing.T) {
	handler := NewAdd(testLogger(), &fakeSaver{}, &fakeBus{}, validator.New())
	rec := postProduct(t, handler, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdd_RejectsMalformedBody(t *testing.T) {
	handler := NewAdd(testLogger(), &fakeSaver{}, &fakeBus{}, validator.New())
	rec := postProduct(t, handler, `{broken`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
