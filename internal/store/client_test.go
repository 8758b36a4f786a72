package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(srv.URL, 2*time.Second)
}

func TestClient_Products(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.Product{
			{ID: 1, URL: "https://www.flipkart.com/item", Platform: models.PlatformFlipkart},
		})
	})

	got, err := c.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestClient_ProductNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Product(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClient_LatestPriceNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prices/7/latest", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.LatestPrice(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClient_SavePrice(t *testing.T) {
	var body map[string]any

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/prices/7", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, c.SavePrice(context.Background(), 7, 999.5, "INR"))
	assert.Equal(t, 999.5, body["price"])
	assert.Equal(t, "INR", body["currency"])
}

func TestClient_OffersNotFoundIsEmpty(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	offers, err := c.Offers(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, offers)
}

func TestClient_ReplaceOffers(t *testing.T) {
	var body struct {
		Offers []models.OfferRecord `json:"offers"`
	}

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/offers/7", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	})

	records := []models.OfferRecord{
		{ProductID: 7, OfferText: "10% off with HDFC cards", OfferType: models.OfferTypeBank, BankName: "HDFC"},
	}

	require.NoError(t, c.ReplaceOffers(context.Background(), 7, records))
	require.Len(t, body.Offers, 1)
	assert.Equal(t, "HDFC", body.Offers[0].BankName)
}

func TestClient_SaveStock(t *testing.T) {
	var body map[string]any

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/7", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	})

	require.NoError(t, c.SaveStock(context.Background(), 7, false, "Out of Stock"))
	assert.Equal(t, false, body["in_stock"])
	assert.Equal(t, "Out of Stock", body["stock_text"])
}

func TestClient_UpdateProductName(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/products/7", r.URL.Path)
	})

	require.NoError(t, c.UpdateProductName(context.Background(), 7, "New Name"))
}

func TestClient_ServerErrorSurfaces(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Products(context.Background())
	require.Error(t, err)
}
