package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/models"
	"pricewatch/internal/storage"
)

func testRepo(t *testing.T) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewWithDB(mock), mock
}

func productColumns() []string {
	return []string{"id", "url", "name", "platform", "user_id", "created_at", "updated_at"}
}

func TestSaveProduct_New(t *testing.T) {
	repo, mock := testRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO products").
		WithArgs("https://www.flipkart.com/item", models.PlatformFlipkart, "user-1", "").
		WillReturnRows(pgxmock.NewRows(productColumns()).
			AddRow(int64(1), "https://www.flipkart.com/item", "", models.PlatformFlipkart, "user-1", now, now))

	p, created, err := repo.SaveProduct(context.Background(), "https://www.flipkart.com/item", models.PlatformFlipkart, "user-1", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), p.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveProduct_DuplicateURLReturnsExisting(t *testing.T) {
	repo, mock := testRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO products").
		WithArgs("https://www.flipkart.com/item", models.PlatformFlipkart, "user-2", "").
		WillReturnError(&pgconn.PgError{Code: storage.UniqueViolation})

	mock.ExpectQuery("SELECT id, url, name, platform, user_id, created_at, updated_at").
		WithArgs("https://www.flipkart.com/item").
		WillReturnRows(pgxmock.NewRows(productColumns()).
			AddRow(int64(1), "https://www.flipkart.com/item", "Phone", models.PlatformFlipkart, "user-1", now, now))

	p, created, err := repo.SaveProduct(context.Background(), "https://www.flipkart.com/item", models.PlatformFlipkart, "user-2", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "user-1", p.UserID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductByID_NotFound(t *testing.T) {
	repo, mock := testRepo(t)

	mock.ExpectQuery("SELECT id, url, name, platform, user_id, created_at, updated_at").
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.ProductByID(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrProductNotFound))
}

func TestUpdateProductName_NotFound(t *testing.T) {
	repo, mock := testRepo(t)

	mock.ExpectExec("UPDATE products").
		WithArgs("New Name", int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateProductName(context.Background(), 99, "New Name")
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrProductNotFound))
}

func TestLatestPrice_NotFound(t *testing.T) {
	repo, mock := testRepo(t)

	mock.ExpectQuery("SELECT id, product_id, price, currency, checked_at").
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.LatestPrice(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestSavePrice(t *testing.T) {
	repo, mock := testRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO prices").
		WithArgs(int64(7), 999.5, "INR").
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "price", "currency", "checked_at"}).
			AddRow(int64(1), int64(7), 999.5, "INR", now))

	obs, err := repo.SavePrice(context.Background(), 7, 999.5, "INR")
	require.NoError(t, err)
	assert.Equal(t, 999.5, obs.Price)
	assert.Equal(t, int64(7), obs.ProductID)
}

func TestReplaceOffers_Transactional(t *testing.T) {
	repo, mock := testRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM offers").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("INSERT INTO offers").
		WithArgs(int64(7), "10% off with HDFC cards", models.OfferTypeBank, "HDFC").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.ReplaceOffers(context.Background(), 7, []models.OfferRecord{
		{ProductID: 7, OfferText: "10% off with HDFC cards", OfferType: models.OfferTypeBank, BankName: "HDFC"},
	})
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceOffers_RollbackOnInsertFailure(t *testing.T) {
	repo, mock := testRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM offers").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO offers").
		WithArgs(int64(7), "bad offer", models.OfferTypeGeneral, "").
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	err := repo.ReplaceOffers(context.Background(), 7, []models.OfferRecord{
		{ProductID: 7, OfferText: "bad offer", OfferType: models.OfferTypeGeneral},
	})
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestStock_NotFound(t *testing.T) {
	repo, mock := testRepo(t)

	mock.ExpectQuery("SELECT id, product_id, in_stock, stock_text, checked_at").
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.LatestStock(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestDeleteProduct(t *testing.T) {
	repo, mock := testRepo(t)

	mock.ExpectExec("DELETE FROM products").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.DeleteProduct(context.Background(), 7))
}

func TestClearOffers(t *testing.T) {
	repo, mock := testRepo(t)

	mock.ExpectExec("DELETE FROM offers").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	deleted, err := repo.ClearOffers(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}
