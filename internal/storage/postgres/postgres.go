package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pricewatch/internal/config"
	"pricewatch/internal/models"
	"pricewatch/internal/storage"
)

// DB покрывает *pgxpool.Pool и pgxmock в тестах.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repo struct {
	db   DB
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.Postgres) (*Repo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%s: ping failed: %w", op, err)
	}

	return &Repo{db: pool, pool: pool}, nil
}

// NewWithDB используется в тестах с подменённым соединением.
func NewWithDB(db DB) *Repo {
	return &Repo{db: db}
}

// Init создаёт схему, если её ещё нет.
func (r *Repo) Init(ctx context.Context) error {
	const op = "storage.postgres.Init"

	const ddl = `
		CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			platform TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS prices (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			price DOUBLE PRECISION NOT NULL,
			currency TEXT NOT NULL DEFAULT 'INR',
			checked_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS offers (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			offer_text TEXT NOT NULL,
			offer_type TEXT NOT NULL DEFAULT '',
			bank_name TEXT NOT NULL DEFAULT '',
			checked_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS stock_status (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			in_stock BOOLEAN NOT NULL,
			stock_text TEXT NOT NULL DEFAULT '',
			checked_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_products_user_id ON products(user_id);
		CREATE INDEX IF NOT EXISTS idx_prices_product_id ON prices(product_id, checked_at DESC);
		CREATE INDEX IF NOT EXISTS idx_offers_product_id ON offers(product_id);
		CREATE INDEX IF NOT EXISTS idx_stock_product_id ON stock_status(product_id, checked_at DESC);
	`

	if _, err := r.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * SaveProduct добавляет продукт. Повторный URL возвращает уже существующую
// * запись — продукт с уникальным URL существует в системе в одном экземпляре.
func (r *Repo) SaveProduct(ctx context.Context, url string, platform models.Platform, userID, name string) (models.Product, bool, error) {
	const op = "storage.postgres.SaveProduct"

	const query = `
		INSERT INTO products (url, platform, user_id, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, url, name, platform, user_id, created_at, updated_at
	`

	var p models.Product

	err := r.db.QueryRow(ctx, query, url, platform, userID, name).Scan(
		&p.ID, &p.URL, &p.Name, &p.Platform, &p.UserID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == storage.UniqueViolation {
			existing, selErr := r.ProductByURL(ctx, url)
			if selErr != nil {
				return models.Product{}, false, fmt.Errorf("%s: %w", op, selErr)
			}
			return existing, false, nil
		}

		return models.Product{}, false, fmt.Errorf("%s: failed to save product: %w", op, err)
	}

	return p, true, nil
}

func (r *Repo) Products(ctx context.Context) ([]models.Product, error) {
	const op = "storage.postgres.Products"

	const query = `
		SELECT id, url, name, platform, user_id, created_at, updated_at
		FROM products
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Product])
	if err != nil {
		return nil, fmt.Errorf("%s: collect: %w", op, err)
	}

	return products, nil
}

func (r *Repo) ProductsByUser(ctx context.Context, userID string) ([]models.Product, error) {
	const op = "storage.postgres.ProductsByUser"

	const query = `
		SELECT id, url, name, platform, user_id, created_at, updated_at
		FROM products
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Product])
	if err != nil {
		return nil, fmt.Errorf("%s: collect: %w", op, err)
	}

	return products, nil
}

func (r *Repo) ProductByID(ctx context.Context, productID int64) (models.Product, error) {
	const op = "storage.postgres.ProductByID"

	const query = `
		SELECT id, url, name, platform, user_id, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var p models.Product

	err := r.db.QueryRow(ctx, query, productID).Scan(
		&p.ID, &p.URL, &p.Name, &p.Platform, &p.UserID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, storage.ErrProductNotFound
		}

		return models.Product{}, fmt.Errorf("%s: failed to scan product: %w", op, err)
	}

	return p, nil
}

func (r *Repo) ProductByURL(ctx context.Context, url string) (models.Product, error) {
	const op = "storage.postgres.ProductByURL"

	const query = `
		SELECT id, url, name, platform, user_id, created_at, updated_at
		FROM products
		WHERE url = $1
	`

	var p models.Product

	err := r.db.QueryRow(ctx, query, url).Scan(
		&p.ID, &p.URL, &p.Name, &p.Platform, &p.UserID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, storage.ErrProductNotFound
		}

		return models.Product{}, fmt.Errorf("%s: failed to scan product: %w", op, err)
	}

	return p, nil
}

func (r *Repo) UpdateProductName(ctx context.Context, productID int64, name string) error {
	const op = "storage.postgres.UpdateProductName"

	const query = `
		UPDATE products
		SET name = $1,
			updated_at = now()
		WHERE id = $2
	`

	cmd, err := r.db.Exec(ctx, query, name, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmd.RowsAffected() == 0 {
		return storage.ErrProductNotFound
	}

	return nil
}

func (r *Repo) DeleteProduct(ctx context.Context, productID int64) error {
	const op = "storage.postgres.DeleteProduct"

	const query = `
		DELETE FROM products
		WHERE id = $1
	`

	cmd, err := r.db.Exec(ctx, query, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmd.RowsAffected() == 0 {
		return storage.ErrProductNotFound
	}

	return nil
}

// * SavePrice добавляет наблюдение цены. Лог цен append-only.
func (r *Repo) SavePrice(ctx context.Context, productID int64, price float64, currency string) (models.PriceObservation, error) {
	const op = "storage.postgres.SavePrice"

	const query = `
		INSERT INTO prices (product_id, price, currency)
		VALUES ($1, $2, $3)
		RETURNING id, product_id, price, currency, checked_at
	`

	var obs models.PriceObservation

	err := r.db.QueryRow(ctx, query, productID, price, currency).Scan(
		&obs.ID, &obs.ProductID, &obs.Price, &obs.Currency, &obs.CheckedAt,
	)
	if err != nil {
		return models.PriceObservation{}, fmt.Errorf("%s: %w", op, err)
	}

	return obs, nil
}

func (r *Repo) LatestPrice(ctx context.Context, productID int64) (models.PriceObservation, error) {
	const op = "storage.postgres.LatestPrice"

	const query = `
		SELECT id, product_id, price, currency, checked_at
		FROM prices
		WHERE product_id = $1
		ORDER BY checked_at DESC, id DESC
		LIMIT 1
	`

	var obs models.PriceObservation

	err := r.db.QueryRow(ctx, query, productID).Scan(
		&obs.ID, &obs.ProductID, &obs.Price, &obs.Currency, &obs.CheckedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PriceObservation{}, storage.ErrNotFound
		}

		return models.PriceObservation{}, fmt.Errorf("%s: %w", op, err)
	}

	return obs, nil
}

func (r *Repo) PriceHistory(ctx context.Context, productID int64, limit int) ([]models.PriceObservation, error) {
	const op = "storage.postgres.PriceHistory"

	const query = `
		SELECT id, product_id, price, currency, checked_at
		FROM prices
		WHERE product_id = $1
		ORDER BY checked_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}

	history, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.PriceObservation])
	if err != nil {
		return nil, fmt.Errorf("%s: collect: %w", op, err)
	}

	return history, nil
}

// * Offers возвращает текущий набор офферов — все записи с последней замены.
func (r *Repo) Offers(ctx context.Context, productID int64) ([]models.OfferRecord, error) {
	const op = "storage.postgres.Offers"

	const query = `
		SELECT id, product_id, offer_text, offer_type, bank_name, checked_at
		FROM offers
		WHERE product_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}

	offers, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.OfferRecord])
	if err != nil {
		return nil, fmt.Errorf("%s: collect: %w", op, err)
	}

	return offers, nil
}

// * ReplaceOffers заменяет набор офферов продукта в одной транзакции:
// * частично обновлённого набора снаружи не видно.
func (r *Repo) ReplaceOffers(ctx context.Context, productID int64, offers []models.OfferRecord) error {
	const op = "storage.postgres.ReplaceOffers"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM offers WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("%s: clear: %w", op, err)
	}

	const insert = `
		INSERT INTO offers (product_id, offer_text, offer_type, bank_name)
		VALUES ($1, $2, $3, $4)
	`

	for _, offer := range offers {
		if _, err := tx.Exec(ctx, insert, productID, offer.OfferText, offer.OfferType, offer.BankName); err != nil {
			return fmt.Errorf("%s: insert: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func (r *Repo) ClearOffers(ctx context.Context, productID int64) (int64, error) {
	const op = "storage.postgres.ClearOffers"

	cmd, err := r.db.Exec(ctx, `DELETE FROM offers WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cmd.RowsAffected(), nil
}

func (r *Repo) SaveStock(ctx context.Context, productID int64, inStock bool, stockText string) (models.StockObservation, error) {
	const op = "storage.postgres.SaveStock"

	const query = `
		INSERT INTO stock_status (product_id, in_stock, stock_text)
		VALUES ($1, $2, $3)
		RETURNING id, product_id, in_stock, stock_text, checked_at
	`

	var obs models.StockObservation

	err := r.db.QueryRow(ctx, query, productID, inStock, stockText).Scan(
		&obs.ID, &obs.ProductID, &obs.InStock, &obs.StockText, &obs.CheckedAt,
	)
	if err != nil {
		return models.StockObservation{}, fmt.Errorf("%s: %w", op, err)
	}

	return obs, nil
}

func (r *Repo) LatestStock(ctx context.Context, productID int64) (models.StockObservation, error) {
	const op = "storage.postgres.LatestStock"

	const query = `
		SELECT id, product_id, in_stock, stock_text, checked_at
		FROM stock_status
		WHERE product_id = $1
		ORDER BY checked_at DESC, id DESC
		LIMIT 1
	`

	var obs models.StockObservation

	err := r.db.QueryRow(ctx, query, productID).Scan(
		&obs.ID, &obs.ProductID, &obs.InStock, &obs.StockText, &obs.CheckedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.StockObservation{}, storage.ErrNotFound
		}

		return models.StockObservation{}, fmt.Errorf("%s: %w", op, err)
	}

	return obs, nil
}

// * Close закрывает соединение с базой данных.
func (r *Repo) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// * dsn формирует конфигурацию базы данных.
func dsn(cfg config.Postgres) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)
}
