package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pricewatch/internal/models"
	"pricewatch/internal/storage"
)

// Repo — кэш продуктов поверх Redis, cache-aside с TTL.
type Repo struct {
	client     *redis.Client
	DefaultTTL time.Duration
}

func New(ctx context.Context, address string, db int, defaultTTL time.Duration) (*Repo, error) {
	const op = "storage.cache.New"

	rdb := redis.NewClient(&redis.Options{
		Addr: address,
		DB:   db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Repo{
		client:     rdb,
		DefaultTTL: defaultTTL,
	}, nil
}

func (r *Repo) SaveProduct(ctx context.Context, product models.Product) error {
	const op = "storage.cache.SaveProduct"

	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := productKey(product.ID)

	if err := r.client.Set(ctx, key, data, r.DefaultTTL).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *Repo) Product(ctx context.Context, productID int64) (models.Product, error) {
	const op = "storage.cache.Product"

	var product models.Product

	data, err := r.client.Get(ctx, productKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return product, storage.ErrProductNotFound
		}
		return product, fmt.Errorf("%s: %w", op, err)
	}

	if err := json.Unmarshal(data, &product); err != nil {
		return product, fmt.Errorf("%s: %w", op, err)
	}

	return product, nil
}

// Invalidate сбрасывает запись после изменения или удаления продукта.
func (r *Repo) Invalidate(ctx context.Context, productID int64) error {
	const op = "storage.cache.Invalidate"

	if err := r.client.Del(ctx, productKey(productID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *Repo) Close() {
	r.client.Close()
}

func productKey(productID int64) string {
	return fmt.Sprintf("product:%d", productID)
}
