package question

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL  = 5 * time.Minute
	categoryCacheKey = "trivia:categories"
)

// Cache keeps the category list in Redis so list and quiz requests skip the database.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ CategoryCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

type cachedCategory struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// Get returns the cached categories; a miss is (nil, false, nil).
func (c *Cache) Get(ctx context.Context) ([]Category, bool, error) {
	data, err := c.client.Get(ctx, categoryCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	var rows []cachedCategory
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, err
	}
	categories := make([]Category, len(rows))
	for i, row := range rows {
		categories[i] = Category{ID: row.ID, Type: row.Type}
	}
	return categories, true, nil
}

func (c *Cache) Set(ctx context.Context, categories []Category) error {
	rows := make([]cachedCategory, len(categories))
	for i, cat := range categories {
		rows[i] = cachedCategory{ID: cat.ID, Type: cat.Type}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, categoryCacheKey, data, c.ttl).Err()
}
