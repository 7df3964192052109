package categories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-divvit-tracking/internal/tracking"
)

// TreeSource is the two step lookup the cache sits in front of. *Store
// implements it.
type TreeSource interface {
	CategoryIDByArticle(ctx context.Context, articleID string) (string, error)
	Tree(ctx context.Context, categoryID string) ([]tracking.CategoryNode, error)
}

// RedisCache is a read-through cache in front of a TreeSource. Article
// mappings and category trees are cached under separate keys so each admin
// write can invalidate exactly what it changed. Redis failures fall through
// to the backend.
type RedisCache struct {
	client  *redis.Client
	next    TreeSource
	baseTTL time.Duration
	logger  *zap.Logger
}

// NewRedisCache wraps next with a Redis cache.
func NewRedisCache(client *redis.Client, next TreeSource, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{
		client:  client,
		next:    next,
		baseTTL: ttl,
		logger:  logger,
	}
}

// CategoryTree implements tracking.CategoryLookup.
func (r *RedisCache) CategoryTree(ctx context.Context, articleID string) ([]tracking.CategoryNode, error) {
	categoryID, err := r.categoryID(ctx, articleID)
	if err != nil || categoryID == "" {
		return nil, err
	}

	key := treeKey(categoryID)
	var tree []tracking.CategoryNode
	if r.get(ctx, key, &tree) {
		return tree, nil
	}

	tree, err = r.next.Tree(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		tree = []tracking.CategoryNode{}
	}
	r.set(ctx, key, tree)
	return tree, nil
}

func (r *RedisCache) categoryID(ctx context.Context, articleID string) (string, error) {
	key := articleKey(articleID)
	var categoryID string
	if r.get(ctx, key, &categoryID) {
		return categoryID, nil
	}

	categoryID, err := r.next.CategoryIDByArticle(ctx, articleID)
	if err != nil {
		return "", err
	}
	r.set(ctx, key, categoryID)
	return categoryID, nil
}

// InvalidateArticle drops the cached category of an article.
func (r *RedisCache) InvalidateArticle(ctx context.Context, articleID string) error {
	return r.del(ctx, articleKey(articleID))
}

// InvalidateCategory drops the cached tree of a category.
func (r *RedisCache) InvalidateCategory(ctx context.Context, categoryID string) error {
	return r.del(ctx, treeKey(categoryID))
}

// get decodes a cached entry into out. Misses, corrupt entries and Redis
// errors all report false.
func (r *RedisCache) get(ctx context.Context, key string, out any) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(data, out); err == nil {
			return true
		}
		r.logger.Warn("discarding corrupt category cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("category cache get failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (r *RedisCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("category cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}

	jitter := time.Duration(rand.Int63n(int64(r.baseTTL)/4 + 1))
	if err := r.client.Set(ctx, key, data, r.baseTTL+jitter).Err(); err != nil {
		r.logger.Warn("category cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *RedisCache) del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func articleKey(articleID string) string {
	return fmt.Sprintf("article-category:%s", articleID)
}

func treeKey(categoryID string) string {
	return fmt.Sprintf("category-tree:%s", categoryID)
}
