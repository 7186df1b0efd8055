package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"uni-wizard/internal/domain"
)

// CatalogCache guarda catálogos de clusters por país, compartidos entre sesiones del proceso.
type CatalogCache interface {
	Get(ctx context.Context, countryCode string) ([]domain.ClusterOption, bool, error)
	Set(ctx context.Context, countryCode string, clusters []domain.ClusterOption, ttl time.Duration) error
}

type memoryCatalogEntry struct {
	clusters  []domain.ClusterOption
	expiresAt time.Time
}

type memoryCatalogCache struct {
	mu    sync.Mutex
	items map[string]memoryCatalogEntry
	now   func() time.Time
}

func NewMemoryCatalogCache() CatalogCache {
	return &memoryCatalogCache{
		items: make(map[string]memoryCatalogEntry),
		now:   time.Now,
	}
}

func (c *memoryCatalogCache) Get(_ context.Context, countryCode string) ([]domain.ClusterOption, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := normalizeCountry(countryCode)
	entry, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		delete(c.items, key)
		return nil, false, nil
	}
	return append([]domain.ClusterOption{}, entry.clusters...), true, nil
}

func (c *memoryCatalogCache) Set(_ context.Context, countryCode string, clusters []domain.ClusterOption, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := normalizeCountry(countryCode)
	if key == "" {
		return nil
	}
	entry := memoryCatalogEntry{clusters: append([]domain.ClusterOption{}, clusters...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.items[key] = entry
	return nil
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisCatalogCache struct {
	client redisKV
	prefix string
}

func NewRedisCatalogCache(client *redis.Client) CatalogCache {
	if client == nil {
		return nil
	}
	return &redisCatalogCache{
		client: client,
		prefix: "catalog:clusters:",
	}
}

func (c *redisCatalogCache) Get(ctx context.Context, countryCode string) ([]domain.ClusterOption, bool, error) {
	key := normalizeCountry(countryCode)
	if key == "" {
		return nil, false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var clusters []domain.ClusterOption
	if err := json.Unmarshal(raw, &clusters); err != nil {
		return nil, false, err
	}
	return clusters, true, nil
}

func (c *redisCatalogCache) Set(ctx context.Context, countryCode string, clusters []domain.ClusterOption, ttl time.Duration) error {
	key := normalizeCountry(countryCode)
	if key == "" {
		return nil
	}
	payload, err := json.Marshal(clusters)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return c.client.Set(ctx, c.prefix+key, payload, ttl).Err()
}

func normalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CachedClient sirve ListClusters desde un CatalogCache y delega el resto.
// Los errores del cache no bloquean: se loguean y se consulta al servicio.
type CachedClient struct {
	Client
	cache  CatalogCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedClient(inner Client, cache CatalogCache, ttl time.Duration, logger *zap.Logger) Client {
	if cache == nil {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClient{Client: inner, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedClient) ListClusters(ctx context.Context, countryCode string) ([]domain.ClusterOption, error) {
	clusters, ok, err := c.cache.Get(ctx, countryCode)
	if err != nil {
		c.logger.Warn("catalog cache get failed", zap.String("country", countryCode), zap.Error(err))
	}
	if ok {
		return clusters, nil
	}

	clusters, err = c.Client.ListClusters(ctx, countryCode)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, countryCode, clusters, c.ttl); err != nil {
		c.logger.Warn("catalog cache set failed", zap.String("country", countryCode), zap.Error(err))
	}
	return clusters, nil
}
