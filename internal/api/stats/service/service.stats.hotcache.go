package statssvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
	"github.com/DITreneris/shopsentiment-sub001/internal/logger"
	"github.com/DITreneris/shopsentiment-sub001/internal/utility"
)

// HotCache là tầng cache nóng đứng trước product_comparisons trong MongoDB.
// Miss hoặc lỗi ở tầng này không bao giờ fail request — chỉ rơi xuống tầng dưới.
type HotCache interface {
	GetComparison(ctx context.Context, hash string) (statsmodels.ProductComparison, bool)
	SetComparison(ctx context.Context, hash string, comparison statsmodels.ProductComparison)
	Invalidate(ctx context.Context, hash string)
}

const hotCacheKeyPrefix = "stats:comparison:"

// RedisHotCache cài đặt HotCache trên Redis, dùng khi chạy nhiều instance.
type RedisHotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisHotCache kết nối Redis và trả về hot cache.
func NewRedisHotCache(addr, password string, db int, ttl time.Duration) (*RedisHotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisHotCache{client: client, ttl: ttl}, nil
}

func (c *RedisHotCache) GetComparison(ctx context.Context, hash string) (statsmodels.ProductComparison, bool) {
	raw, err := c.client.Get(ctx, hotCacheKeyPrefix+hash).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.GetAppLogger().WithError(err).Warn("Đọc comparison từ Redis thất bại, rơi xuống MongoDB")
		}
		return statsmodels.ProductComparison{}, false
	}
	var comparison statsmodels.ProductComparison
	if err := json.Unmarshal(raw, &comparison); err != nil {
		return statsmodels.ProductComparison{}, false
	}
	// Tôn trọng TTL của document gốc: quá hạn thì coi như miss.
	if !comparison.ExpiresAt.IsZero() && comparison.ExpiresAt.Before(time.Now()) {
		return statsmodels.ProductComparison{}, false
	}
	return comparison, true
}

func (c *RedisHotCache) SetComparison(ctx context.Context, hash string, comparison statsmodels.ProductComparison) {
	raw, err := json.Marshal(comparison)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, hotCacheKeyPrefix+hash, raw, c.ttl).Err(); err != nil {
		logger.GetAppLogger().WithError(err).Warn("Ghi comparison vào Redis thất bại")
	}
}

func (c *RedisHotCache) Invalidate(ctx context.Context, hash string) {
	if err := c.client.Del(ctx, hotCacheKeyPrefix+hash).Err(); err != nil {
		logger.GetAppLogger().WithError(err).Warn("Xóa comparison khỏi Redis thất bại")
	}
}

// Close đóng kết nối Redis.
func (c *RedisHotCache) Close() error {
	return c.client.Close()
}

// LocalHotCache cài đặt HotCache bằng cache in-memory, dùng khi không cấu hình Redis.
type LocalHotCache struct {
	cache *utility.Cache
}

// NewLocalHotCache tạo hot cache in-memory với TTL cho trước.
func NewLocalHotCache(ttl time.Duration) *LocalHotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LocalHotCache{cache: utility.NewCache(ttl, time.Minute)}
}

func (c *LocalHotCache) GetComparison(_ context.Context, hash string) (statsmodels.ProductComparison, bool) {
	value, ok := c.cache.Get(hotCacheKeyPrefix + hash)
	if !ok {
		return statsmodels.ProductComparison{}, false
	}
	comparison, ok := value.(statsmodels.ProductComparison)
	if !ok {
		return statsmodels.ProductComparison{}, false
	}
	if !comparison.ExpiresAt.IsZero() && comparison.ExpiresAt.Before(time.Now()) {
		return statsmodels.ProductComparison{}, false
	}
	return comparison, true
}

func (c *LocalHotCache) SetComparison(_ context.Context, hash string, comparison statsmodels.ProductComparison) {
	c.cache.Set(hotCacheKeyPrefix+hash, comparison)
}

func (c *LocalHotCache) Invalidate(_ context.Context, hash string) {
	c.cache.Delete(hotCacheKeyPrefix + hash)
}

// Stop dừng goroutine dọn cache.
func (c *LocalHotCache) Stop() {
	c.cache.Stop()
}
