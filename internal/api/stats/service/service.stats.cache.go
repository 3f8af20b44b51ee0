package statssvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
	"github.com/DITreneris/shopsentiment-sub001/internal/common"
	"github.com/DITreneris/shopsentiment-sub001/internal/logger"
	"github.com/DITreneris/shopsentiment-sub001/internal/utility"
)

// Source cho biết dữ liệu trả về lấy từ đâu.
type Source string

const (
	SourceCache Source = "cache" // Đọc từ materialized view
	SourceLive  Source = "live"  // Tính trực tiếp từ raw data (cache miss)
)

// writeThroughTimeout giới hạn thời gian cho một lần ghi write-through nền.
const writeThroughTimeout = 10 * time.Second

// GetKeywordStats đọc keyword_stats từ view (sort count giảm dần);
// view rỗng → tính live từ raw data, kết quả ghi ngược vào view nếu bật write-through.
func (s *StatsService) GetKeywordStats(ctx context.Context, minCount int64) ([]statsmodels.KeywordStat, Source, error) {
	if minCount <= 0 {
		minCount = s.opts.MinKeywordCount
	}

	opts := options.Find().SetSort(bson.D{{Key: "count", Value: -1}})
	cached, cacheErr := s.keywordStore.Find(ctx, bson.M{"count": bson.M{"$gte": minCount}}, opts)
	if cacheErr == nil && len(cached) > 0 {
		return cached, SourceCache, nil
	}

	live, err, _ := s.flight.Do(fmt.Sprintf("keywords:%d", minCount), func() (interface{}, error) {
		return s.ComputeKeywordStats(ctx, minCount)
	})
	if err != nil {
		if cacheErr != nil {
			return nil, SourceLive, common.NewCacheUnavailableError(statsmodels.ViewKeywordStats, err)
		}
		return nil, SourceLive, err
	}
	stats := live.([]statsmodels.KeywordStat)

	if s.opts.WriteThrough {
		s.writeThrough(statsmodels.ViewKeywordStats, func(wtCtx context.Context) error {
			_, err := s.keywordStore.UpsertMany(wtCtx, stats, func(st statsmodels.KeywordStat) bson.M {
				return bson.M{"keyword": st.Keyword}
			})
			return err
		})
	}
	return stats, SourceLive, nil
}

// GetTimeSeries đọc time series của một sản phẩm cho một interval;
// view chưa có document → tính live.
func (s *StatsService) GetTimeSeries(ctx context.Context, productID string, interval string) (statsmodels.TimeSeriesPoint, Source, error) {
	filter := bson.M{"productId": productID, "interval": interval}
	cached, cacheErr := s.timeSeriesStore.FindOne(ctx, filter, nil)
	if cacheErr == nil {
		return cached, SourceCache, nil
	}

	live, err, _ := s.flight.Do(fmt.Sprintf("timeseries:%s:%s", productID, interval), func() (interface{}, error) {
		return s.ComputeTimeSeries(ctx, productID, interval)
	})
	if err != nil {
		if !errors.Is(cacheErr, common.ErrNotFound) {
			return statsmodels.TimeSeriesPoint{}, SourceLive, common.NewCacheUnavailableError(statsmodels.ViewTimeSeriesStats, err)
		}
		return statsmodels.TimeSeriesPoint{}, SourceLive, err
	}
	point := live.(statsmodels.TimeSeriesPoint)

	if s.opts.WriteThrough && len(point.Buckets) > 0 {
		s.writeThrough(statsmodels.ViewTimeSeriesStats, func(wtCtx context.Context) error {
			_, err := s.timeSeriesStore.Upsert(wtCtx, filter, point)
			return err
		})
	}
	return point, SourceLive, nil
}

// GetPlatformStats đọc platform_stats của một period; view rỗng → tính live.
func (s *StatsService) GetPlatformStats(ctx context.Context, period string) ([]statsmodels.PlatformStat, Source, error) {
	opts := options.Find().SetSort(bson.D{{Key: "platform", Value: 1}})
	cached, cacheErr := s.platformStore.Find(ctx, bson.M{"period": period}, opts)
	if cacheErr == nil && len(cached) > 0 {
		return cached, SourceCache, nil
	}

	live, err, _ := s.flight.Do("platforms:"+period, func() (interface{}, error) {
		return s.ComputePlatformStats(ctx, period)
	})
	if err != nil {
		if cacheErr != nil {
			return nil, SourceLive, common.NewCacheUnavailableError(statsmodels.ViewPlatformStats, err)
		}
		return nil, SourceLive, err
	}
	stats := live.([]statsmodels.PlatformStat)

	if s.opts.WriteThrough {
		s.writeThrough(statsmodels.ViewPlatformStats, func(wtCtx context.Context) error {
			_, err := s.platformStore.UpsertMany(wtCtx, stats, func(st statsmodels.PlatformStat) bson.M {
				return bson.M{"platform": st.Platform, "period": st.Period}
			})
			return err
		})
	}
	return stats, SourceLive, nil
}

// GetComparison trả về document so sánh cho một tập sản phẩm.
// Thứ tự tra cứu: hot cache → product_comparisons → tính live.
// Khác các view còn lại, comparison LUÔN write-through (TTL tự dọn document nguội),
// và mỗi lần hit tăng viewCount best-effort.
func (s *StatsService) GetComparison(ctx context.Context, productIDs []string) (statsmodels.ProductComparison, Source, error) {
	ids := normalizeProductIDs(productIDs)
	if len(ids) == 0 {
		return statsmodels.ProductComparison{}, SourceLive, common.ErrInvalidInput
	}
	hash := ComparisonKey(ids)

	if s.hotCache != nil {
		if comparison, ok := s.hotCache.GetComparison(ctx, hash); ok {
			s.bumpViewCount(hash)
			return comparison, SourceCache, nil
		}
	}

	cached, cacheErr := s.comparisonStore.FindOne(ctx, bson.M{"hash": hash}, nil)
	if cacheErr == nil {
		s.bumpViewCount(hash)
		if s.hotCache != nil {
			s.hotCache.SetComparison(ctx, hash, cached)
		}
		return cached, SourceCache, nil
	}

	live, err, _ := s.flight.Do("comparison:"+hash, func() (interface{}, error) {
		return s.ComputeComparison(ctx, ids)
	})
	if err != nil {
		if !errors.Is(cacheErr, common.ErrNotFound) {
			return statsmodels.ProductComparison{}, SourceLive, common.NewCacheUnavailableError(statsmodels.ViewProductComparisons, err)
		}
		return statsmodels.ProductComparison{}, SourceLive, err
	}
	comparison := live.(statsmodels.ProductComparison)

	s.writeThrough(statsmodels.ViewProductComparisons, func(wtCtx context.Context) error {
		_, err := s.comparisonStore.Upsert(wtCtx, bson.M{"hash": hash}, comparison)
		return err
	})
	return comparison, SourceLive, nil
}

// bumpViewCount tăng viewCount của một comparison trong nền, lỗi chỉ log.
func (s *StatsService) bumpViewCount(hash string) {
	go utility.GoProtect(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeThroughTimeout)
		defer cancel()
		if err := s.comparisonStore.UpdateOne(ctx, bson.M{"hash": hash}, bson.M{"$inc": bson.M{"viewCount": 1}}); err != nil {
			logger.GetAppLogger().WithError(err).WithFields(map[string]interface{}{
				"hash": hash,
			}).Warn("Tăng viewCount comparison thất bại")
		}
	})
}

// writeThrough chạy một lần ghi view trong nền: không chặn response,
// thất bại chỉ log dưới dạng WriteThroughError.
func (s *StatsService) writeThrough(view string, write func(ctx context.Context) error) {
	go utility.GoProtect(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeThroughTimeout)
		defer cancel()
		if err := write(ctx); err != nil {
			logger.GetAppLogger().WithError(common.NewWriteThroughError(view, err)).Warn("Write-through vào view thất bại, kết quả live vẫn đã trả cho client")
		}
	})
}
