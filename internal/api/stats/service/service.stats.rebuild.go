package statssvc

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
	"github.com/DITreneris/shopsentiment-sub001/internal/common"
	"github.com/DITreneris/shopsentiment-sub001/internal/logger"
	"github.com/DITreneris/shopsentiment-sub001/internal/store"
	"github.com/DITreneris/shopsentiment-sub001/internal/utility"
)

// RebuildSummary kết quả của một lần full rebuild / incremental update.
type RebuildSummary struct {
	Ok     int `json:"ok"`     // Số document ghi thành công
	Failed int `json:"failed"` // Số document ghi thất bại (đã log, không fail run)
}

// upsertAll ghi một batch document bằng bulk upsert; nếu bulk thất bại thì
// fallback sang upsert từng document để các document tốt vẫn được ghi,
// document lỗi được log và đếm vào Failed.
func upsertAll[T any](ctx context.Context, st store.DocumentStore[T], items []T, keyOf store.KeyFunc[T], view string) RebuildSummary {
	if len(items) == 0 {
		return RebuildSummary{}
	}
	if _, err := st.UpsertMany(ctx, items, keyOf); err == nil {
		return RebuildSummary{Ok: len(items)}
	} else {
		logger.GetAppLogger().WithError(err).WithFields(map[string]interface{}{
			"view":  view,
			"count": len(items),
		}).Warn("Bulk upsert thất bại, fallback sang upsert từng document")
	}

	summary := RebuildSummary{}
	for _, item := range items {
		if _, err := st.Upsert(ctx, keyOf(item), item); err != nil {
			summary.Failed++
			logger.GetAppLogger().WithError(err).WithFields(map[string]interface{}{
				"view":   view,
				"filter": keyOf(item),
			}).Error("Upsert document thất bại khi rebuild")
			continue
		}
		summary.Ok++
	}
	return summary
}

// RebuildKeywordStats tính lại toàn bộ keyword_stats từ raw_reviews:
// upsert mọi keyword đạt ngưỡng minCount, xóa các keyword không còn đạt ngưỡng.
// Chạy lại nhiều lần trên cùng dữ liệu cho cùng kết quả.
func (s *StatsService) RebuildKeywordStats(ctx context.Context) (RebuildSummary, error) {
	if !s.tryLockView(statsmodels.ViewKeywordStats) {
		return RebuildSummary{}, ErrViewBusy
	}
	defer s.unlockView(statsmodels.ViewKeywordStats)

	stats, err := s.ComputeKeywordStats(ctx, s.opts.MinKeywordCount)
	if err != nil {
		return RebuildSummary{}, err
	}

	summary := upsertAll(ctx, s.keywordStore, stats, func(st statsmodels.KeywordStat) bson.M {
		return bson.M{"keyword": st.Keyword}
	}, statsmodels.ViewKeywordStats)
	if len(stats) > 0 && summary.Ok == 0 {
		return summary, common.NewAggregationError(statsmodels.ViewKeywordStats, common.ErrMongoWrite)
	}

	// Dọn các keyword đã tụt khỏi ngưỡng hoặc biến mất khỏi raw data.
	keep := make([]string, 0, len(stats))
	for _, st := range stats {
		keep = append(keep, st.Keyword)
	}
	if _, err := s.keywordStore.DeleteMany(ctx, bson.M{"keyword": bson.M{"$nin": keep}}); err != nil {
		logger.GetAppLogger().WithError(err).Error("Dọn keyword_stats cũ thất bại")
	}

	if err := s.setLastFullUpdate(ctx, statsmodels.ViewKeywordStats, utility.UnixMilli(s.now())); err != nil {
		return summary, err
	}
	return summary, nil
}

// RebuildTimeSeries tính lại time_series_stats cho mọi sản phẩm có review,
// mỗi sản phẩm một document cho mỗi interval (day/week/month).
func (s *StatsService) RebuildTimeSeries(ctx context.Context) (RebuildSummary, error) {
	if !s.tryLockView(statsmodels.ViewTimeSeriesStats) {
		return RebuildSummary{}, ErrViewBusy
	}
	defer s.unlockView(statsmodels.ViewTimeSeriesStats)

	productIDs, err := s.raw.ActiveProductIDs(ctx)
	if err != nil {
		return RebuildSummary{}, common.NewAggregationError(statsmodels.ViewTimeSeriesStats, err)
	}

	summary := RebuildSummary{}
	for _, productID := range productIDs {
		for _, interval := range statsmodels.AllIntervals {
			if err := s.rebuildOneTimeSeries(ctx, productID, interval); err != nil {
				summary.Failed++
				logger.GetAppLogger().WithError(err).WithFields(map[string]interface{}{
					"productId": productID,
					"interval":  interval,
				}).Error("Rebuild time series cho sản phẩm thất bại")
				continue
			}
			summary.Ok++
		}
	}

	// Dọn các sản phẩm không còn review nào.
	if _, err := s.timeSeriesStore.DeleteMany(ctx, bson.M{"productId": bson.M{"$nin": productIDs}}); err != nil {
		logger.GetAppLogger().WithError(err).Error("Dọn time_series_stats cũ thất bại")
	}

	if len(productIDs) > 0 && summary.Ok == 0 {
		return summary, common.NewAggregationError(statsmodels.ViewTimeSeriesStats, common.ErrMongoWrite)
	}
	if err := s.setLastFullUpdate(ctx, statsmodels.ViewTimeSeriesStats, utility.UnixMilli(s.now())); err != nil {
		return summary, err
	}
	return summary, nil
}

// rebuildOneTimeSeries tính và upsert document time series của một cặp (productId, interval).
func (s *StatsService) rebuildOneTimeSeries(ctx context.Context, productID string, interval string) error {
	point, err := s.ComputeTimeSeries(ctx, productID, interval)
	if err != nil {
		return err
	}
	_, err = s.timeSeriesStore.Upsert(ctx, bson.M{"productId": productID, "interval": interval}, point)
	return err
}

// RebuildPlatformStats tính lại platform_stats cho cả 4 period (7d/30d/90d/all_time).
func (s *StatsService) RebuildPlatformStats(ctx context.Context) (RebuildSummary, error) {
	if !s.tryLockView(statsmodels.ViewPlatformStats) {
		return RebuildSummary{}, ErrViewBusy
	}
	defer s.unlockView(statsmodels.ViewPlatformStats)

	summary := RebuildSummary{}
	for _, period := range statsmodels.AllPeriods {
		stats, err := s.ComputePlatformStats(ctx, period)
		if err != nil {
			return summary, err
		}
		part := upsertAll(ctx, s.platformStore, stats, func(st statsmodels.PlatformStat) bson.M {
			return bson.M{"platform": st.Platform, "period": st.Period}
		}, statsmodels.ViewPlatformStats)
		summary.Ok += part.Ok
		summary.Failed += part.Failed

		// Dọn các platform không còn sản phẩm có review trong period này.
		keep := make([]string, 0, len(stats))
		for _, st := range stats {
			keep = append(keep, st.Platform)
		}
		filter := bson.M{"period": period, "platform": bson.M{"$nin": keep}}
		if _, err := s.platformStore.DeleteMany(ctx, filter); err != nil {
			logger.GetAppLogger().WithError(err).WithFields(map[string]interface{}{
				"period": period,
			}).Error("Dọn platform_stats cũ thất bại")
		}
	}

	if err := s.setLastFullUpdate(ctx, statsmodels.ViewPlatformStats, utility.UnixMilli(s.now())); err != nil {
		return summary, err
	}
	return summary, nil
}

// RebuildAll chạy full rebuild cho cả 3 view song song.
// Trả về summary theo tên view; lỗi đầu tiên (nếu có) được trả về sau khi các view khác chạy xong.
func (s *StatsService) RebuildAll(ctx context.Context) (map[string]RebuildSummary, error) {
	summaries := make(map[string]RebuildSummary, len(statsmodels.AllViews))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	run := func(view string, rebuild func(context.Context) (RebuildSummary, error)) {
		g.Go(func() error {
			summary, err := rebuild(gctx)
			mu.Lock()
			summaries[view] = summary
			mu.Unlock()
			return err
		})
	}
	run(statsmodels.ViewKeywordStats, s.RebuildKeywordStats)
	run(statsmodels.ViewTimeSeriesStats, s.RebuildTimeSeries)
	run(statsmodels.ViewPlatformStats, s.RebuildPlatformStats)

	err := g.Wait()
	return summaries, err
}
