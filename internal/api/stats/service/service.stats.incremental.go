package statssvc

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
	"github.com/DITreneris/shopsentiment-sub001/internal/common"
	"github.com/DITreneris/shopsentiment-sub001/internal/logger"
	"github.com/DITreneris/shopsentiment-sub001/internal/utility"
)

// UpdateKeywordStats chạy incremental update cho keyword_stats:
// chỉ tính lại các keyword bị ảnh hưởng bởi reviews thay đổi kể từ lần chạy trước.
// Bị ảnh hưởng gồm hai nguồn: keyword hiện có trên reviews thay đổi, và keyword
// đang materialized mà productIds giao với các sản phẩm thay đổi - nguồn thứ hai
// bắt được keyword bị edit mất khỏi mọi review, nếu không document cũ sẽ sống sót.
// Keyword tính lại mà không còn đạt ngưỡng minCount (hoặc không còn review nào)
// bị xóa khỏi view. Metadata luôn được đẩy tới kể cả khi một phần key thất bại.
func (s *StatsService) UpdateKeywordStats(ctx context.Context) (RebuildSummary, error) {
	if !s.tryLockView(statsmodels.ViewKeywordStats) {
		return RebuildSummary{}, ErrViewBusy
	}
	defer s.unlockView(statsmodels.ViewKeywordStats)

	from, to := s.incrementalWindow(ctx, statsmodels.ViewKeywordStats)
	changed, err := s.affectedKeywords(ctx, time.UnixMilli(from), time.UnixMilli(to))
	if err != nil {
		return RebuildSummary{}, common.NewAggregationError(statsmodels.ViewKeywordStats, err)
	}
	if len(changed) == 0 {
		return RebuildSummary{}, s.setLastIncrementalUpdate(ctx, statsmodels.ViewKeywordStats, to)
	}

	// Scoped aggregation không áp ngưỡng: keyword vắng mặt hoặc dưới ngưỡng
	// trong kết quả đồng nghĩa với việc phải xóa document cũ.
	fresh, err := s.computeScopedKeywordStats(ctx, changed)
	if err != nil {
		return RebuildSummary{}, err
	}
	freshByKeyword := make(map[string]statsmodels.KeywordStat, len(fresh))
	for _, st := range fresh {
		freshByKeyword[st.Keyword] = st
	}

	summary := RebuildSummary{}
	for _, keyword := range changed {
		if err := s.updateOneKeyword(ctx, keyword, freshByKeyword); err != nil {
			summary.Failed++
			logger.GetAppLogger().WithError(err).WithFields(map[string]interface{}{
				"keyword": keyword,
			}).Error("Incremental update keyword thất bại")
			continue
		}
		summary.Ok++
	}

	if err := s.setLastIncrementalUpdate(ctx, statsmodels.ViewKeywordStats, to); err != nil {
		return summary, err
	}
	return summary, nil
}

// affectedKeywords gộp keyword trên reviews thay đổi với keyword materialized
// của các sản phẩm thay đổi, trả về danh sách sorted + dedup.
func (s *StatsService) affectedKeywords(ctx context.Context, from, to time.Time) ([]string, error) {
	changed, err := s.raw.ChangedKeywords(ctx, from, to)
	if err != nil {
		return nil, err
	}

	changedProducts, err := s.raw.ChangedProductIDs(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(changedProducts) == 0 {
		return changed, nil
	}

	materialized, err := s.keywordStore.Find(ctx, bson.M{"productIds": bson.M{"$in": changedProducts}}, nil)
	if err != nil {
		return nil, err
	}
	for _, st := range materialized {
		changed = append(changed, st.Keyword)
	}
	return utility.SortedUnique(changed), nil
}

// updateOneKeyword upsert hoặc xóa một keyword với timeout riêng,
// để một key treo không chặn cả run.
func (s *StatsService) updateOneKeyword(ctx context.Context, keyword string, fresh map[string]statsmodels.KeywordStat) error {
	keyCtx, cancel := context.WithTimeout(ctx, s.opts.KeyUpdateTimeout)
	defer cancel()

	stat, ok := fresh[keyword]
	if !ok || stat.Count < s.opts.MinKeywordCount {
		_, err := s.keywordStore.DeleteMany(keyCtx, bson.M{"keyword": keyword})
		return err
	}
	_, err := s.keywordStore.Upsert(keyCtx, bson.M{"keyword": keyword}, stat)
	return err
}

// UpdateTimeSeries chạy incremental update cho time_series_stats:
// tính lại cả 3 interval cho các sản phẩm có review thay đổi trong cửa sổ.
// Sản phẩm không còn review nào trong cửa sổ TimeSeriesDays bị xóa khỏi view.
func (s *StatsService) UpdateTimeSeries(ctx context.Context) (RebuildSummary, error) {
	if !s.tryLockView(statsmodels.ViewTimeSeriesStats) {
		return RebuildSummary{}, ErrViewBusy
	}
	defer s.unlockView(statsmodels.ViewTimeSeriesStats)

	from, to := s.incrementalWindow(ctx, statsmodels.ViewTimeSeriesStats)
	changed, err := s.raw.ChangedProductIDs(ctx, time.UnixMilli(from), time.UnixMilli(to))
	if err != nil {
		return RebuildSummary{}, common.NewAggregationError(statsmodels.ViewTimeSeriesStats, err)
	}
	if len(changed) == 0 {
		return RebuildSummary{}, s.setLastIncrementalUpdate(ctx, statsmodels.ViewTimeSeriesStats, to)
	}

	summary := RebuildSummary{}
	for _, productID := range changed {
		for _, interval := range statsmodels.AllIntervals {
			if err := s.updateOneTimeSeries(ctx, productID, interval); err != nil {
				summary.Failed++
				logger.GetAppLogger().WithError(err).WithFields(map[string]interface{}{
					"productId": productID,
					"interval":  interval,
				}).Error("Incremental update time series thất bại")
				continue
			}
			summary.Ok++
		}
	}

	if err := s.setLastIncrementalUpdate(ctx, statsmodels.ViewTimeSeriesStats, to); err != nil {
		return summary, err
	}
	return summary, nil
}

// updateOneTimeSeries tính lại một cặp (productId, interval) với timeout riêng.
// Kết quả rỗng (sản phẩm hết review) → xóa document.
func (s *StatsService) updateOneTimeSeries(ctx context.Context, productID string, interval string) error {
	keyCtx, cancel := context.WithTimeout(ctx, s.opts.KeyUpdateTimeout)
	defer cancel()

	point, err := s.ComputeTimeSeries(keyCtx, productID, interval)
	if err != nil {
		return err
	}
	if len(point.Buckets) == 0 {
		_, err := s.timeSeriesStore.DeleteMany(keyCtx, bson.M{"productId": productID, "interval": interval})
		return err
	}
	_, err = s.timeSeriesStore.Upsert(keyCtx, bson.M{"productId": productID, "interval": interval}, point)
	return err
}

// UpdatePlatformStats chạy incremental update cho platform_stats:
// xác định các platform có sản phẩm với review thay đổi trong cửa sổ,
// rồi tính lại cả 4 period nhưng chỉ upsert các platform bị ảnh hưởng.
// Platform stats nhỏ (vài platform x 4 period) nên tính lại theo platform là đủ rẻ.
func (s *StatsService) UpdatePlatformStats(ctx context.Context) (RebuildSummary, error) {
	if !s.tryLockView(statsmodels.ViewPlatformStats) {
		return RebuildSummary{}, ErrViewBusy
	}
	defer s.unlockView(statsmodels.ViewPlatformStats)

	from, to := s.incrementalWindow(ctx, statsmodels.ViewPlatformStats)
	changedProducts, err := s.raw.ChangedProductIDs(ctx, time.UnixMilli(from), time.UnixMilli(to))
	if err != nil {
		return RebuildSummary{}, common.NewAggregationError(statsmodels.ViewPlatformStats, err)
	}
	if len(changedProducts) == 0 {
		return RebuildSummary{}, s.setLastIncrementalUpdate(ctx, statsmodels.ViewPlatformStats, to)
	}

	products, err := s.raw.ProductsByIDs(ctx, changedProducts)
	if err != nil {
		return RebuildSummary{}, common.NewAggregationError(statsmodels.ViewPlatformStats, err)
	}
	affected := make(map[string]bool, len(products))
	for _, p := range products {
		affected[p.Platform] = true
	}
	if len(affected) == 0 {
		return RebuildSummary{}, s.setLastIncrementalUpdate(ctx, statsmodels.ViewPlatformStats, to)
	}

	summary := RebuildSummary{}
	for _, period := range statsmodels.AllPeriods {
		stats, err := s.ComputePlatformStats(ctx, period)
		if err != nil {
			return summary, err
		}
		present := make(map[string]bool, len(stats))
		for _, st := range stats {
			present[st.Platform] = true
			if !affected[st.Platform] {
				continue
			}
			if err := s.updateOnePlatform(ctx, st); err != nil {
				summary.Failed++
				logger.GetAppLogger().WithError(err).WithFields(map[string]interface{}{
					"platform": st.Platform,
					"period":   st.Period,
				}).Error("Incremental update platform thất bại")
				continue
			}
			summary.Ok++
		}

		// Platform bị ảnh hưởng mà rollup của period này không còn trả về row
		// nào (hết sản phẩm có review trong cửa sổ) → xóa document cũ,
		// không để count stale sống tới full rebuild.
		var vanished []string
		for platform := range affected {
			if !present[platform] {
				vanished = append(vanished, platform)
			}
		}
		if len(vanished) > 0 {
			if _, err := s.platformStore.DeleteMany(ctx, bson.M{
				"platform": bson.M{"$in": utility.SortedUnique(vanished)},
				"period":   period,
			}); err != nil {
				summary.Failed++
				logger.GetAppLogger().WithError(err).WithFields(map[string]interface{}{
					"period": period,
				}).Error("Xóa platform stats cũ thất bại")
			}
		}
	}

	if err := s.setLastIncrementalUpdate(ctx, statsmodels.ViewPlatformStats, to); err != nil {
		return summary, err
	}
	return summary, nil
}

// updateOnePlatform upsert một cặp (platform, period) với timeout riêng.
func (s *StatsService) updateOnePlatform(ctx context.Context, st statsmodels.PlatformStat) error {
	keyCtx, cancel := context.WithTimeout(ctx, s.opts.KeyUpdateTimeout)
	defer cancel()

	_, err := s.platformStore.Upsert(keyCtx, bson.M{"platform": st.Platform, "period": st.Period}, st)
	return err
}

// UpdateAll chạy incremental update cho cả 3 view tuần tự.
// View đang bận (đang full rebuild) được bỏ qua, không coi là lỗi.
func (s *StatsService) UpdateAll(ctx context.Context) (map[string]RebuildSummary, error) {
	runs := []struct {
		view   string
		update func(context.Context) (RebuildSummary, error)
	}{
		{statsmodels.ViewKeywordStats, s.UpdateKeywordStats},
		{statsmodels.ViewTimeSeriesStats, s.UpdateTimeSeries},
		{statsmodels.ViewPlatformStats, s.UpdatePlatformStats},
	}

	summaries := make(map[string]RebuildSummary, len(runs))
	var firstErr error
	for _, r := range runs {
		summary, err := r.update(ctx)
		if errors.Is(err, ErrViewBusy) {
			logger.GetAppLogger().WithFields(map[string]interface{}{
				"view": r.view,
			}).Info("View đang bận, bỏ qua incremental update lần này")
			continue
		}
		summaries[r.view] = summary
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return summaries, firstErr
}
