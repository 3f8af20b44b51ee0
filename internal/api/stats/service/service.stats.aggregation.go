package statssvc

import (
	"context"
	"time"

	rawmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/raw/models"
	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
	"github.com/DITreneris/shopsentiment-sub001/internal/common"
	"github.com/DITreneris/shopsentiment-sub001/internal/utility"
)

// classifyLabel phân loại sentiment label theo ngưỡng:
// score >= 0.6 → positive, score < 0.4 → negative, còn lại neutral.
func classifyLabel(score float64) string {
	switch {
	case score >= 0.6:
		return statsmodels.LabelPositive
	case score < 0.4:
		return statsmodels.LabelNegative
	default:
		return statsmodels.LabelNeutral
	}
}

// ComputeKeywordStats tính toàn bộ keyword_stats từ raw_reviews,
// chỉ giữ các keyword có count >= minCount.
func (s *StatsService) ComputeKeywordStats(ctx context.Context, minCount int64) ([]statsmodels.KeywordStat, error) {
	rollups, err := s.computeScopedKeywordStats(ctx, nil)
	if err != nil {
		return nil, err
	}
	stats := make([]statsmodels.KeywordStat, 0, len(rollups))
	for _, stat := range rollups {
		if stat.Count >= minCount {
			stats = append(stats, stat)
		}
	}
	return stats, nil
}

// computeScopedKeywordStats tính keyword_stats cho một tập keyword (scope rỗng = tất cả),
// KHÔNG áp ngưỡng minCount — caller (incremental engine) tự quyết upsert hay xóa.
func (s *StatsService) computeScopedKeywordStats(ctx context.Context, scope []string) ([]statsmodels.KeywordStat, error) {
	rollups, err := s.raw.KeywordRollups(ctx, scope)
	if err != nil {
		return nil, common.NewAggregationError(statsmodels.ViewKeywordStats, err)
	}
	stats := make([]statsmodels.KeywordStat, 0, len(rollups))
	for _, r := range rollups {
		stats = append(stats, statsmodels.KeywordStat{
			Keyword: r.Keyword,
			Count:   r.Count,
			Sentiment: statsmodels.KeywordSentiment{
				Score: r.AvgScore,
				Label: classifyLabel(r.AvgScore),
			},
			ProductIDs: utility.SortedUnique(r.ProductIDs),
		})
	}
	return stats, nil
}

// ComputeTimeSeries tính time series sentiment của một sản phẩm cho một interval,
// trên cửa sổ TimeSeriesDays ngày gần nhất.
func (s *StatsService) ComputeTimeSeries(ctx context.Context, productID string, interval string) (statsmodels.TimeSeriesPoint, error) {
	since := s.now().AddDate(0, 0, -s.opts.TimeSeriesDays)
	rollups, err := s.raw.TimeSeriesRollup(ctx, productID, interval, since)
	if err != nil {
		return statsmodels.TimeSeriesPoint{}, common.NewAggregationError(statsmodels.ViewTimeSeriesStats, err)
	}
	point := statsmodels.TimeSeriesPoint{
		ProductID: productID,
		Interval:  interval,
		Buckets:   make([]statsmodels.TimeSeriesBucket, 0, len(rollups)),
	}
	for _, b := range rollups {
		point.Buckets = append(point.Buckets, statsmodels.TimeSeriesBucket{
			Label:    b.Label,
			Positive: b.Positive,
			Neutral:  b.Neutral,
			Negative: b.Negative,
			Total:    b.Total,
			AvgScore: b.AvgScore,
		})
		point.Total += b.Total
	}
	return point, nil
}

// ComputePlatformStats tính platform_stats cho một period (7d|30d|90d|all_time).
func (s *StatsService) ComputePlatformStats(ctx context.Context, period string) ([]statsmodels.PlatformStat, error) {
	var since time.Time
	if days := statsmodels.PeriodDays(period); days > 0 {
		since = s.now().AddDate(0, 0, -days)
	}
	rollups, err := s.raw.PlatformRollups(ctx, since)
	if err != nil {
		return nil, common.NewAggregationError(statsmodels.ViewPlatformStats, err)
	}
	stats := make([]statsmodels.PlatformStat, 0, len(rollups))
	for _, r := range rollups {
		stats = append(stats, statsmodels.PlatformStat{
			Platform:           r.Platform,
			Period:             period,
			TotalProducts:      r.TotalProducts,
			AvgRating:          r.AvgRating,
			RatingDistribution: r.RatingDistribution,
		})
	}
	return stats, nil
}

// ComputeComparison dựng document so sánh cho một tập sản phẩm:
// join thông tin product với thống kê review của từng sản phẩm.
// Sản phẩm không tồn tại trong raw_products vẫn có entry (chỉ có productId + số liệu review).
func (s *StatsService) ComputeComparison(ctx context.Context, productIDs []string) (statsmodels.ProductComparison, error) {
	ids := normalizeProductIDs(productIDs)
	if len(ids) == 0 {
		return statsmodels.ProductComparison{}, common.ErrInvalidInput
	}

	products, err := s.raw.ProductsByIDs(ctx, ids)
	if err != nil {
		return statsmodels.ProductComparison{}, common.NewAggregationError(statsmodels.ViewProductComparisons, err)
	}
	productByID := make(map[string]rawmodels.Product, len(products))
	for _, p := range products {
		productByID[p.ProductID] = p
	}

	comparison := statsmodels.ProductComparison{
		Hash:           ComparisonKey(ids),
		ProductIDs:     ids,
		ComparisonData: make([]statsmodels.ComparisonEntry, 0, len(ids)),
		ViewCount:      1,
		ExpiresAt:      s.now().Add(s.opts.ComparisonTTL).UTC(),
	}
	for _, id := range ids {
		reviewStats, err := s.raw.ProductReviewStats(ctx, id, s.opts.SampleLimit)
		if err != nil {
			return statsmodels.ProductComparison{}, common.NewAggregationError(statsmodels.ViewProductComparisons, err)
		}
		entry := statsmodels.ComparisonEntry{
			ProductID:     id,
			ReviewCount:   reviewStats.ReviewCount,
			AvgSentiment:  reviewStats.AvgSentiment,
			AvgRating:     reviewStats.AvgRating,
			RecentReviews: make([]statsmodels.ComparisonReview, 0, len(reviewStats.RecentReviews)),
		}
		if info, ok := productByID[id]; ok {
			entry.Name = info.Name
			entry.Platform = info.Platform
			entry.Price = info.Price
		}
		for _, r := range reviewStats.RecentReviews {
			entry.RecentReviews = append(entry.RecentReviews, statsmodels.ComparisonReview{
				Rating: r.Rating,
				Label:  r.Label,
				Score:  r.Score,
				Date:   r.Date,
			})
		}
		comparison.ComparisonData = append(comparison.ComparisonData, entry)
	}
	return comparison, nil
}
