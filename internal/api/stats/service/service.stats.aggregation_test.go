package statssvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
)

func TestClassifyLabel_Thresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.9, statsmodels.LabelPositive},
		{0.6, statsmodels.LabelPositive}, // Biên dưới của positive
		{0.59, statsmodels.LabelNeutral},
		{0.4, statsmodels.LabelNeutral}, // Biên dưới của neutral
		{0.39, statsmodels.LabelNegative},
		{0.0, statsmodels.LabelNegative},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, classifyLabel(tc.score), "score %v", tc.score)
	}
}

func TestComputeKeywordStats_MinCountBoundary(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 10})

	// "great": đúng 10 reviews (đạt ngưỡng), "meh": 9 reviews (dưới ngưỡng 1 đơn vị)
	for i := 0; i < 10; i++ {
		env.raw.AddReviews(review("B001", 0.9, 5, time.Hour, "great"))
	}
	for i := 0; i < 9; i++ {
		env.raw.AddReviews(review("B001", 0.5, 3, time.Hour, "meh"))
	}

	stats, err := env.svc.ComputeKeywordStats(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, "great", stats[0].Keyword)
	require.Equal(t, int64(10), stats[0].Count)
}

func TestComputeKeywordStats_PositiveScenario(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 10})

	// 12 reviews chứa "great" với score 0.9 → count 12, label positive
	for i := 0; i < 12; i++ {
		env.raw.AddReviews(review("B001", 0.9, 5, time.Hour, "great"))
	}

	stats, err := env.svc.ComputeKeywordStats(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, "great", stats[0].Keyword)
	require.Equal(t, int64(12), stats[0].Count)
	require.Equal(t, statsmodels.LabelPositive, stats[0].Sentiment.Label)
	require.InDelta(t, 0.9, stats[0].Sentiment.Score, 1e-9)
	require.Equal(t, []string{"B001"}, stats[0].ProductIDs)
}

func TestComputeScopedKeywordStats_NoThreshold(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 10})
	env.raw.AddReviews(review("B001", 0.2, 1, time.Hour, "broken"))

	// Scoped compute trả về cả keyword dưới ngưỡng - caller quyết định xóa
	stats, err := env.svc.computeScopedKeywordStats(context.Background(), []string{"broken"})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, int64(1), stats[0].Count)
	require.Equal(t, statsmodels.LabelNegative, stats[0].Sentiment.Label)
}

func TestComputeTimeSeries_DayBuckets(t *testing.T) {
	env := newTestEnv(Options{TimeSeriesDays: 90})
	env.raw.AddReviews(
		review("B001", 0.9, 5, 26*time.Hour, "good"),
		review("B001", 0.9, 5, 26*time.Hour, "good"),
		review("B001", 0.1, 1, time.Hour, "bad"),
	)

	point, err := env.svc.ComputeTimeSeries(context.Background(), "B001", statsmodels.IntervalDay)
	require.NoError(t, err)
	require.Equal(t, "B001", point.ProductID)
	require.Equal(t, statsmodels.IntervalDay, point.Interval)
	require.Len(t, point.Buckets, 2, "reviews cách nhau >24h phải rơi vào 2 bucket ngày")
	require.Equal(t, int64(3), point.Total)

	// Bucket đầu (ngày cũ hơn): 2 positive; bucket sau: 1 negative
	require.Equal(t, int64(2), point.Buckets[0].Positive)
	require.Equal(t, int64(1), point.Buckets[1].Negative)

	// Label bucket dạng YYYY-MM-DD
	require.Len(t, point.Buckets[0].Label, 10)
}

func TestComputeTimeSeries_EmptyProduct(t *testing.T) {
	env := newTestEnv(Options{})
	point, err := env.svc.ComputeTimeSeries(context.Background(), "missing", statsmodels.IntervalDay)
	require.NoError(t, err)
	require.Empty(t, point.Buckets)
	require.Zero(t, point.Total)
}

func TestComputePlatformStats_PeriodWindow(t *testing.T) {
	env := newTestEnv(Options{})
	env.raw.AddProducts(
		product("B001", "Máy xay A", "shopify", 19.9),
		product("B002", "Máy xay B", "amazon", 29.9),
	)
	// B001 có review mới, B002 chỉ có review cũ hơn 7 ngày
	env.raw.AddReviews(
		review("B001", 0.9, 5, time.Hour, "good"),
		review("B002", 0.5, 3, 10*24*time.Hour, "ok"),
	)

	stats7d, err := env.svc.ComputePlatformStats(context.Background(), statsmodels.Period7d)
	require.NoError(t, err)
	require.Len(t, stats7d, 1, "chỉ platform có review trong 7 ngày")
	require.Equal(t, "shopify", stats7d[0].Platform)
	require.Equal(t, statsmodels.Period7d, stats7d[0].Period)
	require.Equal(t, int64(1), stats7d[0].TotalProducts)

	statsAll, err := env.svc.ComputePlatformStats(context.Background(), statsmodels.PeriodAllTime)
	require.NoError(t, err)
	require.Len(t, statsAll, 2, "all_time gồm mọi platform có review")
}

func TestComputeComparison_JoinsProductInfo(t *testing.T) {
	env := newTestEnv(Options{SampleLimit: 2, ComparisonTTL: time.Hour})
	env.raw.AddProducts(product("B001", "Máy xay A", "shopify", 19.9))
	env.raw.AddReviews(
		review("B001", 0.9, 5, time.Hour, "good"),
		review("B001", 0.7, 4, 2*time.Hour, "good"),
		review("B001", 0.1, 1, 3*time.Hour, "bad"),
	)

	comparison, err := env.svc.ComputeComparison(context.Background(), []string{"B002", "B001", "B001"})
	require.NoError(t, err)
	require.Equal(t, []string{"B001", "B002"}, comparison.ProductIDs, "ids phải được sort + dedup")
	require.Equal(t, ComparisonKey([]string{"B001", "B002"}), comparison.Hash)
	require.Equal(t, int64(1), comparison.ViewCount)
	require.True(t, comparison.ExpiresAt.After(time.Now()))
	require.Len(t, comparison.ComparisonData, 2)

	entry := comparison.ComparisonData[0]
	require.Equal(t, "B001", entry.ProductID)
	require.Equal(t, "Máy xay A", entry.Name)
	require.Equal(t, "shopify", entry.Platform)
	require.Equal(t, int64(3), entry.ReviewCount)
	require.Len(t, entry.RecentReviews, 2, "recent reviews bị cắt theo SampleLimit")

	// Sản phẩm không tồn tại vẫn có entry với số liệu rỗng
	missing := comparison.ComparisonData[1]
	require.Equal(t, "B002", missing.ProductID)
	require.Empty(t, missing.Name)
	require.Zero(t, missing.ReviewCount)
}

func TestComputeComparison_EmptyInput(t *testing.T) {
	env := newTestEnv(Options{})
	_, err := env.svc.ComputeComparison(context.Background(), nil)
	require.Error(t, err)
}
