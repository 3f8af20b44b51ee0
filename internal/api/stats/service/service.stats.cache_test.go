package statssvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
)

func TestGetKeywordStats_ServesFromCache(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 1})
	ctx := context.Background()

	_, err := env.keywords.Upsert(ctx, bson.M{"keyword": "cached"}, statsmodels.KeywordStat{
		Keyword: "cached",
		Count:   7,
	})
	require.NoError(t, err)

	stats, source, err := env.svc.GetKeywordStats(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, SourceCache, source)
	require.Len(t, stats, 1)
	require.Equal(t, "cached", stats[0].Keyword)
}

func TestGetKeywordStats_FallsBackToLiveAndWritesThrough(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 2, WriteThrough: true})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		env.raw.AddReviews(review("B001", 0.9, 5, time.Hour, "great"))
	}

	stats, source, err := env.svc.GetKeywordStats(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, SourceLive, source)
	require.Len(t, stats, 1)
	require.Equal(t, int64(3), stats[0].Count)

	// Write-through chạy nền, view phải được lấp lại sau đó
	require.Eventually(t, func() bool {
		count, err := env.keywords.CountDocuments(ctx, bson.M{"keyword": "great"})
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond, "fallback phải ghi kết quả live trở lại view")

	_, source, err = env.svc.GetKeywordStats(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, SourceCache, source)
}

func TestGetKeywordStats_MinCountFiltersCache(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 1})
	ctx := context.Background()

	env.keywords.Upsert(ctx, bson.M{"keyword": "rare"}, statsmodels.KeywordStat{Keyword: "rare", Count: 2})
	env.keywords.Upsert(ctx, bson.M{"keyword": "common"}, statsmodels.KeywordStat{Keyword: "common", Count: 20})

	stats, source, err := env.svc.GetKeywordStats(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, SourceCache, source)
	require.Len(t, stats, 1)
	require.Equal(t, "common", stats[0].Keyword)
}

func TestGetTimeSeries_FallbackMatchesRebuiltView(t *testing.T) {
	env := newTestEnv(Options{TimeSeriesDays: 90, WriteThrough: true})
	ctx := context.Background()

	env.raw.AddReviews(
		review("B001", 0.9, 5, time.Hour, "good"),
		review("B001", 0.2, 2, 26*time.Hour, "bad"),
	)

	live, source, err := env.svc.GetTimeSeries(ctx, "B001", statsmodels.IntervalDay)
	require.NoError(t, err)
	require.Equal(t, SourceLive, source)
	require.Equal(t, int64(2), live.Total)

	require.Eventually(t, func() bool {
		count, err := env.timeSeries.CountDocuments(ctx, bson.M{"productId": "B001", "interval": statsmodels.IntervalDay})
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)

	cached, source, err := env.svc.GetTimeSeries(ctx, "B001", statsmodels.IntervalDay)
	require.NoError(t, err)
	require.Equal(t, SourceCache, source)
	require.Equal(t, live.Total, cached.Total, "dữ liệu cache và live phải khớp nhau")
	require.Equal(t, len(live.Buckets), len(cached.Buckets))
}

func TestGetPlatformStats_FallbackThenCache(t *testing.T) {
	env := newTestEnv(Options{WriteThrough: true})
	ctx := context.Background()

	env.raw.AddProducts(product("B001", "Máy xay A", "shopify", 19.9))
	env.raw.AddReviews(review("B001", 0.9, 5, time.Hour, "good"))

	stats, source, err := env.svc.GetPlatformStats(ctx, statsmodels.PeriodAllTime)
	require.NoError(t, err)
	require.Equal(t, SourceLive, source)
	require.Len(t, stats, 1)
	require.Equal(t, "shopify", stats[0].Platform)

	require.Eventually(t, func() bool {
		count, err := env.platforms.CountDocuments(ctx, bson.M{"period": statsmodels.PeriodAllTime})
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetComparison_HashIgnoresOrderAndCountsViews(t *testing.T) {
	env := newTestEnv(Options{ComparisonTTL: time.Hour, SampleLimit: 5})
	ctx := context.Background()

	env.raw.AddProducts(
		product("B001", "Máy xay A", "shopify", 19.9),
		product("B002", "Nồi chiên B", "amazon", 49.9),
	)
	env.raw.AddReviews(
		review("B001", 0.9, 5, time.Hour, "good"),
		review("B002", 0.3, 2, time.Hour, "bad"),
	)

	first, source, err := env.svc.GetComparison(ctx, []string{"B001", "B002"})
	require.NoError(t, err)
	require.Equal(t, SourceLive, source)
	require.Len(t, first.ComparisonData, 2)

	// Lần đầu luôn được ghi lại vào view
	require.Eventually(t, func() bool {
		count, err := env.comparisons.CountDocuments(ctx, bson.M{"hash": first.Hash})
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)

	second, source, err := env.svc.GetComparison(ctx, []string{"B002", "B001"})
	require.NoError(t, err)
	require.Equal(t, SourceCache, source)
	require.Equal(t, first.Hash, second.Hash, "thứ tự productIds không được ảnh hưởng hash")

	// Cache hit tăng viewCount nền
	require.Eventually(t, func() bool {
		doc, err := env.comparisons.FindOne(ctx, bson.M{"hash": first.Hash}, nil)
		return err == nil && doc.ViewCount == 2
	}, 2*time.Second, 10*time.Millisecond, "cache hit phải $inc viewCount")
}

func TestGetComparison_LocalHotCacheHit(t *testing.T) {
	env := newTestEnv(Options{ComparisonTTL: time.Hour})
	ctx := context.Background()

	hot := NewLocalHotCache(time.Minute)
	defer hot.Stop()
	env.svc.SetHotCache(hot)

	env.raw.AddProducts(product("B001", "Máy xay A", "shopify", 19.9))
	env.raw.AddReviews(review("B001", 0.9, 5, time.Hour, "good"))

	first, _, err := env.svc.GetComparison(ctx, []string{"B001"})
	require.NoError(t, err)

	// Đợi write-through lấp view, lần hit tiếp theo mới đẩy vào hot cache
	require.Eventually(t, func() bool {
		count, err := env.comparisons.CountDocuments(ctx, bson.M{"hash": first.Hash})
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, source, err := env.svc.GetComparison(ctx, []string{"B001"})
	require.NoError(t, err)
	require.Equal(t, SourceCache, source)

	cached, ok := hot.GetComparison(ctx, first.Hash)
	require.True(t, ok, "cache hit phải được đẩy vào hot cache")
	require.Equal(t, first.Hash, cached.Hash)
}

func TestGetComparison_EmptyIDs(t *testing.T) {
	env := newTestEnv(Options{})
	_, _, err := env.svc.GetComparison(context.Background(), []string{" ", ""})
	require.Error(t, err)
}
