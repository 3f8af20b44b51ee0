package statssvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	rawmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/raw/models"
	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
)

func TestUpdateKeywordStats_EmptyWindowStillAdvancesMetadata(t *testing.T) {
	env := newTestEnv(Options{})
	ctx := context.Background()

	// Không có review nào thay đổi trong 24h gần đây
	env.raw.AddReviews(review("B001", 0.9, 5, 48*time.Hour, "old"))

	before := time.Now().UnixMilli()
	summary, err := env.svc.UpdateKeywordStats(ctx)
	require.NoError(t, err)
	require.Zero(t, summary.Ok)
	require.Zero(t, summary.Failed)

	meta, err := env.metadata.FindOne(ctx, bson.M{"viewName": statsmodels.ViewKeywordStats}, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, meta.LastIncrementalUpdate, before,
		"watermark phải tiến lên kể cả khi không có gì thay đổi")
}

func TestUpdateKeywordStats_UpsertsNewKeyword(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 2})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		env.raw.AddReviews(review("B001", 0.9, 5, time.Hour, "durable"))
	}

	summary, err := env.svc.UpdateKeywordStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Ok)

	stat, err := env.keywords.FindOne(ctx, bson.M{"keyword": "durable"}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), stat.Count)
	require.Equal(t, "positive", stat.Sentiment.Label)
}

func TestUpdateKeywordStats_DeletesUnderThresholdKeyword(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 3})
	ctx := context.Background()

	// View đang có keyword đạt ngưỡng từ lần rebuild trước
	_, err := env.keywords.Upsert(ctx, bson.M{"keyword": "fragile"}, statsmodels.KeywordStat{
		Keyword: "fragile",
		Count:   3,
	})
	require.NoError(t, err)

	// Sau khi xóa bớt review, chỉ còn 1 nhắc đến keyword này trong window
	env.raw.AddReviews(review("B001", 0.2, 2, time.Hour, "fragile"))

	_, err = env.svc.UpdateKeywordStats(ctx)
	require.NoError(t, err)

	_, err = env.keywords.FindOne(ctx, bson.M{"keyword": "fragile"}, nil)
	require.Error(t, err, "keyword tụt dưới ngưỡng phải bị xóa khỏi view")
}

func TestUpdateKeywordStats_DeletesKeywordEditedAway(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 2})
	ctx := context.Background()

	reviews := []rawmodels.Review{
		review("B001", 0.9, 5, time.Hour, "durable"),
		review("B001", 0.9, 5, time.Hour, "durable"),
		review("B001", 0.8, 4, time.Hour, "durable"),
	}
	env.raw.AddReviews(reviews...)
	_, err := env.svc.RebuildKeywordStats(ctx)
	require.NoError(t, err)

	// Keyword bị edit khỏi mọi review: ChangedKeywords không còn thấy nó,
	// nhưng document materialized có productIds giao với sản phẩm thay đổi
	edited := make([]rawmodels.Review, 0, len(reviews))
	for _, r := range reviews {
		r.Keywords = nil
		r.UpdatedAt = time.Now().Add(-time.Second).UnixMilli()
		edited = append(edited, r)
	}
	env.raw.ReplaceReviews(edited)

	_, err = env.svc.UpdateKeywordStats(ctx)
	require.NoError(t, err)

	_, err = env.keywords.FindOne(ctx, bson.M{"keyword": "durable"}, nil)
	require.Error(t, err, "keyword bị edit mất phải bị xóa ngay trong incremental run, không chờ full rebuild")
}

func TestUpdateKeywordStats_UsesWatermarkWindow(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 1})
	ctx := context.Background()

	// Review cập nhật 48h trước: ngoài window mặc định 24h
	env.raw.AddReviews(review("B001", 0.9, 5, 48*time.Hour, "ancient"))

	summary, err := env.svc.UpdateKeywordStats(ctx)
	require.NoError(t, err)
	require.Zero(t, summary.Ok, "review ngoài window không được kích hoạt recompute")

	// Đặt watermark lùi về 72h để window phủ review trên
	env.metadata.Upsert(ctx, bson.M{"viewName": statsmodels.ViewKeywordStats}, statsmodels.ViewMetadata{
		ViewName:              statsmodels.ViewKeywordStats,
		LastIncrementalUpdate: time.Now().Add(-72 * time.Hour).UnixMilli(),
	})

	summary, err = env.svc.UpdateKeywordStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Ok)
}

func TestUpdateTimeSeries_DeletesProductWithoutRecentData(t *testing.T) {
	env := newTestEnv(Options{TimeSeriesDays: 30})
	ctx := context.Background()

	kept := review("B001", 0.9, 5, time.Hour, "good")
	gone := review("B002", 0.1, 1, time.Hour, "bad")
	env.raw.AddReviews(kept, gone)
	_, err := env.svc.RebuildTimeSeries(ctx)
	require.NoError(t, err)

	// B002 mất hết review; bản ghi xóa vẫn nằm trong window thay đổi
	env.raw.ReplaceReviews([]rawmodels.Review{kept, tombstone(gone)})

	_, err = env.svc.UpdateTimeSeries(ctx)
	require.NoError(t, err)

	count, err := env.timeSeries.CountDocuments(ctx, bson.M{"productId": "B002"})
	require.NoError(t, err)
	require.Zero(t, count, "sản phẩm không còn bucket nào phải bị dọn")

	count, err = env.timeSeries.CountDocuments(ctx, bson.M{"productId": "B001"})
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
}

func TestUpdatePlatformStats_OnlyTouchesAffectedPlatforms(t *testing.T) {
	env := newTestEnv(Options{})
	ctx := context.Background()

	env.raw.AddProducts(
		product("B001", "Máy xay A", "shopify", 19.9),
		product("B002", "Nồi chiên B", "amazon", 49.9),
	)
	env.raw.AddReviews(
		review("B001", 0.9, 5, time.Hour, "good"),
		review("B002", 0.8, 4, 48*time.Hour, "ok"),
	)

	// Chỉ B001 thay đổi trong window 24h -> chỉ shopify được ghi
	summary, err := env.svc.UpdatePlatformStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, summary.Ok, "1 platform bị ảnh hưởng x 4 period")

	count, err := env.platforms.CountDocuments(ctx, bson.M{"platform": "amazon"})
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestUpdatePlatformStats_DeletesVanishedPeriods(t *testing.T) {
	env := newTestEnv(Options{})
	ctx := context.Background()

	env.raw.AddProducts(product("B001", "Máy xay A", "shopify", 19.9))
	r := review("B001", 0.9, 5, time.Hour, "good")
	env.raw.AddReviews(r)

	_, err := env.svc.RebuildPlatformStats(ctx)
	require.NoError(t, err)

	count, err := env.platforms.CountDocuments(ctx, bson.M{"platform": "shopify"})
	require.NoError(t, err)
	require.Equal(t, int64(4), count)

	// Review duy nhất bị sửa lùi về 100 ngày trước: shopify rơi khỏi
	// rollup của 7d/30d/90d nhưng vẫn còn trong all_time
	r.Date = time.Now().Add(-100 * 24 * time.Hour).UnixMilli()
	r.UpdatedAt = time.Now().Add(-time.Second).UnixMilli()
	env.raw.ReplaceReviews([]rawmodels.Review{r})

	_, err = env.svc.UpdatePlatformStats(ctx)
	require.NoError(t, err)

	count, err = env.platforms.CountDocuments(ctx, bson.M{"platform": "shopify"})
	require.NoError(t, err)
	require.Equal(t, int64(1), count, "chỉ document all_time được giữ lại")

	_, err = env.platforms.FindOne(ctx, bson.M{"platform": "shopify", "period": statsmodels.Period7d}, nil)
	require.Error(t, err, "period hết dữ liệu phải bị xóa, không để count stale")
}

func TestUpdateAll_SkipsBusyView(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 1})
	env.raw.AddReviews(review("B001", 0.9, 5, time.Hour, "great"))

	env.svc.viewLocks[statsmodels.ViewKeywordStats].Lock()
	defer env.svc.viewLocks[statsmodels.ViewKeywordStats].Unlock()

	summaries, err := env.svc.UpdateAll(context.Background())
	require.NoError(t, err, "view bận không phải là lỗi của cả batch")
	require.NotContains(t, summaries, statsmodels.ViewKeywordStats)
	require.Contains(t, summaries, statsmodels.ViewTimeSeriesStats)
	require.Contains(t, summaries, statsmodels.ViewPlatformStats)
}

// tombstone giả lập review bị xóa: mất keyword nhưng UpdatedAt vẫn mới
// để ChangedProductIDs còn nhìn thấy sản phẩm trong window. UpdatedAt lùi
// 1 giây: window thay đổi là nửa mở [from, to), stamp đúng thời điểm chạy
// update sẽ rơi ra ngoài biên to trên máy nhanh.
func tombstone(r rawmodels.Review) rawmodels.Review {
	r.Keywords = nil
	r.Date = time.Now().Add(-60 * 24 * time.Hour).UnixMilli()
	r.UpdatedAt = time.Now().Add(-time.Second).UnixMilli()
	return r
}
