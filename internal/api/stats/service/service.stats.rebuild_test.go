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

func TestRebuildKeywordStats_Idempotent(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 2})
	for i := 0; i < 3; i++ {
		env.raw.AddReviews(review("B001", 0.9, 5, time.Hour, "great", "fast"))
	}

	first, err := env.svc.RebuildKeywordStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first.Ok)
	require.Zero(t, first.Failed)

	second, err := env.svc.RebuildKeywordStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second, "rebuild lần 2 trên cùng dữ liệu phải cho cùng kết quả")

	count, err := env.keywords.CountDocuments(context.Background(), bson.M{})
	require.NoError(t, err)
	require.Equal(t, int64(2), count, "không được nhân đôi document khi rebuild lại")
}

func TestRebuildKeywordStats_RemovesStaleKeywords(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 2})
	ctx := context.Background()

	// Keyword cũ còn trong view nhưng không còn trong raw data
	_, err := env.keywords.Upsert(ctx, bson.M{"keyword": "discontinued"}, statsmodels.KeywordStat{
		Keyword: "discontinued",
		Count:   5,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		env.raw.AddReviews(review("B001", 0.9, 5, time.Hour, "great"))
	}

	_, err = env.svc.RebuildKeywordStats(ctx)
	require.NoError(t, err)

	_, err = env.keywords.FindOne(ctx, bson.M{"keyword": "discontinued"}, nil)
	require.Error(t, err, "keyword biến mất khỏi raw data phải bị dọn")

	stat, err := env.keywords.FindOne(ctx, bson.M{"keyword": "great"}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), stat.Count)
}

func TestRebuildKeywordStats_SetsMetadata(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 1})
	env.raw.AddReviews(review("B001", 0.9, 5, time.Hour, "great"))

	before := time.Now().UnixMilli()
	_, err := env.svc.RebuildKeywordStats(context.Background())
	require.NoError(t, err)

	meta, err := env.metadata.FindOne(context.Background(), bson.M{"viewName": statsmodels.ViewKeywordStats}, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, meta.LastFullUpdate, before)
}

func TestRebuildTimeSeries_AllIntervalsPerProduct(t *testing.T) {
	env := newTestEnv(Options{TimeSeriesDays: 90})
	ctx := context.Background()
	env.raw.AddReviews(
		review("B001", 0.9, 5, time.Hour, "good"),
		review("B002", 0.1, 1, time.Hour, "bad"),
	)

	summary, err := env.svc.RebuildTimeSeries(ctx)
	require.NoError(t, err)
	require.Equal(t, 6, summary.Ok, "2 sản phẩm x 3 interval")

	count, err := env.timeSeries.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.Equal(t, int64(6), count)

	point, err := env.timeSeries.FindOne(ctx, bson.M{"productId": "B001", "interval": statsmodels.IntervalWeek}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), point.Total)
}

func TestRebuildTimeSeries_PrunesVanishedProducts(t *testing.T) {
	env := newTestEnv(Options{TimeSeriesDays: 90})
	ctx := context.Background()
	kept := review("B001", 0.9, 5, time.Hour, "good")
	env.raw.AddReviews(kept, review("B002", 0.1, 1, time.Hour, "bad"))
	_, err := env.svc.RebuildTimeSeries(ctx)
	require.NoError(t, err)

	// B002 bị xóa hết review (vd: GDPR delete)
	env.raw.ReplaceReviews([]rawmodels.Review{kept})
	_, err = env.svc.RebuildTimeSeries(ctx)
	require.NoError(t, err)

	count, err := env.timeSeries.CountDocuments(ctx, bson.M{"productId": "B002"})
	require.NoError(t, err)
	require.Zero(t, count, "sản phẩm không còn review phải bị dọn khỏi view")
}

func TestRebuildPlatformStats_AllPeriods(t *testing.T) {
	env := newTestEnv(Options{})
	ctx := context.Background()
	env.raw.AddProducts(product("B001", "Máy xay A", "shopify", 19.9))
	env.raw.AddReviews(review("B001", 0.9, 5, time.Hour, "good"))

	summary, err := env.svc.RebuildPlatformStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, summary.Ok, "1 platform x 4 period")

	for _, period := range statsmodels.AllPeriods {
		stat, err := env.platforms.FindOne(ctx, bson.M{"platform": "shopify", "period": period}, nil)
		require.NoError(t, err, "period %s", period)
		require.Equal(t, int64(1), stat.TotalProducts)
	}
}

func TestRebuildAll_ReturnsSummaryPerView(t *testing.T) {
	env := newTestEnv(Options{MinKeywordCount: 1})
	env.raw.AddProducts(product("B001", "Máy xay A", "shopify", 19.9))
	env.raw.AddReviews(review("B001", 0.9, 5, time.Hour, "great"))

	summaries, err := env.svc.RebuildAll(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	for _, view := range statsmodels.AllViews {
		require.Contains(t, summaries, view)
	}
}

func TestRebuildKeywordStats_BusyViewRejected(t *testing.T) {
	env := newTestEnv(Options{})
	env.svc.viewLocks[statsmodels.ViewKeywordStats].Lock()
	defer env.svc.viewLocks[statsmodels.ViewKeywordStats].Unlock()

	_, err := env.svc.RebuildKeywordStats(context.Background())
	require.ErrorIs(t, err, ErrViewBusy)
}
