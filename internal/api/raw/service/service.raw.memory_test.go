package rawsvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	rawmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/raw/models"
)

func memReview(productID string, score float64, date time.Time, keywords ...string) rawmodels.Review {
	label := "neutral"
	if score >= 0.6 {
		label = "positive"
	} else if score < 0.4 {
		label = "negative"
	}
	ms := date.UnixMilli()
	return rawmodels.Review{
		ProductID: productID,
		Rating:    4,
		Sentiment: rawmodels.ReviewSentiment{Label: label, Score: score},
		Keywords:  keywords,
		Date:      ms,
		CreatedAt: ms,
		UpdatedAt: ms,
	}
}

func TestBucketLabel_Formats(t *testing.T) {
	ts := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC).UnixMilli()

	require.Equal(t, "2026-08-31", bucketLabel(ts, "day"))
	require.Equal(t, "2026-08", bucketLabel(ts, "month"))
	// 31/08/2026 thuộc ISO week 36
	require.Equal(t, "2026-W36", bucketLabel(ts, "week"))
}

func TestKeywordRollups_AveragesAndProductIDs(t *testing.T) {
	s := NewMemoryRawStore()
	now := time.Now()
	s.AddReviews(
		memReview("B001", 0.8, now, "battery"),
		memReview("B002", 0.4, now, "battery"),
		memReview("B001", 0.9, now, "screen"),
	)

	rollups, err := s.KeywordRollups(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, rollups, 2)

	battery := rollups[0]
	require.Equal(t, "battery", battery.Keyword)
	require.Equal(t, int64(2), battery.Count)
	require.InDelta(t, 0.6, battery.AvgScore, 1e-9)
	require.Equal(t, []string{"B001", "B002"}, battery.ProductIDs)
}

func TestKeywordRollups_ScopeLimitsKeywords(t *testing.T) {
	s := NewMemoryRawStore()
	now := time.Now()
	s.AddReviews(memReview("B001", 0.8, now, "battery", "screen"))

	rollups, err := s.KeywordRollups(context.Background(), []string{"screen"})
	require.NoError(t, err)
	require.Len(t, rollups, 1)
	require.Equal(t, "screen", rollups[0].Keyword)
}

func TestTimeSeriesRollup_BucketsAndSince(t *testing.T) {
	s := NewMemoryRawStore()
	now := time.Now()
	s.AddReviews(
		memReview("B001", 0.9, now.Add(-time.Hour), "a"),
		memReview("B001", 0.2, now.Add(-time.Hour), "b"),
		memReview("B001", 0.9, now.Add(-40*24*time.Hour), "c"), // ngoài window 30 ngày
		memReview("B002", 0.9, now.Add(-time.Hour), "d"),      // sản phẩm khác
	)

	buckets, err := s.TimeSeriesRollup(context.Background(), "B001", "day", now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.Equal(t, int64(2), buckets[0].Total)
	require.Equal(t, int64(1), buckets[0].Positive)
	require.Equal(t, int64(1), buckets[0].Negative)
	require.InDelta(t, 0.55, buckets[0].AvgScore, 1e-9)
}

func TestPlatformRollups_WindowFiltersProducts(t *testing.T) {
	s := NewMemoryRawStore()
	now := time.Now()
	s.AddProducts(
		rawmodels.Product{ProductID: "B001", Platform: "shopify", Stats: rawmodels.ProductStats{AvgRating: 4.5}},
		rawmodels.Product{ProductID: "B002", Platform: "amazon", Stats: rawmodels.ProductStats{AvgRating: 3.0}},
	)
	s.AddReviews(
		memReview("B001", 0.9, now.Add(-time.Hour), "a"),
		memReview("B002", 0.5, now.Add(-10*24*time.Hour), "b"),
	)

	recent, err := s.PlatformRollups(context.Background(), now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "shopify", recent[0].Platform)
	require.Equal(t, int64(1), recent[0].TotalProducts)

	allTime, err := s.PlatformRollups(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, allTime, 2)
	require.Equal(t, "amazon", allTime[0].Platform, "kết quả phải sort theo platform")
}

func TestProductReviewStats_SampleLimitNewestFirst(t *testing.T) {
	s := NewMemoryRawStore()
	now := time.Now()
	s.AddReviews(
		memReview("B001", 0.9, now.Add(-3*time.Hour), "a"),
		memReview("B001", 0.5, now.Add(-time.Hour), "b"),
		memReview("B001", 0.1, now.Add(-2*time.Hour), "c"),
	)

	stats, err := s.ProductReviewStats(context.Background(), "B001", 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.ReviewCount)
	require.InDelta(t, 0.5, stats.AvgSentiment, 1e-9)
	require.Len(t, stats.RecentReviews, 2, "sample phải bị cắt theo limit")
	require.GreaterOrEqual(t, stats.RecentReviews[0].Date, stats.RecentReviews[1].Date, "sample phải mới nhất trước")
}

func TestChangedKeywords_WindowEdges(t *testing.T) {
	s := NewMemoryRawStore()
	from := time.Now().Add(-24 * time.Hour)
	to := time.Now()

	inside := memReview("B001", 0.9, from.Add(time.Minute), "inside")
	atFrom := memReview("B001", 0.9, from, "at-from")
	atTo := memReview("B001", 0.9, to, "at-to")
	before := memReview("B001", 0.9, from.Add(-time.Minute), "before")
	s.AddReviews(inside, atFrom, atTo, before)

	changed, err := s.ChangedKeywords(context.Background(), from, to)
	require.NoError(t, err)
	// Window nửa mở [from, to): biên from thuộc window, biên to thì không
	require.Equal(t, []string{"at-from", "inside"}, changed)
}

func TestChangedProductIDs_UsesUpdatedAtOrDate(t *testing.T) {
	s := NewMemoryRawStore()
	now := time.Now()

	// Review cũ nhưng vừa bị sửa: date ngoài window, updatedAt trong window
	edited := memReview("B001", 0.9, now.Add(-60*24*time.Hour), "edited")
	edited.UpdatedAt = now.Add(-time.Hour).UnixMilli()
	s.AddReviews(
		edited,
		memReview("B002", 0.9, now.Add(-48*time.Hour), "stale"),
	)

	changed, err := s.ChangedProductIDs(context.Background(), now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Equal(t, []string{"B001"}, changed)
}

func TestActiveProductIDs(t *testing.T) {
	s := NewMemoryRawStore()
	now := time.Now()
	s.AddReviews(
		memReview("B002", 0.9, now, "a"),
		memReview("B001", 0.9, now, "b"),
		memReview("B001", 0.5, now, "c"),
	)

	ids, err := s.ActiveProductIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"B001", "B002"}, ids)
}
