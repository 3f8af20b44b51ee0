// Package statssvc - helpers dùng chung cho test: dựng StatsService trên
// memory stores, không cần MongoDB.
package statssvc

import (
	"fmt"
	"sync/atomic"
	"time"

	rawmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/raw/models"
	rawsvc "github.com/DITreneris/shopsentiment-sub001/internal/api/raw/service"
	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
	"github.com/DITreneris/shopsentiment-sub001/internal/store"
)

type testEnv struct {
	raw         *rawsvc.MemoryRawStore
	keywords    *store.MemoryStore[statsmodels.KeywordStat]
	timeSeries  *store.MemoryStore[statsmodels.TimeSeriesPoint]
	platforms   *store.MemoryStore[statsmodels.PlatformStat]
	comparisons *store.MemoryStore[statsmodels.ProductComparison]
	metadata    *store.MemoryStore[statsmodels.ViewMetadata]
	svc         *StatsService
}

func newTestEnv(opts Options) *testEnv {
	env := &testEnv{
		raw:         rawsvc.NewMemoryRawStore(),
		keywords:    store.NewMemoryStore[statsmodels.KeywordStat](),
		timeSeries:  store.NewMemoryStore[statsmodels.TimeSeriesPoint](),
		platforms:   store.NewMemoryStore[statsmodels.PlatformStat](),
		comparisons: store.NewMemoryStore[statsmodels.ProductComparison](),
		metadata:    store.NewMemoryStore[statsmodels.ViewMetadata](),
	}
	env.svc = NewStatsService(env.raw, env.keywords, env.timeSeries, env.platforms, env.comparisons, env.metadata, opts)
	return env
}

// msAgo trả về Unix milliseconds của thời điểm cách hiện tại d.
func msAgo(d time.Duration) int64 {
	return time.Now().Add(-d).UnixMilli()
}

var reviewSeq atomic.Int64

// review tạo một review với score sentiment và các keyword cho trước,
// date và updatedAt đặt cùng thời điểm (cách hiện tại ago).
func review(productID string, score float64, rating float64, ago time.Duration, keywords ...string) rawmodels.Review {
	label := statsmodels.LabelNeutral
	if score >= 0.6 {
		label = statsmodels.LabelPositive
	} else if score < 0.4 {
		label = statsmodels.LabelNegative
	}
	at := msAgo(ago)
	return rawmodels.Review{
		ReviewID:  fmt.Sprintf("%s-r%d", productID, reviewSeq.Add(1)),
		ProductID: productID,
		Rating:    rating,
		Sentiment: rawmodels.ReviewSentiment{Label: label, Score: score},
		Keywords:  keywords,
		Date:      at,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// product tạo một product tối thiểu cho comparison/platform tests.
func product(productID, name, platform string, price float64) rawmodels.Product {
	return rawmodels.Product{
		ProductID: productID,
		Name:      name,
		Platform:  platform,
		Price:     price,
	}
}
