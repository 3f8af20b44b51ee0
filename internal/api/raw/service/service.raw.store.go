// Package rawsvc chứa lớp truy cập read-only trên dữ liệu thô (raw_reviews, raw_products).
// Các engine aggregation không query collection trực tiếp mà đi qua RawStore,
// nhờ đó unit test chạy được trên MemoryRawStore không cần MongoDB.
package rawsvc

import (
	"context"
	"time"

	rawmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/raw/models"
)

// KeywordRollup là kết quả group reviews theo keyword.
type KeywordRollup struct {
	Keyword    string   `bson:"_id"`
	Count      int64    `bson:"count"`
	AvgScore   float64  `bson:"avgScore"`
	ProductIDs []string `bson:"productIds"`
}

// TimeSeriesBucket là một bucket thời gian của một sản phẩm.
type TimeSeriesBucket struct {
	Label    string  `bson:"_id"`      // "2026-08-01" | "2026-W35" | "2026-08" tùy interval
	Positive int64   `bson:"positive"`
	Neutral  int64   `bson:"neutral"`
	Negative int64   `bson:"negative"`
	Total    int64   `bson:"total"`
	AvgScore float64 `bson:"avgScore"`
}

// PlatformRollup là kết quả group products theo platform.
type PlatformRollup struct {
	Platform           string           `bson:"_id"`
	TotalProducts      int64            `bson:"totalProducts"`
	AvgRating          float64          `bson:"avgRating"`
	RatingDistribution map[string]int64 `bson:"-"` // Key "1".."5", dựng từ R1..R5
}

// ReviewSample là một review rút gọn trong mẫu recent reviews của comparison.
type ReviewSample struct {
	Rating float64 `json:"rating" bson:"rating"`
	Label  string  `json:"label" bson:"label"`
	Score  float64 `json:"score" bson:"score"`
	Date   int64   `json:"date" bson:"date"`
}

// ProductReviewStats là thống kê review của một sản phẩm cho comparison.
type ProductReviewStats struct {
	ProductID     string         `json:"productId" bson:"productId"`
	ReviewCount   int64          `json:"reviewCount" bson:"reviewCount"`
	AvgSentiment  float64        `json:"avgSentiment" bson:"avgSentiment"`
	AvgRating     float64        `json:"avgRating" bson:"avgRating"`
	RecentReviews []ReviewSample `json:"recentReviews" bson:"recentReviews"`
}

// RawStore là interface read-only trên dữ liệu thô.
// scope nil/rỗng nghĩa là không giới hạn (full scan).
type RawStore interface {
	// KeywordRollups group reviews theo keyword (sau khi unwind keyword list).
	// scope khác rỗng giới hạn kết quả về các keyword trong scope.
	KeywordRollups(ctx context.Context, scope []string) ([]KeywordRollup, error)

	// TimeSeriesRollup group reviews của một sản phẩm trong [since, now]
	// theo bucket của interval (day|week|month) và theo sentiment label.
	TimeSeriesRollup(ctx context.Context, productID string, interval string, since time.Time) ([]TimeSeriesBucket, error)

	// PlatformRollups group products có ít nhất một review trong [since, now]
	// theo platform. since zero = all_time (mọi sản phẩm có review).
	PlatformRollups(ctx context.Context, since time.Time) ([]PlatformRollup, error)

	// ProductReviewStats tính thống kê review và mẫu recent reviews của một sản phẩm.
	ProductReviewStats(ctx context.Context, productID string, sampleLimit int) (ProductReviewStats, error)

	// ProductsByIDs trả về các product theo danh sách productId.
	ProductsByIDs(ctx context.Context, ids []string) ([]rawmodels.Product, error)

	// ChangedKeywords trả về các keyword xuất hiện trong reviews có
	// updatedAt hoặc date nằm trong [from, to).
	ChangedKeywords(ctx context.Context, from, to time.Time) ([]string, error)

	// ChangedProductIDs trả về các productId của reviews thay đổi trong [from, to).
	ChangedProductIDs(ctx context.Context, from, to time.Time) ([]string, error)

	// ActiveProductIDs trả về mọi productId có ít nhất một review.
	ActiveProductIDs(ctx context.Context) ([]string, error)
}
