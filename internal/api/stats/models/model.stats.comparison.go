package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ComparisonReview là một review rút gọn trong mẫu recent reviews.
type ComparisonReview struct {
	Rating float64 `json:"rating" bson:"rating"`
	Label  string  `json:"label" bson:"label"`
	Score  float64 `json:"score" bson:"score"`
	Date   int64   `json:"date" bson:"date"` // Unix miliseconds
}

// ComparisonEntry là thống kê của một sản phẩm trong một comparison.
type ComparisonEntry struct {
	ProductID     string             `json:"productId" bson:"productId"`
	Name          string             `json:"name,omitempty" bson:"name,omitempty"`
	Platform      string             `json:"platform,omitempty" bson:"platform,omitempty"`
	Price         float64            `json:"price,omitempty" bson:"price,omitempty"`
	ReviewCount   int64              `json:"reviewCount" bson:"reviewCount"`
	AvgSentiment  float64            `json:"avgSentiment" bson:"avgSentiment"`
	AvgRating     float64            `json:"avgRating" bson:"avgRating"`
	RecentReviews []ComparisonReview `json:"recentReviews" bson:"recentReviews"`
}

// ProductComparison lưu kết quả so sánh một tập sản phẩm (product_comparisons).
// Document được địa chỉ hóa theo nội dung: Hash là hàm thuần của tập productIds
// đã sort + dedup, nên hai lần gọi với cùng tập (bất kỳ thứ tự) trúng cùng
// một document. Hết hạn qua TTL index trên expiresAt.
type ProductComparison struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"` // MongoDB _id
	Hash           string             `json:"hash" bson:"hash" index:"unique"`
	ProductIDs     []string           `json:"productIds" bson:"productIds"` // Đã sort + dedup
	ComparisonData []ComparisonEntry  `json:"comparisonData" bson:"comparisonData"`
	ViewCount      int64              `json:"viewCount" bson:"viewCount"`
	ExpiresAt      time.Time          `json:"expiresAt" bson:"expiresAt" index:"ttl:0"` // Store tự xóa khi quá hạn
	CreatedAt      int64              `json:"createdAt" bson:"createdAt"`               // Unix miliseconds
	UpdatedAt      int64              `json:"updatedAt" bson:"updatedAt"`               // Unix miliseconds
}
