package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// KeywordSentiment chứa sentiment trung bình của một keyword.
type KeywordSentiment struct {
	Score float64 `json:"score" bson:"score"` // Trung bình sentiment.score của các review chứa keyword
	Label string  `json:"label" bson:"label"` // positive | neutral | negative theo ngưỡng 0.6/0.4
}

// KeywordStat lưu thống kê materialized của một keyword (keyword_stats).
// Mỗi keyword xuất hiện trong ít nhất min_count review có đúng một document.
type KeywordStat struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"` // MongoDB _id
	Keyword    string             `json:"keyword" bson:"keyword" index:"unique"`
	Count      int64              `json:"count" bson:"count" index:"single:1"`
	Sentiment  KeywordSentiment   `json:"sentiment" bson:"sentiment"`
	ProductIDs []string           `json:"productIds" bson:"productIds"` // Các sản phẩm có review chứa keyword
	CreatedAt  int64              `json:"createdAt" bson:"createdAt"`   // Unix miliseconds
	UpdatedAt  int64              `json:"updatedAt" bson:"updatedAt"`   // Unix miliseconds
}
