// Package models - Review thuộc domain Raw (raw_reviews).
// Dữ liệu thô do pipeline ingestion ghi vào, subsystem này chỉ đọc.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewSentiment chứa kết quả phân tích sentiment của một review.
type ReviewSentiment struct {
	Label string  `json:"label" bson:"label"` // positive | neutral | negative
	Score float64 `json:"score" bson:"score"` // [0, 1]
}

// Review lưu một review thô (raw_reviews).
type Review struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"` // MongoDB _id
	ReviewID  string             `json:"reviewId,omitempty" bson:"reviewId,omitempty"`
	ProductID string             `json:"productId" bson:"productId" index:"single:1"` // Tham chiếu raw_products.productId
	Rating    float64            `json:"rating" bson:"rating"`                        // 1..5
	Sentiment ReviewSentiment    `json:"sentiment" bson:"sentiment"`
	Keywords  []string           `json:"keywords,omitempty" bson:"keywords,omitempty" index:"single:1"` // Multikey
	Text      string             `json:"text,omitempty" bson:"text,omitempty"`
	Date      int64              `json:"date" bson:"date" index:"single:1"`           // Unix miliseconds
	CreatedAt int64              `json:"createdAt" bson:"createdAt"`                  // Unix miliseconds
	UpdatedAt int64              `json:"updatedAt" bson:"updatedAt" index:"single:1"` // Unix miliseconds
}
