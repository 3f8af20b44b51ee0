// Package models - Product thuộc domain Raw (raw_products).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStats chứa thống kê tích lũy do pipeline ingestion duy trì.
type ProductStats struct {
	ReviewCount        int64            `json:"reviewCount" bson:"reviewCount"`
	AvgRating          float64          `json:"avgRating" bson:"avgRating"`
	RatingDistribution map[string]int64 `json:"ratingDistribution,omitempty" bson:"ratingDistribution,omitempty"` // Key "1".."5"
}

// Product lưu một sản phẩm thô (raw_products).
type Product struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"` // MongoDB _id
	ProductID string             `json:"productId" bson:"productId" index:"unique"`
	Name      string             `json:"name,omitempty" bson:"name,omitempty"`
	Platform  string             `json:"platform" bson:"platform" index:"single:1"`
	Category  string             `json:"category,omitempty" bson:"category,omitempty"`
	Price     float64            `json:"price,omitempty" bson:"price,omitempty"`
	Stats     ProductStats       `json:"stats" bson:"stats"`
	Keywords  []string           `json:"keywords,omitempty" bson:"keywords,omitempty"`
	CreatedAt int64              `json:"createdAt" bson:"createdAt"`                  // Unix miliseconds
	UpdatedAt int64              `json:"updatedAt" bson:"updatedAt" index:"single:1"` // Unix miliseconds
}
