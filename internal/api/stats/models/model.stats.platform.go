package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlatformStat lưu thống kê materialized của một platform trong một period
// (platform_stats). Mỗi cặp (platform, period) có đúng một document.
type PlatformStat struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"` // MongoDB _id
	Platform           string             `json:"platform" bson:"platform" index:"single:1,compound:platform_period_unique"`
	Period             string             `json:"period" bson:"period" index:"compound:platform_period_unique"` // 7d | 30d | 90d | all_time
	TotalProducts      int64              `json:"totalProducts" bson:"totalProducts"`
	AvgRating          float64            `json:"avgRating" bson:"avgRating"`
	RatingDistribution map[string]int64   `json:"ratingDistribution" bson:"ratingDistribution"` // Key "1".."5"
	CreatedAt          int64              `json:"createdAt" bson:"createdAt"`                   // Unix miliseconds
	UpdatedAt          int64              `json:"updatedAt" bson:"updatedAt"`                   // Unix miliseconds
}
