package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TimeSeriesBucket là một bucket thời gian trong chuỗi của một sản phẩm.
type TimeSeriesBucket struct {
	Label    string  `json:"label" bson:"label"` // "2026-08-01" | "2026-W35" | "2026-08" tùy interval
	Positive int64   `json:"positive" bson:"positive"`
	Neutral  int64   `json:"neutral" bson:"neutral"`
	Negative int64   `json:"negative" bson:"negative"`
	Total    int64   `json:"total" bson:"total"`
	AvgScore float64 `json:"avgScore" bson:"avgScore"`
}

// TimeSeriesPoint lưu chuỗi sentiment theo thời gian của một sản phẩm
// (time_series_stats). Mỗi cặp (productId, interval) có đúng một document
// chứa danh sách buckets đã sắp xếp tăng dần theo label.
type TimeSeriesPoint struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"` // MongoDB _id
	ProductID string             `json:"productId" bson:"productId" index:"single:1,compound:ts_product_interval_unique"`
	Interval  string             `json:"interval" bson:"interval" index:"compound:ts_product_interval_unique"` // day | week | month
	Buckets   []TimeSeriesBucket `json:"buckets" bson:"buckets"`
	Total     int64              `json:"total" bson:"total"`         // Tổng review trong cửa sổ
	CreatedAt int64              `json:"createdAt" bson:"createdAt"` // Unix miliseconds
	UpdatedAt int64              `json:"updatedAt" bson:"updatedAt"` // Unix miliseconds
}
