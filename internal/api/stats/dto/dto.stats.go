// Package statsdto chứa DTO cho domain Stats (keyword, time series, platform, comparison).
package statsdto

// KeywordStatsQuery query cho GET /stats/keywords.
type KeywordStatsQuery struct {
	MinCount int64 `query:"minCount" validate:"omitempty,min=1"` // Ngưỡng count tối thiểu, 0 = dùng mặc định server
}

// TimeSeriesQuery query cho GET /stats/time-series.
type TimeSeriesQuery struct {
	ProductID string `query:"productId" validate:"required"`
	Interval  string `query:"interval" validate:"omitempty,time_interval"` // day | week | month, mặc định day
}

// PlatformStatsQuery query cho GET /stats/platforms.
type PlatformStatsQuery struct {
	Period string `query:"period" validate:"omitempty,oneof=7d 30d 90d all_time"` // Mặc định all_time
}

// ComparisonQuery query cho GET /stats/comparison.
// ProductIDs là danh sách productId nối bằng dấu phẩy (vd: "B001,B002").
type ComparisonQuery struct {
	ProductIDs string `query:"productIds" validate:"required"`
}

// RebuildBody body cho POST /stats/rebuild.
type RebuildBody struct {
	View string `json:"view" validate:"omitempty,oneof=keyword_stats time_series_stats platform_stats all"` // Mặc định all
	Mode string `json:"mode" validate:"omitempty,oneof=full incremental"`                                   // Mặc định full
}
