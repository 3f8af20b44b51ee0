// Package models - các materialized view models thuộc domain Stats.
package models

// Tên các materialized view, trùng với tên collection.
const (
	ViewKeywordStats       = "keyword_stats"
	ViewTimeSeriesStats    = "time_series_stats"
	ViewPlatformStats      = "platform_stats"
	ViewProductComparisons = "product_comparisons"
)

// AllViews liệt kê các view theo thứ tự rebuild mặc định.
// product_comparisons không nằm trong danh sách: nó được materialize
// theo nhu cầu (write-through) và tự hết hạn qua TTL index.
var AllViews = []string{
	ViewKeywordStats,
	ViewTimeSeriesStats,
	ViewPlatformStats,
}

// Các interval của time series.
const (
	IntervalDay   = "day"
	IntervalWeek  = "week"
	IntervalMonth = "month"
)

// AllIntervals liệt kê các interval được materialize cho mỗi sản phẩm.
var AllIntervals = []string{IntervalDay, IntervalWeek, IntervalMonth}

// Các period của platform stats.
const (
	Period7d      = "7d"
	Period30d     = "30d"
	Period90d     = "90d"
	PeriodAllTime = "all_time"
)

// AllPeriods liệt kê các period được materialize cho platform stats.
var AllPeriods = []string{Period7d, Period30d, Period90d, PeriodAllTime}

// PeriodDays trả về số ngày của một period, 0 nghĩa là all_time.
func PeriodDays(period string) int {
	switch period {
	case Period7d:
		return 7
	case Period30d:
		return 30
	case Period90d:
		return 90
	default:
		return 0
	}
}

// Các sentiment label.
const (
	LabelPositive = "positive"
	LabelNeutral  = "neutral"
	LabelNegative = "negative"
)
