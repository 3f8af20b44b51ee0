package statssvc

import (
	"context"

	"github.com/DITreneris/shopsentiment-sub001/internal/api/events"
	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
	"github.com/DITreneris/shopsentiment-sub001/internal/global"
)

// RegisterHotCacheInvalidation đăng ký handler vô hiệu hóa hot cache mỗi khi
// product_comparisons bị ghi đè từ nơi khác (write-through của instance khác,
// TTL cleanup...), tránh hot cache phục vụ document đã đổi.
func RegisterHotCacheInvalidation(hc HotCache) {
	if hc == nil {
		return
	}
	events.OnDataChanged(func(ctx context.Context, e events.DataChangeEvent) {
		if e.CollectionName != global.MongoDB_ColNames.ProductComparisons {
			return
		}
		comparison, ok := e.Document.(statsmodels.ProductComparison)
		if !ok {
			return
		}
		hc.Invalidate(ctx, comparison.Hash)
	})
}
