package statssvc

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
	"github.com/DITreneris/shopsentiment-sub001/internal/common"
	"github.com/DITreneris/shopsentiment-sub001/internal/logger"
	"github.com/DITreneris/shopsentiment-sub001/internal/utility"
)

// GetMetadata trả về metadata của tất cả các view đã từng được cập nhật.
func (s *StatsService) GetMetadata(ctx context.Context) ([]statsmodels.ViewMetadata, error) {
	return s.metadataStore.Find(ctx, bson.M{}, nil)
}

// getViewMetadata đọc metadata của một view. Metadata thiếu hoặc hỏng được coi
// như view chưa từng cập nhật (trả về document zero-value kèm ErrStaleMetadata
// đã được log, không fail run).
func (s *StatsService) getViewMetadata(ctx context.Context, view string) statsmodels.ViewMetadata {
	meta, err := s.metadataStore.FindOne(ctx, bson.M{"viewName": view}, nil)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			logger.GetAppLogger().WithError(common.ErrStaleMetadata).WithFields(map[string]interface{}{
				"view":  view,
				"cause": err.Error(),
			}).Warn("Metadata của view không đọc được, coi như chưa từng cập nhật")
		}
		return statsmodels.ViewMetadata{ViewName: view}
	}
	return meta
}

// setLastFullUpdate ghi nhận thời điểm hoàn thành full rebuild của view.
func (s *StatsService) setLastFullUpdate(ctx context.Context, view string, at int64) error {
	meta := s.getViewMetadata(ctx, view)
	meta.LastFullUpdate = at
	_, err := s.metadataStore.Upsert(ctx, bson.M{"viewName": view}, meta)
	return err
}

// setLastIncrementalUpdate ghi nhận thời điểm hoàn thành incremental update của view.
// Luôn được gọi kể cả khi một phần key thất bại, để cửa sổ lần sau không phình to vô hạn.
func (s *StatsService) setLastIncrementalUpdate(ctx context.Context, view string, at int64) error {
	meta := s.getViewMetadata(ctx, view)
	meta.LastIncrementalUpdate = at
	_, err := s.metadataStore.Upsert(ctx, bson.M{"viewName": view}, meta)
	return err
}

// incrementalWindow tính cửa sổ [from, to) cho một lần incremental update:
// from = lastIncrementalUpdate nếu có, ngược lại lùi 24h để không bỏ sót dữ liệu mới.
func (s *StatsService) incrementalWindow(ctx context.Context, view string) (from int64, to int64) {
	now := s.now()
	to = utility.UnixMilli(now)
	meta := s.getViewMetadata(ctx, view)
	if meta.LastIncrementalUpdate > 0 {
		return meta.LastIncrementalUpdate, to
	}
	return utility.UnixMilli(now.Add(-24 * time.Hour)), to
}
