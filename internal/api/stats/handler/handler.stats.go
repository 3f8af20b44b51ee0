// Package statshdl - Handler HTTP cho domain Stats: đọc các materialized view
// (có fallback tính live) và trigger rebuild thủ công.
package statshdl

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	basehdl "github.com/DITreneris/shopsentiment-sub001/internal/api/base/handler"
	statsdto "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/dto"
	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
	statssvc "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/service"
	"github.com/DITreneris/shopsentiment-sub001/internal/common"
	"github.com/DITreneris/shopsentiment-sub001/internal/global"
)

// StatsHandler xử lý các request thống kê.
type StatsHandler struct {
	StatsService *statssvc.StatsService
}

// NewStatsHandler tạo mới StatsHandler.
func NewStatsHandler(service *statssvc.StatsService) *StatsHandler {
	return &StatsHandler{StatsService: service}
}

// HandleGetKeywords xử lý GET /stats/keywords — top keyword kèm sentiment.
// Query: minCount (optional, mặc định theo cấu hình server).
func (h *StatsHandler) HandleGetKeywords(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var q statsdto.KeywordStatsQuery
		_ = c.Bind().Query(&q)
		if err := global.Validate.Struct(q); err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		stats, source, err := h.StatsService.GetKeywordStats(c.Context(), q.MinCount)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		basehdl.HandleResponse(c, fiber.Map{
			"source":   source,
			"keywords": stats,
			"count":    len(stats),
		}, nil)
		return nil
	})
}

// HandleGetTimeSeries xử lý GET /stats/time-series — time series sentiment của một sản phẩm.
// Query: productId (bắt buộc), interval (day|week|month, mặc định day).
func (h *StatsHandler) HandleGetTimeSeries(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var q statsdto.TimeSeriesQuery
		_ = c.Bind().Query(&q)
		if q.Interval == "" {
			q.Interval = statsmodels.IntervalDay
		}
		if err := global.Validate.Struct(q); err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		point, source, err := h.StatsService.GetTimeSeries(c.Context(), q.ProductID, q.Interval)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		basehdl.HandleResponse(c, fiber.Map{
			"source":     source,
			"timeSeries": point,
		}, nil)
		return nil
	})
}

// HandleGetPlatforms xử lý GET /stats/platforms — phân bố sản phẩm/rating theo platform.
// Query: period (7d|30d|90d|all_time, mặc định all_time).
func (h *StatsHandler) HandleGetPlatforms(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var q statsdto.PlatformStatsQuery
		_ = c.Bind().Query(&q)
		if q.Period == "" {
			q.Period = statsmodels.PeriodAllTime
		}
		if err := global.Validate.Struct(q); err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		stats, source, err := h.StatsService.GetPlatformStats(c.Context(), q.Period)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		basehdl.HandleResponse(c, fiber.Map{
			"source":    source,
			"period":    q.Period,
			"platforms": stats,
		}, nil)
		return nil
	})
}

// HandleGetComparison xử lý GET /stats/comparison — so sánh một tập sản phẩm.
// Query: productIds (bắt buộc, nối bằng dấu phẩy, thứ tự và trùng lặp không ảnh hưởng kết quả).
func (h *StatsHandler) HandleGetComparison(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var q statsdto.ComparisonQuery
		_ = c.Bind().Query(&q)
		if err := global.Validate.Struct(q); err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		ids := make([]string, 0)
		for _, id := range strings.Split(q.ProductIDs, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		comparison, source, err := h.StatsService.GetComparison(c.Context(), ids)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		basehdl.HandleResponse(c, fiber.Map{
			"source":     source,
			"comparison": comparison,
		}, nil)
		return nil
	})
}

// HandleGetMetadata xử lý GET /stats/metadata — thời điểm cập nhật cuối của từng view.
func (h *StatsHandler) HandleGetMetadata(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		metadata, err := h.StatsService.GetMetadata(c.Context())
		basehdl.HandleResponse(c, fiber.Map{"views": metadata}, err)
		return nil
	})
}

// HandleRebuild xử lý POST /stats/rebuild — trigger rebuild/update thủ công.
// Body: view (keyword_stats|time_series_stats|platform_stats|all, mặc định all),
// mode (full|incremental, mặc định full).
func (h *StatsHandler) HandleRebuild(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var body statsdto.RebuildBody
		if err := c.Bind().Body(&body); err != nil && len(c.Body()) > 0 {
			basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
			return nil
		}
		if body.View == "" {
			body.View = "all"
		}
		if body.Mode == "" {
			body.Mode = "full"
		}
		if err := global.Validate.Struct(body); err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		summaries, err := h.runRebuild(c, body)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		basehdl.HandleResponse(c, fiber.Map{
			"mode":      body.Mode,
			"summaries": summaries,
		}, nil)
		return nil
	})
}

// runRebuild điều phối body rebuild về đúng engine (full/incremental, một view hoặc tất cả).
func (h *StatsHandler) runRebuild(c fiber.Ctx, body statsdto.RebuildBody) (map[string]statssvc.RebuildSummary, error) {
	ctx := c.Context()
	if body.View == "all" {
		if body.Mode == "incremental" {
			return h.StatsService.UpdateAll(ctx)
		}
		return h.StatsService.RebuildAll(ctx)
	}

	var (
		summary statssvc.RebuildSummary
		err     error
	)
	switch {
	case body.View == statsmodels.ViewKeywordStats && body.Mode == "incremental":
		summary, err = h.StatsService.UpdateKeywordStats(ctx)
	case body.View == statsmodels.ViewKeywordStats:
		summary, err = h.StatsService.RebuildKeywordStats(ctx)
	case body.View == statsmodels.ViewTimeSeriesStats && body.Mode == "incremental":
		summary, err = h.StatsService.UpdateTimeSeries(ctx)
	case body.View == statsmodels.ViewTimeSeriesStats:
		summary, err = h.StatsService.RebuildTimeSeries(ctx)
	case body.View == statsmodels.ViewPlatformStats && body.Mode == "incremental":
		summary, err = h.StatsService.UpdatePlatformStats(ctx)
	default:
		summary, err = h.StatsService.RebuildPlatformStats(ctx)
	}
	if err != nil {
		return nil, err
	}
	return map[string]statssvc.RebuildSummary{body.View: summary}, nil
}
