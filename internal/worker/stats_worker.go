package worker

import (
	"context"
	"errors"
	"time"

	statssvc "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/service"
	"github.com/DITreneris/shopsentiment-sub001/internal/logger"
)

// StatsWorker lập lịch cập nhật các materialized view: incremental update
// chạy dày (mặc định 5 phút), full rebuild chạy thưa (mặc định 6 giờ).
// Mỗi view có khóa riêng trong StatsService: tick mới trùng với lần chạy
// chưa xong thì bỏ qua (skip, không xếp hàng).
type StatsWorker struct {
	statsService        *statssvc.StatsService
	incrementalInterval time.Duration // Khoảng thời gian giữa các lần incremental update
	fullInterval        time.Duration // Khoảng thời gian giữa các lần full rebuild
}

// NewStatsWorker tạo mới StatsWorker.
// Tham số:
//   - incrementalInterval: chu kỳ incremental update (mặc định: 5 phút)
//   - fullInterval: chu kỳ full rebuild (mặc định: 6 giờ)
func NewStatsWorker(statsService *statssvc.StatsService, incrementalInterval, fullInterval time.Duration) *StatsWorker {
	if incrementalInterval < time.Second {
		incrementalInterval = 5 * time.Minute
	}
	if fullInterval < time.Minute {
		fullInterval = 6 * time.Hour
	}
	return &StatsWorker{
		statsService:        statsService,
		incrementalInterval: incrementalInterval,
		fullInterval:        fullInterval,
	}
}

// Start chạy worker trong vòng lặp cho tới khi ctx bị hủy.
func (w *StatsWorker) Start(ctx context.Context) {
	log := logger.GetWorkerLogger()

	incrementalTicker := time.NewTicker(w.incrementalInterval)
	defer incrementalTicker.Stop()
	fullTicker := time.NewTicker(w.fullInterval)
	defer fullTicker.Stop()

	log.WithFields(map[string]interface{}{
		"incrementalInterval": w.incrementalInterval.String(),
		"fullInterval":        w.fullInterval.String(),
	}).Info("📈 [STATS] Starting Stats Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("📈 [STATS] Stats Worker stopped")
			return
		case <-incrementalTicker.C:
			w.runProtected(ctx, "incremental", w.runIncremental)
		case <-fullTicker.C:
			w.runProtected(ctx, "full", w.runFull)
		}
	}
}

// runProtected chạy một lần cập nhật với recover, panic không giết worker.
func (w *StatsWorker) runProtected(ctx context.Context, mode string, run func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetWorkerLogger().WithFields(map[string]interface{}{
				"mode":  mode,
				"panic": r,
			}).Error("📈 [STATS] Panic khi cập nhật views, sẽ tiếp tục ở lần chạy tiếp theo")
		}
	}()
	run(ctx)
}

// runIncremental chạy incremental update cho cả 3 view.
func (w *StatsWorker) runIncremental(ctx context.Context) {
	log := logger.GetWorkerLogger()
	start := time.Now()

	summaries, err := w.statsService.UpdateAll(ctx)
	if err != nil {
		log.WithError(err).Error("📈 [STATS] Incremental update thất bại")
	}
	total := statssvc.RebuildSummary{}
	for _, s := range summaries {
		total.Ok += s.Ok
		total.Failed += s.Failed
	}
	if total.Ok > 0 || total.Failed > 0 {
		log.WithFields(map[string]interface{}{
			"ok":       total.Ok,
			"failed":   total.Failed,
			"duration": time.Since(start).String(),
		}).Info("📈 [STATS] Incremental update hoàn tất")
	}
}

// runFull chạy full rebuild cho cả 3 view. View đang bận (incremental đang chạy)
// được bỏ qua, full rebuild kế tiếp sẽ bù lại.
func (w *StatsWorker) runFull(ctx context.Context) {
	log := logger.GetWorkerLogger()
	start := time.Now()

	summaries, err := w.statsService.RebuildAll(ctx)
	if err != nil && !errors.Is(err, statssvc.ErrViewBusy) {
		log.WithError(err).Error("📈 [STATS] Full rebuild thất bại")
	}
	total := statssvc.RebuildSummary{}
	for _, s := range summaries {
		total.Ok += s.Ok
		total.Failed += s.Failed
	}
	log.WithFields(map[string]interface{}{
		"ok":       total.Ok,
		"failed":   total.Failed,
		"duration": time.Since(start).String(),
	}).Info("📈 [STATS] Full rebuild hoàn tất")
}
