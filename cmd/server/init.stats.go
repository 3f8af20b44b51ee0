package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	rawsvc "github.com/DITreneris/shopsentiment-sub001/internal/api/raw/service"
	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
	statssvc "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/service"
	"github.com/DITreneris/shopsentiment-sub001/internal/global"
	"github.com/DITreneris/shopsentiment-sub001/internal/logger"
	"github.com/DITreneris/shopsentiment-sub001/internal/store"
	"github.com/DITreneris/shopsentiment-sub001/internal/worker"
)

// StatsRuntime gom các thành phần runtime của stats engine sau khi bootstrap.
type StatsRuntime struct {
	Service *statssvc.StatsService
	Worker  *worker.StatsWorker
}

// mustCollection lấy collection đã đăng ký trong registry, fatal nếu thiếu.
func mustCollection(name string) *mongo.Collection {
	coll, err := global.RegistryCollections.MustGet(name)
	if err != nil {
		logrus.Fatalf("Collection %s chưa được đăng ký: %v", name, err)
	}
	return coll
}

// InitStatsRuntime dựng toàn bộ stats engine từ registry collections và config.
func InitStatsRuntime() *StatsRuntime {
	cfg := global.ServerConfig

	rawStore := rawsvc.NewMongoRawStore(
		mustCollection(global.MongoDB_ColNames.RawReviews),
		mustCollection(global.MongoDB_ColNames.RawProducts),
	)

	service := statssvc.NewStatsService(
		rawStore,
		store.NewMongoStore[statsmodels.KeywordStat](mustCollection(global.MongoDB_ColNames.KeywordStats)),
		store.NewMongoStore[statsmodels.TimeSeriesPoint](mustCollection(global.MongoDB_ColNames.TimeSeriesStats)),
		store.NewMongoStore[statsmodels.PlatformStat](mustCollection(global.MongoDB_ColNames.PlatformStats)),
		store.NewMongoStore[statsmodels.ProductComparison](mustCollection(global.MongoDB_ColNames.ProductComparisons)),
		store.NewMongoStore[statsmodels.ViewMetadata](mustCollection(global.MongoDB_ColNames.CollectionMetadata)),
		statssvc.Options{
			MinKeywordCount:  int64(cfg.MinKeywordCount),
			TimeSeriesDays:   cfg.TimeSeriesDays,
			PlatformDays:     cfg.PlatformDays,
			ComparisonTTL:    time.Duration(cfg.ComparisonTTL) * time.Second,
			WriteThrough:     cfg.WriteThroughMode,
			KeyUpdateTimeout: time.Duration(cfg.KeyUpdateTimeout) * time.Second,
		},
	)

	// Hot cache cho comparison: Redis nếu có cấu hình, ngược lại in-memory.
	hotCacheTTL := time.Duration(cfg.RedisTTL) * time.Second
	var hotCache statssvc.HotCache
	if cfg.RedisAddr != "" {
		redisCache, err := statssvc.NewRedisHotCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, hotCacheTTL)
		if err != nil {
			logrus.Errorf("Failed to connect Redis hot cache, falling back to in-memory: %v", err)
			hotCache = statssvc.NewLocalHotCache(hotCacheTTL)
		} else {
			logrus.Info("Redis hot cache connected")
			hotCache = redisCache
		}
	} else {
		hotCache = statssvc.NewLocalHotCache(hotCacheTTL)
		logrus.Info("Using in-memory hot cache (REDIS_ADDR not set)")
	}
	service.SetHotCache(hotCache)
	statssvc.RegisterHotCacheInvalidation(hotCache)

	statsWorker := worker.NewStatsWorker(
		service,
		time.Duration(cfg.IncrementalInterval)*time.Second,
		time.Duration(cfg.FullRebuildInterval)*time.Second,
	)

	return &StatsRuntime{
		Service: service,
		Worker:  statsWorker,
	}
}

// RunInitModeRebuild rebuild toàn bộ views khi server khởi động ở INITMODE.
func (r *StatsRuntime) RunInitModeRebuild(ctx context.Context) {
	if !global.ServerConfig.InitMode {
		return
	}
	log := logger.GetAppLogger()
	log.Info("INITMODE enabled, rebuilding all materialized views...")

	summaries, err := r.Service.RebuildAll(ctx)
	if err != nil {
		log.WithError(err).Error("Initial rebuild failed, views sẽ được worker bù ở các lần chạy sau")
	}
	for view, summary := range summaries {
		log.WithFields(map[string]interface{}{
			"view":   view,
			"ok":     summary.Ok,
			"failed": summary.Failed,
		}).Info("Initial rebuild view hoàn tất")
	}
}

// StartWorker chạy Stats Worker trong goroutine riêng với recover.
func (r *StatsRuntime) StartWorker(ctx context.Context) {
	log := logger.GetAppLogger()
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(map[string]interface{}{
					"panic": rec,
				}).Error("📈 [STATS] Worker goroutine panic")
			}
		}()

		log.Info("📈 [STATS] Starting Stats Worker...")
		r.Worker.Start(ctx)
		log.Warn("📈 [STATS] Worker đã dừng (có thể do context cancelled)")
	}()
}
