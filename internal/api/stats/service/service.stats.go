// Package statssvc - Engine tính toán và cache các bảng thống kê tổng hợp
// (keyword_stats, time_series_stats, platform_stats, product_comparisons).
package statssvc

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	rawsvc "github.com/DITreneris/shopsentiment-sub001/internal/api/raw/service"
	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
	"github.com/DITreneris/shopsentiment-sub001/internal/common"
	"github.com/DITreneris/shopsentiment-sub001/internal/store"
)

// Options cấu hình runtime cho StatsService.
type Options struct {
	MinKeywordCount  int64         // Ngưỡng count tối thiểu để một keyword được giữ lại
	TimeSeriesDays   int           // Số ngày dữ liệu cho time series (mặc định 90)
	PlatformDays     int           // Số ngày cho các period có giới hạn (7d/30d/90d lấy từ AllPeriods)
	SampleLimit      int           // Số review gần nhất đưa vào comparison data
	ComparisonTTL    time.Duration // TTL của document product_comparisons
	WriteThrough     bool          // Bật write-through cho keyword/time-series/platform (comparison luôn bật)
	KeyUpdateTimeout time.Duration // Timeout cho mỗi key khi cập nhật incremental
}

// DefaultOptions trả về cấu hình mặc định.
func DefaultOptions() Options {
	return Options{
		MinKeywordCount:  10,
		TimeSeriesDays:   90,
		PlatformDays:     30,
		SampleLimit:      5,
		ComparisonTTL:    time.Hour,
		WriteThrough:     true,
		KeyUpdateTimeout: 30 * time.Second,
	}
}

// normalize điền giá trị mặc định cho các field chưa set.
func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.MinKeywordCount <= 0 {
		o.MinKeywordCount = def.MinKeywordCount
	}
	if o.TimeSeriesDays <= 0 {
		o.TimeSeriesDays = def.TimeSeriesDays
	}
	if o.SampleLimit <= 0 {
		o.SampleLimit = def.SampleLimit
	}
	if o.ComparisonTTL <= 0 {
		o.ComparisonTTL = def.ComparisonTTL
	}
	if o.KeyUpdateTimeout <= 0 {
		o.KeyUpdateTimeout = def.KeyUpdateTimeout
	}
	return o
}

// ErrViewBusy trả về khi một view đang được rebuild/update bởi một tiến trình khác.
var ErrViewBusy = common.NewError(common.ErrCodeDatabaseQuery, "View đang được cập nhật bởi một tiến trình khác", common.StatusConflict, nil)

// StatsService engine trung tâm: tính toán lại (full/incremental) và phục vụ đọc
// có fallback cho các bảng thống kê materialized.
type StatsService struct {
	raw rawsvc.RawStore

	keywordStore    store.DocumentStore[statsmodels.KeywordStat]
	timeSeriesStore store.DocumentStore[statsmodels.TimeSeriesPoint]
	platformStore   store.DocumentStore[statsmodels.PlatformStat]
	comparisonStore store.DocumentStore[statsmodels.ProductComparison]
	metadataStore   store.DocumentStore[statsmodels.ViewMetadata]

	opts     Options
	hotCache HotCache

	// viewLocks đảm bảo mỗi view chỉ có một lần rebuild/update chạy tại một thời điểm.
	viewLocks map[string]*sync.Mutex
	flight    singleflight.Group

	// now cho phép test kiểm soát thời gian.
	now func() time.Time
}

// NewStatsService tạo mới StatsService với các store đã được khởi tạo sẵn.
func NewStatsService(
	raw rawsvc.RawStore,
	keywordStore store.DocumentStore[statsmodels.KeywordStat],
	timeSeriesStore store.DocumentStore[statsmodels.TimeSeriesPoint],
	platformStore store.DocumentStore[statsmodels.PlatformStat],
	comparisonStore store.DocumentStore[statsmodels.ProductComparison],
	metadataStore store.DocumentStore[statsmodels.ViewMetadata],
	opts Options,
) *StatsService {
	locks := make(map[string]*sync.Mutex, len(statsmodels.AllViews))
	for _, view := range statsmodels.AllViews {
		locks[view] = &sync.Mutex{}
	}
	return &StatsService{
		raw:             raw,
		keywordStore:    keywordStore,
		timeSeriesStore: timeSeriesStore,
		platformStore:   platformStore,
		comparisonStore: comparisonStore,
		metadataStore:   metadataStore,
		opts:            opts.normalize(),
		viewLocks:       locks,
		now:             time.Now,
	}
}

// SetHotCache gắn hot cache (Redis hoặc in-memory) cho comparison lookup.
func (s *StatsService) SetHotCache(hc HotCache) {
	s.hotCache = hc
}

// tryLockView chiếm quyền cập nhật một view. Trả về false nếu view đang bận.
func (s *StatsService) tryLockView(view string) bool {
	mu, ok := s.viewLocks[view]
	if !ok {
		return true
	}
	return mu.TryLock()
}

// unlockView trả quyền cập nhật view.
func (s *StatsService) unlockView(view string) {
	if mu, ok := s.viewLocks[view]; ok {
		mu.Unlock()
	}
}
