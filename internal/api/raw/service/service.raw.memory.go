package rawsvc

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	rawmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/raw/models"
)

// MemoryRawStore triển khai RawStore trên bộ nhớ, dùng cho unit test.
// Các rollup được tính trực tiếp bằng Go với cùng semantics như
// aggregation pipeline của MongoRawStore.
type MemoryRawStore struct {
	mu       sync.RWMutex
	reviews  []rawmodels.Review
	products []rawmodels.Product
}

// NewMemoryRawStore tạo một MemoryRawStore rỗng
func NewMemoryRawStore() *MemoryRawStore {
	return &MemoryRawStore{}
}

// AddReviews thêm reviews vào store
func (s *MemoryRawStore) AddReviews(reviews ...rawmodels.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, reviews...)
}

// AddProducts thêm products vào store
func (s *MemoryRawStore) AddProducts(products ...rawmodels.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, products...)
}

// ReplaceReviews thay toàn bộ reviews (mô phỏng review edits trong test)
func (s *MemoryRawStore) ReplaceReviews(reviews []rawmodels.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append([]rawmodels.Review{}, reviews...)
}

// bucketLabel tính label bucket giống $dateToString của MongoRawStore
func bucketLabel(ms int64, interval string) string {
	t := time.UnixMilli(ms).UTC()
	switch interval {
	case "week":
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case "month":
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// inChangedWindow kiểm tra review có updatedAt hoặc date trong [from, to)
func inChangedWindow(r rawmodels.Review, from, to time.Time) bool {
	fromMs := from.UnixMilli()
	toMs := to.UnixMilli()
	if r.UpdatedAt >= fromMs && r.UpdatedAt < toMs {
		return true
	}
	return r.Date >= fromMs && r.Date < toMs
}

// KeywordRollups group reviews theo keyword
func (s *MemoryRawStore) KeywordRollups(ctx context.Context, scope []string) ([]KeywordRollup, error) {
	scopeSet := map[string]struct{}{}
	for _, k := range scope {
		scopeSet[k] = struct{}{}
	}

	type acc struct {
		count      int64
		scoreSum   float64
		productIDs map[string]struct{}
	}

	s.mu.RLock()
	byKeyword := map[string]*acc{}
	for _, r := range s.reviews {
		for _, kw := range r.Keywords {
			if len(scopeSet) > 0 {
				if _, ok := scopeSet[kw]; !ok {
					continue
				}
			}
			a, ok := byKeyword[kw]
			if !ok {
				a = &acc{productIDs: map[string]struct{}{}}
				byKeyword[kw] = a
			}
			a.count++
			a.scoreSum += r.Sentiment.Score
			a.productIDs[r.ProductID] = struct{}{}
		}
	}
	s.mu.RUnlock()

	rollups := make([]KeywordRollup, 0, len(byKeyword))
	for kw, a := range byKeyword {
		ids := make([]string, 0, len(a.productIDs))
		for id := range a.productIDs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		rollups = append(rollups, KeywordRollup{
			Keyword:    kw,
			Count:      a.count,
			AvgScore:   a.scoreSum / float64(a.count),
			ProductIDs: ids,
		})
	}
	sort.Slice(rollups, func(i, j int) bool { return rollups[i].Keyword < rollups[j].Keyword })
	return rollups, nil
}

// TimeSeriesRollup group reviews của một sản phẩm theo bucket thời gian
func (s *MemoryRawStore) TimeSeriesRollup(ctx context.Context, productID string, interval string, since time.Time) ([]TimeSeriesBucket, error) {
	type acc struct {
		positive, neutral, negative, total int64
		scoreSum                           float64
	}

	s.mu.RLock()
	byBucket := map[string]*acc{}
	for _, r := range s.reviews {
		if r.ProductID != productID || r.Date < since.UnixMilli() {
			continue
		}
		label := bucketLabel(r.Date, interval)
		a, ok := byBucket[label]
		if !ok {
			a = &acc{}
			byBucket[label] = a
		}
		switch r.Sentiment.Label {
		case "positive":
			a.positive++
		case "negative":
			a.negative++
		case "neutral":
			a.neutral++
		}
		a.total++
		a.scoreSum += r.Sentiment.Score
	}
	s.mu.RUnlock()

	buckets := make([]TimeSeriesBucket, 0, len(byBucket))
	for label, a := range byBucket {
		buckets = append(buckets, TimeSeriesBucket{
			Label:    label,
			Positive: a.positive,
			Neutral:  a.neutral,
			Negative: a.negative,
			Total:    a.total,
			AvgScore: a.scoreSum / float64(a.total),
		})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Label < buckets[j].Label })
	return buckets, nil
}

// PlatformRollups group products có review trong [since, now] theo platform
func (s *MemoryRawStore) PlatformRollups(ctx context.Context, since time.Time) ([]PlatformRollup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Các sản phẩm có review trong period
	activeIDs := map[string]struct{}{}
	for _, r := range s.reviews {
		if since.IsZero() || r.Date >= since.UnixMilli() {
			activeIDs[r.ProductID] = struct{}{}
		}
	}

	type acc struct {
		totalProducts int64
		ratingSum     float64
		dist          map[string]int64
	}
	byPlatform := map[string]*acc{}
	for _, p := range s.products {
		if _, ok := activeIDs[p.ProductID]; !ok {
			continue
		}
		a, ok := byPlatform[p.Platform]
		if !ok {
			a = &acc{dist: map[string]int64{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}}
			byPlatform[p.Platform] = a
		}
		a.totalProducts++
		a.ratingSum += p.Stats.AvgRating
		for star, n := range p.Stats.RatingDistribution {
			a.dist[star] += n
		}
	}

	rollups := make([]PlatformRollup, 0, len(byPlatform))
	for platform, a := range byPlatform {
		rollups = append(rollups, PlatformRollup{
			Platform:           platform,
			TotalProducts:      a.totalProducts,
			AvgRating:          a.ratingSum / float64(a.totalProducts),
			RatingDistribution: a.dist,
		})
	}
	sort.Slice(rollups, func(i, j int) bool { return rollups[i].Platform < rollups[j].Platform })
	return rollups, nil
}

// ProductReviewStats tính thống kê review và mẫu recent reviews của một sản phẩm
func (s *MemoryRawStore) ProductReviewStats(ctx context.Context, productID string, sampleLimit int) (ProductReviewStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := ProductReviewStats{ProductID: productID, RecentReviews: []ReviewSample{}}
	var matched []rawmodels.Review
	var scoreSum, ratingSum float64
	for _, r := range s.reviews {
		if r.ProductID != productID {
			continue
		}
		matched = append(matched, r)
		scoreSum += r.Sentiment.Score
		ratingSum += r.Rating
	}
	if len(matched) == 0 {
		return stats, nil
	}

	stats.ReviewCount = int64(len(matched))
	stats.AvgSentiment = scoreSum / float64(len(matched))
	stats.AvgRating = ratingSum / float64(len(matched))

	// Mẫu recent reviews: mới nhất trước
	sort.Slice(matched, func(i, j int) bool { return matched[i].Date > matched[j].Date })
	if sampleLimit > 0 && len(matched) > sampleLimit {
		matched = matched[:sampleLimit]
	}
	for _, r := range matched {
		stats.RecentReviews = append(stats.RecentReviews, ReviewSample{
			Rating: r.Rating,
			Label:  r.Sentiment.Label,
			Score:  r.Sentiment.Score,
			Date:   r.Date,
		})
	}
	return stats, nil
}

// ProductsByIDs trả về các product theo danh sách productId
func (s *MemoryRawStore) ProductsByIDs(ctx context.Context, ids []string) ([]rawmodels.Product, error) {
	idSet := map[string]struct{}{}
	for _, id := range ids {
		idSet[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var products []rawmodels.Product
	for _, p := range s.products {
		if _, ok := idSet[p.ProductID]; ok {
			products = append(products, p)
		}
	}
	if products == nil {
		products = []rawmodels.Product{}
	}
	return products, nil
}

// ChangedKeywords trả về các keyword xuất hiện trong reviews thay đổi trong [from, to)
func (s *MemoryRawStore) ChangedKeywords(ctx context.Context, from, to time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	for _, r := range s.reviews {
		if !inChangedWindow(r, from, to) {
			continue
		}
		for _, kw := range r.Keywords {
			seen[kw] = struct{}{}
		}
	}

	keywords := make([]string, 0, len(seen))
	for kw := range seen {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	return keywords, nil
}

// ChangedProductIDs trả về các productId của reviews thay đổi trong [from, to)
func (s *MemoryRawStore) ChangedProductIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	for _, r := range s.reviews {
		if inChangedWindow(r, from, to) {
			seen[r.ProductID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ActiveProductIDs trả về mọi productId có ít nhất một review
func (s *MemoryRawStore) ActiveProductIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	for _, r := range s.reviews {
		seen[r.ProductID] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
