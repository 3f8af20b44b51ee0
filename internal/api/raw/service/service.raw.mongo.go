package rawsvc

import (
	"context"
	"time"

	rawmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/raw/models"
	"github.com/DITreneris/shopsentiment-sub001/internal/common"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRawStore triển khai RawStore bằng aggregation pipeline trên MongoDB.
type MongoRawStore struct {
	reviews  *mongo.Collection
	products *mongo.Collection
}

// NewMongoRawStore tạo mới một MongoRawStore trên hai collection thô.
func NewMongoRawStore(reviews *mongo.Collection, products *mongo.Collection) *MongoRawStore {
	return &MongoRawStore{
		reviews:  reviews,
		products: products,
	}
}

// bucketFormat trả về format $dateToString cho từng interval.
// Week dùng ISO year + ISO week để bucket ổn định qua ranh giới năm.
func bucketFormat(interval string) string {
	switch interval {
	case "week":
		return "%G-W%V"
	case "month":
		return "%Y-%m"
	default:
		return "%Y-%m-%d"
	}
}

// changedWindowFilter match reviews có updatedAt hoặc date trong [from, to)
func changedWindowFilter(from, to time.Time) bson.M {
	fromMs := from.UnixMilli()
	toMs := to.UnixMilli()
	return bson.M{
		"$or": []bson.M{
			{"updatedAt": bson.M{"$gte": fromMs, "$lt": toMs}},
			{"date": bson.M{"$gte": fromMs, "$lt": toMs}},
		},
	}
}

// KeywordRollups group reviews theo keyword
func (s *MongoRawStore) KeywordRollups(ctx context.Context, scope []string) ([]KeywordRollup, error) {
	pipe := mongo.Pipeline{}

	// Match trước unwind để tận dụng multikey index
	if len(scope) > 0 {
		pipe = append(pipe, bson.D{{Key: "$match", Value: bson.M{"keywords": bson.M{"$in": scope}}}})
	}

	pipe = append(pipe,
		bson.D{{Key: "$unwind", Value: "$keywords"}},
	)

	// Match lại sau unwind: review match có thể chứa cả keyword ngoài scope
	if len(scope) > 0 {
		pipe = append(pipe, bson.D{{Key: "$match", Value: bson.M{"keywords": bson.M{"$in": scope}}}})
	}

	pipe = append(pipe,
		bson.D{{Key: "$group", Value: bson.M{
			"_id":        "$keywords",
			"count":      bson.M{"$sum": 1},
			"avgScore":   bson.M{"$avg": "$sentiment.score"},
			"productIds": bson.M{"$addToSet": "$productId"},
		}}},
	)

	cursor, err := s.reviews.Aggregate(ctx, pipe)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var rollups []KeywordRollup
	if err := cursor.All(ctx, &rollups); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return rollups, nil
}

// TimeSeriesRollup group reviews của một sản phẩm theo bucket thời gian và sentiment label
func (s *MongoRawStore) TimeSeriesRollup(ctx context.Context, productID string, interval string, since time.Time) ([]TimeSeriesBucket, error) {
	labelCount := func(label string) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$sentiment.label", label}}, 1, 0,
		}}}
	}

	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"productId": productID,
			"date":      bson.M{"$gte": since.UnixMilli()},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"bucket": bson.M{"$dateToString": bson.M{
				"format": bucketFormat(interval),
				"date":   bson.M{"$toDate": "$date"},
			}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$bucket",
			"positive": labelCount("positive"),
			"neutral":  labelCount("neutral"),
			"negative": labelCount("negative"),
			"total":    bson.M{"$sum": 1},
			"avgScore": bson.M{"$avg": "$sentiment.score"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := s.reviews.Aggregate(ctx, pipe)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var buckets []TimeSeriesBucket
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return buckets, nil
}

// PlatformRollups group products có review trong [since, now] theo platform
func (s *MongoRawStore) PlatformRollups(ctx context.Context, since time.Time) ([]PlatformRollup, error) {
	// Xác định các sản phẩm có review trong period
	reviewFilter := bson.M{}
	if !since.IsZero() {
		reviewFilter["date"] = bson.M{"$gte": since.UnixMilli()}
	}
	ids, err := s.reviews.Distinct(ctx, "productId", reviewFilter)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	if len(ids) == 0 {
		return []PlatformRollup{}, nil
	}

	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": bson.M{"$in": ids}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$platform",
			"totalProducts": bson.M{"$sum": 1},
			"avgRating":     bson.M{"$avg": "$stats.avgRating"},
			"r1":            bson.M{"$sum": bson.M{"$ifNull": bson.A{"$stats.ratingDistribution.1", 0}}},
			"r2":            bson.M{"$sum": bson.M{"$ifNull": bson.A{"$stats.ratingDistribution.2", 0}}},
			"r3":            bson.M{"$sum": bson.M{"$ifNull": bson.A{"$stats.ratingDistribution.3", 0}}},
			"r4":            bson.M{"$sum": bson.M{"$ifNull": bson.A{"$stats.ratingDistribution.4", 0}}},
			"r5":            bson.M{"$sum": bson.M{"$ifNull": bson.A{"$stats.ratingDistribution.5", 0}}},
		}}},
	}

	cursor, err := s.products.Aggregate(ctx, pipe)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var raw []struct {
		Platform      string  `bson:"_id"`
		TotalProducts int64   `bson:"totalProducts"`
		AvgRating     float64 `bson:"avgRating"`
		R1            int64   `bson:"r1"`
		R2            int64   `bson:"r2"`
		R3            int64   `bson:"r3"`
		R4            int64   `bson:"r4"`
		R5            int64   `bson:"r5"`
	}
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, common.ConvertMongoError(err)
	}

	rollups := make([]PlatformRollup, 0, len(raw))
	for _, r := range raw {
		rollups = append(rollups, PlatformRollup{
			Platform:      r.Platform,
			TotalProducts: r.TotalProducts,
			AvgRating:     r.AvgRating,
			RatingDistribution: map[string]int64{
				"1": r.R1, "2": r.R2, "3": r.R3, "4": r.R4, "5": r.R5,
			},
		})
	}
	return rollups, nil
}

// ProductReviewStats tính thống kê review và mẫu recent reviews của một sản phẩm
func (s *MongoRawStore) ProductReviewStats(ctx context.Context, productID string, sampleLimit int) (ProductReviewStats, error) {
	stats := ProductReviewStats{ProductID: productID, RecentReviews: []ReviewSample{}}

	pipe := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":          nil,
			"reviewCount":  bson.M{"$sum": 1},
			"avgSentiment": bson.M{"$avg": "$sentiment.score"},
			"avgRating":    bson.M{"$avg": "$rating"},
		}}},
	}

	cursor, err := s.reviews.Aggregate(ctx, pipe)
	if err != nil {
		return stats, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var agg struct {
		ReviewCount  int64   `bson:"reviewCount"`
		AvgSentiment float64 `bson:"avgSentiment"`
		AvgRating    float64 `bson:"avgRating"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&agg); err != nil {
			return stats, common.ConvertMongoError(err)
		}
	}
	stats.ReviewCount = agg.ReviewCount
	stats.AvgSentiment = agg.AvgSentiment
	stats.AvgRating = agg.AvgRating

	if sampleLimit <= 0 {
		return stats, nil
	}

	// Mẫu recent reviews: mới nhất trước
	opts := options.Find().
		SetSort(bson.M{"date": -1}).
		SetLimit(int64(sampleLimit))
	sampleCursor, err := s.reviews.Find(ctx, bson.M{"productId": productID}, opts)
	if err != nil {
		return stats, common.ConvertMongoError(err)
	}
	defer sampleCursor.Close(ctx)

	var recent []rawmodels.Review
	if err := sampleCursor.All(ctx, &recent); err != nil {
		return stats, common.ConvertMongoError(err)
	}
	for _, r := range recent {
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
func (s *MongoRawStore) ProductsByIDs(ctx context.Context, ids []string) ([]rawmodels.Product, error) {
	if len(ids) == 0 {
		return []rawmodels.Product{}, nil
	}

	cursor, err := s.products.Find(ctx, bson.M{"productId": bson.M{"$in": ids}})
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var products []rawmodels.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return products, nil
}

// ChangedKeywords trả về các keyword xuất hiện trong reviews thay đổi trong [from, to)
func (s *MongoRawStore) ChangedKeywords(ctx context.Context, from, to time.Time) ([]string, error) {
	pipe := mongo.Pipeline{
		{{Key: "$match", Value: changedWindowFilter(from, to)}},
		{{Key: "$unwind", Value: "$keywords"}},
		{{Key: "$group", Value: bson.M{"_id": "$keywords"}}},
	}

	cursor, err := s.reviews.Aggregate(ctx, pipe)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Keyword string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, common.ConvertMongoError(err)
	}

	keywords := make([]string, 0, len(rows))
	for _, row := range rows {
		keywords = append(keywords, row.Keyword)
	}
	return keywords, nil
}

// ChangedProductIDs trả về các productId của reviews thay đổi trong [from, to)
func (s *MongoRawStore) ChangedProductIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	values, err := s.reviews.Distinct(ctx, "productId", changedWindowFilter(from, to))
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return toStrings(values), nil
}

// ActiveProductIDs trả về mọi productId có ít nhất một review
func (s *MongoRawStore) ActiveProductIDs(ctx context.Context) ([]string, error) {
	values, err := s.reviews.Distinct(ctx, "productId", bson.M{})
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return toStrings(values), nil
}

func toStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
