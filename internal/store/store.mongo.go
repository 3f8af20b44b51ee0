package store

import (
	"context"
	"errors"
	"time"

	"github.com/DITreneris/shopsentiment-sub001/internal/api/events"
	"github.com/DITreneris/shopsentiment-sub001/internal/common"
	"github.com/DITreneris/shopsentiment-sub001/internal/utility"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore triển khai DocumentStore trên một *mongo.Collection.
// Mọi write thành công đều phát DataChangeEvent để các hook (hot cache
// invalidation, ...) phản ứng được.
type MongoStore[T any] struct {
	collection *mongo.Collection
}

// NewMongoStore tạo mới một MongoStore cho collection được cung cấp
func NewMongoStore[T any](collection *mongo.Collection) *MongoStore[T] {
	return &MongoStore[T]{
		collection: collection,
	}
}

// Collection trả về collection MongoDB (dùng khi cần truy cập trực tiếp, ví dụ aggregation)
func (s *MongoStore[T]) Collection() *mongo.Collection {
	return s.collection
}

// InsertOne tạo mới một bản ghi trong database
func (s *MongoStore[T]) InsertOne(ctx context.Context, data T) (T, error) {
	var zero T

	// Chuyển data thành map để thêm timestamps
	dataMap, err := utility.ToMap(data)
	if err != nil {
		return zero, common.ErrInvalidFormat
	}

	now := time.Now().UnixMilli()
	dataMap["createdAt"] = now
	dataMap["updatedAt"] = now

	result, err := s.collection.InsertOne(ctx, dataMap)
	if err != nil {
		return zero, common.ConvertMongoError(err)
	}

	// Lấy lại document vừa tạo
	var created T
	err = s.collection.FindOne(ctx, bson.M{"_id": result.InsertedID}).Decode(&created)
	if err != nil {
		return zero, common.ConvertMongoError(err)
	}

	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: s.collection.Name(),
		Operation:      events.OpInsert,
		Document:       created,
	})
	return created, nil
}

// FindOne tìm một document theo điều kiện lọc
func (s *MongoStore[T]) FindOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (T, error) {
	var zero T
	var result T

	if filter == nil {
		filter = bson.M{}
	}
	if opts == nil {
		opts = options.FindOne()
	}

	findResult := s.collection.FindOne(ctx, filter, opts)
	if err := findResult.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, common.ErrNotFound
		}
		return zero, common.ConvertMongoError(err)
	}

	if err := findResult.Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, common.ErrNotFound
		}
		// Lỗi decode BSON là lỗi format, không phải lỗi MongoDB command
		return zero, common.NewError(
			common.ErrCodeValidationFormat,
			"Lỗi định dạng dữ liệu khi decode từ MongoDB",
			common.StatusBadRequest,
			err,
		)
	}

	return result, nil
}

// Find tìm tất cả bản ghi theo điều kiện lọc
func (s *MongoStore[T]) Find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]T, error) {
	if filter == nil {
		filter = bson.M{}
	}
	if opts == nil {
		opts = options.Find()
	}

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var results []T
	if err = cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}

	// Đảm bảo luôn trả về mảng, không phải nil
	if results == nil {
		results = []T{}
	}

	return results, nil
}

// Upsert cập nhật document match filter hoặc tạo mới nếu chưa có.
// Chỉ các field non-zero của data được đưa vào $set để tránh ghi đè
// createdAt và các field không được set.
func (s *MongoStore[T]) Upsert(ctx context.Context, filter bson.M, data T) (T, error) {
	var zero T

	if filter == nil {
		filter = bson.M{}
	}

	setMap, err := upsertSetMap(data)
	if err != nil {
		return zero, common.ErrInvalidFormat
	}

	now := time.Now().UnixMilli()
	setMap["updatedAt"] = now

	update := bson.M{
		"$set":         setMap,
		"$setOnInsert": bson.M{"createdAt": now},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result T
	err = s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result)
	if err != nil {
		return zero, common.ConvertMongoError(err)
	}

	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: s.collection.Name(),
		Operation:      events.OpUpsert,
		Document:       result,
	})
	return result, nil
}

// UpsertMany upsert từng item theo natural key của nó bằng một bulk write.
// Trả về tổng số document được tạo mới hoặc sửa đổi.
func (s *MongoStore[T]) UpsertMany(ctx context.Context, data []T, keyOf KeyFunc[T]) (int64, error) {
	if len(data) == 0 {
		return 0, nil
	}

	var models []mongo.WriteModel
	now := time.Now().UnixMilli()

	for _, item := range data {
		setMap, err := upsertSetMap(item)
		if err != nil {
			return 0, common.ErrInvalidFormat
		}
		setMap["updatedAt"] = now

		upsertModel := mongo.NewUpdateOneModel().
			SetFilter(keyOf(item)).
			SetUpdate(bson.M{
				"$set":         setMap,
				"$setOnInsert": bson.M{"createdAt": now},
			}).
			SetUpsert(true)

		models = append(models, upsertModel)
	}

	// SetOrdered(false) để server thực hiện song song
	opts := options.BulkWrite().SetOrdered(false)
	result, err := s.collection.BulkWrite(ctx, models, opts)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}

	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: s.collection.Name(),
		Operation:      events.OpUpsert,
		Document:       nil,
	})
	return result.UpsertedCount + result.ModifiedCount, nil
}

// UpdateOne áp dụng update document thô lên document match filter.
// Không trả về ErrNotFound khi không match - dùng cho các update best-effort
// như tăng viewCount.
func (s *MongoStore[T]) UpdateOne(ctx context.Context, filter bson.M, update bson.M) error {
	if filter == nil {
		filter = bson.M{}
	}

	_, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return common.ConvertMongoError(err)
	}

	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: s.collection.Name(),
		Operation:      events.OpUpdate,
		Document:       nil,
	})
	return nil
}

// DeleteMany xóa nhiều document
func (s *MongoStore[T]) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}

	result, err := s.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}

	if result.DeletedCount > 0 {
		events.EmitDataChanged(ctx, events.DataChangeEvent{
			CollectionName: s.collection.Name(),
			Operation:      events.OpDelete,
			Document:       nil,
		})
	}
	return result.DeletedCount, nil
}

// CountDocuments đếm số lượng document
func (s *MongoStore[T]) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}

	count, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}

	return count, nil
}

// upsertSetMap chuyển model thành map chỉ chứa các field non-nil,
// loại bỏ _id và timestamps để upsert không đụng vào chúng.
func upsertSetMap(item interface{}) (map[string]interface{}, error) {
	dataMap, err := utility.ToMap(item)
	if err != nil {
		return nil, err
	}
	delete(dataMap, "_id")
	delete(dataMap, "createdAt")
	delete(dataMap, "updatedAt")
	for key, value := range dataMap {
		if value == nil {
			delete(dataMap, key)
		}
	}
	return dataMap, nil
}
