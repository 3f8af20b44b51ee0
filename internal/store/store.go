// Package store cung cấp lớp truy cập document chung cho các collection.
// DocumentStore là interface generic với hai implementation: MongoStore cho
// môi trường thật và MemoryStore cho unit test không cần MongoDB.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// KeyFunc trích xuất natural key filter từ một document, dùng cho bulk upsert.
type KeyFunc[T any] func(item T) bson.M

// DocumentStore định nghĩa các thao tác document cơ bản trên một collection.
// Type Parameters:
//   - T: Kiểu dữ liệu của model
type DocumentStore[T any] interface {
	// InsertOne tạo mới một bản ghi, tự gán createdAt/updatedAt
	InsertOne(ctx context.Context, data T) (T, error)

	// FindOne tìm một document theo điều kiện lọc, trả về common.ErrNotFound nếu không có
	FindOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (T, error)

	// Find tìm tất cả bản ghi theo điều kiện lọc
	Find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]T, error)

	// Upsert cập nhật document match filter hoặc tạo mới nếu chưa có
	Upsert(ctx context.Context, filter bson.M, data T) (T, error)

	// UpsertMany upsert từng item theo natural key của nó (bulk write)
	UpsertMany(ctx context.Context, data []T, keyOf KeyFunc[T]) (int64, error)

	// UpdateOne áp dụng update document thô ($set, $inc, ...) lên document match filter
	UpdateOne(ctx context.Context, filter bson.M, update bson.M) error

	// DeleteMany xóa các document match filter, trả về số lượng đã xóa
	DeleteMany(ctx context.Context, filter bson.M) (int64, error)

	// CountDocuments đếm số lượng document match filter
	CountDocuments(ctx context.Context, filter bson.M) (int64, error)
}
