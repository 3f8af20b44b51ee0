package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ViewMetadata lưu timestamps cập nhật của một materialized view
// (collection_metadata). Mỗi view có đúng một document; incremental
// update dựa vào LastIncrementalUpdate để xác định changed-record window.
type ViewMetadata struct {
	ID                    primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"` // MongoDB _id
	ViewName              string             `json:"viewName" bson:"viewName" index:"unique"`
	LastFullUpdate        int64              `json:"lastFullUpdate" bson:"lastFullUpdate"`               // Unix miliseconds, 0 = chưa chạy
	LastIncrementalUpdate int64              `json:"lastIncrementalUpdate" bson:"lastIncrementalUpdate"` // Unix miliseconds, 0 = chưa chạy
	CreatedAt             int64              `json:"createdAt" bson:"createdAt"`                         // Unix miliseconds
	UpdatedAt             int64              `json:"updatedAt" bson:"updatedAt"`                         // Unix miliseconds
}
