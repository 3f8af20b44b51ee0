package global

import (
	"github.com/DITreneris/shopsentiment-sub001/config"
	"github.com/DITreneris/shopsentiment-sub001/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	RawReviews         string // Tên collection cho reviews thô
	RawProducts        string // Tên collection cho products thô
	KeywordStats       string // Tên collection materialized cho thống kê keyword
	TimeSeriesStats    string // Tên collection materialized cho time series sentiment
	PlatformStats      string // Tên collection materialized cho thống kê platform
	ProductComparisons string // Tên collection materialized cho so sánh sản phẩm (có TTL)
	CollectionMetadata string // Tên collection cho metadata của các materialized views
}

// Các biến toàn cục
var Validate *validator.Validate              // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client             // Phiên kết nối tới MongoDB
var ServerConfig *config.Configuration        // Cấu hình của server
var MongoDB_ColNames MongoDB_CollectionName   // Tên các collection

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
var RegistryDatabase = registry.NewRegistry[*mongo.Database]()      // Registry chứa các databases

// InitColNames gán tên thực tế cho các collection.
// Gọi một lần ở bootstrap, trước khi đăng ký collections vào registry.
func InitColNames() {
	MongoDB_ColNames = MongoDB_CollectionName{
		RawReviews:         "raw_reviews",
		RawProducts:        "raw_products",
		KeywordStats:       "keyword_stats",
		TimeSeriesStats:    "time_series_stats",
		PlatformStats:      "platform_stats",
		ProductComparisons: "product_comparisons",
		CollectionMetadata: "collection_metadata",
	}
}
