package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/DITreneris/shopsentiment-sub001/config"
	rawmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/raw/models"
	statsmodels "github.com/DITreneris/shopsentiment-sub001/internal/api/stats/models"
	"github.com/DITreneris/shopsentiment-sub001/internal/database"
	"github.com/DITreneris/shopsentiment-sub001/internal/global"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initConfig()           // Khởi tạo cấu hình server
	initValidator()        // Khởi tạo validator
	initDatabase_MongoDB() // Khởi tạo kết nối database
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	global.InitColNames()
	logrus.Info("Initialized collection names")
}

// Hàm khởi tạo validator (global.InitValidator đăng ký custom validators: object_id, time_interval, exists)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.ServerConfig = config.NewConfig()
	if global.ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil")
	}
	logrus.Info("Initialized server config")
}

// Hàm khởi tạo kết nối database
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")

	// Khởi tạo db và các collection nếu chưa có
	if err := database.EnsureDatabaseAndCollections(global.MongoDB_Session); err != nil {
		logrus.Fatalf("Failed to ensure database and collections: %v", err)
	}
	logrus.Info("Ensured database and collections")

	// Khởi tạo index cho các collection theo khai báo trong model tags
	dbName := global.ServerConfig.MongoDB_DBName
	db := global.MongoDB_Session.Database(dbName)
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.RawReviews), rawmodels.Review{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.RawProducts), rawmodels.Product{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.KeywordStats), statsmodels.KeywordStat{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.TimeSeriesStats), statsmodels.TimeSeriesPoint{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.PlatformStats), statsmodels.PlatformStat{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.ProductComparisons), statsmodels.ProductComparison{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.CollectionMetadata), statsmodels.ViewMetadata{})
}
