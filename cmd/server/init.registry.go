package main

import (
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/DITreneris/shopsentiment-sub001/config"
	"github.com/DITreneris/shopsentiment-sub001/internal/global"
)

func InitRegistry() {
	logrus.Info("Initialized registry")

	// Khởi tạo registry và đăng ký các collections
	err := InitCollections(global.MongoDB_Session, global.ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to initialize collections: %v", err)
	}
	logrus.Info("Initialized collection registry")
}

// InitCollections khởi tạo và đăng ký các collections MongoDB
func InitCollections(client *mongo.Client, cfg *config.Configuration) error {
	db := client.Database(cfg.MongoDB_DBName)
	colNames := []string{
		global.MongoDB_ColNames.RawReviews,
		global.MongoDB_ColNames.RawProducts,
		global.MongoDB_ColNames.KeywordStats,
		global.MongoDB_ColNames.TimeSeriesStats,
		global.MongoDB_ColNames.PlatformStats,
		global.MongoDB_ColNames.ProductComparisons,
		global.MongoDB_ColNames.CollectionMetadata,
	}

	for _, name := range colNames {
		registered, err := global.RegistryCollections.Register(name, db.Collection(name))
		if err != nil {
			logrus.Errorf("Failed to register collection %s: %v", name, err)
			return err
		}

		if registered {
			logrus.Infof("Collection %s registered successfully", name)
		} else {
			logrus.Errorf("Collection %s already registered", name)
		}
	}

	return nil
}
