package db

import (
	"Gin_postgres_redis_nft_rent_market/models"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	err = Migrate(DB)
	if err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Offer{},
		&models.TokenOffer{},
		&models.VaultAsset{},
		&models.UtilityToken{},
		&models.Balance{},
		&models.Counter{},
		&models.OfferEvent{},
	); err != nil {
		return err
	}

	// 同一资产最多一条未释放托管记录
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_open_per_asset
	  ON %s (collection, token_id)
	  WHERE released_at IS NULL;
	`, models.VaultAssetTable, models.VaultAssetTable)).Error; err != nil {
		return err
	}

	// 发号器种子行：offerId / utilityTokenId 都是 1 起步
	for _, name := range []string{models.CounterOffer, models.CounterUtilityToken} {
		if err := db.Exec(fmt.Sprintf(`
		  INSERT INTO %s (name, value) VALUES (?, 0)
		  ON CONFLICT (name) DO NOTHING;
		`, models.CounterTable), name).Error; err != nil {
			return err
		}
	}

	return nil
}
