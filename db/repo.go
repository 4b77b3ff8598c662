package db

import (
	"context"
	"time"

	"Gin_postgres_redis_nft_rent_market/delegate"
	"Gin_postgres_redis_nft_rent_market/models"
	"Gin_postgres_redis_nft_rent_market/vault"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repo 市场引擎：独占报价表 / 快速索引 / 余额账本，托管和凭证只通过 Vault 操作
type Repo struct {
	DB      *gorm.DB
	Vault   *vault.Vault
	Reg     delegate.Registry
	FeeRate int64  // 百分比，部署时定死（参考值 3）
	Op      string // 手续费入账地址

	Now func() time.Time // 测试可替换
}

func NewRepo(db *gorm.DB, v *vault.Vault, reg delegate.Registry, feeRate int64, operator string) *Repo {
	return &Repo{
		DB:      db,
		Vault:   v,
		Reg:     reg,
		FeeRate: feeRate,
		Op:      operator,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// sqlite（测试库）不认 FOR UPDATE，单写者语义由串行写保证
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// 报价发号：行锁内自增，回滚不跳号，保证 offerCounter 严格 +1
func nextOfferID(tx *gorm.DB) (int64, error) {
	var c models.Counter
	if err := forUpdate(tx).First(&c, "name = ?", models.CounterOffer).Error; err != nil {
		return 0, err
	}
	c.Value++
	if err := tx.Model(&models.Counter{}).Where("name = ?", c.Name).Update("value", c.Value).Error; err != nil {
		return 0, err
	}
	return c.Value, nil
}

// OfferCounter 已发出的报价总数（= 最后一个 offerId）
func (r *Repo) OfferCounter(ctx context.Context) (int64, error) {
	var c models.Counter
	if err := r.DB.WithContext(ctx).First(&c, "name = ?", models.CounterOffer).Error; err != nil {
		return 0, err
	}
	return c.Value, nil
}
