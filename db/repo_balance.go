package db

import (
	"context"
	"errors"

	"Gin_postgres_redis_nft_rent_market/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 账本入账：upsert 累加，事务内调用
func creditBalance(tx *gorm.DB, address string, amount int64) error {
	if amount == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount": gorm.Expr(models.BalanceTable + ".amount + excluded.amount"),
		}),
	}).Create(&models.Balance{Address: address, Amount: amount}).Error
}

// GetBalance 地址的可提余额，没入过账就是 0
func (r *Repo) GetBalance(ctx context.Context, address string) (int64, error) {
	var b models.Balance
	err := r.DB.WithContext(ctx).First(&b, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b.Amount, nil
}
