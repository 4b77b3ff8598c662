// vault/vault.go
package vault

import (
	"errors"
	"time"

	"Gin_postgres_redis_nft_rent_market/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Vault 托管方：押资产、发使用权凭证，不理解报价语义
// 所有写操作都在引擎的事务 tx 里执行，保证迁移要么全成要么全回滚
type Vault struct {
	Addr string // 金库自身地址，委托登记时作为 vault 参与方
}

func New(addr string) *Vault { return &Vault{Addr: addr} }

var (
	ErrNotInCustody  = errors.New("asset not in custody")
	ErrNotDepositor  = errors.New("release only to original depositor")
	ErrTokenNotFound = errors.New("utility token not found")
	ErrNotHolder     = errors.New("caller does not hold utility token")
)

// sqlite（测试库）不认 FOR UPDATE，单写者语义由串行写保证
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Deposit 收押：同一资产最多一条未释放记录（部分唯一索引兜底）
func (v *Vault) Deposit(tx *gorm.DB, collection string, tokenID int64, depositor string, offerID int64) (*models.VaultAsset, error) {
	va := &models.VaultAsset{
		Collection: collection,
		TokenID:    tokenID,
		Depositor:  depositor,
		OfferID:    offerID,
	}
	if err := tx.Create(va).Error; err != nil {
		return nil, err
	}
	return va, nil
}

// Release 释放：只回到原存入人，其他任何地址一律拒绝
func (v *Vault) Release(tx *gorm.DB, collection string, tokenID int64, to string) error {
	var va models.VaultAsset
	err := forUpdate(tx).
		Where("collection = ? AND token_id = ? AND released_at IS NULL", collection, tokenID).
		First(&va).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotInCustody
	}
	if err != nil {
		return err
	}
	if va.Depositor != to {
		return ErrNotDepositor
	}
	now := time.Now().UTC()
	return tx.Model(&models.VaultAsset{}).
		Where("id = ?", va.ID).
		Updates(map[string]interface{}{
			"released_at": &now,
			"released_to": to,
		}).Error
}

// InCustody 资产当前是否押在金库
func (v *Vault) InCustody(tx *gorm.DB, collection string, tokenID int64) (bool, error) {
	var n int64
	err := tx.Model(&models.VaultAsset{}).
		Where("collection = ? AND token_id = ? AND released_at IS NULL", collection, tokenID).
		Count(&n).Error
	return n > 0, err
}

// Mint 签发使用权凭证，编号 1 起步、严格 +1
func (v *Vault) Mint(tx *gorm.DB, owner string, offerID int64) (*models.UtilityToken, error) {
	id, err := v.nextTokenID(tx)
	if err != nil {
		return nil, err
	}
	ut := &models.UtilityToken{ID: id, OfferID: offerID, Owner: owner}
	if err := tx.Create(ut).Error; err != nil {
		return nil, err
	}
	return ut, nil
}

// Transfer 凭证换手：必须由当前持有人转出
func (v *Vault) Transfer(tx *gorm.DB, tokenID int64, from, to string) error {
	var ut models.UtilityToken
	err := forUpdate(tx).First(&ut, "id = ?", tokenID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTokenNotFound
	}
	if err != nil {
		return err
	}
	if ut.Owner != from {
		return ErrNotHolder
	}
	return tx.Model(&models.UtilityToken{}).
		Where("id = ?", tokenID).
		Update("owner", to).Error
}

// OwnerOf 凭证当前持有人
func (v *Vault) OwnerOf(tx *gorm.DB, tokenID int64) (string, error) {
	var ut models.UtilityToken
	err := tx.First(&ut, "id = ?", tokenID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}
	return ut.Owner, nil
}

// 凭证发号器：行锁内自增，回滚不跳号
func (v *Vault) nextTokenID(tx *gorm.DB) (int64, error) {
	var c models.Counter
	if err := forUpdate(tx).First(&c, "name = ?", models.CounterUtilityToken).Error; err != nil {
		return 0, err
	}
	c.Value++
	if err := tx.Model(&models.Counter{}).Where("name = ?", c.Name).Update("value", c.Value).Error; err != nil {
		return 0, err
	}
	return c.Value, nil
}
