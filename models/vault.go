// models/vault.go
package models

import "time"

const VaultAssetTable = "cacao_vault_assets"
const UtilityTokenTable = "cacao_utility_tokens"

// VaultAsset 托管记录：活跃报价期间资产押在金库
// 部分唯一索引保证同一 (collection, tokenId) 最多一条未释放记录
type VaultAsset struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Collection string     `gorm:"size:42;not null;index:idx_vault_asset" json:"collection"`
	TokenID    int64      `gorm:"not null;index:idx_vault_asset" json:"tokenId"`
	Depositor  string     `gorm:"size:42;not null" json:"depositor"` // 只能释放回存入人
	OfferID    int64      `gorm:"not null;index" json:"offerId"`
	CreatedAt  time.Time  `json:"createdAt"`
	ReleasedAt *time.Time `gorm:"index" json:"releasedAt,omitempty"`
	ReleasedTo *string    `gorm:"size:42" json:"releasedTo,omitempty"`
}

// UtilityToken 金库签发的使用权凭证，一个报价一枚
// Owner 跟随当前租用人：AVAILABLE 时是 lender，EXECUTED 后是 borrower
type UtilityToken struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"` // 计数器发号，1 起步
	OfferID   int64     `gorm:"not null;uniqueIndex" json:"offerId"`
	Owner     string    `gorm:"size:42;not null;index" json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (VaultAsset) TableName() string   { return VaultAssetTable }
func (UtilityToken) TableName() string { return UtilityTokenTable }
