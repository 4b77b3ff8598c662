// models/offer.go
package models

import "time"

const OfferTable = "cacao_offers"
const TokenOfferTable = "cacao_token_offers"

// 报价状态机：NONE 只作为"不存在"的查询应答，永远不落库
const (
	StatusNone      = 0
	StatusAvailable = 1
	StatusExecuted  = 2
	StatusCanceled  = 3
)

// Offer 全量历史表：终态之后只读，永不删除
type Offer struct {
	ID             int64      `gorm:"primaryKey;autoIncrement:false" json:"offerId"` // 计数器发号，1 起步，0 保留
	TokenID        int64      `gorm:"not null;index:idx_offer_asset" json:"tokenId"`
	Collection     string     `gorm:"size:42;not null;index:idx_offer_asset" json:"collection"`
	Price          int64      `gorm:"not null" json:"price"`    // 基础单位（wei 级整数）
	Duration       int64      `gorm:"not null" json:"duration"` // 秒，创建时 >= 86400
	StartTime      *time.Time `json:"startTime,omitempty"`      // 接受时刻才写入
	Lender         string     `gorm:"size:42;not null;index" json:"lender"`
	Borrower       string     `gorm:"size:42" json:"borrower,omitempty"`
	UtilityTokenID int64      `gorm:"not null" json:"utilityTokenId"`
	Status         int        `gorm:"not null" json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TokenOffer 快速索引：(collection, tokenId) -> 当前活跃 offerId
// 接受时保留，取消/取回时删除；同一资产最多一行
type TokenOffer struct {
	Collection string    `gorm:"size:42;primaryKey" json:"collection"`
	TokenID    int64     `gorm:"primaryKey;autoIncrement:false" json:"tokenId"`
	OfferID    int64     `gorm:"not null" json:"offerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Offer) TableName() string      { return OfferTable }
func (TokenOffer) TableName() string { return TokenOfferTable }

// 已执行的报价是否过了租期（过期本身不释放槽位，要显式取回）
func (o *Offer) Expired(now time.Time) bool {
	if o.Status != StatusExecuted || o.StartTime == nil {
		return false
	}
	return !now.Before(o.StartTime.Add(time.Duration(o.Duration) * time.Second))
}
