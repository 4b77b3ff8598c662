// models/event.go
package models

import "time"

const OfferEventTable = "cacao_offer_events"

// 通知类型，同时用作 Redis 频道里的 kind 字段
const (
	EventOfferCreated  = "offer-created"
	EventOfferAccepted = "offer-accepted"
	EventOfferCanceled = "offer-canceled"
	EventNftWithdrawn  = "nft-withdrawn"
)

// OfferEvent 状态迁移审计 / 通知 outbox：和迁移同一事务写入
// Payload 内嵌完整 Offer，观察者不用回查
type OfferEvent struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Kind      string    `gorm:"size:32;not null;index" json:"kind"`
	OfferID   int64     `gorm:"not null;index" json:"offerId"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

func (OfferEvent) TableName() string { return OfferEventTable }
