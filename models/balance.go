// models/balance.go
package models

import "time"

const BalanceTable = "cacao_balances"
const CounterTable = "cacao_counters"

// Balance 拉取式记账：每个地址一行，接受报价时入账
// 守恒：lender 入账 + operator 入账 = 实付金额
type Balance struct {
	Address   string    `gorm:"size:42;primaryKey" json:"address"`
	Amount    int64     `gorm:"not null;default:0" json:"amount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Counter 无空洞发号器：行锁内自增，回滚不留缺口
// （autoincrement 在事务回滚后会跳号，不满足 offerId 严格 +1）
type Counter struct {
	Name  string `gorm:"size:32;primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

const (
	CounterOffer        = "offer"
	CounterUtilityToken = "utility_token"
)

func (Balance) TableName() string { return BalanceTable }
func (Counter) TableName() string { return CounterTable }
