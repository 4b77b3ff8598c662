package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"Gin_postgres_redis_nft_rent_market/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel 生命周期通知走的 Redis 频道
const Channel = "cacao:events"

type Publisher struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPublisher(rdb *redis.Client, slotTTL time.Duration) *Publisher {
	return &Publisher{rdb: rdb, ttl: slotTTL}
}

func slotKey(collection string, tokenID int64) string {
	return fmt.Sprintf("cacao:slot:%s:%d", collection, tokenID)
}

// Notification 推给订阅方的载荷：内嵌完整报价，免回查
type Notification struct {
	ID    string        `json:"id"`
	Kind  string        `json:"kind"`
	Offer *models.Offer `json:"offer"`
	At    int64         `json:"at"`
}

// Publish 事务提交后调用；通知失败不影响已提交的迁移，只记错
func (p *Publisher) Publish(ctx context.Context, kind string, o *models.Offer) error {
	b, _ := json.Marshal(Notification{
		ID:    uuid.NewString(),
		Kind:  kind,
		Offer: o,
		At:    time.Now().Unix(),
	})
	return p.rdb.Publish(ctx, Channel, b).Err()
}

// --- 快速索引只读镜像：DB 权威，缓存失效最多退化成查库 ---

func (p *Publisher) CacheSlot(ctx context.Context, collection string, tokenID, offerID int64) error {
	return p.rdb.Set(ctx, slotKey(collection, tokenID), offerID, p.ttl).Err()
}

func (p *Publisher) ClearSlot(ctx context.Context, collection string, tokenID int64) error {
	return p.rdb.Del(ctx, slotKey(collection, tokenID)).Err()
}

// CachedSlot 命中返回 offerId，未命中返回 -1
func (p *Publisher) CachedSlot(ctx context.Context, collection string, tokenID int64) (int64, error) {
	s, err := p.rdb.Get(ctx, slotKey(collection, tokenID)).Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1, err
	}
	return id, nil
}
