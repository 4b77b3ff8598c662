package app

import (
	"Gin_postgres_redis_nft_rent_market/db"
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config Config
}

// Config 从环境变量读取
type Config struct {
	RedisAddr    string
	RedisPwd     string
	WebOrigin    string
	OperatorAddr string // 手续费入账地址
	VaultAddr    string // 金库地址，委托登记时作为 vault 方
	FeeRate      int64  // 百分比，部署时定死
	DelegateURL  string // 外部委托登记处
	SlotCacheTTL time.Duration
}

func MustNew() *App {
	cfg := loadConfig()

	// --- DB: Postgres ---
	dbConn := db.ConnectDB()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	a := &App{
		Router: r, DB: dbConn, RDB: rdb, Config: cfg,
	}
	return a
}

func (a *App) Close() { _ = a.RDB.Close() }

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}

	feeRate := int64(3)
	if v, err := strconv.ParseInt(get("FEE_RATE", "3"), 10, 64); err == nil && v >= 0 && v <= 100 {
		feeRate = v
	}
	ttl := 10 * time.Minute
	if v, err := strconv.Atoi(get("SLOT_CACHE_TTL_SECONDS", "600")); err == nil && v > 0 {
		ttl = time.Duration(v) * time.Second
	}

	return Config{
		RedisAddr:    get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:     os.Getenv("REDIS_PASSWORD"),
		WebOrigin:    get("WEB_ORIGIN", "http://localhost:3000"),
		OperatorAddr: get("OPERATOR_ADDRESS", "0x00000000000000000000000000000000000000fe"),
		VaultAddr:    get("VAULT_ADDRESS", "0x00000000000000000000000000000000000000ca"),
		FeeRate:      feeRate,
		DelegateURL:  get("DELEGATE_REGISTRY_URL", "http://127.0.0.1:8545"),
		SlotCacheTTL: ttl,
	}
}
