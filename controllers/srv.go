// controllers/srv.go
package controllers

import (
	"Gin_postgres_redis_nft_rent_market/app"
	"Gin_postgres_redis_nft_rent_market/db"
	"Gin_postgres_redis_nft_rent_market/delegate"
	"Gin_postgres_redis_nft_rent_market/events"
	"Gin_postgres_redis_nft_rent_market/vault"
)

type Srv struct {
	Repo  *db.Repo
	Vault *vault.Vault
	Reg   delegate.Registry
	Pub   *events.Publisher
	Cfg   app.Config
}

func GetSrv(a *app.App) *Srv {
	v := vault.New(a.Config.VaultAddr)
	reg := delegate.NewHTTPRegistry(a.Config.DelegateURL)
	return &Srv{
		Repo:  db.NewRepo(a.DB, v, reg, a.Config.FeeRate, a.Config.OperatorAddr),
		Vault: v,
		Reg:   reg,
		Pub:   events.NewPublisher(a.RDB, a.Config.SlotCacheTTL),
		Cfg:   a.Config,
	}
}
