package routes

import (
	"Gin_postgres_redis_nft_rent_market/app"
	"Gin_postgres_redis_nft_rent_market/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	offerCtl := controllers.NewOfferController(s)

	// 调用方身份中间件
	walletMW := app.WalletRequired()

	// ------------------------------
	// 状态迁移（需要调用方地址）
	// ------------------------------
	offers := r.Group("/api/offers", walletMW)
	{
		offers.POST("", offerCtl.CreateOffer)
		offers.POST("/accept", offerCtl.AcceptOffer)
		offers.POST("/cancel", offerCtl.CancelOffer)
	}
	nft := r.Group("/api/nft", walletMW)
	{
		nft.POST("/withdraw", offerCtl.WithdrawNft)
	}

	// ------------------------------
	// 只读查询（公开）
	// ------------------------------
	q := r.Group("/api")
	{
		q.GET("/offers", offerCtl.ListOffers)
		q.GET("/offers/counter", offerCtl.OfferCounter)
		q.GET("/offers/token", offerCtl.GetOfferByToken) // ?collection=&tokenId=
		q.GET("/offers/lender/:address", offerCtl.ListOffersByLender)
		q.GET("/offers/:id", offerCtl.GetOffer)
		q.GET("/balance/:address", offerCtl.GetBalance)
		q.GET("/delegation", offerCtl.CheckDelegation) // ?delegate=&collection=&tokenId=
		q.GET("/events", offerCtl.ListEvents)          // ?offerId=
	}
}
