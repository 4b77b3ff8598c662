// controllers/offer_controller.go
package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"Gin_postgres_redis_nft_rent_market/app"
	"Gin_postgres_redis_nft_rent_market/db"
	"Gin_postgres_redis_nft_rent_market/models"

	"github.com/gin-gonic/gin"
)

type OfferController struct{ *Srv }

func NewOfferController(s *Srv) *OfferController { return &OfferController{Srv: s} }

// 错误分类 → HTTP 状态码；所有失败都是整单拒绝，没有部分状态
func statusOf(err error) int {
	switch {
	case errors.Is(err, db.ErrWrongInput), errors.Is(err, db.ErrWrongAddress):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotEnoughFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, db.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, db.ErrOfferNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrOfferExists),
		errors.Is(err, db.ErrOfferNotAvailable),
		errors.Is(err, db.ErrOfferIsActive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), app.H{"error": err.Error()})
}

// 事务提交后的通知 + 缓存镜像：尽力而为，失败只记日志不影响应答
func (oc *OfferController) notify(c *gin.Context, kind string, o *models.Offer) {
	ctx := c.Request.Context()
	if err := oc.Pub.Publish(ctx, kind, o); err != nil {
		log.Printf("publish %s offer=%d: %v", kind, o.ID, err)
	}
	var err error
	switch kind {
	case models.EventOfferCreated:
		err = oc.Pub.CacheSlot(ctx, o.Collection, o.TokenID, o.ID)
	case models.EventOfferCanceled, models.EventNftWithdrawn:
		err = oc.Pub.ClearSlot(ctx, o.Collection, o.TokenID)
	}
	if err != nil {
		log.Printf("slot cache %s offer=%d: %v", kind, o.ID, err)
	}
}

// 挂单
func (oc *OfferController) CreateOffer(c *gin.Context) {
	var in struct {
		Price      int64  `json:"price"`
		TokenID    *int64 `json:"tokenId" binding:"required"`
		Collection string `json:"collection" binding:"required"`
		Duration   int64  `json:"duration"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	lender := app.Wallet(c)
	collection := strings.ToLower(in.Collection)
	if !models.ValidAddress(collection) {
		fail(c, db.ErrWrongAddress)
		return
	}

	o, err := oc.Repo.CreateOffer(c.Request.Context(), lender, collection, *in.TokenID, in.Price, in.Duration)
	if err != nil {
		fail(c, err)
		return
	}
	oc.notify(c, models.EventOfferCreated, o)
	c.JSON(http.StatusCreated, o)
}

// 接单（amount = 随单附带的支付额，payable 语义）
func (oc *OfferController) AcceptOffer(c *gin.Context) {
	var in struct {
		Collection string `json:"collection" binding:"required"`
		TokenID    *int64 `json:"tokenId" binding:"required"`
		OfferID    int64  `json:"offerId"`
		Amount     int64  `json:"amount"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	borrower := app.Wallet(c)
	collection := strings.ToLower(in.Collection)

	o, err := oc.Repo.AcceptOffer(c.Request.Context(), borrower, collection, *in.TokenID, in.OfferID, in.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	oc.notify(c, models.EventOfferAccepted, o)
	c.JSON(http.StatusOK, o)
}

// 撤单
func (oc *OfferController) CancelOffer(c *gin.Context) {
	var in struct {
		Collection string `json:"collection" binding:"required"`
		TokenID    *int64 `json:"tokenId" binding:"required"`
		OfferID    int64  `json:"offerId"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	caller := app.Wallet(c)
	collection := strings.ToLower(in.Collection)

	o, err := oc.Repo.CancelOffer(c.Request.Context(), caller, collection, *in.TokenID, in.OfferID)
	if err != nil {
		fail(c, err)
		return
	}
	oc.notify(c, models.EventOfferCanceled, o)
	c.JSON(http.StatusOK, o)
}

// 租期届满取回资产
func (oc *OfferController) WithdrawNft(c *gin.Context) {
	var in struct {
		Collection string `json:"collection" binding:"required"`
		TokenID    *int64 `json:"tokenId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	caller := app.Wallet(c)
	collection := strings.ToLower(in.Collection)

	o, err := oc.Repo.WithdrawNft(c.Request.Context(), caller, collection, *in.TokenID)
	if err != nil {
		fail(c, err)
		return
	}
	oc.notify(c, models.EventNftWithdrawn, o)
	c.JSON(http.StatusOK, o)
}

// --- 查询 ---

func (oc *OfferController) ListOffers(c *gin.Context) {
	os, err := oc.Repo.GetAllOffers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"offers": os})
}

func (oc *OfferController) ListOffersByLender(c *gin.Context) {
	lender := strings.ToLower(c.Param("address"))
	if !models.ValidAddress(lender) {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid address"})
		return
	}
	os, err := oc.Repo.GetOffersByLender(c.Request.Context(), lender)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"offers": os})
}

func (oc *OfferController) GetOffer(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid offer id"})
		return
	}
	o, err := oc.Repo.GetOfferByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// 活跃槽位查询：先看缓存镜像，未命中查库（库是权威）
func (oc *OfferController) GetOfferByToken(c *gin.Context) {
	collection := strings.ToLower(c.Query("collection"))
	tokenID, err := strconv.ParseInt(c.Query("tokenId"), 10, 64)
	if !models.ValidAddress(collection) || err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid collection or tokenId"})
		return
	}
	ctx := c.Request.Context()
	if id, err := oc.Pub.CachedSlot(ctx, collection, tokenID); err == nil && id >= 0 {
		c.JSON(http.StatusOK, app.H{"offerId": id})
		return
	}
	id, err := oc.Repo.GetOfferIDByToken(ctx, collection, tokenID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"offerId": id})
}

func (oc *OfferController) OfferCounter(c *gin.Context) {
	n, err := oc.Repo.OfferCounter(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"offerCounter": n})
}

func (oc *OfferController) GetBalance(c *gin.Context) {
	addr := strings.ToLower(c.Param("address"))
	if !models.ValidAddress(addr) {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid address"})
		return
	}
	amt, err := oc.Repo.GetBalance(c.Request.Context(), addr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"address": addr, "balance": amt})
}

// 外部校验方用：borrower 是否被登记为该资产的受托人
func (oc *OfferController) CheckDelegation(c *gin.Context) {
	delegateAddr := strings.ToLower(c.Query("delegate"))
	collection := strings.ToLower(c.Query("collection"))
	tokenID, err := strconv.ParseInt(c.Query("tokenId"), 10, 64)
	if !models.ValidAddress(delegateAddr) || !models.ValidAddress(collection) || err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid query"})
		return
	}
	ok, err := oc.Reg.CheckDelegateForToken(c.Request.Context(), delegateAddr, oc.Cfg.VaultAddr, collection, tokenID)
	if err != nil {
		c.JSON(http.StatusBadGateway, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"delegated": ok})
}

// 审计流（调试 / 对账）
func (oc *OfferController) ListEvents(c *gin.Context) {
	var offerID int64
	if v := c.Query("offerId"); v != "" {
		offerID, _ = strconv.ParseInt(v, 10, 64)
	}
	evs, err := oc.Repo.ListEvents(c.Request.Context(), offerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"events": evs})
}
