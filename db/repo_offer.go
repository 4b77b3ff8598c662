package db

import (
	"context"
	"encoding/json"
	"errors"

	"Gin_postgres_redis_nft_rent_market/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 错误分类：每个前置条件都有独立的、调用方可见的错误，绝不静默降级
var (
	ErrOfferExists       = errors.New("active offer exists for this asset")
	ErrWrongInput        = errors.New("invalid price or duration")
	ErrOfferNotAvailable = errors.New("offer is not available")
	ErrNotEnoughFunds    = errors.New("attached payment below offer price")
	ErrWrongAddress      = errors.New("zero collection address")
	ErrNotOwner          = errors.New("caller is not the lender")
	ErrOfferIsActive     = errors.New("rental period has not elapsed")
	ErrOfferNotFound     = errors.New("offer not found")
)

// MinDuration 最短租期：一天
const MinDuration int64 = 86400

// 事务内追加审计行，Payload 带完整报价快照
func appendEvent(tx *gorm.DB, kind string, o *models.Offer) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return tx.Create(&models.OfferEvent{
		ID:      uuid.NewString(),
		Kind:    kind,
		OfferID: o.ID,
		Payload: string(b),
	}).Error
}

// CreateOffer 挂单：原子操作 = 占槽位 → 发号 → 收押 → 铸凭证 → 落报价
func (r *Repo) CreateOffer(ctx context.Context, lender, collection string, tokenID, price, duration int64) (*models.Offer, error) {
	if price <= 0 || duration < MinDuration {
		return nil, ErrWrongInput
	}
	if models.IsZeroAddress(collection) {
		return nil, ErrWrongAddress
	}

	var offer *models.Offer
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) 槽位占用即拒绝：过期未取回的 EXECUTED 报价同样占着槽位
		var n int64
		if err := tx.Model(&models.TokenOffer{}).
			Where("collection = ? AND token_id = ?", collection, tokenID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrOfferExists
		}
		// 2) 发号
		id, err := nextOfferID(tx)
		if err != nil {
			return err
		}
		// 3) 资产收押（部分唯一索引兜底防并发）
		if _, err := r.Vault.Deposit(tx, collection, tokenID, lender, id); err != nil {
			return err
		}
		// 4) 凭证先铸给 lender 自持
		ut, err := r.Vault.Mint(tx, lender, id)
		if err != nil {
			return err
		}
		// 5) 落报价 + 快速索引
		o := &models.Offer{
			ID:             id,
			TokenID:        tokenID,
			Collection:     collection,
			Price:          price,
			Duration:       duration,
			Lender:         lender,
			UtilityTokenID: ut.ID,
			Status:         models.StatusAvailable,
		}
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.TokenOffer{
			Collection: collection,
			TokenID:    tokenID,
			OfferID:    id,
		}).Error; err != nil {
			return err
		}
		if err := appendEvent(tx, models.EventOfferCreated, o); err != nil {
			return err
		}
		offer = o
		return nil
	})
	return offer, err
}

// AcceptOffer 接单：原子操作 = 锁报价 → 结算 → 凭证换手 → 委托登记
// 超付部分不退，计入 operator 入账（多付即多收手续费）
func (r *Repo) AcceptOffer(ctx context.Context, borrower, collection string, tokenID, offerID, amount int64) (*models.Offer, error) {
	if models.IsZeroAddress(collection) {
		return nil, ErrWrongAddress
	}

	var offer *models.Offer
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Offer
		err := forUpdate(tx).First(&o, "id = ?", offerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOfferNotFound
		}
		if err != nil {
			return err
		}
		if o.Collection != collection || o.TokenID != tokenID {
			return ErrOfferNotFound
		}
		if o.Status != models.StatusAvailable {
			return ErrOfferNotAvailable
		}
		if amount < o.Price {
			return ErrNotEnoughFunds
		}

		now := r.Now()
		o.Borrower = borrower
		o.StartTime = &now
		o.Status = models.StatusExecuted
		if err := tx.Save(&o).Error; err != nil {
			return err
		}

		// 凭证从 lender 转给 borrower
		if err := r.Vault.Transfer(tx, o.UtilityTokenID, o.Lender, borrower); err != nil {
			return err
		}

		// 结算：fee 截断取整，守恒 lender + operator = amount
		fee := o.Price * r.FeeRate / 100
		if err := creditBalance(tx, o.Lender, o.Price-fee); err != nil {
			return err
		}
		if err := creditBalance(tx, r.Op, fee+(amount-o.Price)); err != nil {
			return err
		}

		// 委托登记失败 → 整个迁移回滚
		if err := r.Reg.DelegateForToken(ctx, borrower, r.Vault.Addr, collection, tokenID, true); err != nil {
			return err
		}

		if err := appendEvent(tx, models.EventOfferAccepted, &o); err != nil {
			return err
		}
		offer = &o
		return nil
	})
	return offer, err
}

// CancelOffer 撤单：仅 AVAILABLE 可撤，撤后清槽位、资产退回 lender
func (r *Repo) CancelOffer(ctx context.Context, caller, collection string, tokenID, offerID int64) (*models.Offer, error) {
	var offer *models.Offer
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Offer
		err := forUpdate(tx).First(&o, "id = ?", offerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOfferNotFound
		}
		if err != nil {
			return err
		}
		if o.Collection != collection || o.TokenID != tokenID {
			return ErrOfferNotFound
		}
		if o.Status != models.StatusAvailable {
			return ErrOfferNotAvailable
		}
		// 身份以凭证持有为准：AVAILABLE 期间凭证自持于 lender
		holder, err := r.Vault.OwnerOf(tx, o.UtilityTokenID)
		if err != nil {
			return err
		}
		if holder != caller {
			return ErrNotOwner
		}

		o.Status = models.StatusCanceled
		if err := tx.Save(&o).Error; err != nil {
			return err
		}
		if err := tx.Where("collection = ? AND token_id = ?", collection, tokenID).
			Delete(&models.TokenOffer{}).Error; err != nil {
			return err
		}
		if err := r.Vault.Release(tx, collection, tokenID, caller); err != nil {
			return err
		}
		if err := appendEvent(tx, models.EventOfferCanceled, &o); err != nil {
			return err
		}
		offer = &o
		return nil
	})
	return offer, err
}

// WithdrawNft 租期届满后 lender 取回资产；报价记录保留为历史，只清槽位
func (r *Repo) WithdrawNft(ctx context.Context, caller, collection string, tokenID int64) (*models.Offer, error) {
	var offer *models.Offer
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.TokenOffer
		err := forUpdate(tx).
			Where("collection = ? AND token_id = ?", collection, tokenID).
			First(&slot).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOfferNotFound
		}
		if err != nil {
			return err
		}
		var o models.Offer
		if err := tx.First(&o, "id = ?", slot.OfferID).Error; err != nil {
			return err
		}
		if o.Status != models.StatusExecuted {
			return ErrOfferNotAvailable
		}
		if o.Lender != caller {
			return ErrNotOwner
		}
		if !o.Expired(r.Now()) {
			return ErrOfferIsActive
		}

		if err := tx.Where("collection = ? AND token_id = ?", collection, tokenID).
			Delete(&models.TokenOffer{}).Error; err != nil {
			return err
		}
		if err := r.Vault.Release(tx, collection, tokenID, o.Lender); err != nil {
			return err
		}
		if err := appendEvent(tx, models.EventNftWithdrawn, &o); err != nil {
			return err
		}
		offer = &o
		return nil
	})
	return offer, err
}

// --- 只读查询 ---

func (r *Repo) GetAllOffers(ctx context.Context) ([]models.Offer, error) {
	var os []models.Offer
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&os).Error
	return os, err
}

func (r *Repo) GetOffersByLender(ctx context.Context, lender string) ([]models.Offer, error) {
	var os []models.Offer
	err := r.DB.WithContext(ctx).Where("lender = ?", lender).Order("id ASC").Find(&os).Error
	return os, err
}

func (r *Repo) GetOfferByID(ctx context.Context, id int64) (*models.Offer, error) {
	var o models.Offer
	err := r.DB.WithContext(ctx).First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOfferNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOfferIDByToken 当前活跃 offerId，无则 0
func (r *Repo) GetOfferIDByToken(ctx context.Context, collection string, tokenID int64) (int64, error) {
	var slot models.TokenOffer
	err := r.DB.WithContext(ctx).
		Where("collection = ? AND token_id = ?", collection, tokenID).
		First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return slot.OfferID, nil
}

// ListEvents 按时间序读审计记录（调试 / 对账用）
func (r *Repo) ListEvents(ctx context.Context, offerID int64) ([]models.OfferEvent, error) {
	q := r.DB.WithContext(ctx).Model(&models.OfferEvent{}).Order("created_at ASC")
	if offerID != 0 {
		q = q.Where("offer_id = ?", offerID)
	}
	var evs []models.OfferEvent
	err := q.Find(&evs).Error
	return evs, err
}
