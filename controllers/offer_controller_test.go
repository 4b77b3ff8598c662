package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"Gin_postgres_redis_nft_rent_market/app"
	"Gin_postgres_redis_nft_rent_market/db"
	"Gin_postgres_redis_nft_rent_market/models"
	"Gin_postgres_redis_nft_rent_market/routes"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	lender     = "0x1111111111111111111111111111111111111111"
	borrower   = "0x2222222222222222222222222222222222222222"
	operator   = "0x00000000000000000000000000000000000000fe"
	collection = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	oneDay = int64(86400)
	oneEth = int64(1_000_000_000_000_000_000)
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	// 假登记处：来者不拒
	regSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"delegated": true})
	}))
	t.Cleanup(regSrv.Close)

	a := &app.App{
		Router: gin.New(),
		DB:     gdb,
		RDB:    rdb,
		Config: app.Config{
			OperatorAddr: operator,
			VaultAddr:    "0x00000000000000000000000000000000000000ca",
			FeeRate:      3,
			DelegateURL:  regSrv.URL,
			SlotCacheTTL: time.Minute,
		},
	}
	routes.RegisterRoutes(a.Router, a)
	return a.Router
}

func doJSON(t *testing.T, r *gin.Engine, method, path, wallet string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if wallet != "" {
		req.Header.Set(app.WalletHeader, wallet)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createOffer(t *testing.T, r *gin.Engine) models.Offer {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/offers", lender, map[string]any{
		"price":      oneEth,
		"tokenId":    0,
		"collection": collection,
		"duration":   oneDay,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create offer: status %d body %s", w.Code, w.Body.String())
	}
	var o models.Offer
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil {
		t.Fatalf("decode offer: %v", err)
	}
	return o
}

func TestCreateOfferHTTP(t *testing.T) {
	r := newTestServer(t)

	o := createOffer(t, r)
	if o.ID != 1 || o.Status != models.StatusAvailable || o.Lender != lender {
		t.Errorf("unexpected offer: %+v", o)
	}

	// 同资产重复挂单 → 409
	w := doJSON(t, r, http.MethodPost, "/api/offers", lender, map[string]any{
		"price": oneEth, "tokenId": 0, "collection": collection, "duration": oneDay,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create: status %d, want 409", w.Code)
	}

	// 无效输入 → 400
	w = doJSON(t, r, http.MethodPost, "/api/offers", lender, map[string]any{
		"price": 0, "tokenId": 1, "collection": collection, "duration": oneDay,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("zero price: status %d, want 400", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/api/offers", lender, map[string]any{
		"price": oneEth, "tokenId": 1, "collection": collection, "duration": oneDay - 1,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("short duration: status %d, want 400", w.Code)
	}

	// 没带钱包头 → 401
	w = doJSON(t, r, http.MethodPost, "/api/offers", "", map[string]any{
		"price": oneEth, "tokenId": 2, "collection": collection, "duration": oneDay,
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing wallet: status %d, want 401", w.Code)
	}
}

func TestAcceptOfferHTTP(t *testing.T) {
	r := newTestServer(t)
	o := createOffer(t, r)

	// 付不够 → 402，状态不变
	w := doJSON(t, r, http.MethodPost, "/api/offers/accept", borrower, map[string]any{
		"collection": collection, "tokenId": 0, "offerId": o.ID, "amount": oneEth - 1,
	})
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("underpay: status %d, want 402", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/offers/accept", borrower, map[string]any{
		"collection": collection, "tokenId": 0, "offerId": o.ID, "amount": oneEth,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("accept: status %d body %s", w.Code, w.Body.String())
	}
	var accepted models.Offer
	_ = json.Unmarshal(w.Body.Bytes(), &accepted)
	if accepted.Status != models.StatusExecuted || accepted.Borrower != borrower {
		t.Errorf("unexpected accepted offer: %+v", accepted)
	}

	// 二次接受 → 409
	w = doJSON(t, r, http.MethodPost, "/api/offers/accept", borrower, map[string]any{
		"collection": collection, "tokenId": 0, "offerId": o.ID, "amount": oneEth,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("second accept: status %d, want 409", w.Code)
	}

	// 账本：0.97 / 0.03
	for addr, want := range map[string]int64{lender: 970_000_000_000_000_000, operator: 30_000_000_000_000_000} {
		w = doJSON(t, r, http.MethodGet, "/api/balance/"+addr, "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("balance %s: status %d", addr, w.Code)
		}
		var out struct {
			Balance int64 `json:"balance"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &out)
		if out.Balance != want {
			t.Errorf("balance of %s = %d, want %d", addr, out.Balance, want)
		}
	}
}

func TestCancelAndWithdrawHTTP(t *testing.T) {
	r := newTestServer(t)
	o := createOffer(t, r)

	// 外人撤单 → 403
	w := doJSON(t, r, http.MethodPost, "/api/offers/cancel", borrower, map[string]any{
		"collection": collection, "tokenId": 0, "offerId": o.ID,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("stranger cancel: status %d, want 403", w.Code)
	}

	// lender 撤单 → 200，槽位清空
	w = doJSON(t, r, http.MethodPost, "/api/offers/cancel", lender, map[string]any{
		"collection": collection, "tokenId": 0, "offerId": o.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: status %d body %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/offers/token?collection=%s&tokenId=0", collection), "", nil)
	var slot struct {
		OfferID int64 `json:"offerId"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &slot)
	if slot.OfferID != 0 {
		t.Errorf("slot after cancel = %d, want 0", slot.OfferID)
	}

	// 重新挂单并接受，租期未满取回 → 409
	o2 := createOffer(t, r)
	w = doJSON(t, r, http.MethodPost, "/api/offers/accept", borrower, map[string]any{
		"collection": collection, "tokenId": 0, "offerId": o2.ID, "amount": oneEth,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("accept: status %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/api/nft/withdraw", lender, map[string]any{
		"collection": collection, "tokenId": 0,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("early withdraw: status %d, want 409", w.Code)
	}
}

func TestQueriesHTTP(t *testing.T) {
	r := newTestServer(t)
	o := createOffer(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/offers", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list offers: status %d", w.Code)
	}
	var list struct {
		Offers []models.Offer `json:"offers"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Offers) != 1 {
		t.Errorf("expected 1 offer, got %d", len(list.Offers))
	}

	w = doJSON(t, r, http.MethodGet, "/api/offers/counter", "", nil)
	var cnt struct {
		OfferCounter int64 `json:"offerCounter"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &cnt)
	if cnt.OfferCounter != 1 {
		t.Errorf("offerCounter = %d, want 1", cnt.OfferCounter)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/offers/%d", o.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("get offer: status %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/api/offers/99", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing offer: status %d, want 404", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/offers/lender/"+lender, "", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Offers) != 1 {
		t.Errorf("expected 1 offer by lender, got %d", len(list.Offers))
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/offers/token?collection=%s&tokenId=0", collection), "", nil)
	var slot struct {
		OfferID int64 `json:"offerId"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &slot)
	if slot.OfferID != o.ID {
		t.Errorf("slot = %d, want %d", slot.OfferID, o.ID)
	}

	// 审计流里至少有一条 offer-created
	w = doJSON(t, r, http.MethodGet, "/api/events", "", nil)
	var evs struct {
		Events []models.OfferEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &evs)
	if len(evs.Events) == 0 || evs.Events[0].Kind != models.EventOfferCreated {
		t.Errorf("expected offer-created audit row, got %+v", evs.Events)
	}
}
