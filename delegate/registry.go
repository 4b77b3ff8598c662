// delegate/registry.go
package delegate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Registry 外部委托登记处：引擎只写授权，读取给外部校验方用
// 授权失败会让整个接受事务回滚，所以必须同步返回错误
type Registry interface {
	DelegateForToken(ctx context.Context, delegate, vault, collection string, tokenID int64, enabled bool) error
	CheckDelegateForToken(ctx context.Context, delegate, vault, collection string, tokenID int64) (bool, error)
}

// HTTPRegistry 走 HTTP 的登记处客户端
type HTTPRegistry struct {
	BaseURL string
	hc      *http.Client
}

func NewHTTPRegistry(baseURL string) *HTTPRegistry {
	return &HTTPRegistry{
		BaseURL: baseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

type delegationReq struct {
	Delegate   string `json:"delegate"`
	Vault      string `json:"vault"`
	Collection string `json:"collection"`
	TokenID    int64  `json:"tokenId"`
	Enabled    bool   `json:"enabled"`
}

func (r *HTTPRegistry) DelegateForToken(ctx context.Context, delegate, vault, collection string, tokenID int64, enabled bool) error {
	body, _ := json.Marshal(delegationReq{
		Delegate:   delegate,
		Vault:      vault,
		Collection: collection,
		TokenID:    tokenID,
		Enabled:    enabled,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/delegations", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.hc.Do(req)
	if err != nil {
		return fmt.Errorf("delegate registry: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("delegate registry: status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

func (r *HTTPRegistry) CheckDelegateForToken(ctx context.Context, delegate, vault, collection string, tokenID int64) (bool, error) {
	q := url.Values{}
	q.Set("delegate", delegate)
	q.Set("vault", vault)
	q.Set("collection", collection)
	q.Set("tokenId", strconv.FormatInt(tokenID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/delegations/check?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}
	resp, err := r.hc.Do(req)
	if err != nil {
		return false, fmt.Errorf("delegate registry: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return false, fmt.Errorf("delegate registry: status %d", resp.StatusCode)
	}
	var out struct {
		Delegated bool `json:"delegated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Delegated, nil
}
