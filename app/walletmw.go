// app/walletmw.go
package app

import (
	"net/http"
	"strings"

	"Gin_postgres_redis_nft_rent_market/models"

	"github.com/gin-gonic/gin"
)

const WalletHeader = "X-Wallet-Address"

// WalletRequired 调用方身份 = 钱包地址；这里只做格式校验，
// 签名校验由上游网关完成（执行环境负责给调用排序，见部署文档）
func WalletRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := strings.TrimSpace(c.GetHeader(WalletHeader))
		if addr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "missing wallet address"})
			return
		}
		if !models.ValidAddress(addr) || models.IsZeroAddress(addr) {
			c.AbortWithStatusJSON(http.StatusBadRequest, H{"error": "invalid wallet address"})
			return
		}
		// 地址统一小写，后续所有比对都不再大小写敏感
		c.Set("wallet", strings.ToLower(addr))
		c.Next()
	}
}

// Wallet 取出中间件注入的调用方地址
func Wallet(c *gin.Context) string {
	v, _ := c.Get("wallet")
	s, _ := v.(string)
	return s
}
