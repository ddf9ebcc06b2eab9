package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// corsAllowMethods はプリフライトで許可するHTTPメソッド。
	corsAllowMethods = "GET,OPTIONS,PATCH,DELETE,POST,PUT"
	// corsAllowHeaders はプリフライトで許可するリクエストヘッダー。
	corsAllowHeaders = "X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, Content-MD5, Content-Type, Date, X-Api-Version"
)

// CORS はすべてのレスポンスにCORSヘッダーを設定するGinミドルウェアを返す。
// デモページはどこからでも埋め込まれ得るため、originには通常 "*" を指定する。
// 空文字列の場合は "*" として扱う。
//
// OPTIONSリクエスト（プリフライト）には空ボディの200を返し、後続の処理を行わない。
func CORS(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", corsAllowMethods)
		c.Header("Access-Control-Allow-Headers", corsAllowHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
