// 管理用エンドポイント（/admin/issuances）にアクセスするためのJWTを発行する。
// ADMIN_JWT_SECRET で署名したトークンを標準出力に書き出す。
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/nao1215/tooljet-embed/pkg/middleware"
)

func main() {
	subject := flag.StringP("subject", "s", "admin", "トークンのsubject")
	ttl := flag.DurationP("ttl", "t", time.Hour, "トークンの有効期間")
	flag.Parse()

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		log.Fatal("ADMIN_JWT_SECRET が設定されていません")
	}

	token, err := middleware.GenerateJWT(secret, *subject, *ttl)
	if err != nil {
		log.Fatalf("トークンの生成に失敗: %v", err)
	}
	fmt.Println(token)
}
