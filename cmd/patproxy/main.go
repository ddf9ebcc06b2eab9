// ToolJet埋め込みURL発行プロキシのエントリポイント。
// デモページからのリクエストを検証し、ToolJetのPAT発行APIを代理で呼び出す。
// サービス用のAPI資格情報をブラウザに露出させないための境界となる。
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/nao1215/tooljet-embed/internal/audit"
	"github.com/nao1215/tooljet-embed/internal/config"
	"github.com/nao1215/tooljet-embed/internal/pat"
	"github.com/nao1215/tooljet-embed/internal/tooljet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	var recorder audit.Recorder = audit.Nop{}
	if cfg.AuditDBPath != "" {
		store, err := audit.Open(ctx, cfg.AuditDBPath)
		if err != nil {
			log.Fatalf("監査ログの初期化に失敗: %v", err)
		}
		defer store.Close()
		recorder = store
	}

	issuer := tooljet.NewClient(cfg.ToolJetURL, cfg.ToolJetAPIToken, cfg.UpstreamTimeout)
	server := pat.NewServer(cfg, issuer, recorder)

	log.Printf("PATプロキシを起動します: :%s (policy=%s, allowed=%d)", cfg.Port, cfg.Policy, len(cfg.AllowedEmails))
	if err := server.Run(ctx); err != nil {
		log.Fatalf("PATプロキシの起動に失敗: %v", err)
	}
}
