package pat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/tooljet-embed/internal/audit"
	"github.com/nao1215/tooljet-embed/internal/config"
	"github.com/nao1215/tooljet-embed/pkg/middleware"
)

// GeneratePATPath はトークン発行エンドポイントのパス。
const GeneratePATPath = "/api/generate-pat"

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 10 * time.Second

// TokenIssuer は埋め込み用URLを発行する上流APIを表す。
type TokenIssuer interface {
	IssuePAT(ctx context.Context, email, appID string) (string, error)
}

// Server はトークン発行プロキシのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// policy は許可リストと拒否時の振る舞い。
	policy Policy
	// issuer は上流のトークン発行API。
	issuer TokenIssuer
	// recorder は監査ログの記録先。
	recorder audit.Recorder
	// adminJWTSecret は管理用エンドポイントのJWT署名鍵。
	adminJWTSecret string
}

// NewServer は新しいプロキシサーバーを生成する。
// recorderがnilの場合は監査ログを記録しない。
func NewServer(cfg *config.Config, issuer TokenIssuer, recorder audit.Recorder) *Server {
	if recorder == nil {
		recorder = audit.Nop{}
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigin))

	s := &Server{
		router:         router,
		port:           cfg.Port,
		policy:         NewPolicy(cfg.Policy, cfg.AllowedEmails),
		issuer:         issuer,
		recorder:       recorder,
		adminJWTSecret: cfg.AdminJWTSecret,
	}
	s.setupRoutes()

	return s
}

// Handler はルーティング済みのhttp.Handlerを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルに停止する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("[PAT] シャットダウンを開始します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("シャットダウンに失敗: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// メソッドの判定はハンドラー内で行い、405をJSONで返す
	s.router.Any(GeneratePATPath, s.handleGeneratePAT())

	if s.adminJWTSecret != "" {
		admin := s.router.Group("/admin")
		admin.Use(middleware.JWTAuth(s.adminJWTSecret))
		{
			admin.GET("/issuances", s.handleListIssuances())
		}
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "tooljet-embed"})
	})
}
