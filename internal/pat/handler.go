package pat

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/tooljet-embed/internal/audit"
	"github.com/nao1215/tooljet-embed/pkg/httpclient"
	"github.com/nao1215/tooljet-embed/pkg/middleware"
)

const (
	// defaultListLimit は監査ログ一覧のデフォルト件数。
	defaultListLimit = 50
	// maxListLimit は監査ログ一覧の最大件数。
	maxListLimit = 500
)

// generatePATRequest はトークン発行リクエストのボディ。
type generatePATRequest struct {
	// Email は埋め込みセッションを開始するユーザーのメールアドレス。
	Email string `json:"email" binding:"required"`
	// AppID は埋め込むToolJetアプリのID。
	AppID string `json:"appId" binding:"required"`
}

// generatePATResponse はトークン発行成功時のレスポンス。
type generatePATResponse struct {
	// EmbedURL はToolJetが返した埋め込み用のリダイレクトURL。
	EmbedURL string `json:"embedUrl"`
}

// handleGeneratePAT はPATを発行して埋め込みURLを返すハンドラを返す。
// OPTIONSはCORSミドルウェアで処理済みのため、ここにはPOSTとそれ以外のみが届く。
func (s *Server) handleGeneratePAT() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			s.respondError(c, outcomeMethodNotAllowed, errMethodNotAllowed)
			return
		}

		var req generatePATRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, outcomeInvalidRequest, errMissingFields)
			return
		}

		// 許可リストに無いメールアドレスは上流に問い合わせずに拒否する
		if !s.policy.Allows(req.Email) {
			e := &Error{Kind: KindAuthorization, Message: s.policy.deniedMessage}
			s.record(c, req, outcomeDenied, e.StatusCode())
			s.respondError(c, outcomeDenied, e)
			return
		}

		embedURL, err := s.issue(c.Request.Context(), req)
		if err != nil {
			outcome := outcomeUpstreamError
			var e *Error
			if errors.As(err, &e) && e.Kind == KindAuthorization {
				outcome = outcomeUpstreamDenied
			} else {
				e = newUpstreamError(err)
				log.Printf("[PAT] PAT発行エラー: request_id=%s, error=%v", middleware.GetRequestID(c), err)
			}
			s.record(c, req, outcome, e.StatusCode())
			s.respondError(c, outcome, e)
			return
		}

		requestsTotal.WithLabelValues(outcomeIssued).Inc()
		s.record(c, req, outcomeIssued, http.StatusOK)
		c.JSON(http.StatusOK, generatePATResponse{EmbedURL: embedURL})
	}
}

// issue は上流APIを呼び出して埋め込みURLを取得する。
// ポリシーが上流の拒否の変換を求める場合は認可エラーを返す。
func (s *Server) issue(ctx context.Context, req generatePATRequest) (string, error) {
	start := time.Now()
	embedURL, err := s.issuer.IssuePAT(ctx, req.Email, req.AppID)

	statusLabel := strconv.Itoa(http.StatusOK)
	var statusErr *httpclient.StatusError
	switch {
	case errors.As(err, &statusErr):
		statusLabel = strconv.Itoa(statusErr.StatusCode)
	case err != nil:
		statusLabel = "error"
	}
	upstreamDuration.WithLabelValues(statusLabel).Observe(time.Since(start).Seconds())

	if statusErr != nil {
		log.Printf("[PAT] ToolJet APIエラー: status=%d, body=%s", statusErr.StatusCode, statusErr.Body)
		if s.policy.RemapsUpstreamStatus(statusErr.StatusCode) {
			return "", errUpstreamDenied
		}
	}
	if err != nil {
		return "", err
	}
	return embedURL, nil
}

// respondError はエラーをJSONで返し、結果を計測する。
func (s *Server) respondError(c *gin.Context, outcome string, e *Error) {
	requestsTotal.WithLabelValues(outcome).Inc()
	c.JSON(e.StatusCode(), e.body())
}

// record は監査ログを記録する。記録の失敗はレスポンスに影響させない。
func (s *Server) record(c *gin.Context, req generatePATRequest, outcome string, status int) {
	if err := s.recorder.Record(c.Request.Context(), audit.Entry{
		RequestID:  middleware.GetRequestID(c),
		Email:      req.Email,
		AppID:      req.AppID,
		Outcome:    outcome,
		StatusCode: status,
	}); err != nil {
		log.Printf("[Audit] 監査ログの記録に失敗: %v", err)
	}
}

// handleListIssuances は監査ログを新しい順に返すハンドラを返す。
func (s *Server) handleListIssuances() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultListLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = min(n, maxListLimit)
		}

		entries, err := s.recorder.List(c.Request.Context(), limit)
		if err != nil {
			log.Printf("[Audit] 監査ログの取得に失敗: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list issuances"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"issuances": entries,
			"count":     len(entries),
		})
	}
}
