// Package tooljet はToolJetのトークン発行APIを呼び出すクライアントを提供する。
package tooljet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/tooljet-embed/pkg/httpclient"
)

const (
	// personalAccessTokenPath はPAT発行APIのパス。
	personalAccessTokenPath = "/api/ext/users/personal-access-token"
	// SessionExpiryMinutes は埋め込みセッションの有効期間（分）。
	SessionExpiryMinutes = 60
	// PATExpirySeconds は発行されるPATの有効期間（秒）。
	PATExpirySeconds = 3600
)

// ErrMissingRedirectURL は成功レスポンスにredirectUrlが含まれていないことを表す。
var ErrMissingRedirectURL = errors.New("ToolJet response did not include redirectUrl")

// issueRequest はPAT発行APIへのリクエストボディ。
type issueRequest struct {
	Email         string `json:"email"`
	AppID         string `json:"appId"`
	SessionExpiry int    `json:"sessionExpiry"`
	PATExpiry     int    `json:"patExpiry"`
}

// issueResponse はPAT発行APIの成功レスポンス。
type issueResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// Client はToolJet APIクライアント。
type Client struct {
	http *httpclient.Client
}

// NewClient は新しいToolJet APIクライアントを生成する。
// apiTokenはBasic認証の資格情報としてそのまま送信される。
func NewClient(baseURL, apiToken string, timeout time.Duration, opts ...httpclient.Option) *Client {
	opts = append([]httpclient.Option{
		httpclient.WithTimeout(timeout),
		httpclient.WithAuthorization("Basic " + apiToken),
	}, opts...)
	return &Client{http: httpclient.New(baseURL, opts...)}
}

// IssuePAT はemailのユーザーに対してappIDのアプリを埋め込むためのPATを発行し、
// 埋め込み用のリダイレクトURLを返す。
// 上流が2xx以外を返した場合は*httpclient.StatusErrorをラップしたエラーを返す。
func (c *Client) IssuePAT(ctx context.Context, email, appID string) (string, error) {
	req := issueRequest{
		Email:         email,
		AppID:         appID,
		SessionExpiry: SessionExpiryMinutes,
		PATExpiry:     PATExpirySeconds,
	}

	var resp issueResponse
	if err := c.http.PostJSON(ctx, personalAccessTokenPath, req, &resp); err != nil {
		return "", fmt.Errorf("ToolJet PAT発行に失敗: %w", err)
	}
	if resp.RedirectURL == "" {
		return "", ErrMissingRedirectURL
	}
	return resp.RedirectURL, nil
}
