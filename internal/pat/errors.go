package pat

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nao1215/tooljet-embed/pkg/httpclient"
)

// Kind はエラーの分類。
type Kind int

const (
	// KindValidation は入力が不足していることを表す（400）。
	KindValidation Kind = iota
	// KindAuthorization はメールアドレスにアクセス権が無いことを表す（403）。
	KindAuthorization
	// KindMethodNotAllowed はPOST以外のメソッドであることを表す（405）。
	KindMethodNotAllowed
	// KindUpstream は上流呼び出しの失敗を表す（500）。
	KindUpstream
)

// Error は呼び出し元に返すエラー。すべてのエラーはリクエストに対して終端的で、
// 再試行や部分的な成功は無い。
type Error struct {
	// Kind はエラーの分類。
	Kind Kind
	// Message はレスポンスのerrorフィールドに入る文言。
	Message string
	// Details はレスポンスのdetailsフィールドに入る文言。上流エラーでのみ設定する。
	Details string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// StatusCode はエラー分類に対応するHTTPステータスコードを返す。
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// body はレスポンスボディを返す。
func (e *Error) body() map[string]string {
	b := map[string]string{"error": e.Message}
	if e.Kind == KindUpstream {
		b["details"] = e.Details
	}
	return b
}

var (
	errMethodNotAllowed = &Error{Kind: KindMethodNotAllowed, Message: "Method not allowed"}
	errMissingFields    = &Error{Kind: KindValidation, Message: "Email and appId are required"}
	errUpstreamDenied   = &Error{Kind: KindAuthorization, Message: msgUpstreamDenied}
)

// newUpstreamError は上流呼び出しの失敗から500用のエラーを生成する。
func newUpstreamError(err error) *Error {
	return &Error{
		Kind:    KindUpstream,
		Message: "Failed to generate access token",
		Details: describeUpstreamError(err),
	}
}

// describeUpstreamError は呼び出し元に返すための失敗の説明を返す。
// 上流のレスポンスボディはログにのみ出し、ここには含めない。
func describeUpstreamError(err error) string {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("ToolJet API returned %d", statusErr.StatusCode)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Error()
	}
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			return err.Error()
		}
		err = inner
	}
}
