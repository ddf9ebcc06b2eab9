package pat

import (
	"github.com/nao1215/tooljet-embed/internal/config"
)

const (
	// msgStrictDenied は厳格ポリシーで許可リストに無いメールアドレスへのメッセージ。
	msgStrictDenied = "This email does not have access to the application"
	// msgDemoDenied はデモポリシーで許可リストに無いメールアドレスへのメッセージ。
	msgDemoDenied = "This email is not registered for the demo"
	// msgUpstreamDenied は上流がアクセスを拒否した場合のメッセージ。
	msgUpstreamDenied = "User does not have access to this application in ToolJet"
)

// Policy はトークン発行を試みてよいメールアドレスと、拒否時の振る舞いを表す。
// 許可リストは完全一致で判定し、一致しないものはすべて拒否する。
type Policy struct {
	// allowed は許可されたメールアドレスの集合。
	allowed map[string]struct{}
	// deniedMessage は許可リストで拒否した場合のエラーメッセージ。
	deniedMessage string
	// remapUpstreamDenial が真の場合、上流の403/404をローカルの403に変換する。
	remapUpstreamDenial bool
}

// NewPolicy はポリシー種別と許可リストからPolicyを生成する。
// 未知の種別はデモポリシーとして扱う。
func NewPolicy(kind config.Policy, emails []string) Policy {
	allowed := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		allowed[e] = struct{}{}
	}

	p := Policy{
		allowed:             allowed,
		deniedMessage:       msgDemoDenied,
		remapUpstreamDenial: true,
	}
	if kind == config.PolicyStrict {
		p.deniedMessage = msgStrictDenied
		p.remapUpstreamDenial = false
	}
	return p
}

// Allows はemailが許可リストに含まれるかを返す。
func (p Policy) Allows(email string) bool {
	_, ok := p.allowed[email]
	return ok
}

// RemapsUpstreamStatus は上流のステータスコードをローカルの403に変換すべきかを返す。
// ローカルの許可リストを通過しても、上流側の権限モデルで拒否されることがある。
func (p Policy) RemapsUpstreamStatus(code int) bool {
	return p.remapUpstreamDenial && (code == 403 || code == 404)
}
