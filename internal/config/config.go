// Package config はプロキシサービスの設定を環境変数から読み込む。
//
// 設定は起動時に一度だけ読み込まれ、明示的な構造体としてサーバーに渡される。
// 必須項目が欠けている場合は起動に失敗させ、不正な上流リクエストを
// 送ってしまうことを防ぐ。
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy はトークン発行の許可ポリシーの種類。
type Policy string

const (
	// PolicyDemo はデモ用ポリシー。上流の403/404をローカルの403に変換する。
	PolicyDemo Policy = "demo"
	// PolicyStrict は厳格ポリシー。上流の非2xxはすべて500として扱う。
	PolicyStrict Policy = "strict"
)

// DefaultAllowedEmail は許可リスト未指定時に許可するデモ用アカウント。
const DefaultAllowedEmail = "demo@tooljet.com"

// Config はプロキシサービスの設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// ToolJetURL はToolJetのベースURL（末尾のスラッシュは除去済み）。
	ToolJetURL string
	// ToolJetAPIToken はToolJetのBasic認証に使う共有シークレット。
	ToolJetAPIToken string
	// Policy はトークン発行の許可ポリシー。
	Policy Policy
	// AllowedEmails はトークン発行を試みてよいメールアドレスの一覧。
	AllowedEmails []string
	// UpstreamTimeout はToolJet呼び出しのタイムアウト。
	UpstreamTimeout time.Duration
	// AuditDBPath は監査ログを保存するSQLiteのパス。空の場合は監査ログを無効にする。
	AuditDBPath string
	// AdminJWTSecret は管理用エンドポイントのJWT署名鍵。空の場合は管理用エンドポイントを無効にする。
	AdminJWTSecret string
	// AllowedOrigin はAccess-Control-Allow-Originに設定する値。
	AllowedOrigin string
}

// allowListFile は ALLOWLIST_FILE で指定するYAMLファイルの形式。
//
//	emails:
//	  - demo@tooljet.com
type allowListFile struct {
	Emails []string `yaml:"emails"`
}

// Load は環境変数から設定を読み込む。
func Load() (*Config, error) {
	return load(os.Getenv)
}

// load はgetenvを使って設定を読み込む。テストから環境を差し替えるために分離している。
func load(getenv func(string) string) (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:           getEnvOr(getenv, "PORT", "8080"),
		AuditDBPath:    getenv("AUDIT_DB_PATH"),
		AdminJWTSecret: getenv("ADMIN_JWT_SECRET"),
		AllowedOrigin:  getEnvOr(getenv, "CORS_ALLOW_ORIGIN", "*"),
	}

	baseURL, err := parseBaseURL(getenv("TOOLJET_URL"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.ToolJetURL = baseURL

	cfg.ToolJetAPIToken = strings.TrimSpace(getenv("TOOLJET_API_TOKEN"))
	if cfg.ToolJetAPIToken == "" {
		errs = append(errs, errors.New("TOOLJET_API_TOKEN が設定されていません"))
	}

	cfg.Policy = Policy(strings.ToLower(getEnvOr(getenv, "PAT_POLICY", string(PolicyDemo))))
	if cfg.Policy != PolicyDemo && cfg.Policy != PolicyStrict {
		errs = append(errs, fmt.Errorf("PAT_POLICY の値が不正です: %q (demo または strict)", cfg.Policy))
	}

	timeout, err := time.ParseDuration(getEnvOr(getenv, "TOOLJET_TIMEOUT", "30s"))
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("TOOLJET_TIMEOUT の値が不正です: %w", err))
	case timeout <= 0:
		errs = append(errs, errors.New("TOOLJET_TIMEOUT は正の値である必要があります"))
	}
	cfg.UpstreamTimeout = timeout

	emails, err := loadAllowedEmails(getenv)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.AllowedEmails = emails

	if len(errs) > 0 {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// parseBaseURL はTOOLJET_URLを検証し、末尾のスラッシュを除いて返す。
func parseBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("TOOLJET_URL が設定されていません")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("TOOLJET_URL の値が不正です: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("TOOLJET_URL は http(s) の絶対URLである必要があります: %q", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// loadAllowedEmails は許可リストを読み込む。
// ALLOWED_EMAILS（カンマ区切り）が最優先で、次に ALLOWLIST_FILE（YAML）、
// どちらも無い場合はデモ用アカウントのみを許可する。
func loadAllowedEmails(getenv func(string) string) ([]string, error) {
	if raw := getenv("ALLOWED_EMAILS"); raw != "" {
		emails := normalizeEmails(strings.Split(raw, ","))
		if len(emails) == 0 {
			return nil, errors.New("ALLOWED_EMAILS に有効なメールアドレスがありません")
		}
		return emails, nil
	}

	if path := getenv("ALLOWLIST_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ALLOWLIST_FILE の読み込みに失敗: %w", err)
		}
		var f allowListFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("ALLOWLIST_FILE のパースに失敗: %w", err)
		}
		emails := normalizeEmails(f.Emails)
		if len(emails) == 0 {
			return nil, fmt.Errorf("ALLOWLIST_FILE に有効なメールアドレスがありません: %s", path)
		}
		return emails, nil
	}

	return []string{DefaultAllowedEmail}, nil
}

// normalizeEmails は前後の空白を除去し、空要素と重複を取り除く。
func normalizeEmails(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(getenv func(string) string, key, defaultValue string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return defaultValue
}
