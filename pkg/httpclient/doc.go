// Package httpclient は外部APIとのJSON形式のHTTP通信を行うクライアントを提供する。
//
// ToolJetのトークン発行APIなど、上流サービスの呼び出しに使用する。
// タイムアウト、認証ヘッダー、リクエストIDの伝播、非2xxレスポンスの
// 型付きエラー化といった通信パターンを統一する。
package httpclient
