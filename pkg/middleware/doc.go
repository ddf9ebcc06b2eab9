// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// ブラウザから呼び出されるトークン発行エンドポイント向けのCORS設定、
// パニックリカバリ、リクエストIDの付与、管理用エンドポイントの
// JWT認証など、サービス全体で共通して使用するミドルウェアを含む。
package middleware
