// Package audit はトークン発行リクエストの結果を記録する監査ログを提供する。
//
// 監査ログは任意機能であり、保存先が設定されていない場合は
// 何も永続化しないRecorderを使う。
package audit
