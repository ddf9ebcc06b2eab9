// Package pat はToolJetのPAT（Personal Access Token）発行APIを仲介する
// HTTPサービスの内部実装を提供する。
//
// ブラウザ上のデモページが、サービス用のAPI資格情報を露出させずに
// 短命な埋め込みURLを取得できるようにする。リクエストの検証、
// メールアドレスの許可リスト判定、上流APIの呼び出し、上流の応答や
// 失敗の呼び出し元向けHTTPレスポンスへの変換を担当する。
package pat
