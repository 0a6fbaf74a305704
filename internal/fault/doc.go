// Package fault は合成エラーの閉じた分類と生成を提供する。
//
// デモアプリケーションが意図的に発生させるエラーは、すべてこの
// パッケージのカテゴリに分類される。例外クラスの階層ではなく、
// Outcomeに載せて返すタグ付きの値として扱う。
//
// # カテゴリ
//
// - division_by_zero: ゼロ除算
// - key_error: 存在しないキーの参照
// - type_error: 型変換の失敗
// - validation: 入力検証エラー
// - business_logic: ビジネスロジックエラー
// - user_not_found: ユーザー未検出
// - payment: 決済処理の失敗
// - external_api: 外部API呼び出しの失敗
// - db_timeout: データベース接続障害
// - slow_query: 遅延クエリ
// - transport: 通信レベルの障害（invoke側で分類）
// - internal: 予期しない内部エラー
//
// # 使用例
//
//	err := fault.Trigger(fault.CategoryPayment)
//	cat := fault.Classify(err) // CategoryPayment
package fault
