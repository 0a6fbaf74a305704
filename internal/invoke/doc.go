// Package invoke はワークロードドライバとデモアプリの間の実行層を提供する。
//
// HTTPはデモアプリ（または互換サーバー）へ実際のリクエストを発行し、
// Localはサーバーを立てずにプロセス内で同じ振り分けを行う。
// どちらもエラーを返さず、結果を必ずaggregate.Outcomeへ分類する。
// 通信障害はtransport、パース不能なレスポンスはステータスコードから推定する。
package invoke
