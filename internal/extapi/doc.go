// Package extapi は障害を起こしうる外部サービスのシミュレータを提供する。
//
// 決済・通知・天気の各サービスは設定した確率で失敗し、
// fault.Errorとして分類済みのエラーを返す。CallExternalのみ
// 実際のHTTP呼び出しを行う。
//
// リトライやバックオフは持たない。失敗を発生させること自体が目的のため。
package extapi
