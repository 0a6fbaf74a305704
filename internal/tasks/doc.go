// Package tasks はバックグラウンドタスクの登録・実行・追跡を提供する。
//
// Managerはゴルーチンプール上でタスクを非同期実行し、
// pending → running → completed/failed/cancelled の状態を追跡する。
// 組み込みタスク（send_email, cleanup_data など）は確率的に失敗し、
// 障害検証のためのエラー源として機能する。
package tasks
