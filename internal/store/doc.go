// Package store はデモアプリケーションのユーザーストアを提供する。
//
// 障害を意図的に発生させるためのモックデータ層であり、
// 設定した確率でdb_timeoutエラーや遅延クエリを注入する。
// 正しさの保証はデモの目的ではない。
//
// # バックエンド
//
// - Memory: マップベースのインメモリストア
// - SQLite: mattn/go-sqlite3 によるファイル/インメモリDB
//
// どちらもデモユーザー3件を初期投入する。
//
// # 使用例
//
//	s := store.NewMemory(store.DefaultFaultConfig())
//	user, err := s.Get(ctx, 1)
package store
