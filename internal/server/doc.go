// Package server は意図的に障害を起こすデモアプリのHTTPサーバーを提供する。
//
// 全エンドポイントは {success, data|error, timestamp} 形式のJSONを返し、
// エラーには障害カテゴリが付与される。/test/{category} で任意の
// カテゴリのエラーを意図的に発生させられる。
// ハンドラ内のエラーはすべて捕捉ハブを経由して記録される。
package server
