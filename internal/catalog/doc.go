// Package catalog はワークロードドライバが選択するシナリオ一覧を提供する。
//
// 各シナリオは名前・対象エンドポイント・重みを持つ。カタログは
// 起動時に一度だけ構築され、以後は読み取り専用となる。
//
// # 重み付き選択
//
// 重みを累積分布に正規化し、[0, 総重み) の一様乱数を引いて
// 累積重みが初めて超えるシナリオを返す。シードを固定した乱数源を
// 渡せば選択は決定的になる。
//
// # 使用例
//
//	cat, err := catalog.New(catalog.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rng := rand.New(rand.NewSource(42))
//	s := cat.Pick(rng)
package catalog
