// Package driver は合成ワークロードドライバを提供する。
//
// ドライバはN個の並行ワーカーを起動し、各ワーカーは重み付きで
// シナリオを選択して呼び出し、結果をAggregatorに記録し、
// ランダムな間隔で待機するループを回す。
//
// # 停止条件
//
// - 記録数の上限（RequestsLimit）に到達
// - 実行時間（Duration）が経過
// - 外部キャンセル（シグナル等）
//
// いずれの場合も全ワーカーの終了を待ってからSummaryを返す。
// 途中終了でも部分結果は破棄されない。
//
// # 呼び出し契約
//
// InvokeFuncはエラーを返さない。通信障害はOutcomeの
// transportカテゴリに、パニックはinternalカテゴリに
// 畳み込まれ、ランを中断させない。
//
// # 使用例
//
//	cat, _ := catalog.New(catalog.Default())
//	d, err := driver.New(cat, driver.LoadTest(), invoker.Invoke)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	summary, err := d.Run(ctx)
//	fmt.Println(summary.Report())
package driver
