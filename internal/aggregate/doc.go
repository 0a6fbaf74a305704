// Package aggregate は呼び出し結果の並行集計を提供する。
//
// Aggregatorは全ワーカーから並行にRecordされるOutcomeを
// アトミックカウンタとミューテックス保護のマップで集計する。
// 個々のOutcomeは保持せず、集計値のみを持つ。
//
// # 使用例
//
//	agg := aggregate.New()
//	agg.Record(aggregate.Outcome{Scenario: "payment-failure", Success: false, Category: fault.CategoryPayment})
//	snap := agg.Snapshot()
//	fmt.Printf("error rate: %.2f%%\n", snap.ErrorRate*100)
package aggregate
