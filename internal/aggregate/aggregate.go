package aggregate

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"faultline/internal/fault"
)

// Outcome は1回の呼び出しの記録
type Outcome struct {
	Scenario string
	Success  bool
	Category fault.Category
	Latency  time.Duration
}

// ScenarioCounts はシナリオごとの集計値
type ScenarioCounts struct {
	Total   uint64
	Success uint64
	Failed  uint64
}

// Aggregator は全ワーカーのOutcomeを集計する
type Aggregator struct {
	total          atomic.Uint64
	successTotal   atomic.Uint64
	failedTotal    atomic.Uint64
	totalLatencyNs atomic.Uint64

	mu                sync.RWMutex
	startTime         time.Time
	byScenario        map[string]*ScenarioCounts
	byCategory        map[fault.Category]uint64
	latencies         []time.Duration
	maxLatencySamples int
}

// New は新しいAggregatorを作成する
func New() *Aggregator {
	return &Aggregator{
		startTime:         time.Now(),
		byScenario:        make(map[string]*ScenarioCounts),
		byCategory:        make(map[fault.Category]uint64),
		latencies:         make([]time.Duration, 0, 1000),
		maxLatencySamples: 1000,
	}
}

// Record はOutcomeを記録する
// 全ワーカーから並行に呼ばれても加算を失わない
func (a *Aggregator) Record(o Outcome) {
	a.total.Add(1)
	if o.Success {
		a.successTotal.Add(1)
	} else {
		a.failedTotal.Add(1)
	}
	a.totalLatencyNs.Add(uint64(o.Latency.Nanoseconds()))

	a.mu.Lock()
	counts, ok := a.byScenario[o.Scenario]
	if !ok {
		counts = &ScenarioCounts{}
		a.byScenario[o.Scenario] = counts
	}
	counts.Total++
	if o.Success {
		counts.Success++
	} else {
		counts.Failed++
		a.byCategory[o.Category]++
	}
	if len(a.latencies) < a.maxLatencySamples {
		a.latencies = append(a.latencies, o.Latency)
	}
	a.mu.Unlock()
}

// Total は総記録数を返す
func (a *Aggregator) Total() uint64 {
	return a.total.Load()
}

// Failed は失敗数を返す
func (a *Aggregator) Failed() uint64 {
	return a.failedTotal.Load()
}

// ErrorRate はエラー率を返す（0.0〜1.0）
func (a *Aggregator) ErrorRate() float64 {
	total := a.total.Load()
	if total == 0 {
		return 0
	}
	return float64(a.failedTotal.Load()) / float64(total)
}

// AverageLatency は平均レイテンシを返す
func (a *Aggregator) AverageLatency() time.Duration {
	total := a.total.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(a.totalLatencyNs.Load() / total)
}

// P99Latency はP99レイテンシを返す（サンプルベース）
func (a *Aggregator) P99Latency() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(a.latencies))
	copy(sorted, a.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Snapshot は集計のスナップショット
type Snapshot struct {
	Total          uint64
	Success        uint64
	Failed         uint64
	ErrorRate      float64
	AverageLatency time.Duration
	P99Latency     time.Duration
	Elapsed        time.Duration
	ByScenario     map[string]ScenarioCounts
	ByCategory     map[string]uint64
}

// Snapshot は現在の集計のスナップショットを返す
// Record済みの値はすべて反映された一貫したコピーになる
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	byScenario := make(map[string]ScenarioCounts, len(a.byScenario))
	for name, counts := range a.byScenario {
		byScenario[name] = *counts
	}
	byCategory := make(map[string]uint64, len(a.byCategory))
	for cat, count := range a.byCategory {
		byCategory[cat.String()] = count
	}
	a.mu.RUnlock()

	return Snapshot{
		Total:          a.total.Load(),
		Success:        a.successTotal.Load(),
		Failed:         a.failedTotal.Load(),
		ErrorRate:      a.ErrorRate(),
		AverageLatency: a.AverageLatency(),
		P99Latency:     a.P99Latency(),
		Elapsed:        time.Since(a.startTime),
		ByScenario:     byScenario,
		ByCategory:     byCategory,
	}
}
