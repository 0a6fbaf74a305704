package driver

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"faultline/internal/aggregate"
	"faultline/internal/catalog"
	"faultline/internal/events"
	"faultline/internal/fault"
	"faultline/internal/logger"
)

// Config はワークロードドライバの設定
type Config struct {
	Name        string // 実行名（レポート見出しに使う）
	Description string // 説明

	Workers       int           // 並行ワーカー数
	RequestsLimit uint64        // 記録するOutcome数の上限（0で無制限）
	Duration      time.Duration // 実行時間の上限（0で無制限）
	StressMode    bool          // ストレスモード（待機を省略して密度を上げる）

	MinDelay time.Duration // 呼び出し間の最小待機
	MaxDelay time.Duration // 呼び出し間の最大待機

	Seed int64 // 乱数シード（0で時刻ベース）
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Name:          "default",
		Description:   "Default workload run",
		Workers:       5,
		RequestsLimit: 10,
		Duration:      0,
		StressMode:    false,
		MinDelay:      100 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		Seed:          0,
	}
}

// Validate は設定を検証する
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MinDelay < 0 || c.MaxDelay < 0 {
		return fmt.Errorf("delays must be non-negative")
	}
	if c.MaxDelay < c.MinDelay {
		return fmt.Errorf("max_delay %v is less than min_delay %v", c.MaxDelay, c.MinDelay)
	}
	return nil
}

// InvokeFunc は1つのシナリオを実行してOutcomeを返す
// エラーは返さない: 呼び出しの失敗はOutcomeに畳み込む契約
type InvokeFunc func(ctx context.Context, s catalog.Scenario) aggregate.Outcome

// Summary はラン全体の実行結果
type Summary struct {
	Name        string
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	Workers     int
	StressMode  bool
	Interrupted bool
	Snapshot    aggregate.Snapshot
}

// Driver は合成ワークロードドライバ
type Driver struct {
	config  Config
	catalog *catalog.Catalog
	invoke  InvokeFunc
	agg     *aggregate.Aggregator

	eventBus *events.Bus

	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New は新しいDriverを作成する
// 設定エラーはここで検出し、ワーカー起動前に失敗させる
func New(cat *catalog.Catalog, config Config, invoke InvokeFunc) (*Driver, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, fmt.Errorf("scenario catalog is empty")
	}
	if invoke == nil {
		return nil, fmt.Errorf("invoke function is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid driver config: %w", err)
	}

	return &Driver{
		config:  config,
		catalog: cat,
		invoke:  invoke,
	}, nil
}

// SetEventBus はイベントバスを設定する
func (d *Driver) SetEventBus(bus *events.Bus) {
	d.eventBus = bus
}

// IsRunning は実行中かどうかを返す
func (d *Driver) IsRunning() bool {
	return d.running.Load()
}

// Run はワークロードを実行し、全ワーカーの終了後にSummaryを返す
// 外部キャンセルでも部分結果のSummaryを必ず返す
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	if d.running.Swap(true) {
		return nil, fmt.Errorf("driver is already running")
	}
	defer d.running.Store(false)

	d.stopCh = make(chan struct{})
	d.stopOnce = sync.Once{}
	d.agg = aggregate.New()

	runCtx := ctx
	var cancel context.CancelFunc
	if d.config.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d.config.Duration)
		defer cancel()
	}

	seed := d.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	logger.Info("driver", "Run '%s' started (workers: %d, limit: %d, duration: %v, stress: %v)",
		d.config.Name, d.config.Workers, d.config.RequestsLimit, d.config.Duration, d.config.StressMode)

	if d.eventBus != nil {
		d.eventBus.Publish(events.NewRunStartedEvent())
	}

	start := time.Now()

	for i := range d.config.Workers {
		d.wg.Add(1)
		rng := rand.New(rand.NewSource(seed + int64(i)))
		go d.worker(runCtx, i, rng)
	}

	d.wg.Wait()

	end := time.Now()

	if d.eventBus != nil {
		d.eventBus.Publish(events.NewRunFinishedEvent())
	}

	summary := &Summary{
		Name:        d.config.Name,
		StartTime:   start,
		EndTime:     end,
		Duration:    end.Sub(start),
		Workers:     d.config.Workers,
		StressMode:  d.config.StressMode,
		Interrupted: ctx.Err() != nil,
		Snapshot:    d.agg.Snapshot(),
	}

	logger.Info("driver", "Run '%s' finished (%d outcomes, error rate %.1f%%)",
		d.config.Name, summary.Snapshot.Total, summary.Snapshot.ErrorRate*100)

	return summary, nil
}

// worker は個々のワーカーゴルーチン
// 停止シグナルは毎周回の先頭と待機中に確認する
func (d *Driver) worker(ctx context.Context, id int, rng *rand.Rand) {
	defer d.wg.Done()

	source := fmt.Sprintf("worker-%d", id)

	for {
		if d.stopped() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		if d.limitReached() {
			return
		}

		s := d.catalog.Pick(rng)
		outcome := d.safeInvoke(ctx, s)
		d.agg.Record(outcome)

		if d.eventBus != nil {
			d.eventBus.Publish(events.NewInvocationEvent(source, outcome.Scenario, outcome.Category.String(), outcome.Success))
		}

		if d.limitReached() {
			return
		}

		if !d.config.StressMode {
			if !d.pause(ctx, rng) {
				return
			}
		}
	}
}

// signalStop は停止シグナルを一度だけ発火する
// チャネルのcloseなので、待機中のワーカーも即座に観測できる
func (d *Driver) signalStop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
	})
}

// stopped は停止シグナルが発火済みかどうかを返す
func (d *Driver) stopped() bool {
	select {
	case <-d.stopCh:
		return true
	default:
		return false
	}
}

// limitReached は上限到達を確認し、達していれば停止シグナルを立てる
func (d *Driver) limitReached() bool {
	if d.config.RequestsLimit > 0 && d.agg.Total() >= d.config.RequestsLimit {
		d.signalStop()
		return true
	}
	return false
}

// safeInvoke はinvokeを実行し、パニックをOutcomeに畳み込む
// 1回の呼び出しの失敗がランを落とすことはない
func (d *Driver) safeInvoke(ctx context.Context, s catalog.Scenario) (outcome aggregate.Outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("driver", "invoke panicked on %s: %v", s.Name, r)
			outcome = aggregate.Outcome{
				Scenario: s.Name,
				Success:  false,
				Category: fault.CategoryInternal,
				Latency:  time.Since(start),
			}
		}
	}()

	return d.invoke(ctx, s)
}

// pause は待機区間の間ランダムに待つ
// 停止シグナルを受けたらfalseを返して即座に抜ける
func (d *Driver) pause(ctx context.Context, rng *rand.Rand) bool {
	delay := d.config.MinDelay
	if span := d.config.MaxDelay - d.config.MinDelay; span > 0 {
		delay += time.Duration(rng.Int63n(int64(span)))
	}
	if delay <= 0 {
		return true
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-d.stopCh:
		return false
	case <-timer.C:
		return true
	}
}
