package tasks

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// pool はタスク実行用のゴルーチンプール
type pool struct {
	numWorkers int
	jobs       chan func()
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
	stopping   atomic.Bool
	mu         sync.Mutex
}

// newPool はプールを作成する。numWorkers が 0 の場合は CPU 数を使用
func newPool(numWorkers int) *pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &pool{
		numWorkers: numWorkers,
		jobs:       make(chan func(), numWorkers*16),
	}
}

// start はワーカーを起動する
func (p *pool) start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.started = true

	for range p.numWorkers {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			job()
		}
	}
}

// submit はジョブをキューに入れる。未起動・停止中・満杯なら false
func (p *pool) submit(job func()) bool {
	if p.stopping.Load() {
		return false
	}

	p.mu.Lock()
	started := p.started
	ctx := p.ctx
	p.mu.Unlock()
	if !started {
		return false
	}

	select {
	case <-ctx.Done():
		return false
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// stop は実行中のジョブを待ってプールを停止する
func (p *pool) stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.stopping.Store(true)
	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	p.started = false
	p.stopping.Store(false)
	p.mu.Unlock()
}
