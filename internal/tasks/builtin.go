package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"faultline/internal/fault"
)

// builtinRng は組み込みタスクの障害注入用乱数源
var builtinRng = struct {
	mu  sync.Mutex
	rng *rand.Rand
}{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}

func roll() float64 {
	builtinRng.mu.Lock()
	defer builtinRng.mu.Unlock()
	return builtinRng.rng.Float64()
}

func randomDuration(min, max time.Duration) time.Duration {
	builtinRng.mu.Lock()
	defer builtinRng.mu.Unlock()
	if max <= min {
		return min
	}
	return min + time.Duration(builtinRng.rng.Int63n(int64(max-min)))
}

// simulateWork はctxを監視しながら処理時間を消費する
func simulateWork(ctx context.Context, min, max time.Duration) error {
	timer := time.NewTimer(randomDuration(min, max))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// builtin は組み込みタスクの定義
type builtin struct {
	name     string
	min, max time.Duration
	failRate float64
	failWith fault.Category
	result   string
}

var builtins = []builtin{
	{"send_email", 100 * time.Millisecond, 500 * time.Millisecond, 0.10, fault.CategoryExternalAPI, "email sent"},
	{"cleanup_data", 200 * time.Millisecond, 800 * time.Millisecond, 0.05, fault.CategoryDBTimeout, "stale records removed"},
	{"process_dataset", 300 * time.Millisecond, 1 * time.Second, 0.15, fault.CategoryInternal, "dataset processed"},
	{"generate_report", 200 * time.Millisecond, 700 * time.Millisecond, 0.10, fault.CategoryBusinessLogic, "report generated"},
	{"sync_data", 100 * time.Millisecond, 600 * time.Millisecond, 0.20, fault.CategoryExternalAPI, "data synchronized"},
}

// registerBuiltins は組み込みタスクをManagerに登録する
func registerBuiltins(m *Manager) {
	for _, b := range builtins {
		m.Register(b.name, b.fn())
	}
}

func (b builtin) fn() Func {
	return func(ctx context.Context) (string, error) {
		if err := simulateWork(ctx, b.min, b.max); err != nil {
			return "", err
		}
		if b.failRate > 0 && roll() < b.failRate {
			return "", fault.New(b.failWith, "%s failed", b.name)
		}
		return fmt.Sprintf("%s: %s", b.name, b.result), nil
	}
}
