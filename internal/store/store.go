package store

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"faultline/internal/fault"
)

// User はデモ用のユーザーレコード
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Store はユーザーストアのインターフェース
type Store interface {
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, email, name string) (User, error)
	Update(ctx context.Context, id int64, email, name string) (User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]User, error)
	Close() error
}

// FaultConfig はストアに注入する障害の設定
type FaultConfig struct {
	TimeoutRate   float64       // Get/Createでdb_timeoutを注入する確率
	SlowQueryRate float64       // Listを遅延させる確率
	SlowQueryTime time.Duration // 遅延クエリの待機時間
}

// DefaultFaultConfig はデフォルトの障害設定を返す
func DefaultFaultConfig() FaultConfig {
	return FaultConfig{
		TimeoutRate:   0.10,
		SlowQueryRate: 0.10,
		SlowQueryTime: 2 * time.Second,
	}
}

// NoFaults は障害注入なしの設定を返す
func NoFaults() FaultConfig {
	return FaultConfig{}
}

// injector は確率的な障害注入を行う
type injector struct {
	config FaultConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func newInjector(config FaultConfig) *injector {
	return &injector{
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (i *injector) roll() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rng.Float64()
}

// timeout はdb_timeout障害を注入するか判定する
func (i *injector) timeout() error {
	if i.config.TimeoutRate > 0 && i.roll() < i.config.TimeoutRate {
		return fault.New(fault.CategoryDBTimeout, "database connection lost")
	}
	return nil
}

// slowQuery は遅延クエリを注入する
// 注入された場合はctxを尊重しつつ待機する
func (i *injector) slowQuery(ctx context.Context) error {
	if i.config.SlowQueryRate <= 0 || i.roll() >= i.config.SlowQueryRate {
		return nil
	}

	timer := time.NewTimer(i.config.SlowQueryTime)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fault.New(fault.CategorySlowQuery, "query exceeded deadline")
	case <-timer.C:
		return nil
	}
}

// seedUsers は初期投入するデモユーザー
func seedUsers() []User {
	now := time.Now().UTC()
	return []User{
		{ID: 1, Email: "john@example.com", Name: "John Doe", CreatedAt: now},
		{ID: 2, Email: "jane@example.com", Name: "Jane Smith", CreatedAt: now},
		{ID: 3, Email: "bob@example.com", Name: "Bob Johnson", CreatedAt: now},
	}
}

// notFound はユーザー未検出エラーを作る
func notFound(id int64) error {
	return fault.New(fault.CategoryUserNotFound, "user with ID %d not found", id)
}

// duplicateEmail は重複メールエラーを作る
func duplicateEmail(email string) error {
	return fault.New(fault.CategoryValidation, "user with email %s already exists", email)
}
