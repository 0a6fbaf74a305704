package tasks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"faultline/internal/events"
	"faultline/internal/fault"
	"faultline/internal/logger"
)

// Status はバックグラウンドタスクの状態
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// ErrNotFound は存在しないタスクIDを示す
var ErrNotFound = errors.New("task not found")

// ErrUnknownTask は未登録のタスク名を示す
var ErrUnknownTask = errors.New("unknown task name")

// Func はバックグラウンドタスクの本体
// 結果メッセージまたはエラーを返す
type Func func(ctx context.Context) (string, error)

// Info はタスクの状態スナップショット
type Info struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	Result     string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// task はManager内部のタスク表現
type task struct {
	info   Info
	cancel context.CancelFunc
}

// Manager はバックグラウンドタスクを登録・実行・追跡する
type Manager struct {
	mu       sync.RWMutex
	tasks    map[string]*task
	registry map[string]Func

	pool *pool
	bus  *events.Bus
	log  *logger.Logger
}

// NewManager はManagerを作成する
// busはnil可。組み込みタスクは登録済みの状態で返る
func NewManager(workers int, bus *events.Bus) *Manager {
	m := &Manager{
		tasks:    make(map[string]*task),
		registry: make(map[string]Func),
		pool:     newPool(workers),
		bus:      bus,
		log:      logger.Default,
	}
	registerBuiltins(m)
	return m
}

// SetLogger はロガーを差し替える
func (m *Manager) SetLogger(log *logger.Logger) {
	if log != nil {
		m.log = log
	}
}

// Run はManagerを起動する
func (m *Manager) Run(ctx context.Context) {
	m.pool.start(ctx)
	m.log.Info("tasks", "タスクマネージャ起動 (workers=%d)", m.pool.numWorkers)
}

// Shutdown は実行中のタスクを待って停止する
func (m *Manager) Shutdown() {
	m.pool.stop()
	m.log.Info("tasks", "タスクマネージャ停止")
}

// Register はタスク関数を名前で登録する
func (m *Manager) Register(name string, fn Func) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = fn
}

// Names は登録済みタスク名をソート順で返す
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.registry))
	for name := range m.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start は登録済みタスクを非同期に起動し、タスクIDを返す
func (m *Manager) Start(name string) (string, error) {
	m.mu.Lock()
	fn, ok := m.registry[name]
	if !ok {
		m.mu.Unlock()
		return "", ErrUnknownTask
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{
		info: Info{
			ID:        uuid.NewString(),
			Name:      name,
			Status:    StatusPending,
			CreatedAt: time.Now().UTC(),
		},
		cancel: cancel,
	}
	m.tasks[t.info.ID] = t
	m.mu.Unlock()

	id := t.info.ID
	submitted := m.pool.submit(func() {
		m.execute(ctx, id, name, fn)
	})
	if !submitted {
		cancel()
		m.finish(id, StatusFailed, "", "task queue unavailable")
		return "", fault.New(fault.CategoryInternal, "task queue unavailable")
	}

	return id, nil
}

// execute はタスク本体をパニック保護つきで実行する
func (m *Manager) execute(ctx context.Context, id, name string, fn Func) {
	if !m.transition(id, StatusPending, StatusRunning) {
		return // 実行前にキャンセルされた
	}
	m.publish(events.NewTaskStartedEvent(id, name))
	m.log.Debug("tasks", "タスク開始: %s (%s)", name, id)

	var result string
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fault.New(fault.CategoryInternal, "task panicked: %v", r)
			}
		}()
		result, err = fn(ctx)
		return err
	}()

	switch {
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		m.finish(id, StatusCancelled, "", "cancelled")
		m.log.Info("tasks", "タスクキャンセル: %s (%s)", name, id)
	case err != nil:
		m.finish(id, StatusFailed, "", err.Error())
		m.publish(events.NewTaskFailedEvent(id, name, err))
		m.log.Warn("tasks", "タスク失敗: %s (%s): %v", name, id, err)
	default:
		m.finish(id, StatusCompleted, result, "")
		m.publish(events.NewTaskCompletedEvent(id, name))
		m.log.Debug("tasks", "タスク完了: %s (%s)", name, id)
	}
}

// transition は状態を条件つきで遷移させる
func (m *Manager) transition(id string, from, to Status) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.info.Status != from {
		return false
	}
	t.info.Status = to
	return true
}

// finish は終端状態を記録する
func (m *Manager) finish(id string, status Status, result, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return
	}
	t.info.Status = status
	t.info.Result = result
	t.info.Error = errMsg
	t.info.FinishedAt = time.Now().UTC()
}

// Get はタスクの現在状態を返す
func (m *Manager) Get(id string) (Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok {
		return Info{}, ErrNotFound
	}
	return t.info, nil
}

// Cancel はpending/runningのタスクをキャンセルする
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}

	switch t.info.Status {
	case StatusPending:
		t.info.Status = StatusCancelled
		t.info.FinishedAt = time.Now().UTC()
	case StatusRunning:
		// 実行側がctx.Doneを見てcancelled遷移する
	default:
		m.mu.Unlock()
		return fault.New(fault.CategoryBusinessLogic, "task %s already %s", id, t.info.Status)
	}
	m.mu.Unlock()

	t.cancel()
	return nil
}

// List は全タスクを作成時刻順で返す
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.tasks))
	for _, t := range m.tasks {
		infos = append(infos, t.info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

func (m *Manager) publish(event events.Event) {
	if m.bus != nil {
		m.bus.Publish(event)
	}
}
