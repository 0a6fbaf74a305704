package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"faultline/internal/fault"
)

// Memory はインメモリのユーザーストア
type Memory struct {
	faults *injector

	mu     sync.RWMutex
	users  map[int64]User
	nextID int64
}

// NewMemory は新しいインメモリストアを作成する
// デモユーザーを初期投入する
func NewMemory(faults FaultConfig) *Memory {
	m := &Memory{
		faults: newInjector(faults),
		users:  make(map[int64]User),
	}
	for _, u := range seedUsers() {
		m.users[u.ID] = u
		if u.ID > m.nextID {
			m.nextID = u.ID
		}
	}
	return m
}

// Get はIDでユーザーを取得する
func (m *Memory) Get(ctx context.Context, id int64) (User, error) {
	if err := m.faults.timeout(); err != nil {
		return User{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return User{}, notFound(id)
	}
	return u, nil
}

// Create は新しいユーザーを作成する
func (m *Memory) Create(ctx context.Context, email, name string) (User, error) {
	if err := fault.ValidateEmail(email); err != nil {
		return User{}, err
	}
	if name == "" {
		return User{}, fault.New(fault.CategoryValidation, "name cannot be empty")
	}
	if err := m.faults.timeout(); err != nil {
		return User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return User{}, duplicateEmail(email)
		}
	}

	m.nextID++
	u := User{
		ID:        m.nextID,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	m.users[u.ID] = u
	return u, nil
}

// Update はユーザーを更新する
// 空のフィールドは変更しない
func (m *Memory) Update(ctx context.Context, id int64, email, name string) (User, error) {
	if email != "" {
		if err := fault.ValidateEmail(email); err != nil {
			return User{}, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return User{}, notFound(id)
	}

	if email != "" {
		u.Email = email
	}
	if name != "" {
		u.Name = name
	}
	m.users[id] = u
	return u, nil
}

// Delete はユーザーを削除する
func (m *Memory) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return notFound(id)
	}
	delete(m.users, id)
	return nil
}

// List は全ユーザーをID順で返す
func (m *Memory) List(ctx context.Context) ([]User, error) {
	if err := m.faults.slowQuery(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})
	return users, nil
}

// Close は何もしない（インターフェース充足のため）
func (m *Memory) Close() error {
	return nil
}
