package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"faultline/internal/fault"
)

// SQLite はSQLiteバックエンドのユーザーストア
type SQLite struct {
	db     *sql.DB
	faults *injector
}

// NewSQLite はSQLiteストアを開く
// パスに":memory:"を渡すとインメモリDBになる
func NewSQLite(path string, faults FaultConfig) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// インメモリDBはコネクションごとに別DBになるため1本に制限する
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	// WALモードを有効化
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLite{
		db:     db,
		faults: newInjector(faults),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	if err := s.seed(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding failed: %w", err)
	}

	return s, nil
}

// migrate はテーブルを作成する
func (s *SQLite) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

// seed はデモユーザーを初期投入する
func (s *SQLite) seed() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, u := range seedUsers() {
		_, err := s.db.Exec(
			"INSERT INTO users (email, name, created_at) VALUES (?, ?, ?)",
			u.Email, u.Name, u.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Get はIDでユーザーを取得する
func (s *SQLite) Get(ctx context.Context, id int64) (User, error) {
	if err := s.faults.timeout(); err != nil {
		return User{}, err
	}

	var u User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, name, created_at FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return User{}, notFound(id)
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// Create は新しいユーザーを作成する
func (s *SQLite) Create(ctx context.Context, email, name string) (User, error) {
	if err := fault.ValidateEmail(email); err != nil {
		return User{}, err
	}
	if name == "" {
		return User{}, fault.New(fault.CategoryValidation, "name cannot be empty")
	}
	if err := s.faults.timeout(); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, name, created_at) VALUES (?, ?, ?)",
		email, name, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return User{}, duplicateEmail(email)
		}
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("failed to read inserted id: %w", err)
	}

	return User{ID: id, Email: email, Name: name, CreatedAt: now}, nil
}

// Update はユーザーを更新する
// 空のフィールドは変更しない
func (s *SQLite) Update(ctx context.Context, id int64, email, name string) (User, error) {
	if email != "" {
		if err := fault.ValidateEmail(email); err != nil {
			return User{}, err
		}
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	if email != "" {
		u.Email = email
	}
	if name != "" {
		u.Name = name
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE users SET email = ?, name = ? WHERE id = ?",
		u.Email, u.Name, id,
	)
	if err != nil {
		return User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// Delete はユーザーを削除する
func (s *SQLite) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

// List は全ユーザーをID順で返す
func (s *SQLite) List(ctx context.Context) ([]User, error) {
	if err := s.faults.slowQuery(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, email, name, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// Close はDB接続を閉じる
func (s *SQLite) Close() error {
	return s.db.Close()
}
