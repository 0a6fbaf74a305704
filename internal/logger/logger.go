package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level はログレベルを表す
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger はスレッドセーフなロガー
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
}

// Default はデフォルトのロガー
var Default = New(os.Stdout, LevelInfo)

// New は新しいロガーを作成する
func New(out io.Writer, minLevel Level) *Logger {
	return &Logger{
		out:      out,
		minLevel: minLevel,
	}
}

// SetLevel はログレベルを設定する
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// SetOutput は出力先を設定する
func (l *Logger) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = out
}

// log は指定されたレベルでログを出力する
func (l *Logger) log(level Level, source string, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.minLevel {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)

	if source != "" {
		_, _ = fmt.Fprintf(l.out, "[%s] [%s] [%s] %s\n", timestamp, level, source, msg)
	} else {
		_, _ = fmt.Fprintf(l.out, "[%s] [%s] %s\n", timestamp, level, msg)
	}
}

// Debug はデバッグログを出力する
func (l *Logger) Debug(source string, format string, args ...any) {
	l.log(LevelDebug, source, format, args...)
}

// Info は情報ログを出力する
func (l *Logger) Info(source string, format string, args ...any) {
	l.log(LevelInfo, source, format, args...)
}

// Warn は警告ログを出力する
func (l *Logger) Warn(source string, format string, args ...any) {
	l.log(LevelWarn, source, format, args...)
}

// Error はエラーログを出力する
func (l *Logger) Error(source string, format string, args ...any) {
	l.log(LevelError, source, format, args...)
}

// グローバル関数（デフォルトロガーを使用）

// Debug はデバッグログを出力する
func Debug(source string, format string, args ...any) {
	Default.Debug(source, format, args...)
}

// Info は情報ログを出力する
func Info(source string, format string, args ...any) {
	Default.Info(source, format, args...)
}

// Warn は警告ログを出力する
func Warn(source string, format string, args ...any) {
	Default.Warn(source, format, args...)
}

// Error はエラーログを出力する
func Error(source string, format string, args ...any) {
	Default.Error(source, format, args...)
}
