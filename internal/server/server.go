package server

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/websocket"

	"faultline/internal/capture"
	"faultline/internal/events"
	"faultline/internal/extapi"
	"faultline/internal/logger"
	"faultline/internal/store"
	"faultline/internal/tasks"
)

// Config はデモアプリサーバーの設定
type Config struct {
	Addr              string  // リッスンアドレス
	HealthFailureRate float64 // ヘルスチェックのランダム失敗率
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		HealthFailureRate: 0.05,
	}
}

// Server は意図的に障害を起こすデモアプリのHTTPサーバー
type Server struct {
	config Config
	store  store.Store
	extapi *extapi.Client
	tasks  *tasks.Manager
	hub    *capture.Hub
	bus    *events.Bus
	log    *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand

	server *http.Server
}

// New はサーバーを作成する
func New(config Config, s store.Store, ext *extapi.Client, tm *tasks.Manager, hub *capture.Hub, bus *events.Bus) *Server {
	return &Server{
		config: config,
		store:  s,
		extapi: ext,
		tasks:  tm,
		hub:    hub,
		bus:    bus,
		log:    logger.Default,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetLogger はロガーを差し替える
func (s *Server) SetLogger(log *logger.Logger) {
	if log != nil {
		s.log = log
	}
}

func (s *Server) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	app := http.NewServeMux()

	app.HandleFunc("GET /{$}", s.handleIndex)
	app.HandleFunc("GET /health", s.handleHealth)
	app.HandleFunc("GET /test/{category}", s.handleTrigger)
	app.HandleFunc("GET /test/external/{probe}", s.handleExternalProbe)

	app.HandleFunc("GET /api/v1/users", s.handleListUsers)
	app.HandleFunc("POST /api/v1/users", s.handleCreateUser)
	app.HandleFunc("GET /api/v1/users/{id}", s.handleGetUser)
	app.HandleFunc("PUT /api/v1/users/{id}", s.handleUpdateUser)
	app.HandleFunc("DELETE /api/v1/users/{id}", s.handleDeleteUser)

	app.HandleFunc("POST /api/v1/payments", s.handlePayment)
	app.HandleFunc("POST /api/v1/notifications", s.handleNotification)
	app.HandleFunc("GET /api/v1/weather/{city}", s.handleWeather)
	app.HandleFunc("POST /api/v1/reports", s.handleReport)

	app.HandleFunc("GET /api/v1/tasks", s.handleListTasks)
	app.HandleFunc("POST /api/v1/tasks", s.handleStartTask)
	app.HandleFunc("GET /api/v1/tasks/{id}", s.handleGetTask)
	app.HandleFunc("DELETE /api/v1/tasks/{id}", s.handleCancelTask)

	// /metricsと/wsは計測対象外
	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/ws", websocket.Handler(s.handleWebSocket))
	root.Handle("/", instrument(app))
	return root
}

// Start はサーバーを起動し、ctxのキャンセルでシャットダウンする
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.Handler(),
	}

	s.log.Info("server", "デモアプリ起動 http://%s", s.config.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// handleWebSocket はイベントバスの内容を接続クライアントへ流す
func (s *Server) handleWebSocket(ws *websocket.Conn) {
	defer ws.Close()

	if s.bus == nil {
		return
	}

	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)

	// クライアント切断の検知用
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg string
			if err := websocket.Message.Receive(ws, &msg); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := websocket.Message.Send(ws, string(data)); err != nil {
				return
			}
		}
	}
}
