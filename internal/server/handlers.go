package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"faultline/internal/fault"
	"faultline/internal/tasks"
)

// fail はエラーを捕捉ハブ経由で分類し、envelope形式で返す
func (s *Server) fail(w http.ResponseWriter, err error) {
	var cat fault.Category
	if s.hub != nil {
		cat = s.hub.CaptureException("server", err)
	} else {
		cat = fault.Classify(err)
	}
	writeError(w, cat, err.Error())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"service": "faultline demo application",
		"endpoints": []string{
			"/health",
			"/test/{category}",
			"/api/v1/users",
			"/api/v1/payments",
			"/api/v1/notifications",
			"/api/v1/weather/{city}",
			"/api/v1/reports",
			"/api/v1/tasks",
			"/metrics",
			"/ws",
		},
	})
}

// handleHealth は設定確率でランダムに失敗するヘルスチェック
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.config.HealthFailureRate > 0 && s.roll() < s.config.HealthFailureRate {
		s.fail(w, fault.New(fault.CategoryInternal, "health check failed"))
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleTrigger は指定カテゴリのエラーを意図的に発生させる
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("category")
	cat, ok := fault.ParseCategory(name)
	if !ok {
		writeError(w, fault.CategoryValidation, "unknown error trigger: "+name)
		return
	}
	s.fail(w, fault.Trigger(cat))
}

// handleExternalProbe は実際の外部API呼び出しで障害を観測する
// シミュレーションではなく、設定されたベースURLへ本物のGETを発行する
func (s *Server) handleExternalProbe(w http.ResponseWriter, r *http.Request) {
	probe := r.PathValue("probe")

	var endpoint string
	switch probe {
	case "timeout":
		endpoint = "/delay/10"
	case "404":
		endpoint = "/status/404"
	case "500":
		endpoint = "/status/500"
	case "ok":
		endpoint = "/get"
	default:
		writeError(w, fault.CategoryValidation, "unknown external probe: "+probe)
		return
	}

	body, err := s.extapi.CallExternal(r.Context(), endpoint)
	if err != nil {
		s.fail(w, err)
		return
	}

	var data any = string(body)
	if json.Valid(body) {
		data = json.RawMessage(body)
	}
	writeSuccess(w, http.StatusOK, data)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"users": users, "count": len(users)})
}

type userRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.CategoryValidation, "invalid request body")
		return
	}

	user, err := s.store.Create(r.Context(), req.Email, req.Name)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, user)
}

// userID はパスパラメータからユーザーIDを取り出す
func userID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fault.New(fault.CategoryValidation, "invalid user ID %q", raw)
	}
	return id, nil
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	user, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.CategoryValidation, "invalid request body")
		return
	}

	user, err := s.store.Update(r.Context(), id, req.Email, req.Name)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int64{"deleted": id})
}

type paymentRequest struct {
	CardNumber string  `json:"card_number"`
	Amount     float64 `json:"amount"`
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.CategoryValidation, "invalid request body")
		return
	}

	payment, err := s.extapi.ProcessPayment(r.Context(), req.CardNumber, req.Amount)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, payment)
}

type notificationRequest struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.CategoryValidation, "invalid request body")
		return
	}

	notif, err := s.extapi.SendNotification(r.Context(), req.UserID, req.Message)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, notif)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	weather, err := s.extapi.FetchWeather(r.Context(), r.PathValue("city"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, weather)
}

// handleReport はレポート生成をバックグラウンドタスクとして起動する
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id, err := s.tasks.Start("generate_report")
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusAccepted, map[string]string{"task_id": id})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	infos := s.tasks.List()
	writeSuccess(w, http.StatusOK, map[string]any{
		"tasks":     infos,
		"count":     len(infos),
		"available": s.tasks.Names(),
	})
}

type taskRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleStartTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.CategoryValidation, "invalid request body")
		return
	}

	id, err := s.tasks.Start(req.Name)
	if errors.Is(err, tasks.ErrUnknownTask) {
		writeError(w, fault.CategoryValidation, "unknown task name: "+req.Name)
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusAccepted, map[string]string{"task_id": id, "name": req.Name})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	info, err := s.tasks.Get(r.PathValue("id"))
	if errors.Is(err, tasks.ErrNotFound) {
		writeErrorStatus(w, http.StatusNotFound, "not_found", "task not found")
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, info)
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.tasks.Cancel(id)
	if errors.Is(err, tasks.ErrNotFound) {
		writeErrorStatus(w, http.StatusNotFound, "not_found", "task not found")
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"cancelled": id})
}
