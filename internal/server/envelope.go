package server

import (
	"encoding/json"
	"net/http"
	"time"

	"faultline/internal/fault"
	"faultline/internal/logger"
)

// envelope は全エンドポイント共通のレスポンス形式
type envelope struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *errDetail `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

type errDetail struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// writeSuccess は成功レスポンスを書き込む
func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// writeError は障害カテゴリつきのエラーレスポンスを書き込む
func writeError(w http.ResponseWriter, cat fault.Category, message string) {
	writeErrorStatus(w, statusFor(cat), cat.String(), message)
}

// writeErrorStatus はステータスとカテゴリ名を直接指定してエラーを書き込む
func writeErrorStatus(w http.ResponseWriter, status int, category, message string) {
	writeJSON(w, status, envelope{
		Success:   false,
		Error:     &errDetail{Category: category, Message: message},
		Timestamp: time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("server", "JSONエンコード失敗: %v", err)
	}
}

// statusFor は障害カテゴリをHTTPステータスへ対応づける
func statusFor(cat fault.Category) int {
	switch cat {
	case fault.CategoryValidation:
		return http.StatusBadRequest
	case fault.CategoryUserNotFound:
		return http.StatusNotFound
	case fault.CategoryBusinessLogic:
		return http.StatusUnprocessableEntity
	case fault.CategoryPayment:
		return http.StatusPaymentRequired
	case fault.CategoryExternalAPI:
		return http.StatusBadGateway
	case fault.CategoryDBTimeout, fault.CategorySlowQuery, fault.CategoryTransport:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
