package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"faultline/internal/aggregate"
	"faultline/internal/catalog"
	"faultline/internal/fault"
)

// Invoker はシナリオを1回実行して結果を返す
type Invoker interface {
	Invoke(ctx context.Context, s catalog.Scenario) aggregate.Outcome
}

// envelope はデモアプリのJSONレスポンス形式
type envelope struct {
	Success bool `json:"success"`
	Error   *struct {
		Category string `json:"category"`
		Message  string `json:"message"`
	} `json:"error"`
}

// HTTP はデモアプリへHTTP経由でシナリオを実行するInvoker
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP はHTTP Invokerを作成する
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTP{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Ping はターゲットへの到達性を確認する
// レスポンスが返ればステータスに関わらず到達可能とみなす
func (h *HTTP) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("invalid target URL %q: %w", h.baseURL, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("target %s is unreachable: %w", h.baseURL, err)
	}
	resp.Body.Close()
	return nil
}

// Invoke はシナリオのターゲットへGETを発行し、結果を分類する
// エラーは返さず、必ずOutcomeに変換する
func (h *HTTP) Invoke(ctx context.Context, s catalog.Scenario) (outcome aggregate.Outcome) {
	start := time.Now()

	outcome.Scenario = s.Name
	defer func() {
		outcome.Latency = time.Since(start)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+s.Target, nil)
	if err != nil {
		outcome.Category = fault.CategoryInternal
		return outcome
	}

	resp, err := h.client.Do(req)
	if err != nil {
		outcome.Category = fault.Classify(err)
		return outcome
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome.Category = fault.CategoryTransport
		return outcome
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		outcome.Success = true
		return outcome
	}

	outcome.Category = categorize(resp.StatusCode, body)
	return outcome
}

// categorize はエラーレスポンスから障害カテゴリを決定する
// レスポンスのenvelopeを優先し、解釈できなければステータスから推定する
func categorize(status int, body []byte) fault.Category {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		if cat, ok := fault.ParseCategory(env.Error.Category); ok {
			return cat
		}
	}

	switch status {
	case http.StatusNotFound:
		return fault.CategoryUserNotFound
	case http.StatusBadRequest:
		return fault.CategoryValidation
	case http.StatusGatewayTimeout:
		return fault.CategoryDBTimeout
	default:
		return fault.CategoryInternal
	}
}
