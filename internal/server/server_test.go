package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"faultline/internal/capture"
	"faultline/internal/events"
	"faultline/internal/extapi"
	"faultline/internal/store"
	"faultline/internal/tasks"
)

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Category string `json:"category"`
		Message  string `json:"message"`
	} `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

func newTestServer(t *testing.T) (*httptest.Server, *tasks.Manager) {
	t.Helper()

	bus := events.NewBus()
	tm := tasks.NewManager(2, bus)
	tm.Run(context.Background())
	t.Cleanup(tm.Shutdown)
	t.Cleanup(bus.Close)

	cfg := DefaultConfig()
	cfg.HealthFailureRate = 0

	srv := New(cfg,
		store.NewMemory(store.NoFaults()),
		extapi.New(extapi.Reliable()),
		tm,
		capture.NewHub(capture.DefaultConfig(), bus),
		bus,
	)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tm
}

func decode(t *testing.T, resp *http.Response) response {
	t.Helper()
	defer resp.Body.Close()

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if r.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
	return r
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	r := decode(t, resp)
	if !r.Success {
		t.Error("expected success envelope")
	}
}

func TestHealthFailureInjection(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	tm := tasks.NewManager(1, nil)

	cfg := DefaultConfig()
	cfg.HealthFailureRate = 1.0
	srv := New(cfg, store.NewMemory(store.NoFaults()), extapi.New(extapi.Reliable()), tm,
		capture.NewHub(capture.DefaultConfig(), bus), bus)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500 with failure rate 1.0, got %d", resp.StatusCode)
	}
	r := decode(t, resp)
	if r.Success || r.Error == nil {
		t.Fatal("expected error envelope")
	}
	if r.Error.Category != "internal" {
		t.Errorf("expected internal category, got %s", r.Error.Category)
	}
}

func TestTriggerEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	cases := []struct {
		category string
		status   int
	}{
		{"division_by_zero", http.StatusInternalServerError},
		{"key_error", http.StatusInternalServerError},
		{"validation", http.StatusBadRequest},
		{"user_not_found", http.StatusNotFound},
		{"payment", http.StatusPaymentRequired},
		{"db_timeout", http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.category, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/test/" + tc.category)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Errorf("expected %d, got %d", tc.status, resp.StatusCode)
			}
			r := decode(t, resp)
			if r.Success || r.Error == nil {
				t.Fatal("expected error envelope")
			}
			if r.Error.Category != tc.category {
				t.Errorf("expected category %s, got %s", tc.category, r.Error.Category)
			}
		})
	}
}

func TestTriggerUnknownCategory(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/test/no_such_thing")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUserCRUDOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	base := ts.URL + "/api/v1/users"

	resp, err := http.Get(base)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	r := decode(t, resp)
	if !r.Success {
		t.Fatal("expected success listing users")
	}

	resp = postJSON(t, base, map[string]string{"email": "alice@example.com", "name": "Alice"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	r = decode(t, resp)

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(r.Data, &created); err != nil {
		t.Fatalf("failed to decode created user: %v", err)
	}

	resp, err = http.Get(fmt.Sprintf("%s/%d", base, created.ID))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	decode(t, resp)

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/%d", base, created.ID), nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 on delete, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUserErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	base := ts.URL + "/api/v1/users"

	resp, err := http.Get(base + "/99999")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	r := decode(t, resp)
	if r.Error == nil || r.Error.Category != "user_not_found" {
		t.Errorf("expected user_not_found category, got %+v", r.Error)
	}

	resp = postJSON(t, base, map[string]string{"email": "not-an-email", "name": "Bad"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid email, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(base + "/abc")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric ID, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPaymentEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	url := ts.URL + "/api/v1/payments"

	resp := postJSON(t, url, map[string]any{"card_number": "4111111111111111", "amount": 25.0})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	r := decode(t, resp)
	if !r.Success {
		t.Error("expected successful payment")
	}

	resp = postJSON(t, url, map[string]any{"card_number": "123", "amount": 25.0})
	if resp.StatusCode != http.StatusPaymentRequired {
		t.Errorf("expected 402 for invalid card, got %d", resp.StatusCode)
	}
	r = decode(t, resp)
	if r.Error == nil || r.Error.Category != "payment" {
		t.Errorf("expected payment category, got %+v", r.Error)
	}
}

func TestWeatherEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/weather/Tokyo")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	r := decode(t, resp)

	var weather struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(r.Data, &weather); err != nil {
		t.Fatalf("failed to decode weather: %v", err)
	}
	if weather.City != "Tokyo" {
		t.Errorf("expected Tokyo, got %s", weather.City)
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	ts, tm := newTestServer(t)
	base := ts.URL + "/api/v1/tasks"

	tm.Register("instant", func(ctx context.Context) (string, error) {
		return "ok", nil
	})

	resp := postJSON(t, base, map[string]string{"name": "instant"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	r := decode(t, resp)

	var started struct {
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal(r.Data, &started); err != nil {
		t.Fatalf("failed to decode task response: %v", err)
	}
	if started.TaskID == "" {
		t.Fatal("expected task ID")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/" + started.TaskID)
		if err != nil {
			t.Fatalf("status request failed: %v", err)
		}
		r := decode(t, resp)

		var info struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(r.Data, &info); err != nil {
			t.Fatalf("failed to decode task info: %v", err)
		}
		if info.Status == "completed" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("task did not complete, last status %s", info.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTaskErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	base := ts.URL + "/api/v1/tasks"

	resp := postJSON(t, base, map[string]string{"name": "no-such-task"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown task, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err := http.Get(base + "/missing-id")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing task, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReportEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/reports", map[string]string{})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	r := decode(t, resp)
	if !r.Success {
		t.Error("expected success envelope")
	}
}

func TestExternalProbeEndpoint(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status/500":
			w.WriteHeader(http.StatusInternalServerError)
		case "/status/404":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.Write([]byte(`{"url":"` + r.URL.Path + `"}`))
		}
	}))
	defer upstream.Close()

	bus := events.NewBus()
	defer bus.Close()
	tm := tasks.NewManager(1, nil)

	extCfg := extapi.Reliable()
	extCfg.BaseURL = upstream.URL

	cfg := DefaultConfig()
	cfg.HealthFailureRate = 0
	srv := New(cfg, store.NewMemory(store.NoFaults()), extapi.New(extCfg), tm,
		capture.NewHub(capture.DefaultConfig(), bus), bus)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test/external/ok")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for ok probe, got %d", resp.StatusCode)
	}
	r := decode(t, resp)
	if !r.Success {
		t.Error("expected success envelope from ok probe")
	}

	resp, err = http.Get(ts.URL + "/test/external/500")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502 for 500 probe, got %d", resp.StatusCode)
	}
	r = decode(t, resp)
	if r.Error == nil || r.Error.Category != "external_api" {
		t.Errorf("expected external_api category, got %+v", r.Error)
	}

	resp, err = http.Get(ts.URL + "/test/external/bogus")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown probe, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /metrics, got %d", resp.StatusCode)
	}
}

func TestIndexEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	decode(t, resp)
}
