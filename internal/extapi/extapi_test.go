package extapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"faultline/internal/fault"
)

func TestProcessPaymentSuccess(t *testing.T) {
	c := New(Reliable())

	p, err := c.ProcessPayment(context.Background(), "4111111111111111", 99.99)
	if err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if !strings.HasPrefix(p.TransactionID, "txn_") {
		t.Errorf("unexpected transaction ID: %s", p.TransactionID)
	}
	if p.Status != "success" {
		t.Errorf("expected success status, got %s", p.Status)
	}
	if p.Amount != 99.99 {
		t.Errorf("expected amount 99.99, got %f", p.Amount)
	}
}

func TestProcessPaymentValidation(t *testing.T) {
	c := New(Reliable())
	ctx := context.Background()

	cases := []struct {
		name   string
		card   string
		amount float64
	}{
		{"short card", "1234", 10.0},
		{"zero amount", "4111111111111111", 0},
		{"negative amount", "4111111111111111", -5},
		{"over limit", "4111111111111111", 10001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.ProcessPayment(ctx, tc.card, tc.amount)
			if fault.Classify(err) != fault.CategoryPayment {
				t.Errorf("expected payment error, got %v", err)
			}
		})
	}
}

func TestProcessPaymentGatewayFailure(t *testing.T) {
	cfg := Reliable()
	cfg.PaymentFailureRate = 1.0
	c := New(cfg)

	_, err := c.ProcessPayment(context.Background(), "4111111111111111", 10.0)
	if fault.Classify(err) != fault.CategoryPayment {
		t.Errorf("expected payment error with rate 1.0, got %v", err)
	}
}

func TestSendNotification(t *testing.T) {
	c := New(Reliable())
	ctx := context.Background()

	n, err := c.SendNotification(ctx, 1, "hello")
	if err != nil {
		t.Fatalf("notification failed: %v", err)
	}
	if !strings.HasPrefix(n.NotificationID, "notif_") {
		t.Errorf("unexpected notification ID: %s", n.NotificationID)
	}

	if _, err := c.SendNotification(ctx, 0, "hello"); fault.Classify(err) != fault.CategoryValidation {
		t.Errorf("expected validation error for missing user, got %v", err)
	}
	if _, err := c.SendNotification(ctx, 1, ""); fault.Classify(err) != fault.CategoryValidation {
		t.Errorf("expected validation error for empty message, got %v", err)
	}
}

func TestSendNotificationFailure(t *testing.T) {
	cfg := Reliable()
	cfg.NotificationFailureRate = 1.0
	c := New(cfg)

	_, err := c.SendNotification(context.Background(), 1, "hello")
	if fault.Classify(err) != fault.CategoryExternalAPI {
		t.Errorf("expected external_api error, got %v", err)
	}
}

func TestFetchWeather(t *testing.T) {
	c := New(Reliable())

	w, err := c.FetchWeather(context.Background(), "Tokyo")
	if err != nil {
		t.Fatalf("weather fetch failed: %v", err)
	}
	if w.City != "Tokyo" {
		t.Errorf("expected Tokyo, got %s", w.City)
	}
	if w.Temperature < -10 || w.Temperature > 35 {
		t.Errorf("temperature out of range: %d", w.Temperature)
	}
	if w.Humidity < 30 || w.Humidity > 90 {
		t.Errorf("humidity out of range: %d", w.Humidity)
	}

	if _, err := c.FetchWeather(context.Background(), ""); fault.Classify(err) != fault.CategoryValidation {
		t.Errorf("expected validation error for empty city, got %v", err)
	}
}

func TestFetchWeatherFailure(t *testing.T) {
	cfg := Reliable()
	cfg.WeatherFailureRate = 1.0
	c := New(cfg)

	_, err := c.FetchWeather(context.Background(), "Tokyo")
	if fault.Classify(err) != fault.CategoryExternalAPI {
		t.Errorf("expected external_api error, got %v", err)
	}
}

func TestCallExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status/500" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	cfg := Reliable()
	cfg.BaseURL = srv.URL
	c := New(cfg)

	body, err := c.CallExternal(context.Background(), "/get")
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if len(body) == 0 {
		t.Error("expected non-empty body")
	}

	_, err = c.CallExternal(context.Background(), "/status/500")
	if fault.Classify(err) != fault.CategoryExternalAPI {
		t.Errorf("expected external_api error for 500, got %v", err)
	}
}

func TestCallExternalTransportError(t *testing.T) {
	cfg := Reliable()
	cfg.BaseURL = "http://127.0.0.1:1"
	c := New(cfg)

	_, err := c.CallExternal(context.Background(), "/get")
	if err == nil {
		t.Fatal("expected connection error")
	}
	if fault.Classify(err) != fault.CategoryTransport {
		t.Errorf("expected transport classification, got %s", fault.Classify(err))
	}
}
