package extapi

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"faultline/internal/fault"
)

// Config は外部サービスシミュレータの設定
type Config struct {
	BaseURL string        // 実呼び出し用の外部APIベースURL（httpbin互換）
	Timeout time.Duration // HTTPタイムアウト

	PaymentFailureRate      float64 // 決済ゲートウェイ障害の確率
	NotificationFailureRate float64 // 通知サービス障害の確率
	WeatherFailureRate      float64 // 天気サービス障害の確率

	MinProcessing time.Duration // 処理時間シミュレーションの下限
	MaxProcessing time.Duration // 処理時間シミュレーションの上限
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		BaseURL:                 "https://httpbin.org",
		Timeout:                 5 * time.Second,
		PaymentFailureRate:      0.20,
		NotificationFailureRate: 0.15,
		WeatherFailureRate:      0.10,
		MinProcessing:           50 * time.Millisecond,
		MaxProcessing:           200 * time.Millisecond,
	}
}

// Reliable は障害注入と処理時間シミュレーションなしの設定を返す
func Reliable() Config {
	return Config{
		BaseURL: "https://httpbin.org",
		Timeout: 5 * time.Second,
	}
}

// Client は外部サービスのシミュレータ
type Client struct {
	config Config
	http   *http.Client

	mu  sync.Mutex
	rng *rand.Rand
}

// New は新しいClientを作成する
func New(config Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: timeout},
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Client) roll() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64()
}

func (c *Client) intn(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Intn(n)
}

// simulateProcessing は処理時間をシミュレートする
func (c *Client) simulateProcessing(ctx context.Context) {
	span := c.config.MaxProcessing - c.config.MinProcessing
	delay := c.config.MinProcessing
	if span > 0 {
		delay += time.Duration(c.intn(int(span)))
	}
	if delay <= 0 {
		return
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Payment は決済結果
type Payment struct {
	TransactionID string    `json:"transaction_id"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

// ProcessPayment は決済処理をシミュレートする
func (c *Client) ProcessPayment(ctx context.Context, cardNumber string, amount float64) (Payment, error) {
	if len(cardNumber) < 10 {
		return Payment{}, fault.New(fault.CategoryPayment, "invalid card number")
	}
	if amount <= 0 {
		return Payment{}, fault.New(fault.CategoryPayment, "invalid payment amount")
	}
	if amount > 10000 {
		return Payment{}, fault.New(fault.CategoryPayment, "payment amount exceeds limit")
	}

	if c.config.PaymentFailureRate > 0 && c.roll() < c.config.PaymentFailureRate {
		return Payment{}, fault.New(fault.CategoryPayment, "payment gateway temporarily unavailable")
	}

	c.simulateProcessing(ctx)

	return Payment{
		TransactionID: "txn_" + uuid.NewString(),
		Amount:        amount,
		Status:        "success",
		Timestamp:     time.Now().UTC(),
	}, nil
}

// Notification は通知送信の結果
type Notification struct {
	NotificationID string    `json:"notification_id"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// SendNotification は通知送信をシミュレートする
func (c *Client) SendNotification(ctx context.Context, userID int64, message string) (Notification, error) {
	if userID <= 0 {
		return Notification{}, fault.New(fault.CategoryValidation, "user ID is required")
	}
	if message == "" {
		return Notification{}, fault.New(fault.CategoryValidation, "message is required")
	}

	if c.config.NotificationFailureRate > 0 && c.roll() < c.config.NotificationFailureRate {
		return Notification{}, fault.New(fault.CategoryExternalAPI, "notification service unavailable")
	}

	c.simulateProcessing(ctx)

	return Notification{
		NotificationID: "notif_" + uuid.NewString(),
		Status:         "sent",
		Timestamp:      time.Now().UTC(),
	}, nil
}

// Weather は天気データ
type Weather struct {
	City        string    `json:"city"`
	Temperature int       `json:"temperature"`
	Humidity    int       `json:"humidity"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

var weatherDescriptions = []string{"sunny", "cloudy", "rainy", "snowy"}

// FetchWeather は天気データの取得をシミュレートする
func (c *Client) FetchWeather(ctx context.Context, city string) (Weather, error) {
	if city == "" {
		return Weather{}, fault.New(fault.CategoryValidation, "city name is required")
	}

	if c.config.WeatherFailureRate > 0 && c.roll() < c.config.WeatherFailureRate {
		return Weather{}, fault.New(fault.CategoryExternalAPI, "weather service temporarily unavailable")
	}

	return Weather{
		City:        city,
		Temperature: c.intn(46) - 10, // -10〜35
		Humidity:    c.intn(61) + 30, // 30〜90
		Description: weatherDescriptions[c.intn(len(weatherDescriptions))],
		Timestamp:   time.Now().UTC(),
	}, nil
}

// CallExternal は外部APIへ実際のHTTP GETを発行する
// 非2xxはexternal_apiエラー、通信障害はそのまま返す（transportに分類される）
func (c *Client) CallExternal(ctx context.Context, endpoint string) ([]byte, error) {
	url := c.config.BaseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fault.New(fault.CategoryExternalAPI, "HTTP error %d from %s", resp.StatusCode, url)
	}
	return body, nil
}
