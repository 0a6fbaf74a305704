package invoke

import (
	"context"
	"strconv"
	"strings"
	"time"

	"faultline/internal/aggregate"
	"faultline/internal/capture"
	"faultline/internal/catalog"
	"faultline/internal/extapi"
	"faultline/internal/fault"
	"faultline/internal/store"
)

// Local はサーバーを立てずにプロセス内でシナリオを実行するInvoker
type Local struct {
	store  store.Store
	extapi *extapi.Client
	hub    *capture.Hub
}

// NewLocal はプロセス内Invokerを作成する
// hubはnil可。nilの場合はエラー分類のみ行い捕捉イベントを出さない
func NewLocal(s store.Store, ext *extapi.Client, hub *capture.Hub) *Local {
	return &Local{store: s, extapi: ext, hub: hub}
}

// Invoke はシナリオのターゲットパスをプロセス内の処理へ振り分ける
func (l *Local) Invoke(ctx context.Context, s catalog.Scenario) aggregate.Outcome {
	start := time.Now()

	err := l.dispatch(ctx, s.Target)

	outcome := aggregate.Outcome{
		Scenario: s.Name,
		Latency:  time.Since(start),
	}
	if err == nil {
		outcome.Success = true
		return outcome
	}

	if l.hub != nil {
		outcome.Category = l.hub.CaptureException("local", err)
	} else {
		outcome.Category = fault.Classify(err)
	}
	return outcome
}

// dispatch はターゲットパスに対応する処理を実行する
func (l *Local) dispatch(ctx context.Context, target string) error {
	switch {
	case target == "/health" || target == "/":
		return nil

	case strings.HasPrefix(target, "/test/"):
		name := strings.TrimPrefix(target, "/test/")
		cat, ok := fault.ParseCategory(name)
		if !ok {
			return fault.New(fault.CategoryInternal, "unknown trigger %q", name)
		}
		return fault.Trigger(cat)

	case target == "/api/v1/users":
		_, err := l.store.List(ctx)
		return err

	case strings.HasPrefix(target, "/api/v1/users/"):
		raw := strings.TrimPrefix(target, "/api/v1/users/")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fault.New(fault.CategoryValidation, "invalid user ID %q", raw)
		}
		_, err = l.store.Get(ctx, id)
		return err

	case target == "/api/v1/payments":
		_, err := l.extapi.ProcessPayment(ctx, "4111111111111111", 42.50)
		return err

	case target == "/api/v1/notifications":
		_, err := l.extapi.SendNotification(ctx, 1, "synthetic notification")
		return err

	case strings.HasPrefix(target, "/api/v1/weather/"):
		city := strings.TrimPrefix(target, "/api/v1/weather/")
		_, err := l.extapi.FetchWeather(ctx, city)
		return err

	default:
		return fault.New(fault.CategoryInternal, "no local handler for %s", target)
	}
}
