package driver

import (
	"time"
)

// LoadTest は標準的な負荷テスト設定を返す
// 5ワーカーで計50件のイベントを生成する
func LoadTest() Config {
	return Config{
		Name:          "load",
		Description:   "Standard load test generating a bounded batch of events",
		Workers:       5,
		RequestsLimit: 50,
		MinDelay:      100 * time.Millisecond,
		MaxDelay:      1 * time.Second,
	}
}

// StressTest はストレステスト設定を返す
// 待機なしの短い固定ウィンドウで障害密度を最大化する
func StressTest() Config {
	return Config{
		Name:        "stress",
		Description: "High-density stress window with pacing disabled",
		Workers:     10,
		Duration:    30 * time.Second,
		StressMode:  true,
	}
}

// ProductionSim は本番シミュレーション設定を返す
// ゆっくりした間隔で長時間回す
func ProductionSim() Config {
	return Config{
		Name:          "production",
		Description:   "Production-like simulation with relaxed pacing",
		Workers:       3,
		Duration:      5 * time.Minute,
		MinDelay:      500 * time.Millisecond,
		MaxDelay:      2 * time.Second,
	}
}

// QuickRun はクイックテスト用設定を返す
// 短時間での動作確認用
func QuickRun() Config {
	return Config{
		Name:          "quick",
		Description:   "Quick run for verification",
		Workers:       3,
		RequestsLimit: 20,
		MinDelay:      10 * time.Millisecond,
		MaxDelay:      50 * time.Millisecond,
	}
}

// GetPreset は名前からプリセット設定を取得する
func GetPreset(name string) (Config, bool) {
	presets := map[string]func() Config{
		"load":       LoadTest,
		"stress":     StressTest,
		"production": ProductionSim,
		"quick":      QuickRun,
	}

	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	return []string{"load", "stress", "production", "quick"}
}
