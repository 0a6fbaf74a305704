package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"faultline/internal/catalog"
	"faultline/internal/driver"
	"faultline/internal/server"
)

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Workload  WorkloadConfig  `yaml:"workload" json:"workload"`
	Target    TargetConfig    `yaml:"target" json:"target"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Scenarios []ScenarioEntry `yaml:"scenarios" json:"scenarios"`
}

// WorkloadConfig はワークロードドライバの設定
type WorkloadConfig struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Workers     int    `yaml:"workers" json:"workers"`
	Requests    uint64 `yaml:"requests" json:"requests"`
	Duration    string `yaml:"duration" json:"duration"`
	Stress      bool   `yaml:"stress" json:"stress"`
	MinDelay    string `yaml:"min_delay" json:"min_delay"`
	MaxDelay    string `yaml:"max_delay" json:"max_delay"`
	Seed        int64  `yaml:"seed" json:"seed"`
}

// TargetConfig は実行対象の設定
type TargetConfig struct {
	URL     string `yaml:"url" json:"url"`
	Timeout string `yaml:"timeout" json:"timeout"`
	Local   bool   `yaml:"local" json:"local"`
}

// ServerConfig はデモアプリサーバーの設定
type ServerConfig struct {
	Addr              string  `yaml:"addr" json:"addr"`
	DB                string  `yaml:"db" json:"db"`
	HealthFailureRate float64 `yaml:"health_failure_rate" json:"health_failure_rate"`
}

// ScenarioEntry はシナリオカタログの1エントリ
type ScenarioEntry struct {
	Name   string  `yaml:"name" json:"name"`
	Target string  `yaml:"target" json:"target"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// LoadFile は設定ファイルを読み込む
// 拡張子でYAML/JSONを判別する
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// ToDriverConfig はFileConfigをdriver.Configに変換する
func (f *FileConfig) ToDriverConfig() (driver.Config, error) {
	w := f.Workload

	// デフォルト値の設定
	config := driver.DefaultConfig()

	if w.Name != "" {
		config.Name = w.Name
	}
	if w.Description != "" {
		config.Description = w.Description
	}
	if w.Workers > 0 {
		config.Workers = w.Workers
	}
	if w.Requests > 0 {
		config.RequestsLimit = w.Requests
	}
	if w.Duration != "" {
		d, err := time.ParseDuration(w.Duration)
		if err != nil {
			return config, fmt.Errorf("invalid duration: %w", err)
		}
		config.Duration = d
	}
	if w.MinDelay != "" {
		d, err := time.ParseDuration(w.MinDelay)
		if err != nil {
			return config, fmt.Errorf("invalid min_delay: %w", err)
		}
		config.MinDelay = d
	}
	if w.MaxDelay != "" {
		d, err := time.ParseDuration(w.MaxDelay)
		if err != nil {
			return config, fmt.Errorf("invalid max_delay: %w", err)
		}
		config.MaxDelay = d
	}
	config.StressMode = w.Stress
	config.Seed = w.Seed

	return config, nil
}

// ToCatalog はシナリオカタログを構築する
// scenariosが空の場合はstress設定に応じた既定カタログを返す
func (f *FileConfig) ToCatalog() (*catalog.Catalog, error) {
	if len(f.Scenarios) == 0 {
		if f.Workload.Stress {
			return catalog.New(catalog.Stress())
		}
		return catalog.New(catalog.Default())
	}

	scenarios := make([]catalog.Scenario, 0, len(f.Scenarios))
	for _, e := range f.Scenarios {
		scenarios = append(scenarios, catalog.Scenario{
			Name:   e.Name,
			Target: e.Target,
			Weight: e.Weight,
		})
	}
	return catalog.New(scenarios)
}

// ToServerConfig はデモアプリサーバーの設定に変換する
func (f *FileConfig) ToServerConfig() server.Config {
	config := server.DefaultConfig()

	if f.Server.Addr != "" {
		config.Addr = f.Server.Addr
	}
	if f.Server.HealthFailureRate > 0 {
		config.HealthFailureRate = f.Server.HealthFailureRate
	}
	return config
}

// TargetTimeout はターゲットHTTPタイムアウトを返す
func (f *FileConfig) TargetTimeout() (time.Duration, error) {
	if f.Target.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.Target.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid target timeout: %w", err)
	}
	return d, nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	w := f.Workload

	if w.Workers < 0 {
		return fmt.Errorf("workload.workers must be non-negative")
	}

	for i, e := range f.Scenarios {
		if e.Name == "" {
			return fmt.Errorf("scenarios[%d]: name is required", i)
		}
		if e.Target == "" {
			return fmt.Errorf("scenarios[%d]: target is required", i)
		}
		if e.Weight < 0 {
			return fmt.Errorf("scenarios[%d]: weight must be non-negative", i)
		}
	}

	if f.Server.HealthFailureRate < 0 || f.Server.HealthFailureRate > 1 {
		return fmt.Errorf("server.health_failure_rate must be between 0 and 1")
	}

	return nil
}
