package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeTemp(t, "config.yaml", `
workload:
  name: custom-run
  workers: 8
  requests: 100
  duration: 30s
  stress: true
  min_delay: 50ms
  max_delay: 200ms
  seed: 42
target:
  url: http://localhost:9999
  timeout: 3s
scenarios:
  - name: health
    target: /health
    weight: 2
  - name: divzero
    target: /test/division_by_zero
    weight: 1
`)

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := fc.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	dc, err := fc.ToDriverConfig()
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}
	if dc.Name != "custom-run" || dc.Workers != 8 || dc.RequestsLimit != 100 {
		t.Errorf("unexpected driver config: %+v", dc)
	}
	if dc.Duration != 30*time.Second {
		t.Errorf("expected 30s duration, got %v", dc.Duration)
	}
	if !dc.StressMode || dc.Seed != 42 {
		t.Errorf("stress/seed not carried over: %+v", dc)
	}
	if dc.MinDelay != 50*time.Millisecond || dc.MaxDelay != 200*time.Millisecond {
		t.Errorf("delays not carried over: %+v", dc)
	}

	cat, err := fc.ToCatalog()
	if err != nil {
		t.Fatalf("catalog conversion failed: %v", err)
	}
	if len(cat.Scenarios()) != 2 {
		t.Errorf("expected 2 scenarios, got %d", len(cat.Scenarios()))
	}

	timeout, err := fc.TargetTimeout()
	if err != nil {
		t.Fatalf("timeout parse failed: %v", err)
	}
	if timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", timeout)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeTemp(t, "config.json", `{
		"workload": {"workers": 4, "requests": 20},
		"server": {"addr": ":9090", "health_failure_rate": 0.5}
	}`)

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	sc := fc.ToServerConfig()
	if sc.Addr != ":9090" {
		t.Errorf("expected :9090, got %s", sc.Addr)
	}
	if sc.HealthFailureRate != 0.5 {
		t.Errorf("expected 0.5, got %f", sc.HealthFailureRate)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeTemp(t, "config.toml", "workers = 4")

	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadFile("/no/such/file.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultCatalogWhenNoScenarios(t *testing.T) {
	fc := &FileConfig{}

	cat, err := fc.ToCatalog()
	if err != nil {
		t.Fatalf("catalog conversion failed: %v", err)
	}
	if len(cat.Scenarios()) == 0 {
		t.Error("expected default catalog to be non-empty")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		fc   FileConfig
	}{
		{"negative workers", FileConfig{Workload: WorkloadConfig{Workers: -1}}},
		{"unnamed scenario", FileConfig{Scenarios: []ScenarioEntry{{Target: "/health", Weight: 1}}}},
		{"missing target", FileConfig{Scenarios: []ScenarioEntry{{Name: "x", Weight: 1}}}},
		{"negative weight", FileConfig{Scenarios: []ScenarioEntry{{Name: "x", Target: "/x", Weight: -1}}}},
		{"bad failure rate", FileConfig{Server: ServerConfig{HealthFailureRate: 2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.fc.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestInvalidDuration(t *testing.T) {
	fc := &FileConfig{Workload: WorkloadConfig{Duration: "not-a-duration"}}

	if _, err := fc.ToDriverConfig(); err == nil {
		t.Error("expected error for invalid duration")
	}
}
