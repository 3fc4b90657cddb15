package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: tsaudit\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Collector.PollInterval != 500*time.Millisecond {
		t.Fatalf("poll interval = %v, want 500ms", cfg.Collector.PollInterval)
	}
	if cfg.Collector.ReportInterval != time.Minute {
		t.Fatalf("report interval = %v, want 1m", cfg.Collector.ReportInterval)
	}
	if cfg.Collector.OutputDir != "./logs" {
		t.Fatalf("output dir = %q", cfg.Collector.OutputDir)
	}
	if cfg.Analysis.BatchWindowMS != 15000 {
		t.Fatalf("batch window = %v, want 15000", cfg.Analysis.BatchWindowMS)
	}
	if cfg.Analysis.BinWidthMS != 100 {
		t.Fatalf("bin width = %v, want 100", cfg.Analysis.BinWidthMS)
	}
	if cfg.Metrics.Enabled {
		t.Fatal("metrics should default to disabled")
	}
	if cfg.Metrics.Listen != ":9109" {
		t.Fatalf("metrics listen = %q", cfg.Metrics.Listen)
	}
	if cfg.Database.AdvisoryLockKey != 0x74736175 {
		t.Fatalf("advisory lock key = %d", cfg.Database.AdvisoryLockKey)
	}
	if cfg.Export.OutputDir != "./analysis" {
		t.Fatalf("export dir = %q", cfg.Export.OutputDir)
	}
}

func TestLoadOverridesAndDurations(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
collector:
  poll_interval: 2s
  duration: 30m
  chains:
    - name: base
      rpc_url: https://rpc.example.test
analysis:
  batch_window_ms: 30000
  chains: [base, arbitrum]
logging:
  level: debug
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Collector.PollInterval != 2*time.Second {
		t.Fatalf("poll interval = %v, want 2s", cfg.Collector.PollInterval)
	}
	if cfg.Collector.Duration != 30*time.Minute {
		t.Fatalf("duration = %v, want 30m", cfg.Collector.Duration)
	}
	if len(cfg.Collector.Chains) != 1 || cfg.Collector.Chains[0].Name != "base" {
		t.Fatalf("unexpected chains: %+v", cfg.Collector.Chains)
	}
	if cfg.Analysis.BatchWindowMS != 30000 {
		t.Fatalf("batch window = %v, want 30000", cfg.Analysis.BatchWindowMS)
	}
	if len(cfg.Analysis.Chains) != 2 {
		t.Fatalf("analysis chains = %v", cfg.Analysis.Chains)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "zero batch window",
			yaml:    "analysis:\n  batch_window_ms: 0\n",
			wantErr: "batch_window_ms",
		},
		{
			name:    "negative poll interval",
			yaml:    "collector:\n  poll_interval: -1s\n",
			wantErr: "poll_interval",
		},
		{
			name:    "chain without rpc url",
			yaml:    "collector:\n  chains:\n    - name: base\n",
			wantErr: "rpc_url",
		},
		{
			name:    "metrics enabled without listen",
			yaml:    "metrics:\n  enabled: true\n  listen: \"\"\n",
			wantErr: "metrics.listen",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}
