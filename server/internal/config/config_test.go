package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `server: {}
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.History.TTL != DefaultHistoryTTL {
		t.Errorf("history.ttl: got %v, want %v", cfg.Server.History.TTL, DefaultHistoryTTL)
	}
	if cfg.Server.BuffTick != DefaultBuffTick {
		t.Errorf("buff_tick: got %v, want %v", cfg.Server.BuffTick, DefaultBuffTick)
	}
	if cfg.Server.RowOrder != "groups_first" {
		t.Errorf("row_order: got %q, want groups_first", cfg.Server.RowOrder)
	}
}

func TestLoad_FullServer(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  auth:
    mode: apikey
    key_env: MY_KEY
    header: x-meter-key
  history:
    ttl: 10m
  broadcast_interval: 100ms
  buff_tick: 16ms
  row_order: mixed
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", cfg.Server.HTTPPort)
	}
	if cfg.Server.Auth.Mode != "apikey" {
		t.Errorf("auth.mode: got %q, want apikey", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Auth.EffectiveHeader() != "x-meter-key" {
		t.Errorf("header: got %q, want x-meter-key", cfg.Server.Auth.EffectiveHeader())
	}
	if cfg.Server.History.TTL != 10*time.Minute {
		t.Errorf("history.ttl: got %v, want 10m", cfg.Server.History.TTL)
	}
	if cfg.Server.BuffTick != 16*time.Millisecond {
		t.Errorf("buff_tick: got %v, want 16ms", cfg.Server.BuffTick)
	}
	if cfg.Server.RowOrder != "mixed" {
		t.Errorf("row_order: got %q, want mixed", cfg.Server.RowOrder)
	}
}

func TestLoad_DefaultHeader(t *testing.T) {
	p := writeConfig(t, `server:
  auth:
    mode: apikey
    key_env: K
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h := cfg.Server.Auth.EffectiveHeader(); h != "x-api-key" {
		t.Errorf("EffectiveHeader: got %q, want x-api-key", h)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad port", "server:\n  http_port: 99999\n"},
		{"bad auth mode", "server:\n  auth:\n    mode: oauth\n"},
		{"bad row order", "server:\n  row_order: sideways\n"},
		{"negative ttl", "server:\n  history:\n    ttl: -5m\n"},
		{"max visible out of range", "monitor:\n  profiles:\n    - max_visible_text: 21\n"},
		{"not yaml", "{{{\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Errorf("Load should reject %q", tc.name)
			}
		})
	}
}

func TestActiveProfile_Resolution(t *testing.T) {
	p := writeConfig(t, `monitor:
  enabled: true
  active_profile_index: 5
  profiles:
    - selected_class: wind_knight
      monitored_skill_ids: [1, 2, 3]
      monitored_buff_ids: [100, 200]
      priority_buff_ids: [200, 100]
      display_group: burst
      group_priority:
        burst: [300]
        sustain: [100]
      max_visible_text: 12
classes:
  wind_knight:
    default_monitored_buff_ids: [200, 300]
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	rp, ok := cfg.ActiveProfile()
	if !ok {
		t.Fatal("ActiveProfile: expected a profile")
	}

	// Out-of-range index clamps to the last profile.
	if rp.SelectedClass != "wind_knight" {
		t.Errorf("SelectedClass = %q", rp.SelectedClass)
	}

	// Class defaults merge after user ids, first occurrence wins.
	if want := []int32{100, 200, 300}; !reflect.DeepEqual(rp.MonitoredBuffIDs, want) {
		t.Errorf("MonitoredBuffIDs = %v, want %v", rp.MonitoredBuffIDs, want)
	}

	// Active display group selects its priority list.
	if want := []int32{300}; !reflect.DeepEqual(rp.GroupPriority, want) {
		t.Errorf("GroupPriority = %v, want %v", rp.GroupPriority, want)
	}

	if rp.MaxVisibleText != 12 {
		t.Errorf("MaxVisibleText = %d, want 12", rp.MaxVisibleText)
	}
}

func TestActiveProfile_SkillListTruncated(t *testing.T) {
	p := writeConfig(t, `monitor:
  enabled: true
  profiles:
    - monitored_skill_ids: [1,2,3,4,5,6,7,8,9,10,11,12]
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rp, _ := cfg.ActiveProfile()
	if len(rp.MonitoredSkillIDs) != MaxMonitoredSkills {
		t.Errorf("skill ids = %d, want truncated to %d", len(rp.MonitoredSkillIDs), MaxMonitoredSkills)
	}
}

func TestActiveProfile_DisabledOrEmpty(t *testing.T) {
	p := writeConfig(t, `monitor:
  enabled: false
  profiles:
    - selected_class: x
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := cfg.ActiveProfile(); ok {
		t.Error("disabled monitor should resolve no profile")
	}

	cfg, err = Load(writeConfig(t, "monitor:\n  enabled: true\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := cfg.ActiveProfile(); ok {
		t.Error("empty profile list should resolve no profile")
	}
}

func TestActiveProfile_DefaultMaxVisible(t *testing.T) {
	p := writeConfig(t, `monitor:
  enabled: true
  profiles:
    - selected_class: x
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rp, _ := cfg.ActiveProfile()
	if rp.MaxVisibleText != DefaultMaxVisibleText {
		t.Errorf("MaxVisibleText = %d, want default %d", rp.MaxVisibleText, DefaultMaxVisibleText)
	}
}
