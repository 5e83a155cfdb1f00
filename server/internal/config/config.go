package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort          = 8080
	DefaultHistoryTTL        = 30 * time.Minute
	DefaultBroadcastInterval = 250 * time.Millisecond
	DefaultBuffTick          = 100 * time.Millisecond
	DefaultMaxVisibleText    = 8
)

// MaxMonitoredSkills is the per-profile cap on monitored skill ids.
// Longer lists are truncated with a warning, not rejected.
const MaxMonitoredSkills = 10

// Config is the top-level configuration parsed from config.yaml.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Monitor MonitorConfig `yaml:"monitor"`
	Tables  TablesConfig  `yaml:"tables"`

	// Classes maps a class key to its defaults, merged into profiles that
	// select that class.
	Classes map[string]ClassConfig `yaml:"classes"`
}

// ServerConfig holds all service-side settings.
type ServerConfig struct {
	// HTTPPort is the port the ingest, REST, and WebSocket routes listen on
	// (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how incoming ingest requests are authenticated.
	Auth AuthConfig `yaml:"auth"`

	// History controls in-memory retention of finished encounters.
	History HistoryConfig `yaml:"history"`

	// BroadcastInterval is how often derived rows are pushed to overlay
	// clients (default 250ms).
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// BuffTick is the buff projection recompute interval (default 100ms).
	// The overlay interpolates between ticks; remaining-time math is
	// cadence-independent.
	BuffTick time.Duration `yaml:"buff_tick"`

	// RowOrder arranges group rows relative to ungrouped skill rows:
	// "groups_first" (default) or "mixed".
	RowOrder string `yaml:"row_order"`

	// Notify holds rule definitions and webhook delivery targets.
	Notify NotifyConfig `yaml:"notify"`
}

// AuthConfig controls ingest authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the environment variable holding the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the key is read from ("x-api-key" if empty).
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// HistoryConfig controls retention of finished encounters.
type HistoryConfig struct {
	// TTL is how long a finished encounter remains fetchable. Default: 30m.
	TTL time.Duration `yaml:"ttl"`
}

// NotifyConfig holds notification rules and webhook targets.
type NotifyConfig struct {
	Rules    []NotifyRule    `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// NotifyRule defines one threshold condition over derived player rows.
type NotifyRule struct {
	// Name is the human-readable identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "dps < 1000", "crit_rate < 20",
	// "dmg_pct > 40", "state == paused".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after a rule fires.
	// Defaults to 1 minute if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// MonitorConfig is the skill/buff monitor settings tree, profile-based like
// the overlay's own settings file.
type MonitorConfig struct {
	Enabled            bool      `yaml:"enabled"`
	ActiveProfileIndex int       `yaml:"active_profile_index"`
	Profiles           []Profile `yaml:"profiles"`
}

// Profile is one monitor profile.
type Profile struct {
	SelectedClass     string  `yaml:"selected_class"`
	MonitoredSkillIDs []int64 `yaml:"monitored_skill_ids"`
	MonitoredBuffIDs  []int32 `yaml:"monitored_buff_ids"`

	// MonitorAllBuffs bypasses the buff id allow-list.
	MonitorAllBuffs bool `yaml:"monitor_all_buffs"`

	// PriorityBuffIDs is the profile-global priority order, earliest first.
	PriorityBuffIDs []int32 `yaml:"priority_buff_ids"`

	// GroupPriority holds per-display-group priority orders; DisplayGroup
	// selects which one is active.
	GroupPriority map[string][]int32 `yaml:"group_priority"`
	DisplayGroup  string             `yaml:"display_group"`

	// MaxVisibleText bounds text-mode buff display, clamped to [1, 20].
	MaxVisibleText int `yaml:"max_visible_text"`
}

// ClassConfig holds per-class defaults.
type ClassConfig struct {
	DefaultMonitoredBuffIDs []int32 `yaml:"default_monitored_buff_ids"`
}

// TablesConfig points at the static lookup tables.
type TablesConfig struct {
	// BuffDefinitions is a YAML list of buff display metadata entries.
	BuffDefinitions string `yaml:"buff_definitions"`

	// RecountGroups is a YAML list of recount group membership specs.
	RecountGroups string `yaml:"recount_groups"`

	// LayeredBuffs is a YAML list of layered-display specs.
	LayeredBuffs string `yaml:"layered_buffs"`
}

// ResolvedProfile is the active profile after class defaults are merged and
// limits applied.
type ResolvedProfile struct {
	SelectedClass     string
	MonitoredSkillIDs []int64
	MonitoredBuffIDs  []int32
	MonitorAllBuffs   bool
	PriorityBuffIDs   []int32
	GroupPriority     []int32
	MaxVisibleText    int
}

// ActiveProfile resolves the active monitor profile: the index is clamped
// into range, per-class default buff ids are merged after the user's own
// (first occurrence wins), and the monitored skill list is truncated to
// MaxMonitoredSkills. Returns false when monitoring is disabled or no
// profiles exist.
func (c *Config) ActiveProfile() (ResolvedProfile, bool) {
	if !c.Monitor.Enabled || len(c.Monitor.Profiles) == 0 {
		return ResolvedProfile{}, false
	}

	idx := c.Monitor.ActiveProfileIndex
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.Monitor.Profiles) {
		idx = len(c.Monitor.Profiles) - 1
	}
	p := c.Monitor.Profiles[idx]

	skills := p.MonitoredSkillIDs
	if len(skills) > MaxMonitoredSkills {
		slog.Warn("config: monitored skill list truncated",
			"profile", idx, "got", len(skills), "max", MaxMonitoredSkills)
		skills = skills[:MaxMonitoredSkills]
	}

	var classDefaults []int32
	if cls, ok := c.Classes[p.SelectedClass]; ok {
		classDefaults = cls.DefaultMonitoredBuffIDs
	}

	maxVisible := p.MaxVisibleText
	if maxVisible == 0 {
		maxVisible = DefaultMaxVisibleText
	}

	return ResolvedProfile{
		SelectedClass:     p.SelectedClass,
		MonitoredSkillIDs: skills,
		MonitoredBuffIDs:  mergeIDs(p.MonitoredBuffIDs, classDefaults),
		MonitorAllBuffs:   p.MonitorAllBuffs,
		PriorityBuffIDs:   p.PriorityBuffIDs,
		GroupPriority:     p.GroupPriority[p.DisplayGroup],
		MaxVisibleText:    maxVisible,
	}, true
}

// mergeIDs appends defaults after user ids, keeping the first occurrence
// of each id.
func mergeIDs(user, defaults []int32) []int32 {
	merged := make([]int32, 0, len(user)+len(defaults))
	seen := make(map[int32]struct{}, len(user)+len(defaults))
	for _, lists := range [][]int32{user, defaults} {
		for _, id := range lists {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			History: HistoryConfig{
				TTL: DefaultHistoryTTL,
			},
			BroadcastInterval: DefaultBroadcastInterval,
			BuffTick:          DefaultBuffTick,
			RowOrder:          "groups_first",
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	switch cfg.Server.RowOrder {
	case "groups_first", "mixed", "":
	default:
		return fmt.Errorf("server.row_order %q unknown: want groups_first|mixed", cfg.Server.RowOrder)
	}
	if cfg.Server.History.TTL < 0 {
		return fmt.Errorf("server.history.ttl must not be negative")
	}
	if cfg.Server.BroadcastInterval < 0 || cfg.Server.BuffTick < 0 {
		return fmt.Errorf("server intervals must not be negative")
	}
	for i, p := range cfg.Monitor.Profiles {
		if p.MaxVisibleText < 0 || p.MaxVisibleText > 20 {
			return fmt.Errorf("monitor.profiles[%d].max_visible_text %d out of range [1, 20]", i, p.MaxVisibleText)
		}
	}
	return nil
}
