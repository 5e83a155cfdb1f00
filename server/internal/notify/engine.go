package notify

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/embermeter/embermeter/server/internal/config"
	"github.com/embermeter/embermeter/server/internal/engine"
)

const (
	defaultCooldown   = time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 1
)

// Notice is a single notification event produced by the rule engine.
type Notice struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	PlayerUID  int64      `json:"player_uid"`
	PlayerName string     `json:"player_name"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates notification rules against derived rows and delivers
// webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []config.NotifyRule
	webhooks []config.WebhookConfig

	mu       sync.Mutex
	active   map[string]*Notice   // key: "ruleName:uid"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Notice            // recently resolved notices
	client   *http.Client
}

// New creates an Engine from the notify configuration.
// An Engine with empty rules is valid — Evaluate becomes a no-op.
func New(cfg config.NotifyConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Notice),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate tests all configured rules against every derived row.
// Notices that fire are stored and webhook delivery is triggered
// asynchronously; notices whose condition is now false are resolved.
func (e *Engine) Evaluate(rows []engine.PlayerRow, paused bool) {
	if len(e.rules) == 0 {
		return
	}

	now := time.Now()
	for _, rule := range e.rules {
		for i := range rows {
			row := &rows[i]
			key := fmt.Sprintf("%s:%d", rule.Name, row.UID)
			fires, value := evalCondition(rule.Condition, row, paused)
			e.apply(rule, key, row, fires, value, now)
		}
	}
}

// apply advances one rule/row pair through the firing/resolved lifecycle.
func (e *Engine) apply(rule config.NotifyRule, key string, row *engine.PlayerRow, fires bool, value float64, now time.Time) {
	e.mu.Lock()

	if fires {
		cooldown := rule.Cooldown
		if cooldown <= 0 {
			cooldown = defaultCooldown
		}
		if now.Sub(e.lastFire[key]) <= cooldown {
			e.mu.Unlock()
			return
		}

		sev := rule.Severity
		if sev == "" {
			sev = "warning"
		}
		n := &Notice{
			ID:         fmt.Sprintf("%s:%d", key, now.UnixNano()),
			RuleName:   rule.Name,
			PlayerUID:  row.UID,
			PlayerName: row.Name,
			Severity:   sev,
			Value:      value,
			Message: fmt.Sprintf("[%s] %s fired for %s — %s = %.2f",
				sev, rule.Name, row.Name, rule.Condition, value),
			FiredAt: now,
			State:   "firing",
		}
		e.active[key] = n
		e.lastFire[key] = now
		noticeCopy := *n
		e.mu.Unlock()

		slog.Warn("notify: rule fired",
			"rule", rule.Name,
			"player", row.Name,
			"value", value,
			"severity", sev,
		)
		go e.deliver(&noticeCopy)
		return
	}

	n, ok := e.active[key]
	if !ok || n.State != "firing" {
		e.mu.Unlock()
		return
	}

	resolved := now
	n.State = "resolved"
	n.ResolvedAt = &resolved
	delete(e.active, key)

	e.history = append(e.history, n)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	noticeCopy := *n
	e.mu.Unlock()

	slog.Info("notify: rule resolved",
		"rule", rule.Name,
		"player", row.Name,
	)
	go e.deliver(&noticeCopy)
}

// Active returns copies of all currently firing notices plus any resolved
// within the past hour, firing first.
func (e *Engine) Active() []*Notice {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := time.Now().Add(-recentWindowHours * time.Hour)
	out := make([]*Notice, 0, len(e.active))

	for _, n := range e.active {
		cp := *n
		out = append(out, &cp)
	}
	for _, n := range e.history {
		if n.ResolvedAt != nil && n.ResolvedAt.After(cutoff) {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out
}
