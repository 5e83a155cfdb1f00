package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/embermeter/embermeter/server/internal/config"
	"github.com/embermeter/embermeter/server/internal/engine"
)

func row(uid int64, dps, critRate float64) engine.PlayerRow {
	return engine.PlayerRow{UID: uid, Name: "player", DPS: dps, CritRate: critRate}
}

func TestEvalCondition(t *testing.T) {
	r := row(1, 1500, 35)
	cases := []struct {
		cond  string
		fires bool
		value float64
	}{
		{"dps < 1000", false, 1500},
		{"dps > 1000", true, 1500},
		{"dps >= 1500", true, 1500},
		{"crit_rate < 40", true, 35},
		{"crit_rate == 35", true, 35},
		{"unknown_field > 1", false, 0},
		{"dps >", false, 0},
		{"dps > abc", false, 0},
	}
	for _, tc := range cases {
		fires, v := evalCondition(tc.cond, &r, false)
		if fires != tc.fires || v != tc.value {
			t.Errorf("evalCondition(%q) = %v,%v; want %v,%v",
				tc.cond, fires, v, tc.fires, tc.value)
		}
	}
}

func TestEvalCondition_PausedState(t *testing.T) {
	r := row(1, 0, 0)
	if fires, _ := evalCondition("state == paused", &r, true); !fires {
		t.Error("paused condition should fire while paused")
	}
	if fires, _ := evalCondition("state == paused", &r, false); fires {
		t.Error("paused condition should not fire while running")
	}
}

func TestEngine_FireAndResolve(t *testing.T) {
	e := New(config.NotifyConfig{
		Rules: []config.NotifyRule{
			{Name: "low-dps", Condition: "dps < 1000", Severity: "warning"},
		},
	})

	e.Evaluate([]engine.PlayerRow{row(1, 500, 0)}, false)
	active := e.Active()
	if len(active) != 1 || active[0].State != "firing" {
		t.Fatalf("Active after fire = %+v", active)
	}
	if active[0].PlayerUID != 1 {
		t.Errorf("PlayerUID = %d, want 1", active[0].PlayerUID)
	}

	e.Evaluate([]engine.PlayerRow{row(1, 2000, 0)}, false)
	active = e.Active()
	if len(active) != 1 || active[0].State != "resolved" {
		t.Fatalf("Active after resolve = %+v", active)
	}
}

func TestEngine_CooldownSuppressesRefire(t *testing.T) {
	e := New(config.NotifyConfig{
		Rules: []config.NotifyRule{
			{Name: "low-dps", Condition: "dps < 1000", Cooldown: time.Hour},
		},
	})

	rows := []engine.PlayerRow{row(1, 500, 0)}
	e.Evaluate(rows, false)
	e.Evaluate([]engine.PlayerRow{row(1, 2000, 0)}, false) // resolve
	e.Evaluate(rows, false)                                // within cooldown

	firing := 0
	for _, n := range e.Active() {
		if n.State == "firing" {
			firing++
		}
	}
	if firing != 0 {
		t.Errorf("refire within cooldown: %d firing notices", firing)
	}
}

func TestEngine_NoRulesIsNoop(t *testing.T) {
	e := New(config.NotifyConfig{})
	e.Evaluate([]engine.PlayerRow{row(1, 0, 0)}, false)
	if len(e.Active()) != 0 {
		t.Error("engine without rules produced notices")
	}
}

func TestEngine_WebhookDelivery(t *testing.T) {
	var got atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]*Notice
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		if body["notice"] == nil || body["notice"].RuleName != "low-dps" {
			t.Errorf("webhook body = %+v", body)
		}
		got.Add(1)
	}))
	defer srv.Close()

	t.Setenv("TEST_WEBHOOK_URL", srv.URL)
	e := New(config.NotifyConfig{
		Rules: []config.NotifyRule{
			{Name: "low-dps", Condition: "dps < 1000"},
		},
		Webhooks: []config.WebhookConfig{
			{Type: "http", URLEnv: "TEST_WEBHOOK_URL"},
		},
	})

	e.Evaluate([]engine.PlayerRow{row(1, 500, 0)}, false)

	deadline := time.After(2 * time.Second)
	for got.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("webhook never delivered")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestEngine_SlackPayloadCarriesPlayer(t *testing.T) {
	var mu sync.Mutex
	var text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode slack body: %v", err)
		}
		mu.Lock()
		text = body["text"]
		mu.Unlock()
	}))
	defer srv.Close()

	t.Setenv("TEST_SLACK_URL", srv.URL)
	e := New(config.NotifyConfig{
		Rules: []config.NotifyRule{
			{Name: "low-dps", Condition: "dps < 1000", Severity: "warning"},
		},
		Webhooks: []config.WebhookConfig{
			{Type: "slack", URLEnv: "TEST_SLACK_URL"},
		},
	})

	e.Evaluate([]engine.PlayerRow{{UID: 9, Name: "Stormblade", DPS: 500}}, false)

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		got := text
		mu.Unlock()
		if got != "" {
			for _, want := range []string{"Stormblade", "uid 9", "500.00"} {
				if !strings.Contains(got, want) {
					t.Errorf("slack text %q missing %q", got, want)
				}
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("slack webhook never delivered")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}
