package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// deliver sends webhook notifications for n to all configured targets.
// Errors are logged but do not affect the caller.
func (e *Engine) deliver(n *Notice) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = e.sendSlack(url, n)
		case "teams":
			err = e.sendTeams(url, n)
		case "http":
			err = e.sendHTTP(url, n)
		default:
			slog.Warn("notify: unknown webhook type — skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("notify: webhook delivery failed",
				"type", wh.Type,
				"rule", n.RuleName,
				"err", err,
			)
		} else {
			slog.Debug("notify: webhook delivered",
				"type", wh.Type,
				"rule", n.RuleName,
				"state", n.State,
			)
		}
	}
}

func (e *Engine) sendSlack(url string, n *Notice) error {
	text := fmt.Sprintf("*%s* %s\nplayer: %s (uid %d), value %.2f",
		severityLabel(n.Severity), n.Message, n.PlayerName, n.PlayerUID, n.Value)
	if n.State == "resolved" {
		text += "\nstate: resolved"
	}
	body, _ := json.Marshal(map[string]string{"text": text})
	return e.post(url, body)
}

func (e *Engine) sendTeams(url string, n *Notice) error {
	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(n.Severity),
		"summary":    n.RuleName,
		"title":      fmt.Sprintf("embermeter notice: %s", n.RuleName),
		"text":       n.Message,
		"sections": []map[string]interface{}{
			{
				"facts": []map[string]string{
					{"name": "Player", "value": fmt.Sprintf("%s (uid %d)", n.PlayerName, n.PlayerUID)},
					{"name": "Value", "value": fmt.Sprintf("%.2f", n.Value)},
					{"name": "State", "value": n.State},
				},
			},
		},
	}
	body, _ := json.Marshal(payload)
	return e.post(url, body)
}

func (e *Engine) sendHTTP(url string, n *Notice) error {
	body, _ := json.Marshal(map[string]interface{}{"notice": n})
	return e.post(url, body)
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
