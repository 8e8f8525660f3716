// Package response turns free text model output into structured coach responses.
//
// The model is an unreliable text generator: it may answer with a perfect JSON
// object, a JSON object wrapped in prose, or plain prose. Parse never fails, the
// worst outcome is a message only response.
package response

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/spf13/cast"

	"github.com/slok/plancoach/internal/model"
)

// Source tells which step of the fallback chain produced a response.
type Source string

const (
	SourceJSON      Source = "json"
	SourceEmbedded  Source = "embedded_json"
	SourcePlainText Source = "plain_text"
)

// Parse converts raw model output into an agent response.
func Parse(raw string) model.AgentResponse {
	resp, _ := ParseWithSource(raw)
	return resp
}

// ParseWithSource is like Parse but also returns the fallback step used.
func ParseWithSource(raw string) (model.AgentResponse, Source) {
	// 1. Whole text.
	if obj, ok := decodeObject(raw); ok {
		return fromObject(obj), SourceJSON
	}

	// 2. First `{` to last `}`.
	if sub, ok := embeddedObject(raw); ok {
		if obj, ok := decodeObject(sub); ok {
			return fromObject(obj), SourceEmbedded
		}
	}

	// 3. Plain text.
	return model.AgentResponse{
		Message:    messageOrDefault(strings.TrimSpace(raw)),
		Operations: []model.Operation{},
	}, SourcePlainText
}

func decodeObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func embeddedObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func fromObject(obj map[string]any) model.AgentResponse {
	msg, _ := obj["message"].(string)
	return model.AgentResponse{
		Message:    messageOrDefault(strings.TrimSpace(msg)),
		Operations: operationsFrom(obj["operations"]),
		WeeklyPlan: weeklyPlanFrom(obj["weeklyPlan"]),
	}
}

func messageOrDefault(msg string) string {
	if msg == "" {
		return model.NoResponseMessage
	}
	return msg
}

func operationsFrom(v any) []model.Operation {
	ops := []model.Operation{}

	items, ok := v.([]any)
	if !ok {
		// A single operation object instead of a list.
		if obj, isObj := v.(map[string]any); isObj {
			items = []any{obj}
		}
	}

	for _, item := range items {
		switch it := item.(type) {
		case map[string]any:
			ops = append(ops, model.OperationFromMap(it))
		case nil:
		default:
			// Keep whatever it is, never drop.
			data, err := json.Marshal(it)
			if err != nil {
				continue
			}
			var op model.Operation
			if err := json.Unmarshal(data, &op); err == nil {
				ops = append(ops, op)
			}
		}
	}

	return ops
}

func weeklyPlanFrom(v any) *model.WeeklyPlan {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	week, err := cast.ToIntE(obj["week"])
	if err != nil {
		return nil
	}

	plan := &model.WeeklyPlan{Week: week, Tasks: []string{}}
	rawTasks, _ := obj["tasks"].([]any)
	for _, rt := range rawTasks {
		var text string
		switch t := rt.(type) {
		case string:
			text = t
		case map[string]any:
			// Some answers send task objects instead of plain text.
			text, _ = t["text"].(string)
		}
		text = strings.TrimSpace(text)
		if text != "" {
			plan.Tasks = append(plan.Tasks, text)
		}
	}

	if em, ok := obj["estimatedMinutes"]; ok && em != nil {
		if minutes, err := cast.ToIntE(em); err == nil && minutes > 0 {
			plan.EstimatedMinutes = &minutes
		}
	}

	return plan
}

var messageFieldRegexp = regexp.MustCompile(`"message"\s*:\s*"((?:[^"\\]|\\.)*)"`)

// NormalizeContent extracts the human readable text from persisted message content
// that embeds a JSON response. Clean text is returned verbatim, so
// NormalizeContent(NormalizeContent(x)) == NormalizeContent(x).
func NormalizeContent(content string) string {
	for {
		next := normalizeContentOnce(content)
		if next == content {
			return content
		}
		content = next
	}
}

func normalizeContentOnce(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.Contains(trimmed, `"message"`) {
		return content
	}

	if obj, ok := decodeObject(trimmed); ok {
		if msg, ok := obj["message"].(string); ok && msg != "" {
			return msg
		}
		return content
	}

	m := messageFieldRegexp.FindStringSubmatch(trimmed)
	if m == nil {
		return content
	}

	var msg string
	if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &msg); err != nil || msg == "" {
		return content
	}
	return msg
}
