package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/merchantkit/assistant/agent/contract"
	"github.com/merchantkit/assistant/magento"
)

// Tool arguments arrive as generic JSON maps, either parsed from a model's
// tool call or from a resume edit. These helpers coerce the loose types.

func stringArg(args map[string]any, key string) (string, bool) {
	raw, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func numberArg(args map[string]any, key string) (float64, bool) {
	raw, ok := args[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func intArg(args map[string]any, key string) (int64, bool) {
	f, ok := numberArg(args, key)
	if !ok || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

func boolArg(args map[string]any, key string, fallback bool) bool {
	raw, ok := args[key]
	if !ok {
		return fallback
	}
	b, ok := raw.(bool)
	if !ok {
		return fallback
	}
	return b
}

func listArg(args map[string]any, key string) ([]map[string]any, bool) {
	raw, ok := args[key]
	if !ok {
		return nil, false
	}
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t\n")
}

func invalid(tool string, fields ...string) (contractx.ToolResult, error) {
	return contractx.ToolResult{}, &contractx.ValidationError{Tool: tool, Fields: fields}
}

// finish folds a backend call outcome into a ToolResult. Backend rejections
// keep their message verbatim so the model relays them unchanged; timeouts
// and transport failures propagate as errors.
func finish(tool string, result any, err error) (contractx.ToolResult, error) {
	if err == nil {
		return contractx.ToolResult{Tool: tool, Result: result}, nil
	}

	var backendErr *magento.Error
	if errors.As(err, &backendErr) {
		return contractx.ToolResult{Tool: tool, Error: backendErr.Message}, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return contractx.ToolResult{}, fmt.Errorf("%w: tool=%s: %v", contractx.ErrUpstreamTimeout, tool, err)
	}
	return contractx.ToolResult{}, fmt.Errorf("tool=%s: %w", tool, err)
}
