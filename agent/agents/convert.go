package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/merchantkit/assistant/agent/contract"
)

func toSchemaMessages(history []contractx.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case contractx.RoleSystem:
			out = append(out, schema.SystemMessage(msg.Content))
		case contractx.RoleHuman:
			out = append(out, schema.UserMessage(msg.Content))
		case contractx.RoleTool:
			out = append(out, &schema.Message{
				Role:       schema.Tool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
				ToolName:   msg.ToolName,
			})
		case contractx.RoleAI:
			m := &schema.Message{
				Role:    schema.Assistant,
				Content: msg.Content,
			}
			for _, call := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, schema.ToolCall{
					ID:   call.ID,
					Type: "function",
					Function: schema.FunctionCall{
						Name:      call.Name,
						Arguments: encodeArgs(call.Arguments),
					},
				})
			}
			out = append(out, m)
		}
	}
	return out
}

func encodeArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// toToolCallIntents normalizes the model's tool calls into the single
// contract representation, rejecting unnamed calls and malformed argument
// payloads.
func toToolCallIntents(calls []schema.ToolCall) ([]contractx.ToolCallIntent, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	intents := make([]contractx.ToolCallIntent, 0, len(calls))
	for _, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		intents = append(intents, contractx.ToolCallIntent{
			ID:        call.ID,
			Name:      name,
			Arguments: args,
		})
	}
	return intents, nil
}
