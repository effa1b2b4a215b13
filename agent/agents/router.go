package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/merchantkit/assistant/agent/contract"
)

const routeFinish = "FINISH"

// routerHistoryLimit bounds how much transcript the routing model sees.
const routerHistoryLimit = 20

type routerLLMOutput struct {
	Next     string `json:"next"`
	Response string `json:"response,omitempty"`
}

type llmRouter struct {
	runner  compose.Runnable[map[string]any, routerLLMOutput]
	members map[string]bool
}

var _ contractx.Router = (*llmRouter)(nil)

func newRouter(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	members []string,
) (*llmRouter, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: router", contractx.ErrPromptMissing)
	}

	runner, err := compileStructuredGraph[routerLLMOutput](ctx, chatModel, systemPrompt, "router.graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile router graph: %v", contractx.ErrModelInvoke, err)
	}

	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}

	return &llmRouter{runner: runner, members: memberSet}, nil
}

func (r *llmRouter) Route(ctx context.Context, history []contractx.Message, lastAgent string) (contractx.RoutingDecision, error) {
	payload := map[string]any{
		"last_agent": lastAgent,
		"task":       "Decide who acts next, or FINISH with the final response.",
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.RoutingDecision{}, fmt.Errorf("%w: marshal router payload: %v", contractx.ErrValidation, err)
	}

	recent := history
	if len(recent) > routerHistoryLimit {
		recent = recent[len(recent)-routerHistoryLimit:]
	}

	out, err := r.runner.Invoke(ctx, map[string]any{
		"history": toSchemaMessages(recent),
		"input":   string(input),
	})
	if err != nil {
		return contractx.RoutingDecision{}, invokeError(err, "router invoke")
	}

	next := strings.TrimSpace(out.Next)
	if strings.EqualFold(next, routeFinish) {
		return contractx.RoutingDecision{
			Kind:  contractx.RouteTerminate,
			Final: strings.TrimSpace(out.Response),
		}, nil
	}
	if !r.members[next] {
		return contractx.RoutingDecision{}, fmt.Errorf("%w: router chose unknown agent %q", contractx.ErrSchemaViolation, next)
	}

	if next == lastAgent {
		return contractx.RoutingDecision{Kind: contractx.RouteContinue, Agent: next}, nil
	}
	return contractx.RoutingDecision{Kind: contractx.RouteDelegate, Agent: next}, nil
}
