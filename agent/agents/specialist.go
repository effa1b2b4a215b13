package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/merchantkit/assistant/agent/contract"
)

// specialist is one tool-calling agent. Next performs a single model step;
// the supervisor owns the execute-and-reinvoke loop so it can suspend on
// sensitive calls.
type specialist struct {
	desc   contractx.AgentDescriptor
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Agent = (*specialist)(nil)

func newSpecialist(
	ctx context.Context,
	desc contractx.AgentDescriptor,
	chatModel einomodel.ToolCallingChatModel,
	infos []*schema.ToolInfo,
) (*specialist, error) {
	if strings.TrimSpace(desc.Prompt) == "" {
		return nil, fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, desc.Name)
	}

	model := einomodel.BaseChatModel(chatModel)
	if len(infos) > 0 {
		toolModel, err := chatModel.WithTools(infos)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, desc.Name, err)
		}
		model = toolModel
	}

	runner, err := compileChatGraph(ctx, model, desc.Prompt, desc.Name+".graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile graph for agent=%s: %v", contractx.ErrModelInvoke, desc.Name, err)
	}

	return &specialist{desc: desc, runner: runner}, nil
}

func (s *specialist) Descriptor() contractx.AgentDescriptor {
	return s.desc
}

func (s *specialist) Next(ctx context.Context, history []contractx.Message) (contractx.Message, error) {
	msg, err := s.runner.Invoke(ctx, map[string]any{
		"history": toSchemaMessages(history),
	})
	if err != nil {
		return contractx.Message{}, invokeError(err, "agent=%s invoke", s.desc.Name)
	}
	if msg == nil {
		return contractx.Message{}, fmt.Errorf("%w: agent=%s returned no message", contractx.ErrSchemaViolation, s.desc.Name)
	}

	intents, err := toToolCallIntents(msg.ToolCalls)
	if err != nil {
		return contractx.Message{}, err
	}
	for _, intent := range intents {
		if !s.desc.Owns(intent.Name) {
			return contractx.Message{}, fmt.Errorf("%w: tool=%s is not allowed for agent=%s", contractx.ErrSchemaViolation, intent.Name, s.desc.Name)
		}
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" && len(intents) == 0 {
		return contractx.Message{}, fmt.Errorf("%w: agent=%s produced an empty reply", contractx.ErrSchemaViolation, s.desc.Name)
	}

	return contractx.Message{
		Role:      contractx.RoleAI,
		AgentName: s.desc.Name,
		Content:   content,
		ToolCalls: intents,
		CreatedAt: time.Now(),
	}, nil
}
