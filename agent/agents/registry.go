package agents

import (
	"context"
	"fmt"

	contractx "github.com/merchantkit/assistant/agent/contract"
	llmx "github.com/merchantkit/assistant/agent/llm"
	promptx "github.com/merchantkit/assistant/agent/prompt"
	toolx "github.com/merchantkit/assistant/agent/tool"
)

// Registry holds the router plus every specialized agent, keyed by name.
type Registry struct {
	router contractx.Router
	agents map[string]contractx.Agent
	order  []string
}

func (r *Registry) Router() contractx.Router {
	return r.router
}

func (r *Registry) Agent(name string) (contractx.Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// Members returns agent names in registration order.
func (r *Registry) Members() []string {
	return append([]string(nil), r.order...)
}

func NewRegistry(ctx context.Context, cfg llmx.Config, catalog *toolx.Catalog) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: tool catalog is required", contractx.ErrValidation)
	}

	prompts := promptx.LoadPromptSet()

	specs := []struct {
		name   string
		prompt string
	}{
		{contractx.AgentCustomer, prompts.Customer},
		{contractx.AgentProduct, prompts.Product},
		{contractx.AgentStock, prompts.Stock},
		{contractx.AgentShipment, prompts.Shipment},
		{contractx.AgentOrder, prompts.Order},
	}

	registry := &Registry{
		agents: make(map[string]contractx.Agent, len(specs)),
		order:  make([]string, 0, len(specs)),
	}

	for _, spec := range specs {
		modelCfg := cfg.OpenRouterFor(spec.name)
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create model for agent=%s: %v", contractx.ErrModelInvoke, spec.name, err)
		}

		desc := contractx.AgentDescriptor{
			Name:        spec.name,
			Specialized: true,
			Tools:       toolx.ToolsForAgent(spec.name),
			Prompt:      spec.prompt,
		}

		agent, err := newSpecialist(ctx, desc, chatModel, catalog.InfosForAgent(spec.name))
		if err != nil {
			return nil, err
		}

		registry.agents[spec.name] = agent
		registry.order = append(registry.order, spec.name)
	}

	routerCfg := cfg.OpenRouterFor(llmx.RoleRouter)
	routerModel, err := routerCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create router model: %v", contractx.ErrModelInvoke, err)
	}
	router, err := newRouter(ctx, routerModel, prompts.Router, registry.order)
	if err != nil {
		return nil, err
	}
	registry.router = router

	return registry, nil
}
