package llm

import (
	"errors"
	"testing"

	contractx "github.com/merchantkit/assistant/agent/contract"
)

func baseConfig() Config {
	return Config{
		APIKey:      "sk-or-test",
		Model:       "openai/gpt-4o-mini",
		Temperature: 0.5,

		RouterTemperature:   -1,
		CustomerTemperature: -1,
		ProductTemperature:  -1,
		StockTemperature:    -1,
		ShipmentTemperature: -1,
		OrderTemperature:    -1,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	missingKey := baseConfig()
	missingKey.APIKey = "  "
	if err := missingKey.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("missing api key: got %v, want ErrValidation", err)
	}

	missingModel := baseConfig()
	missingModel.Model = ""
	if err := missingModel.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("missing model: got %v, want ErrValidation", err)
	}
}

func TestOpenRouterForDefaults(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()

	got := cfg.OpenRouterFor(contractx.AgentProduct)
	if got.Model != "openai/gpt-4o-mini" {
		t.Fatalf("model = %q, want shared default", got.Model)
	}
	if got.Temperature != 0.5 {
		t.Fatalf("temperature = %v, want shared default", got.Temperature)
	}
}

func TestOpenRouterForOverrides(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.RouterModel = "x-ai/grok-4.1-fast"
	cfg.RouterTemperature = 0
	cfg.OrderModel = "anthropic/claude-sonnet-4"

	router := cfg.OpenRouterFor(RoleRouter)
	if router.Model != "x-ai/grok-4.1-fast" {
		t.Fatalf("router model = %q", router.Model)
	}
	if router.Temperature != 0 {
		t.Fatalf("router temperature = %v, want 0", router.Temperature)
	}

	// A model override on its own leaves the shared temperature alone.
	order := cfg.OpenRouterFor(contractx.AgentOrder)
	if order.Model != "anthropic/claude-sonnet-4" {
		t.Fatalf("order model = %q", order.Model)
	}
	if order.Temperature != 0.5 {
		t.Fatalf("order temperature = %v, want shared default", order.Temperature)
	}

	// Roles without overrides pass through untouched.
	stock := cfg.OpenRouterFor(contractx.AgentStock)
	if stock.Model != "openai/gpt-4o-mini" || stock.Temperature != 0.5 {
		t.Fatalf("stock config = %+v, want shared defaults", stock)
	}
}
