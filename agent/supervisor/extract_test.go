package supervisor

import (
	"testing"

	contractx "github.com/merchantkit/assistant/agent/contract"
)

func TestExtractFinalResponsePrefersSpecializedAgents(t *testing.T) {
	t.Parallel()

	messages := []contractx.Message{
		{Role: contractx.RoleHuman, Content: "How much is MUG-01?"},
		{Role: contractx.RoleAI, AgentName: contractx.AgentProduct, Content: "MUG-01 costs 12.99 USD."},
		{Role: contractx.RoleAI, Content: "Routing complete."},
	}

	got := ExtractFinalResponse(messages)
	if got != "MUG-01 costs 12.99 USD." {
		t.Fatalf("expected the specialized agent answer, got %q", got)
	}
}

func TestExtractFinalResponsePicksMostRecent(t *testing.T) {
	t.Parallel()

	messages := []contractx.Message{
		{Role: contractx.RoleAI, AgentName: contractx.AgentProduct, Content: "First answer."},
		{Role: contractx.RoleHuman, Content: "And the stock?"},
		{Role: contractx.RoleAI, AgentName: contractx.AgentStock, Content: "There are 40 units on hand."},
	}

	got := ExtractFinalResponse(messages)
	if got != "There are 40 units on hand." {
		t.Fatalf("expected latest agent answer, got %q", got)
	}
}

func TestExtractFinalResponseSkipsHandoffChatter(t *testing.T) {
	t.Parallel()

	messages := []contractx.Message{
		{Role: contractx.RoleAI, AgentName: contractx.AgentProduct, Content: "MUG-01 costs 12.99 USD."},
		{Role: contractx.RoleAI, AgentName: contractx.AgentProduct, Content: "Transferring to stock_agent."},
	}

	got := ExtractFinalResponse(messages)
	if got != "MUG-01 costs 12.99 USD." {
		t.Fatalf("handoff chatter should be skipped, got %q", got)
	}
}

func TestExtractFinalResponseSkipsToolCallMessages(t *testing.T) {
	t.Parallel()

	messages := []contractx.Message{
		{Role: contractx.RoleAI, AgentName: contractx.AgentProduct, Content: "Here you go."},
		{
			Role:      contractx.RoleAI,
			AgentName: contractx.AgentProduct,
			Content:   "Looking that up.",
			ToolCalls: []contractx.ToolCallIntent{{ID: "c1", Name: "view_product"}},
		},
	}

	got := ExtractFinalResponse(messages)
	if got != "Here you go." {
		t.Fatalf("tool-call messages should be skipped, got %q", got)
	}
}

func TestExtractFinalResponseFallsBackToUnattributed(t *testing.T) {
	t.Parallel()

	messages := []contractx.Message{
		{Role: contractx.RoleHuman, Content: "Hello"},
		{Role: contractx.RoleAI, Content: "Hello! How can I help you today?"},
	}

	got := ExtractFinalResponse(messages)
	if got != "Hello! How can I help you today?" {
		t.Fatalf("expected unattributed AI answer, got %q", got)
	}
}

func TestExtractFinalResponseFallbackConstant(t *testing.T) {
	t.Parallel()

	if got := ExtractFinalResponse(nil); got != FallbackResponse {
		t.Fatalf("expected fallback, got %q", got)
	}

	noAnswer := []contractx.Message{
		{
			Role:      contractx.RoleAI,
			AgentName: contractx.AgentProduct,
			ToolCalls: []contractx.ToolCallIntent{{ID: "c1", Name: "delete_product"}},
		},
	}
	if got := ExtractFinalResponse(noAnswer); got != FallbackResponse {
		t.Fatalf("expected fallback when no message qualifies, got %q", got)
	}
}

func TestIsHandoffArtifact(t *testing.T) {
	t.Parallel()

	cases := []struct {
		content string
		want    bool
	}{
		{"Transferring to product_agent.", true},
		{"You were successfully transferred to the stock team.", true},
		{"MUG-01 costs 12.99 USD.", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsHandoffArtifact(tc.content); got != tc.want {
			t.Fatalf("IsHandoffArtifact(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}
}
