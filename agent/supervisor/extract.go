package supervisor

import (
	"strings"

	contractx "github.com/merchantkit/assistant/agent/contract"
)

// FallbackResponse is returned when no transcript message qualifies as an
// answer.
const FallbackResponse = "No meaningful response found."

// Handoff acknowledgements and tool narration that must never be shown as
// the final answer.
var meaninglessMarkers = []string{
	"transferring",
	"transferred",
	"if you have any further",
	"i have successfully",
}

// isMeaningless filters messages that carry a pending tool-call intent or
// consist of handoff boilerplate.
func isMeaningless(msg contractx.Message) bool {
	if msg.HasToolCalls() {
		return true
	}
	content := strings.ToLower(strings.TrimSpace(msg.Content))
	if content == "" {
		return true
	}
	for _, marker := range meaninglessMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// IsHandoffArtifact reports whether content is routing metadata rather than
// a user-visible answer.
func IsHandoffArtifact(content string) bool {
	c := strings.ToLower(strings.TrimSpace(content))
	if c == "" {
		return false
	}
	return strings.HasPrefix(c, "transferring") || strings.Contains(c, "successfully transferred")
}

// ExtractFinalResponse reduces a transcript to the single display string,
// in strict priority order:
//  1. most recent meaningful message from a named specialized agent,
//  2. most recent meaningful message of any origin,
//  3. most recent non-empty AI message regardless of filter,
//  4. the literal fallback.
func ExtractFinalResponse(history []contractx.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role == contractx.RoleAI && strings.HasSuffix(msg.AgentName, "_agent") && !isMeaningless(msg) {
			return strings.TrimSpace(msg.Content)
		}
	}

	for i := len(history) - 1; i >= 0; i-- {
		if !isMeaningless(history[i]) {
			return strings.TrimSpace(history[i].Content)
		}
	}

	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role == contractx.RoleAI && strings.TrimSpace(msg.Content) != "" {
			return strings.TrimSpace(msg.Content)
		}
	}

	return FallbackResponse
}
