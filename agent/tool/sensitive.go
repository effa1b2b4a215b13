package tool

import (
	"fmt"
	"strings"
)

// Sensitivity marks tools that must not run without human approval.
type Sensitivity map[string]bool

// DefaultSensitive lists the destructive or account-creating tools gated
// by default.
func DefaultSensitive() []string {
	return []string{ToolDeleteProduct, ToolDeleteCustomer, ToolCreateCustomer, ToolCreateOrder}
}

// NewSensitivity builds the gated set. Unknown tool names are a startup
// configuration error, not something to discover at runtime.
func NewSensitivity(names []string) (Sensitivity, error) {
	s := make(Sensitivity, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !Known(name) {
			return nil, fmt.Errorf("unknown sensitive tool %q", name)
		}
		s[name] = true
	}
	return s, nil
}

func (s Sensitivity) IsSensitive(name string) bool {
	return s[name]
}
