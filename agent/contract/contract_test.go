package contract

import (
	"errors"
	"strings"
	"testing"
)

func TestResumeActionNormalize(t *testing.T) {
	t.Parallel()

	action := ResumeAction{Token: "  tok-1 ", Decision: " APPROVE "}.Normalize()
	if action.Decision != ResumeApprove {
		t.Fatalf("expected approve, got %q", action.Decision)
	}
	if action.Token != "tok-1" {
		t.Fatalf("expected trimmed token, got %q", action.Token)
	}
}

func TestResumeActionValid(t *testing.T) {
	t.Parallel()

	for _, decision := range []ResumeDecision{ResumeApprove, ResumeEdit, ResumeReject} {
		if !(ResumeAction{Decision: decision}).Valid() {
			t.Fatalf("%s should be valid", decision)
		}
	}
	for _, decision := range []ResumeDecision{"", "maybe", "APPROVE"} {
		if (ResumeAction{Decision: decision}).Valid() {
			t.Fatalf("%q should be invalid", decision)
		}
	}
}

func TestAgentDescriptorOwns(t *testing.T) {
	t.Parallel()

	desc := AgentDescriptor{
		Name:  AgentProduct,
		Tools: []string{"view_product", "search_products"},
	}
	if !desc.Owns("view_product") {
		t.Fatal("descriptor should own view_product")
	}
	if desc.Owns("delete_customer") {
		t.Fatal("descriptor should not own delete_customer")
	}
}

func TestValidationErrorMatchesSentinel(t *testing.T) {
	t.Parallel()

	err := error(&ValidationError{Tool: "view_product", Fields: []string{"sku"}})
	if !errors.Is(err, ErrValidation) {
		t.Fatal("ValidationError should match ErrValidation")
	}
	if !strings.Contains(err.Error(), "sku") {
		t.Fatalf("message should list fields, got %q", err.Error())
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatal("errors.As should recover *ValidationError")
	}
}

func TestBackendErrorKeepsMessageVerbatim(t *testing.T) {
	t.Parallel()

	const msg = "A customer with the same email address already exists in an associated website."
	err := error(&BackendError{Status: 400, Message: msg})
	if err.Error() != msg {
		t.Fatalf("message must be verbatim, got %q", err.Error())
	}
	if !errors.Is(err, ErrBackend) {
		t.Fatal("BackendError should match ErrBackend")
	}
}
