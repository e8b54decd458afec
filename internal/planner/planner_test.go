package planner

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kochmarvin/docedit/internal/schema"
)

// mockProvider is a test double for Provider.
type mockProvider struct {
	responses []string // returned in order; last entry is repeated if list exhausted
	callCount int
}

func (m *mockProvider) Complete(_ context.Context, _, _ string, _ int, _ float64) (string, error) {
	if len(m.responses) == 0 {
		m.callCount++
		return "", fmt.Errorf("mockProvider: no responses configured")
	}
	idx := m.callCount
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.callCount++
	return m.responses[idx], nil
}

func withMock(t *testing.T, m *mockProvider) {
	t.Helper()
	orig := NewProvider
	NewProvider = func(providerName, model string) (Provider, error) { return m, nil }
	t.Cleanup(func() { NewProvider = orig })
}

func testSnapshot() *schema.SemanticDocument {
	return &schema.SemanticDocument{
		Epoch: "test-epoch",
		Sections: []schema.Section{
			{ID: "s1", Title: "Summary", Level: 1, Blocks: []string{"b1"}},
		},
		Blocks: map[string]schema.SemanticBlock{
			"b1": {Type: schema.BlockHeading, Text: "Summary", Level: 1},
		},
	}
}

const validLegacyPlan = `{"version": "1.0", "actions": [{"type": "correct_text", "search_text": "teh", "replacement_text": "the"}]}`

const validSemanticPlan = `{"version": "1.0", "actions": [], "ops": [{"action": "replace", "target_block_id": "b1", "content": "Overview"}]}`

func TestRequestLegacyPlan(t *testing.T) {
	mock := &mockProvider{responses: []string{validLegacyPlan}}
	withMock(t, mock)

	res, err := Request(context.Background(), testSnapshot(), "fix the typo", Options{})
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if res.Semantic != nil {
		t.Error("legacy plan produced a semantic result")
	}
	if len(res.Plan.Actions) != 1 {
		t.Fatalf("got %d actions", len(res.Plan.Actions))
	}
	if mock.callCount != 1 {
		t.Errorf("callCount = %d, want 1", mock.callCount)
	}
}

func TestRequestSemanticPlan(t *testing.T) {
	mock := &mockProvider{responses: []string{validSemanticPlan}}
	withMock(t, mock)

	res, err := Request(context.Background(), testSnapshot(), "retitle the summary", Options{})
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if res.Semantic == nil || len(res.Semantic.Ops) != 1 {
		t.Fatalf("Semantic = %+v", res.Semantic)
	}
}

func TestRequestStripsFences(t *testing.T) {
	mock := &mockProvider{responses: []string{"```json\n" + validLegacyPlan + "\n```"}}
	withMock(t, mock)

	res, err := Request(context.Background(), testSnapshot(), "x", Options{})
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if len(res.Plan.Actions) != 1 {
		t.Fatalf("got %d actions", len(res.Plan.Actions))
	}
}

func TestRequestRepairSucceeds(t *testing.T) {
	mock := &mockProvider{responses: []string{`{"version": "2.0", "actions": []}`, validLegacyPlan}}
	withMock(t, mock)

	res, err := Request(context.Background(), testSnapshot(), "x", Options{})
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if mock.callCount != 2 {
		t.Errorf("callCount = %d, want 2 (initial + repair)", mock.callCount)
	}
	if len(res.Plan.Actions) != 1 {
		t.Fatalf("got %d actions", len(res.Plan.Actions))
	}
}

func TestRequestRepairFails(t *testing.T) {
	mock := &mockProvider{responses: []string{"not json"}}
	withMock(t, mock)

	_, err := Request(context.Background(), testSnapshot(), "x", Options{})
	if err != ErrInvalidPlanOutput {
		t.Fatalf("err = %v, want ErrInvalidPlanOutput", err)
	}
	// Exactly one repair attempt, never more.
	if mock.callCount != 2 {
		t.Errorf("callCount = %d, want 2", mock.callCount)
	}
}

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{\"a\": 1}", `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"~~~\n{\"a\": 1}\n~~~", `{"a": 1}`},
		{"```json\n{\"a\": 1}", `{"a": 1}`}, // truncated: opening fence only
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		if got := stripMarkdownFences(tt.in); got != tt.want {
			t.Errorf("stripMarkdownFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFixInvalidJSONEscapes(t *testing.T) {
	in := `{"search_text": "\d+ items"}`
	want := `{"search_text": "\\d+ items"}`
	if got := fixInvalidJSONEscapes(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// Valid escapes stay untouched.
	in = `{"a": "line\nbreak \"quoted\""}`
	if got := fixInvalidJSONEscapes(in); got != in {
		t.Errorf("valid escapes rewritten: %q", got)
	}
}

func TestBuildUserPromptEmbedsSnapshot(t *testing.T) {
	p, err := buildUserPrompt(testSnapshot(), "make it shorter")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"DOCUMENT STRUCTURE", "test-epoch", "b1", "make it shorter"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestDefaultNewProviderUnknown(t *testing.T) {
	if _, err := defaultNewProvider("cohere", "model"); err == nil {
		t.Fatal("unknown provider accepted")
	}
}

