package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kochmarvin/docedit/internal/schema"
)

func sampleResult() *schema.ExecuteResult {
	return &schema.ExecuteResult{
		OK:        false,
		Message:   `text "teh" not found in document`,
		ErrorType: "execution_failed",
		Details: map[string]any{
			"action_index": 1,
			"action_type":  "correct_text",
		},
	}
}

func TestRenderJSONRoundTrip(t *testing.T) {
	b, err := RenderJSON(sampleResult())
	if err != nil {
		t.Fatalf("RenderJSON error: %v", err)
	}
	var back schema.ExecuteResult
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	if back.Message != sampleResult().Message || back.ErrorType != "execution_failed" {
		t.Errorf("round trip lost fields: %+v", back)
	}
}

func TestRenderJSONNil(t *testing.T) {
	if _, err := RenderJSON(nil); err == nil {
		t.Fatal("nil value accepted")
	}
}

func TestRenderResultMarkdown(t *testing.T) {
	md := RenderResultMarkdown(sampleResult())
	for _, want := range []string{"FAILED", "execution_failed", "action_index", "correct_text"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}

	ok := RenderResultMarkdown(&schema.ExecuteResult{OK: true, Message: "Successfully executed 2 action(s)"})
	if !strings.Contains(ok, "OK") || strings.Contains(ok, "Error type") {
		t.Errorf("success markdown wrong:\n%s", ok)
	}
}

func TestRenderDocumentMarkdown(t *testing.T) {
	doc := &schema.SemanticDocument{
		Epoch: "epoch-1",
		Sections: []schema.Section{
			{ID: "s1", Title: "Findings", Level: 1, Blocks: []string{"b1", "b2"}},
		},
		Blocks: map[string]schema.SemanticBlock{
			"b1": {Type: schema.BlockHeading, Text: "Findings", Level: 1},
			"b2": {Type: schema.BlockParagraph, Text: "Revenue | grew."},
		},
	}
	md := RenderDocumentMarkdown(doc)
	for _, want := range []string{"epoch-1", "Findings", "`b1`", "`b2`"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	// Pipe characters must not break table-ish lines.
	if !strings.Contains(md, `Revenue \| grew.`) {
		t.Errorf("pipe not escaped:\n%s", md)
	}
}

func TestStatusLine(t *testing.T) {
	line := StatusLine(sampleResult())
	if !strings.Contains(line, "FAILED") || !strings.Contains(line, "execution_failed") {
		t.Errorf("line = %q", line)
	}
	okLine := StatusLine(&schema.ExecuteResult{OK: true, Message: "done"})
	if !strings.Contains(okLine, "OK") || !strings.Contains(okLine, "done") {
		t.Errorf("line = %q", okLine)
	}
}
