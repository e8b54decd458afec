package validate

import (
	"strings"
	"testing"

	"github.com/tidwall/sjson"

	"github.com/kochmarvin/docedit/internal/errors"
	"github.com/kochmarvin/docedit/internal/schema"
)

const basePlan = `{
  "version": "1.0",
  "actions": [
    {
      "type": "replace_section",
      "anchor": "summary",
      "blocks": [
        {"type": "heading", "text": "Summary", "level": 2},
        {"type": "paragraph", "text": "Revenue grew in the third quarter."}
      ]
    },
    {
      "type": "correct_text",
      "search_text": "teh",
      "replacement_text": "the",
      "case_sensitive": false
    }
  ]
}`

func TestPlanValid(t *testing.T) {
	plan, err := Plan([]byte(basePlan))
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if len(plan.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(plan.Actions))
	}
	if plan.Actions[0].Type != schema.ActionReplaceSection {
		t.Errorf("actions[0].Type = %q, want %q", plan.Actions[0].Type, schema.ActionReplaceSection)
	}
	if plan.Actions[1].SearchText != "teh" {
		t.Errorf("actions[1].SearchText = %q, want %q", plan.Actions[1].SearchText, "teh")
	}
}

func TestPlanEmptyActionsEnvelope(t *testing.T) {
	// An empty actions array is the envelope for a semantic plan. It must
	// pass even with extra top-level keys that would otherwise be rejected.
	raw := `{"version": "1.0", "actions": [], "ops": [{"action": "replace", "target_block_id": "b1", "content": "x"}]}`
	plan, err := Plan([]byte(raw))
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if len(plan.Actions) != 0 {
		t.Fatalf("expected 0 actions, got %d", len(plan.Actions))
	}
}

func TestPlanUnknownTopLevelKey(t *testing.T) {
	raw, err := sjson.Set(basePlan, "metadata", "extra")
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "metadata")
}

func TestPlanVersion(t *testing.T) {
	for _, v := range []string{"2.0", "1", ""} {
		raw, err := sjson.Set(basePlan, "version", v)
		if err != nil {
			t.Fatal(err)
		}
		assertInvalid(t, raw, "version")
	}
	raw, err := sjson.Delete(basePlan, "version")
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "version")
}

func TestPlanTooManyActions(t *testing.T) {
	raw := basePlan
	action := map[string]any{
		"type":             "correct_text",
		"search_text":      "a",
		"replacement_text": "b",
	}
	var err error
	for i := 0; i < schema.MaxActions; i++ {
		raw, err = sjson.Set(raw, "actions.-1", action)
		if err != nil {
			t.Fatal(err)
		}
	}
	assertInvalid(t, raw, "actions")
}

func TestPlanTooManyBlocks(t *testing.T) {
	raw := basePlan
	var err error
	for i := 0; i < schema.MaxBlocks; i++ {
		raw, err = sjson.Set(raw, "actions.0.blocks.-1", map[string]any{"type": "paragraph", "text": "filler"})
		if err != nil {
			t.Fatal(err)
		}
	}
	assertInvalid(t, raw, "actions[0].blocks")
}

func TestPlanParagraphLineBreak(t *testing.T) {
	raw, err := sjson.Set(basePlan, "actions.0.blocks.1.text", "line one\nline two")
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[0].blocks[1].text")
}

func TestPlanHeadingLevel(t *testing.T) {
	for _, lvl := range []any{0, 4, 1.5, "1"} {
		raw, err := sjson.Set(basePlan, "actions.0.blocks.0.level", lvl)
		if err != nil {
			t.Fatal(err)
		}
		assertInvalid(t, raw, "actions[0].blocks[0].level")
	}
}

func TestPlanUnknownActionType(t *testing.T) {
	raw, err := sjson.Set(basePlan, "actions.1.type", "delete_everything")
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[1].type")
}

func TestPlanCorrectTextFields(t *testing.T) {
	raw, err := sjson.Delete(basePlan, "actions.1.search_text")
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[1].search_text")

	// Empty replacement erases the match; it must be allowed.
	raw, err = sjson.Set(basePlan, "actions.1.replacement_text", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Plan([]byte(raw)); err != nil {
		t.Errorf("empty replacement_text rejected: %v", err)
	}

	raw, err = sjson.Set(basePlan, "actions.1.case_sensitive", "yes")
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[1].case_sensitive")
}

func TestPlanInsertText(t *testing.T) {
	valid := `{
	  "version": "1.0",
	  "actions": [
	    {
	      "type": "insert_text",
	      "anchor": "main",
	      "location": "after_heading",
	      "heading_text": "Summary",
	      "blocks": [{"type": "paragraph", "text": "New content."}]
	    }
	  ]
	}`
	if _, err := Plan([]byte(valid)); err != nil {
		t.Fatalf("Plan error: %v", err)
	}

	raw, err := sjson.Delete(valid, "actions.0.heading_text")
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[0].heading_text")

	raw, err = sjson.Set(valid, "actions.0.location", "middle")
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[0].location")

	raw, err = sjson.Set(valid, "actions.0.location", "at_position")
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[0].position")

	raw, err = sjson.Set(raw, "actions.0.position", -1)
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[0].position")

	raw, err = sjson.Set(raw, "actions.0.position", 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Plan([]byte(raw)); err != nil {
		t.Errorf("valid at_position rejected: %v", err)
	}
}

func TestPlanHeadingStyleTargets(t *testing.T) {
	valid := `{
	  "version": "1.0",
	  "actions": [
	    {
	      "type": "update_heading_style",
	      "target": "all",
	      "style": {"color": "#FF0000", "bold": true}
	    }
	  ]
	}`
	if _, err := Plan([]byte(valid)); err != nil {
		t.Fatalf("Plan error: %v", err)
	}

	// heading_text with target "all" is contradictory.
	raw, err := sjson.Set(valid, "actions.0.heading_text", "Summary")
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[0].heading_text")

	raw, err = sjson.Set(valid, "actions.0.target", "specific")
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[0].heading_text")

	raw, err = sjson.Set(raw, "actions.0.heading_text", "Summary")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Plan([]byte(raw)); err != nil {
		t.Errorf("valid specific target rejected: %v", err)
	}

	raw, err = sjson.Delete(valid, "actions.0.style")
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[0].style")
}

func TestPlanTextTooLong(t *testing.T) {
	raw, err := sjson.Set(basePlan, "actions.1.replacement_text", strings.Repeat("x", schema.MaxTextLen+1))
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[1].replacement_text")
}

func TestPlanTextLengthCountsRunes(t *testing.T) {
	// The length bound is in characters. A maximum-length text of two-byte
	// runes is twice the bound in bytes and must still be accepted.
	raw, err := sjson.Set(basePlan, "actions.1.replacement_text", strings.Repeat("é", schema.MaxTextLen))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Plan([]byte(raw)); err != nil {
		t.Errorf("Plan rejected maximum-length multibyte text: %v", err)
	}

	raw, err = sjson.Set(basePlan, "actions.1.replacement_text", strings.Repeat("é", schema.MaxTextLen+1))
	if err != nil {
		t.Fatal(err)
	}
	assertInvalid(t, raw, "actions[1].replacement_text")
}

func TestPlanNotJSON(t *testing.T) {
	for _, raw := range []string{"", "not json", "[1,2,3]", `"a string"`} {
		if _, err := Plan([]byte(raw)); err == nil {
			t.Errorf("Plan(%q) accepted invalid payload", raw)
		}
	}
}

func TestValidColor(t *testing.T) {
	tests := []struct {
		color string
		want  bool
	}{
		{"#FF0000", true},
		{"#abc", true},
		{"rgb(255, 0, 0)", true},
		{"rgba(0,0,0,0.5)", true},
		{"RED", true},
		{"grey", true},
		{"#FF00", false},
		{"rgb(255,0)", false},
		{"chartreuse", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidColor(tt.color); got != tt.want {
			t.Errorf("ValidColor(%q) = %v, want %v", tt.color, got, tt.want)
		}
	}
}

func TestSemanticPlanValid(t *testing.T) {
	raw := `{
	  "version": "1.0",
	  "actions": [],
	  "ops": [
	    {"action": "replace", "target_block_id": "b2", "content": "Updated text.", "reason": "typo"},
	    {"action": "insert_after", "target_block_id": "b2", "content": ""}
	  ]
	}`
	plan, err := SemanticPlan([]byte(raw))
	if err != nil {
		t.Fatalf("SemanticPlan error: %v", err)
	}
	if len(plan.Ops) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(plan.Ops))
	}
	if plan.Ops[0].Action != schema.SemanticReplace {
		t.Errorf("ops[0].Action = %q, want %q", plan.Ops[0].Action, schema.SemanticReplace)
	}
}

func TestSemanticPlanInvalid(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"missing ops", `{"version": "1.0", "actions": []}`, "ops"},
		{"unknown action", `{"ops": [{"action": "delete", "target_block_id": "b1", "content": "x"}]}`, "ops[0].action"},
		{"missing target", `{"ops": [{"action": "replace", "content": "x"}]}`, "ops[0].target_block_id"},
		{"empty target", `{"ops": [{"action": "replace", "target_block_id": " ", "content": "x"}]}`, "ops[0].target_block_id"},
		{"missing content", `{"ops": [{"action": "replace", "target_block_id": "b1"}]}`, "ops[0].content"},
	}
	for _, tt := range tests {
		_, err := SemanticPlan([]byte(tt.raw))
		if err == nil {
			t.Errorf("%s: accepted invalid plan", tt.name)
			continue
		}
		var verr *errors.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: error is %T, want *errors.ValidationError", tt.name, err)
			continue
		}
		if got := verr.Details["field"]; got != tt.field {
			t.Errorf("%s: field = %v, want %q", tt.name, got, tt.field)
		}
	}
}

// assertInvalid checks that raw is rejected with a ValidationError naming
// the expected field.
func assertInvalid(t *testing.T, raw, field string) {
	t.Helper()
	_, err := Plan([]byte(raw))
	if err == nil {
		t.Fatalf("plan accepted, want rejection on field %q", field)
	}
	var verr *errors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error is %T, want *errors.ValidationError: %v", err, err)
	}
	if got := verr.Details["field"]; got != field {
		t.Errorf("field = %v, want %q (error: %v)", got, field, err)
	}
}
