// Package validate implements fail-closed schema validation of incoming
// edit plans. Validation is a pure function over the raw payload: it never
// consults or mutates document state, and it reports the first violation
// found as a ValidationError with machine-readable details.
package validate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/kochmarvin/docedit/internal/errors"
	"github.com/kochmarvin/docedit/internal/schema"
)

var (
	hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	rgbColorRe = regexp.MustCompile(`^rgba?\(\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}\s*(?:,\s*(?:0|1|0?\.\d+)\s*)?\)$`)
)

// namedColors is the fixed set of accepted color keywords.
var namedColors = map[string]bool{
	"black": true, "white": true, "red": true, "green": true,
	"blue": true, "yellow": true, "orange": true, "purple": true,
	"gray": true, "grey": true, "pink": true, "brown": true,
	"cyan": true, "magenta": true,
}

// planKeys is the closed set of accepted top-level plan fields. Any other
// key rejects the whole plan.
var planKeys = map[string]bool{"version": true, "actions": true}

// Plan validates raw as a legacy EditPlan and returns the typed plan.
//
// Checks run in a fixed order; the first violation aborts. An empty actions
// array short-circuits and passes: the empty-actions plan is the recognized
// envelope for a semantic plan, which is validated separately (and the
// unknown-top-level-key check deliberately does not run for it).
func Plan(raw []byte) (*schema.EditPlan, error) {
	root, err := parseObject(raw, "plan")
	if err != nil {
		return nil, err
	}

	version := root.Get("version")
	if version.Type != gjson.String || version.Str != schema.PlanVersion {
		return nil, errors.NewValidationError(
			fmt.Sprintf("version must be %q", schema.PlanVersion),
			map[string]any{"field": "version", "got": version.Value()})
	}

	actions := root.Get("actions")
	if !actions.IsArray() {
		return nil, errors.NewValidationError("actions must be an array",
			map[string]any{"field": "actions"})
	}
	items := actions.Array()

	// Semantic-plan envelope: zero actions passes as-is, no further checks.
	if len(items) == 0 {
		return &schema.EditPlan{Version: schema.PlanVersion, Actions: []schema.EditAction{}}, nil
	}

	if len(items) > schema.MaxActions {
		return nil, errors.NewValidationError(
			fmt.Sprintf("plan has %d actions, maximum is %d", len(items), schema.MaxActions),
			map[string]any{"field": "actions", "count": len(items), "max": schema.MaxActions})
	}

	for i, item := range items {
		if err := validateAction(i, item); err != nil {
			return nil, err
		}
	}

	var unknown error
	root.ForEach(func(key, _ gjson.Result) bool {
		if !planKeys[key.Str] {
			unknown = errors.NewValidationError(
				fmt.Sprintf("unknown top-level field %q", key.Str),
				map[string]any{"field": key.Str})
			return false
		}
		return true
	})
	if unknown != nil {
		return nil, unknown
	}

	var plan schema.EditPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, errors.NewValidationError("plan does not decode",
			map[string]any{"cause": err.Error()})
	}
	return &plan, nil
}

// SemanticPlan validates raw as a SemanticEditPlan. The payload may be the
// full envelope (version + empty actions + ops) or a bare {ops: [...]}.
func SemanticPlan(raw []byte) (*schema.SemanticEditPlan, error) {
	root, err := parseObject(raw, "semantic plan")
	if err != nil {
		return nil, err
	}
	ops := root.Get("ops")
	if !ops.IsArray() {
		return nil, errors.NewValidationError("ops must be an array",
			map[string]any{"field": "ops"})
	}
	for i, op := range ops.Array() {
		field := func(name string) string { return fmt.Sprintf("ops[%d].%s", i, name) }
		if !op.IsObject() {
			return nil, errors.NewValidationError("operation must be an object",
				map[string]any{"field": fmt.Sprintf("ops[%d]", i)})
		}
		switch schema.SemanticAction(op.Get("action").Str) {
		case schema.SemanticInsertAfter, schema.SemanticInsertBefore, schema.SemanticReplace:
		default:
			return nil, errors.NewValidationError(
				fmt.Sprintf("unknown operation action %q", op.Get("action").Str),
				map[string]any{"field": field("action")})
		}
		if err := requireText(op.Get("target_block_id"), field("target_block_id"), false); err != nil {
			return nil, err
		}
		if err := requireText(op.Get("content"), field("content"), true); err != nil {
			return nil, err
		}
	}

	var plan schema.SemanticEditPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, errors.NewValidationError("semantic plan does not decode",
			map[string]any{"cause": err.Error()})
	}
	return &plan, nil
}

func parseObject(raw []byte, what string) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, errors.NewValidationError(what+" is not valid JSON", nil)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return gjson.Result{}, errors.NewValidationError(what+" must be a JSON object", nil)
	}
	return root, nil
}

func validateAction(i int, action gjson.Result) error {
	field := func(name string) string { return fmt.Sprintf("actions[%d].%s", i, name) }
	if !action.IsObject() {
		return errors.NewValidationError("action must be an object",
			map[string]any{"field": fmt.Sprintf("actions[%d]", i)})
	}

	typ := schema.ActionType(action.Get("type").Str)
	switch typ {
	case schema.ActionReplaceSection:
		if err := requireText(action.Get("anchor"), field("anchor"), false); err != nil {
			return err
		}
		return validateBlocks(action.Get("blocks"), field("blocks"))

	case schema.ActionUpdateHeadingStyle:
		target := schema.StyleTarget(action.Get("target").Str)
		switch target {
		case schema.TargetAll:
			if action.Get("heading_text").Exists() {
				return errors.NewValidationError(
					"heading_text is only valid with target \"specific\"",
					map[string]any{"field": field("heading_text")})
			}
		case schema.TargetSpecific:
			if err := requireText(action.Get("heading_text"), field("heading_text"), false); err != nil {
				return err
			}
		default:
			return errors.NewValidationError(
				fmt.Sprintf("target must be \"all\" or \"specific\", got %q", action.Get("target").Str),
				map[string]any{"field": field("target")})
		}
		return requireStyle(action.Get("style"), field("style"))

	case schema.ActionUpdateTextFormat:
		switch schema.StyleTarget(action.Get("target").Str) {
		case schema.TargetAll, schema.TargetHeadings, schema.TargetParagraphs:
		default:
			return errors.NewValidationError(
				fmt.Sprintf("target must be one of all/headings/paragraphs, got %q", action.Get("target").Str),
				map[string]any{"field": field("target")})
		}
		return requireStyle(action.Get("style"), field("style"))

	case schema.ActionCorrectText:
		if err := requireText(action.Get("search_text"), field("search_text"), false); err != nil {
			return err
		}
		if err := requireText(action.Get("replacement_text"), field("replacement_text"), true); err != nil {
			return err
		}
		if cs := action.Get("case_sensitive"); cs.Exists() && cs.Type != gjson.True && cs.Type != gjson.False {
			return errors.NewValidationError("case_sensitive must be a boolean",
				map[string]any{"field": field("case_sensitive")})
		}
		return nil

	case schema.ActionInsertText:
		if err := requireText(action.Get("anchor"), field("anchor"), false); err != nil {
			return err
		}
		loc := schema.InsertLocation(action.Get("location").Str)
		switch loc {
		case schema.LocationStart, schema.LocationEnd:
		case schema.LocationAfterHeading:
			if err := requireText(action.Get("heading_text"), field("heading_text"), false); err != nil {
				return err
			}
		case schema.LocationAtPosition:
			pos := action.Get("position")
			if pos.Type != gjson.Number || pos.Num < 0 || pos.Num != float64(int(pos.Num)) {
				return errors.NewValidationError(
					"position must be a non-negative integer with location \"at_position\"",
					map[string]any{"field": field("position")})
			}
		default:
			return errors.NewValidationError(
				fmt.Sprintf("unknown insert location %q", action.Get("location").Str),
				map[string]any{"field": field("location")})
		}
		return validateBlocks(action.Get("blocks"), field("blocks"))

	default:
		return errors.NewValidationError(
			fmt.Sprintf("unknown action type %q", action.Get("type").Str),
			map[string]any{"field": field("type")})
	}
}

func validateBlocks(blocks gjson.Result, field string) error {
	if !blocks.IsArray() {
		return errors.NewValidationError("blocks must be an array",
			map[string]any{"field": field})
	}
	items := blocks.Array()
	if len(items) == 0 || len(items) > schema.MaxBlocks {
		return errors.NewValidationError(
			fmt.Sprintf("blocks must contain between 1 and %d entries, got %d", schema.MaxBlocks, len(items)),
			map[string]any{"field": field, "count": len(items), "max": schema.MaxBlocks})
	}
	for j, b := range items {
		if err := validateBlock(b, fmt.Sprintf("%s[%d]", field, j)); err != nil {
			return err
		}
	}
	return nil
}

func validateBlock(b gjson.Result, field string) error {
	if !b.IsObject() {
		return errors.NewValidationError("block must be an object",
			map[string]any{"field": field})
	}
	text := b.Get("text")
	if err := requireText(text, field+".text", true); err != nil {
		return err
	}
	switch schema.BlockType(b.Get("type").Str) {
	case schema.BlockParagraph:
		if strings.Contains(text.Str, "\n") {
			return errors.NewValidationError(
				"paragraph text must not contain a line break",
				map[string]any{"field": field + ".text"})
		}
	case schema.BlockHeading:
		lvl := b.Get("level")
		if lvl.Type != gjson.Number || lvl.Num < 1 || lvl.Num > 3 || lvl.Num != float64(int(lvl.Num)) {
			return errors.NewValidationError("heading level must be 1, 2, or 3",
				map[string]any{"field": field + ".level", "got": lvl.Value()})
		}
	default:
		return errors.NewValidationError(
			fmt.Sprintf("block type must be \"paragraph\" or \"heading\", got %q", b.Get("type").Str),
			map[string]any{"field": field + ".type"})
	}
	if style := b.Get("style"); style.Exists() {
		return validateStyle(style, field+".style")
	}
	return nil
}

func requireStyle(style gjson.Result, field string) error {
	if !style.Exists() {
		return errors.NewValidationError("style is required",
			map[string]any{"field": field})
	}
	return validateStyle(style, field)
}

func validateStyle(style gjson.Result, field string) error {
	if !style.IsObject() {
		return errors.NewValidationError("style must be an object",
			map[string]any{"field": field})
	}
	if color := style.Get("color"); color.Exists() {
		if color.Type != gjson.String || !ValidColor(color.Str) {
			return errors.NewValidationError(
				fmt.Sprintf("invalid color %q", color.Str),
				map[string]any{"field": field + ".color"})
		}
	}
	if align := style.Get("alignment"); align.Exists() {
		switch schema.Alignment(align.Str) {
		case schema.AlignLeft, schema.AlignCenter, schema.AlignRight, schema.AlignJustify:
		default:
			return errors.NewValidationError(
				fmt.Sprintf("alignment must be one of left/center/right/justify, got %q", align.Str),
				map[string]any{"field": field + ".alignment"})
		}
	}
	if bold := style.Get("bold"); bold.Exists() && bold.Type != gjson.True && bold.Type != gjson.False {
		return errors.NewValidationError("bold must be a boolean",
			map[string]any{"field": field + ".bold"})
	}
	return nil
}

// requireText enforces a required string field within the text length bound.
// allowEmpty permits the empty string (e.g. replacement_text erasing a match).
func requireText(v gjson.Result, field string, allowEmpty bool) error {
	if v.Type != gjson.String {
		return errors.NewValidationError("required string field missing",
			map[string]any{"field": field})
	}
	if !allowEmpty && strings.TrimSpace(v.Str) == "" {
		return errors.NewValidationError("field must not be empty",
			map[string]any{"field": field})
	}
	if n := utf8.RuneCountInString(v.Str); n > schema.MaxTextLen {
		return errors.NewValidationError(
			fmt.Sprintf("text exceeds maximum length of %d characters", schema.MaxTextLen),
			map[string]any{"field": field, "length": n, "max": schema.MaxTextLen})
	}
	return nil
}

// ValidColor reports whether s is an accepted color string: #RGB/#RRGGBB
// hex, rgb()/rgba() functional notation, or a known color keyword.
func ValidColor(s string) bool {
	if hexColorRe.MatchString(s) {
		return true
	}
	if rgbColorRe.MatchString(strings.ToLower(s)) {
		return true
	}
	return namedColors[strings.ToLower(s)]
}
