// Package planner handles communication with the AI backend that produces
// edit plans: prompt construction, provider dispatch, response validation,
// and the single repair attempt. Plan generation itself happens on the model
// side; this package only fetches and validates.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kochmarvin/docedit/internal/errors"
	"github.com/kochmarvin/docedit/internal/schema"
	"github.com/kochmarvin/docedit/internal/validate"
)

// ErrInvalidPlanOutput is returned when both the initial and repair
// responses fail plan validation.
var ErrInvalidPlanOutput = errors.New("planner: invalid plan output after repair attempt")

// Provider is the interface for AI backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating providers. It is a package-level
// variable so tests can replace it with a mock without modifying the call
// site. Tests must restore the original value; use t.Cleanup to do so.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

// Options configures a Request call.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Logger      *slog.Logger
}

func (o *Options) defaults() {
	if o.MaxTokens == 0 {
		o.MaxTokens = 4096
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Result is a validated plan fetched from the backend. Exactly one of the
// two plan fields describes the work: Semantic is non-nil when the payload
// used the empty-actions envelope to carry semantic operations.
type Result struct {
	Plan     *schema.EditPlan
	Semantic *schema.SemanticEditPlan
	Raw      string
}

// Request builds a prompt from the document snapshot and the user
// instruction, calls the configured provider, validates the response, and
// performs one repair attempt if validation fails.
func Request(ctx context.Context, snapshot *schema.SemanticDocument, instruction string, opts Options) (*Result, error) {
	opts.defaults()
	provider, err := NewProvider(opts.Provider, opts.Model)
	if err != nil {
		return nil, fmt.Errorf("planner: create provider: %w", err)
	}

	userPrompt, err := buildUserPrompt(snapshot, instruction)
	if err != nil {
		return nil, err
	}

	raw, err := provider.Complete(ctx, systemPrompt, userPrompt, opts.MaxTokens, opts.Temperature)
	if err != nil {
		return nil, fmt.Errorf("planner: complete: %w", err)
	}
	res, verr := validateResponse(raw)
	if verr == nil {
		return res, nil
	}
	opts.Logger.Warn("plan response invalid, attempting repair", "error", verr)

	// One repair attempt: include the original prompt and the invalid
	// response so the model has full context.
	repairPrompt := buildRepairPrompt(userPrompt, raw, verr)
	raw2, err := provider.Complete(ctx, systemPrompt, repairPrompt, opts.MaxTokens, opts.Temperature)
	if err != nil {
		return nil, fmt.Errorf("planner: repair complete: %w", err)
	}
	res, verr = validateResponse(raw2)
	if verr == nil {
		return res, nil
	}
	opts.Logger.Warn("repaired plan response still invalid", "error", verr)
	return nil, ErrInvalidPlanOutput
}

// validateResponse strips markdown fences and validates the payload as an
// edit plan, following the envelope rule: an empty actions array means the
// real payload is a semantic plan in the same object.
func validateResponse(raw string) (*Result, error) {
	raw = stripMarkdownFences(raw)
	plan, err := validate.Plan([]byte(raw))
	if err != nil {
		// Models sometimes emit patterns like \d+ unescaped inside JSON
		// strings. Sanitize once and retry before giving up.
		fixed := fixInvalidJSONEscapes(raw)
		if fixed == raw {
			return nil, err
		}
		plan, err = validate.Plan([]byte(fixed))
		if err != nil {
			return nil, err
		}
		raw = fixed
	}
	if len(plan.Actions) > 0 {
		return &Result{Plan: plan, Raw: raw}, nil
	}
	sem, err := validate.SemanticPlan([]byte(raw))
	if err != nil {
		return nil, err
	}
	return &Result{Plan: plan, Semantic: sem, Raw: raw}, nil
}

// fenceRe matches a markdown code fence block with an optional language tag
// and captures the content between the fences.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches only an opening fence line, for truncated responses.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

// invalidJSONEscapeRe matches a backslash followed by any character that is
// not a valid JSON string escape character ("\/bfnrtu).
var invalidJSONEscapeRe = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

func fixInvalidJSONEscapes(s string) string {
	return invalidJSONEscapeRe.ReplaceAllString(s, `\\$1`)
}

// stripMarkdownFences removes the code fences models sometimes wrap around
// JSON output. A lone opening fence (truncated response) is also stripped so
// the JSON content can still be parsed.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

const systemPrompt = `You are a document editing planner.

Output ONLY valid JSON conforming to the schema below. No prose, no
markdown, no explanation outside the JSON.

Address content through the block ids of the DOCUMENT STRUCTURE when using
semantic operations, or through anchors and heading text when using legacy
actions. Never invent block ids.

Legacy plan schema:
{
  "version": "1.0",
  "actions": [
    {"type": "replace_section", "anchor": "...", "blocks": [{"type": "paragraph|heading", "text": "...", "level": 1}]},
    {"type": "insert_text", "anchor": "main", "location": "start|end|after_heading|at_position", "heading_text": "...", "position": 0, "blocks": [...]},
    {"type": "correct_text", "search_text": "...", "replacement_text": "...", "case_sensitive": false},
    {"type": "update_heading_style", "target": "all|specific", "heading_text": "...", "style": {"color": "#RRGGBB", "alignment": "left|center|right|justify", "bold": true}},
    {"type": "update_text_format", "target": "all|headings|paragraphs", "style": {...}}
  ]
}

Semantic plan schema (set "actions" to [] and add "ops"):
{
  "version": "1.0",
  "actions": [],
  "ops": [
    {"action": "insert_after|insert_before|replace", "target_block_id": "b1", "content": "...", "reason": "..."}
  ]
}
`

// buildUserPrompt embeds the snapshot JSON and the user instruction.
func buildUserPrompt(snapshot *schema.SemanticDocument, instruction string) (string, error) {
	var sb strings.Builder
	sb.WriteString("DOCUMENT STRUCTURE:\n")
	if snapshot != nil {
		b, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return "", fmt.Errorf("planner: marshal snapshot: %w", err)
		}
		sb.Write(b)
		sb.WriteString("\n")
	} else {
		sb.WriteString("(no snapshot available)\n")
	}
	sb.WriteString("\nINSTRUCTION:\n")
	sb.WriteString(instruction)
	sb.WriteString("\n\nProduce the JSON plan now.")
	return sb.String(), nil
}

// buildRepairPrompt constructs the repair message.
func buildRepairPrompt(originalUserPrompt, previousResponse string, verr error) string {
	var sb strings.Builder
	sb.WriteString(originalUserPrompt)
	sb.WriteString("\n\nYour previous response was:\n")
	sb.WriteString(previousResponse)
	sb.WriteString("\n\nThat response was invalid: ")
	sb.WriteString(verr.Error())
	sb.WriteString("\nPlease output only the corrected JSON conforming to the schema. Do not repeat the error.")
	return sb.String()
}

// ── Provider dispatch ─────────────────────────────────────────────────────────

// defaultNewProvider dispatches to the appropriate provider implementation.
func defaultNewProvider(providerName, model string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "anthropic", "":
		return newAnthropicProvider(model)
	case "openai":
		return newOpenAIProvider(model)
	case "google":
		return newGoogleProvider(model)
	default:
		return nil, fmt.Errorf("planner: unknown provider %q", providerName)
	}
}

// ── Anthropic provider ───────────────────────────────────────────────────────

// anthropicProvider backs Provider with the Anthropic messages API. The
// client is a value type, so it is embedded rather than held by pointer.
type anthropicProvider struct {
	client anthropic.Client
	model  anthropic.Model
}

func newAnthropicProvider(model string) (Provider, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("planner: ANTHROPIC_API_KEY is not set")
	}
	return &anthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(key)),
		model:  anthropic.Model(model),
	}, nil
}

func (p *anthropicProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       p.model,
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: message request: %w", err)
	}

	var out strings.Builder
	for _, block := range msg.Content {
		// Assistant text arrives only in "text" blocks; tool-use and other
		// block types carry nothing usable here.
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("anthropic: completion held no text blocks")
	}
	return out.String(), nil
}
