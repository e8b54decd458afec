// Package engine interprets validated legacy edit plans against a document
// host. Actions execute strictly in list order; the first failing action
// aborts the remainder of the plan, and mutations applied by earlier actions
// are not rolled back.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kochmarvin/docedit/internal/anchor"
	"github.com/kochmarvin/docedit/internal/errors"
	"github.com/kochmarvin/docedit/internal/host"
	"github.com/kochmarvin/docedit/internal/match"
	"github.com/kochmarvin/docedit/internal/schema"
)

// SelectionTag is the content-control tag under which the embedding UI marks
// the user's selection before requesting a plan. The "selected" anchor
// resolves to the most recently placed marker with this tag.
const SelectionTag = "docedit-selection"

// SelectedAnchor is the anchor string special-cased to the selection marker.
const SelectedAnchor = "selected"

// Config configures an Engine.
type Config struct {
	// Scorer rates heading candidates for after_heading and target=specific
	// matching. Defaults to the heuristic scorer.
	Scorer match.Scorer
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Scorer == nil {
		c.Scorer = match.Heuristic{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Engine executes legacy edit plans against one document handle.
type Engine struct {
	doc      host.Document
	resolver *anchor.Resolver
	scorer   match.Scorer
	logger   *slog.Logger
}

// New creates an Engine for doc.
func New(doc host.Document, cfg Config) *Engine {
	cfg.defaults()
	return &Engine{
		doc:      doc,
		resolver: anchor.New(doc, anchor.Config{Logger: cfg.Logger}),
		scorer:   cfg.Scorer,
		logger:   cfg.Logger,
	}
}

// Execute runs every action of plan in order and returns a structured
// result. The first failure stops execution; the document retains all
// mutations applied up to that point.
func (e *Engine) Execute(ctx context.Context, plan *schema.EditPlan) schema.ExecuteResult {
	if e.doc == nil {
		return failure(errors.HostUnavailable(), -1, "")
	}
	for i, action := range plan.Actions {
		e.logger.Debug("executing action", "index", i, "type", action.Type)
		if err := e.executeAction(ctx, action); err != nil {
			e.logger.Warn("action failed", "index", i, "type", action.Type, "error", err)
			return failure(err, i, action.Type)
		}
	}
	return schema.ExecuteResult{
		OK:      true,
		Message: fmt.Sprintf("Successfully executed %d action(s)", len(plan.Actions)),
	}
}

func failure(err error, index int, typ schema.ActionType) schema.ExecuteResult {
	details := map[string]any{}
	if index >= 0 {
		details["action_index"] = index
		details["action_type"] = string(typ)
	}
	var anf *errors.AnchorNotFoundError
	if errors.As(err, &anf) {
		details["anchor"] = anf.Anchor
	}
	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		for k, v := range ve.Details {
			details[k] = v
		}
	}
	return schema.ExecuteResult{
		OK:        false,
		Message:   err.Error(),
		ErrorType: string(errors.TypeOf(err)),
		Details:   details,
	}
}

func (e *Engine) executeAction(ctx context.Context, a schema.EditAction) error {
	switch a.Type {
	case schema.ActionReplaceSection:
		return e.replaceSection(ctx, a)
	case schema.ActionInsertText:
		return e.insertText(ctx, a)
	case schema.ActionCorrectText:
		return e.correctText(ctx, a)
	case schema.ActionUpdateHeadingStyle:
		return e.updateHeadingStyle(ctx, a)
	case schema.ActionUpdateTextFormat:
		return e.updateTextFormat(ctx, a)
	default:
		// The validator rejects unknown tags; reaching this is a programming
		// error in the caller.
		return errors.NewExecutionError(fmt.Sprintf("unsupported action type %q", a.Type), nil)
	}
}

// replaceSection clears the anchored range and inserts the action's blocks
// in its place via insert-after chaining.
func (e *Engine) replaceSection(ctx context.Context, a schema.EditAction) error {
	var target host.Range
	switch a.Anchor {
	case SelectedAnchor:
		r, err := e.selectionMarker(ctx)
		if err != nil {
			return err
		}
		target = r
	case anchor.DefaultAnchor:
		// "main" replaces the entire document body, regardless of any
		// selection the generic resolver would have preferred.
		body, err := e.doc.Body(ctx)
		if err != nil {
			return errors.NewExecutionError("reading document body", err)
		}
		target = body
	default:
		r, err := e.resolver.Resolve(ctx, a.Anchor)
		if err != nil {
			return err
		}
		target = r
	}

	target.Clear()
	cur := target
	for _, b := range a.Blocks {
		cur = cur.InsertParagraphAfter(b.Text)
		applyBlockFormat(cur, b)
	}
	if err := e.doc.Flush(ctx); err != nil {
		return errors.NewExecutionError(fmt.Sprintf("replacing section at anchor %q", a.Anchor), err)
	}
	return nil
}

// selectionMarker returns the range of the most recently placed selection
// marker control.
func (e *Engine) selectionMarker(ctx context.Context) (host.Range, error) {
	controls, err := e.doc.ContentControls(ctx)
	if err != nil {
		return nil, errors.NewExecutionError("enumerating content controls", err)
	}
	var last host.Range
	for _, c := range controls {
		if c.Tag == SelectionTag {
			last = c.Range
		}
	}
	if last == nil {
		return nil, errors.NewAnchorNotFoundError(SelectedAnchor)
	}
	return last, nil
}

// insertText computes an insertion point from the action's location and
// inserts the blocks sequentially from there.
func (e *Engine) insertText(ctx context.Context, a schema.EditAction) error {
	body, err := e.doc.Body(ctx)
	if err != nil {
		return errors.NewExecutionError("reading document body", err)
	}

	var cur host.Range
	blocks := a.Blocks
	switch a.Location {
	case schema.LocationStart:
		cur = body.InsertParagraphBefore(blocks[0].Text)
		applyBlockFormat(cur, blocks[0])
		blocks = blocks[1:]

	case schema.LocationEnd:
		cur = body

	case schema.LocationAfterHeading:
		h, err := e.findHeading(ctx, a.HeadingText)
		if err != nil {
			return err
		}
		cur = h

	case schema.LocationAtPosition:
		p, err := e.paragraphAtOffset(ctx, *a.Position)
		if err != nil {
			return err
		}
		cur = p

	default:
		return errors.NewExecutionError(fmt.Sprintf("unsupported insert location %q", a.Location), nil)
	}

	for _, b := range blocks {
		cur = cur.InsertParagraphAfter(b.Text)
		applyBlockFormat(cur, b)
	}
	if err := e.doc.Flush(ctx); err != nil {
		return errors.NewExecutionError(fmt.Sprintf("inserting text at %q", a.Location), err)
	}
	return nil
}

// findHeading returns the range of the best-matching heading above the
// minimum score threshold.
func (e *Engine) findHeading(ctx context.Context, headingText string) (host.Range, error) {
	paragraphs, err := e.doc.Paragraphs(ctx)
	if err != nil {
		return nil, errors.NewExecutionError("enumerating paragraphs", err)
	}
	var headings []host.Paragraph
	var texts []string
	for _, p := range paragraphs {
		if p.Style.IsHeading() {
			headings = append(headings, p)
			texts = append(texts, p.Text)
		}
	}
	idx, score := match.Best(e.scorer, texts, headingText)
	if idx < 0 {
		return nil, errors.NewExecutionError(
			fmt.Sprintf("heading %q not found in document", headingText), nil)
	}
	e.logger.Debug("heading matched", "search", headingText, "heading", headings[idx].Text, "score", score)
	return headings[idx].Range, nil
}

// paragraphAtOffset locates the paragraph containing the raw character
// offset, counting one separator character between paragraphs.
func (e *Engine) paragraphAtOffset(ctx context.Context, offset int) (host.Range, error) {
	paragraphs, err := e.doc.Paragraphs(ctx)
	if err != nil {
		return nil, errors.NewExecutionError("enumerating paragraphs", err)
	}
	at := 0
	for _, p := range paragraphs {
		end := at + len(p.Text)
		if offset <= end {
			return p.Range, nil
		}
		at = end + 1
	}
	return nil, errors.NewExecutionError(
		fmt.Sprintf("position %d is beyond the end of the document", offset), nil)
}

// correctText replaces every occurrence of the search text. Zero matches is
// an error: a correction the document does not contain signals a stale plan.
func (e *Engine) correctText(ctx context.Context, a schema.EditAction) error {
	matches, err := e.doc.Search(ctx, a.SearchText, host.SearchOptions{
		MatchCase:       a.CaseSensitive,
		IgnoreWildcards: true,
	})
	if err != nil {
		return errors.NewExecutionError(fmt.Sprintf("searching for %q", a.SearchText), err)
	}
	if len(matches) == 0 {
		return errors.NewExecutionError(
			fmt.Sprintf("text %q not found in document", a.SearchText), nil)
	}
	for _, m := range matches {
		m.SetText(a.ReplacementText)
	}
	if err := e.doc.Flush(ctx); err != nil {
		return errors.NewExecutionError(fmt.Sprintf("replacing %q", a.SearchText), err)
	}
	e.logger.Debug("corrected text", "search", a.SearchText, "occurrences", len(matches))
	return nil
}

// updateHeadingStyle applies the action's style to all headings, or to the
// single best-matching heading when target is "specific".
func (e *Engine) updateHeadingStyle(ctx context.Context, a schema.EditAction) error {
	if a.Target == schema.TargetSpecific {
		h, err := e.findHeading(ctx, a.HeadingText)
		if err != nil {
			return err
		}
		applyStyle(h, a.Style)
	} else {
		paragraphs, err := e.doc.Paragraphs(ctx)
		if err != nil {
			return errors.NewExecutionError("enumerating paragraphs", err)
		}
		for _, p := range paragraphs {
			if p.Style.IsHeading() {
				applyStyle(p.Range, a.Style)
			}
		}
	}
	if err := e.doc.Flush(ctx); err != nil {
		return errors.NewExecutionError("updating heading style", err)
	}
	return nil
}

// updateTextFormat applies the action's style uniformly to the paragraph
// class selected by target.
func (e *Engine) updateTextFormat(ctx context.Context, a schema.EditAction) error {
	paragraphs, err := e.doc.Paragraphs(ctx)
	if err != nil {
		return errors.NewExecutionError("enumerating paragraphs", err)
	}
	for _, p := range paragraphs {
		switch a.Target {
		case schema.TargetHeadings:
			if !p.Style.IsHeading() {
				continue
			}
		case schema.TargetParagraphs:
			if p.Style.IsHeading() {
				continue
			}
		}
		applyStyle(p.Range, a.Style)
	}
	if err := e.doc.Flush(ctx); err != nil {
		return errors.NewExecutionError("updating text format", err)
	}
	return nil
}

// applyBlockFormat sets the paragraph style class for a freshly inserted
// block and applies its optional style.
func applyBlockFormat(r host.Range, b schema.Block) {
	if b.Type == schema.BlockHeading {
		r.SetStyleClass(host.HeadingStyle(b.Level))
	} else {
		r.SetStyleClass(host.StyleNormal)
	}
	applyStyle(r, b.Style)
}

// applyStyle queues the non-empty fields of style onto r.
func applyStyle(r host.Range, style *schema.Style) {
	if style == nil {
		return
	}
	if style.Color != "" {
		r.SetFontColor(style.Color)
	}
	if style.Alignment != "" {
		r.SetAlignment(style.Alignment)
	}
	if style.Bold != nil {
		r.SetBold(*style.Bold)
	}
}
