// Package docedit validates AI-generated edit plans and applies them to a
// live rich-text document through a host adapter.
//
// Two execution models are supported. The legacy model addresses content
// through anchors (content control tags, bookmarks, heading text) and is
// driven by an EditPlan. The semantic model extracts a block-level snapshot
// of the document first and addresses content through stable block ids,
// driven by a SemanticEditPlan.
package docedit

import (
	"context"
	"fmt"

	"github.com/kochmarvin/docedit/internal/anchor"
	"github.com/kochmarvin/docedit/internal/engine"
	"github.com/kochmarvin/docedit/internal/errors"
	"github.com/kochmarvin/docedit/internal/host"
	"github.com/kochmarvin/docedit/internal/match"
	"github.com/kochmarvin/docedit/internal/schema"
	"github.com/kochmarvin/docedit/internal/semantic"
	"github.com/kochmarvin/docedit/internal/validate"
)

// Aliases for the types callers need to exchange with this package.
type (
	EditPlan         = schema.EditPlan
	EditAction       = schema.EditAction
	Block            = schema.Block
	Style            = schema.Style
	SemanticEditPlan = schema.SemanticEditPlan
	SemanticDocument = schema.SemanticDocument
	ExecuteResult    = schema.ExecuteResult

	Document = host.Document
	Range    = host.Range

	// Scorer rates heading candidates for the legacy engine's fuzzy
	// matching steps.
	Scorer = match.Scorer
)

// ScorerByName maps a configuration value ("heuristic" or "subsequence") to
// the corresponding scorer.
func ScorerByName(name string) Scorer {
	return match.ByName(name)
}

// ApplyOptions tunes ApplyPlan. The zero value keeps the defaults.
type ApplyOptions struct {
	// Scorer overrides the heading scorer used by legacy actions. Nil
	// selects the heuristic scorer.
	Scorer Scorer
}

// ValidateEditPlan parses and validates raw JSON as an edit plan. It fails
// closed: any unknown top-level key, out-of-range bound, or malformed field
// rejects the whole plan. A plan with an empty actions array is valid; it is
// the envelope for a semantic plan carried in the same payload.
func ValidateEditPlan(raw []byte) (*EditPlan, error) {
	return validate.Plan(raw)
}

// ValidateSemanticEditPlan parses and validates raw JSON as a semantic edit
// plan, reading the ops array of the payload.
func ValidateSemanticEditPlan(raw []byte) (*SemanticEditPlan, error) {
	return validate.SemanticPlan(raw)
}

// ResolveAnchor resolves an anchor string against the document, trying
// content control tags, then bookmarks, then loose heading matches, and
// finally the "main" fallback to the current selection or document body.
func ResolveAnchor(ctx context.Context, doc Document, anchorName string) (Range, error) {
	return anchor.New(doc, anchor.Config{}).Resolve(ctx, anchorName)
}

// ExecuteEditPlan applies a validated legacy plan to the document. Actions
// run in order; the first failure stops execution and is reported in the
// result. Changes already flushed stay applied; there is no rollback.
func ExecuteEditPlan(ctx context.Context, doc Document, plan *EditPlan) ExecuteResult {
	return engine.New(doc, engine.Config{}).Execute(ctx, plan)
}

// ExtractSemanticDocument builds a block-level snapshot of the document with
// session-scoped block and section ids.
func ExtractSemanticDocument(ctx context.Context, doc Document) (*SemanticDocument, error) {
	return semantic.Extract(ctx, doc)
}

// ExecuteSemanticEditPlan applies a validated semantic plan against the
// document using the snapshot's block ids. Blocks are re-matched against the
// live document first; operations on blocks that no longer exist fail.
func ExecuteSemanticEditPlan(ctx context.Context, doc Document, plan *SemanticEditPlan, snapshot *SemanticDocument) ExecuteResult {
	eng := semantic.New(doc, semantic.Config{})
	if err := eng.Execute(ctx, plan, snapshot); err != nil {
		return failureResult(err)
	}
	return ExecuteResult{
		OK:      true,
		Message: fmt.Sprintf("Successfully executed %d op(s)", len(plan.Ops)),
	}
}

// ApplyPlan validates raw JSON and dispatches it to the right engine. An
// empty actions array routes the payload to the semantic path; snapshot may
// be nil, in which case one is extracted from the document first.
func ApplyPlan(ctx context.Context, doc Document, raw []byte, snapshot *SemanticDocument, opts ApplyOptions) ExecuteResult {
	plan, err := validate.Plan(raw)
	if err != nil {
		return failureResult(err)
	}
	if len(plan.Actions) > 0 {
		return engine.New(doc, engine.Config{Scorer: opts.Scorer}).Execute(ctx, plan)
	}

	sem, err := validate.SemanticPlan(raw)
	if err != nil {
		return failureResult(err)
	}
	if snapshot == nil {
		snapshot, err = semantic.Extract(ctx, doc)
		if err != nil {
			return failureResult(err)
		}
	}
	return ExecuteSemanticEditPlan(ctx, doc, sem, snapshot)
}

func failureResult(err error) ExecuteResult {
	res := ExecuteResult{
		OK:        false,
		Message:   err.Error(),
		ErrorType: string(errors.TypeOf(err)),
	}
	var verr *errors.ValidationError
	if errors.As(err, &verr) && len(verr.Details) > 0 {
		res.Details = verr.Details
	}
	return res
}
