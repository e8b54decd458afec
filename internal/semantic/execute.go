package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kochmarvin/docedit/internal/errors"
	"github.com/kochmarvin/docedit/internal/host"
	"github.com/kochmarvin/docedit/internal/schema"
)

// rematchMinLen is the minimum block text length for which the second,
// containment-based re-match pass is allowed. Shorter texts are too likely
// to appear in unrelated paragraphs.
const rematchMinLen = 10

// Config configures a semantic Engine.
type Config struct {
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Engine applies semantic edit plans against one document handle.
type Engine struct {
	doc    host.Document
	logger *slog.Logger
}

// New creates an Engine for doc.
func New(doc host.Document, cfg Config) *Engine {
	cfg.defaults()
	return &Engine{doc: doc, logger: cfg.Logger}
}

// Execute re-locates the snapshot's blocks in the live document, then runs
// the plan's operations strictly in order. The first failing operation
// aborts the rest; applied operations are not rolled back. The snapshot may
// be stale (the live document can have drifted since extraction), so block
// lookup degrades through the re-match heuristic rather than trusting the
// snapshot's paragraph positions.
func (e *Engine) Execute(ctx context.Context, plan *schema.SemanticEditPlan, snapshot *schema.SemanticDocument) error {
	if e.doc == nil {
		return errors.HostUnavailable()
	}
	if snapshot == nil {
		return errors.NewExecutionError("nil document snapshot", nil)
	}

	located, validIDs, err := e.rematch(ctx, snapshot)
	if err != nil {
		return err
	}

	for i, op := range plan.Ops {
		block, known := snapshot.Blocks[op.TargetBlockID]
		if !known {
			return errors.NewExecutionError(fmt.Sprintf(
				"op %d: unknown block id %q; valid ids are [%s]",
				i, op.TargetBlockID, strings.Join(validIDs, " ")), nil)
		}
		target, ok := located[op.TargetBlockID]
		if !ok {
			return errors.NewExecutionError(fmt.Sprintf(
				"op %d: block %q (%q) no longer matches any paragraph; "+
					"the document may have changed since extraction (epoch %s)",
				i, op.TargetBlockID, textPrefix(block.Text), snapshot.Epoch), nil)
		}

		switch op.Action {
		case schema.SemanticReplace:
			target.SetText(op.Content)
		case schema.SemanticInsertAfter:
			target.InsertParagraphAfter(op.Content)
		case schema.SemanticInsertBefore:
			target.InsertParagraphBefore(op.Content)
		default:
			return errors.NewExecutionError(fmt.Sprintf(
				"op %d: unsupported action %q", i, op.Action), nil)
		}
		if err := e.doc.Flush(ctx); err != nil {
			return errors.NewExecutionError(fmt.Sprintf(
				"op %d (%s on %s)", i, op.Action, op.TargetBlockID), err)
		}
		e.logger.Debug("applied operation", "index", i, "action", op.Action, "block", op.TargetBlockID)
	}
	return nil
}

// rematch searches the live paragraphs for every block ID referenced by the
// snapshot's sections. The first pass requires exact text equality (plus
// exact level equality for headings); the second pass allows case-insensitive
// containment either direction for texts longer than rematchMinLen. Each
// live paragraph satisfies at most one block ID: matched paragraphs leave
// the candidate pool, so recurring text cannot double-map.
func (e *Engine) rematch(ctx context.Context, snapshot *schema.SemanticDocument) (map[string]host.Range, []string, error) {
	paragraphs, err := e.doc.Paragraphs(ctx)
	if err != nil {
		return nil, nil, errors.NewExecutionError("enumerating paragraphs", err)
	}

	pool := make([]*host.Paragraph, len(paragraphs))
	for i := range paragraphs {
		pool[i] = &paragraphs[i]
	}
	take := func(idx int) host.Range {
		r := pool[idx].Range
		pool = append(pool[:idx], pool[idx+1:]...)
		return r
	}

	located := map[string]host.Range{}
	var validIDs []string
	for _, section := range snapshot.Sections {
		for _, id := range section.Blocks {
			validIDs = append(validIDs, id)
			block, ok := snapshot.Blocks[id]
			if !ok {
				continue
			}
			if idx := exactMatch(pool, block); idx >= 0 {
				located[id] = take(idx)
				continue
			}
			if idx := containsMatch(pool, block); idx >= 0 {
				located[id] = take(idx)
			}
		}
	}
	e.logger.Debug("rematched snapshot", "epoch", snapshot.Epoch,
		"blocks", len(validIDs), "located", len(located))
	return located, validIDs, nil
}

func exactMatch(pool []*host.Paragraph, block schema.SemanticBlock) int {
	for i, p := range pool {
		if p.Text != block.Text {
			continue
		}
		if block.Type == schema.BlockHeading && p.Style.HeadingLevel() != block.Level {
			continue
		}
		return i
	}
	return -1
}

func containsMatch(pool []*host.Paragraph, block schema.SemanticBlock) int {
	if len(block.Text) <= rematchMinLen {
		return -1
	}
	want := strings.ToLower(block.Text)
	for i, p := range pool {
		got := strings.ToLower(p.Text)
		if got == "" {
			continue
		}
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return i
		}
	}
	return -1
}

// textPrefix shortens block text for error messages.
func textPrefix(s string) string {
	const max = 40
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
