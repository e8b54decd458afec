// Package anchor maps a symbolic anchor string to a live document range.
//
// Strategies run in fixed priority order, each attempted fully before the
// next; the first success wins. Content controls and bookmarks are stable,
// explicit anchors. Heading text is a best-effort human-readable anchor that
// degrades gracefully as the document is edited. "main" is the conventional
// anchor meaning "wherever makes sense" and falls back to the current
// selection, or the whole document.
package anchor

import (
	"context"
	"log/slog"

	"github.com/kochmarvin/docedit/internal/errors"
	"github.com/kochmarvin/docedit/internal/host"
	"github.com/kochmarvin/docedit/internal/match"
)

// DefaultAnchor is the anchor string that triggers the selection /
// whole-document fallback.
const DefaultAnchor = "main"

// Config configures a Resolver.
type Config struct {
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Resolver resolves anchors against one document handle.
type Resolver struct {
	doc    host.Document
	logger *slog.Logger
}

// New creates a Resolver for doc.
func New(doc host.Document, cfg Config) *Resolver {
	cfg.defaults()
	return &Resolver{doc: doc, logger: cfg.Logger}
}

// Resolve maps anchor to a document range, or returns AnchorNotFoundError
// when every strategy fails.
func (r *Resolver) Resolve(ctx context.Context, anchor string) (host.Range, error) {
	if r.doc == nil {
		return nil, errors.HostUnavailable()
	}

	// 1. Content control whose persisted tag equals the anchor exactly.
	controls, err := r.doc.ContentControls(ctx)
	if err != nil {
		return nil, errors.NewExecutionError("enumerating content controls", err)
	}
	for _, c := range controls {
		if c.Tag == anchor {
			r.logger.Debug("anchor resolved", "anchor", anchor, "strategy", "content_control")
			return c.Range, nil
		}
	}

	// 2. Bookmark whose name equals the anchor exactly.
	bookmarks, err := r.doc.Bookmarks(ctx)
	if err != nil {
		return nil, errors.NewExecutionError("enumerating bookmarks", err)
	}
	for _, b := range bookmarks {
		if b.Name == anchor {
			r.logger.Debug("anchor resolved", "anchor", anchor, "strategy", "bookmark")
			return b.Range, nil
		}
	}

	// 3. Heading text, loosely matched in document order; first match wins.
	// No scoring at this layer.
	paragraphs, err := r.doc.Paragraphs(ctx)
	if err != nil {
		return nil, errors.NewExecutionError("enumerating paragraphs", err)
	}
	for _, p := range paragraphs {
		if !p.Style.IsHeading() {
			continue
		}
		if match.Loose(p.Text, anchor) {
			r.logger.Debug("anchor resolved", "anchor", anchor, "strategy", "heading", "heading", p.Text)
			return p.Range, nil
		}
	}

	// 4. Default-anchor fallback, only for "main": current selection if any,
	// else the whole document.
	if anchor == DefaultAnchor {
		sel, ok, err := r.doc.Selection(ctx)
		if err != nil {
			return nil, errors.NewExecutionError("reading selection", err)
		}
		if ok {
			r.logger.Debug("anchor resolved", "anchor", anchor, "strategy", "selection")
			return sel, nil
		}
		body, err := r.doc.Body(ctx)
		if err != nil {
			return nil, errors.NewExecutionError("reading document body", err)
		}
		r.logger.Debug("anchor resolved", "anchor", anchor, "strategy", "body")
		return body, nil
	}

	return nil, errors.NewAnchorNotFoundError(anchor)
}
