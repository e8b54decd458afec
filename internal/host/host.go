// Package host defines the narrow capability surface the edit-plan
// interpreter requires from a rich-text Document Host.
//
// The interface is deliberately two-phase, mirroring the batched-apply
// contract of word-processor object models: query methods take a context and
// return plain values reflecting the last synchronized state; mutate methods
// on a Range queue pending effects and return immediately (returned Range
// handles are unusable for queries until the next Flush); Flush is the only
// suspension point, at which queued mutations are applied in order and made
// observable. A failure partway through a Flush leaves the document in
// whatever state the already-applied mutations produced.
//
// The host executes at most one such transaction at a time; the interpreter
// holds no locks of its own and runs strictly sequentially against one
// Document handle, which is threaded explicitly through every call.
package host

import (
	"context"

	"github.com/kochmarvin/docedit/internal/schema"
)

// StyleClass is the host-level paragraph style classification.
type StyleClass string

const (
	StyleNormal   StyleClass = "Normal"
	StyleHeading1 StyleClass = "Heading1"
	StyleHeading2 StyleClass = "Heading2"
	StyleHeading3 StyleClass = "Heading3"
)

// IsHeading reports whether the style class is one of the heading styles.
func (s StyleClass) IsHeading() bool {
	return s == StyleHeading1 || s == StyleHeading2 || s == StyleHeading3
}

// HeadingLevel returns the heading level (1-3), or 0 for non-heading styles.
func (s StyleClass) HeadingLevel() int {
	switch s {
	case StyleHeading1:
		return 1
	case StyleHeading2:
		return 2
	case StyleHeading3:
		return 3
	}
	return 0
}

// HeadingStyle maps a heading level to its style class. Levels outside 1-3
// clamp to the nearest valid level.
func HeadingStyle(level int) StyleClass {
	switch {
	case level <= 1:
		return StyleHeading1
	case level == 2:
		return StyleHeading2
	default:
		return StyleHeading3
	}
}

// SearchOptions controls full-document literal text search.
type SearchOptions struct {
	MatchCase      bool
	MatchWholeWord bool
	// IgnoreWildcards forces wildcard characters in the search string to be
	// treated literally. The interpreter always searches literally.
	IgnoreWildcards bool
}

// Paragraph is a point-in-time view of one document paragraph together with
// a live Range handle addressing it.
type Paragraph struct {
	Text  string
	Style StyleClass
	Range Range
}

// ContentControl is a host-level addressable marker with a persisted tag.
type ContentControl struct {
	Tag        string
	Title      string
	Appearance string
	Range      Range
}

// Bookmark is a named location in the document.
type Bookmark struct {
	Name  string
	Range Range
}

// Range is an addressable span of document content. Query methods reflect
// the last synchronized state; all other methods queue pending mutations on
// the owning Document, to be applied at the next Flush.
type Range interface {
	// Text returns the synchronized text of the range. Paragraph boundaries
	// inside the range are rendered as "\n". Returns an error for a handle
	// created by a pending mutation that has not been flushed yet.
	Text(ctx context.Context) (string, error)

	// SetText replaces the range content with text.
	SetText(text string)

	// Clear empties the range, collapsing it to a single empty paragraph.
	Clear()

	// InsertParagraphAfter inserts a new paragraph immediately after the
	// range and returns its pending handle, enabling insert-after chaining.
	InsertParagraphAfter(text string) Range

	// InsertParagraphBefore inserts a new paragraph immediately before the
	// range and returns its pending handle.
	InsertParagraphBefore(text string) Range

	// SetStyleClass sets the paragraph style for all paragraphs in the range.
	SetStyleClass(style StyleClass)

	// SetFontColor sets the font color (a validated color string).
	SetFontColor(color string)

	// SetBold sets or clears bold formatting.
	SetBold(bold bool)

	// SetAlignment sets paragraph alignment.
	SetAlignment(a schema.Alignment)

	// ExpandTo returns a range spanning from the start of the earlier of the
	// two ranges to the end of the later one.
	ExpandTo(other Range) Range

	// Delete removes the range content from the document.
	Delete()
}

// Document is the host handle threaded through every interpreter call.
type Document interface {
	// Paragraphs enumerates paragraphs in document order.
	Paragraphs(ctx context.Context) ([]Paragraph, error)

	// ContentControls enumerates content controls in document order.
	ContentControls(ctx context.Context) ([]ContentControl, error)

	// Bookmarks enumerates named bookmarks.
	Bookmarks(ctx context.Context) ([]Bookmark, error)

	// Selection returns the current user selection, if any.
	Selection(ctx context.Context) (Range, bool, error)

	// Body returns the whole-document range.
	Body(ctx context.Context) (Range, error)

	// Search performs a full-document literal search and returns all match
	// ranges in a deterministic order. Within one paragraph, matches are
	// returned last-first so that sequential replacement of every match
	// cannot invalidate the remaining offsets.
	Search(ctx context.Context, text string, opts SearchOptions) ([]Range, error)

	// Flush applies all queued mutations in order. The first failing
	// mutation aborts the rest of the batch; mutations applied before the
	// failure remain applied.
	Flush(ctx context.Context) error
}
