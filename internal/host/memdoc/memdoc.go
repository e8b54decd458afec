// Package memdoc provides an in-memory implementation of the host capability
// surface. It backs the package tests and the CLI, and serves as the
// conformance model for bindings to real word-processor hosts: mutations
// queue as pending operations and only become observable after Flush, the
// same batched-apply contract real hosts impose.
package memdoc

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kochmarvin/docedit/internal/host"
	"github.com/kochmarvin/docedit/internal/schema"
)

// node is one paragraph of the document, stored as a doubly linked list so
// that range handles survive insertions and deletions around them.
type node struct {
	text  string
	style host.StyleClass
	color string
	bold  bool
	align schema.Alignment

	prev, next *node
	detached   bool
}

type control struct {
	tag        string
	title      string
	appearance string
	start, end *node
}

type bookmark struct {
	name       string
	start, end *node
}

type op struct {
	name string
	run  func() error
}

// Document is an in-memory rich-text document.
type Document struct {
	head, tail *node
	controls   []*control
	bookmarks  []*bookmark
	selection  *memRange
	pending    []op
}

// New creates an empty document.
func New() *Document {
	return &Document{}
}

func (d *Document) queue(name string, run func() error) {
	d.pending = append(d.pending, op{name: name, run: run})
}

// insertAfter links n into the list after ref. A nil ref appends at the tail.
func (d *Document) insertAfter(ref, n *node) {
	if ref == nil {
		ref = d.tail
	}
	if ref == nil {
		d.head, d.tail = n, n
		return
	}
	n.prev = ref
	n.next = ref.next
	if ref.next != nil {
		ref.next.prev = n
	} else {
		d.tail = n
	}
	ref.next = n
}

// insertBefore links n into the list before ref. A nil ref prepends.
func (d *Document) insertBefore(ref, n *node) {
	if ref == nil {
		ref = d.head
	}
	if ref == nil {
		d.head, d.tail = n, n
		return
	}
	n.next = ref
	n.prev = ref.prev
	if ref.prev != nil {
		ref.prev.next = n
	} else {
		d.head = n
	}
	ref.prev = n
}

func (d *Document) remove(n *node) {
	if n.detached {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	n.prev, n.next = nil, nil
	n.detached = true
}

// position returns the list index of n, or -1 if n is not in the document.
func (d *Document) position(n *node) int {
	i := 0
	for cur := d.head; cur != nil; cur = cur.next {
		if cur == n {
			return i
		}
		i++
	}
	return -1
}

// ── Queries ───────────────────────────────────────────────────────────────────

// Paragraphs enumerates paragraphs in document order.
func (d *Document) Paragraphs(ctx context.Context) ([]host.Paragraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []host.Paragraph
	for n := d.head; n != nil; n = n.next {
		out = append(out, host.Paragraph{
			Text:  n.text,
			Style: n.style,
			Range: &memRange{doc: d, start: n, end: n},
		})
	}
	return out, nil
}

// ContentControls enumerates content controls in document order. Controls
// whose anchoring paragraphs have been deleted are omitted.
func (d *Document) ContentControls(ctx context.Context) ([]host.ContentControl, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []host.ContentControl
	for _, c := range d.controls {
		if c.start.detached || c.end.detached {
			continue
		}
		out = append(out, host.ContentControl{
			Tag:        c.tag,
			Title:      c.title,
			Appearance: c.appearance,
			Range:      &memRange{doc: d, start: c.start, end: c.end},
		})
	}
	return out, nil
}

// Bookmarks enumerates named bookmarks. Bookmarks anchored to deleted
// paragraphs are omitted.
func (d *Document) Bookmarks(ctx context.Context) ([]host.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []host.Bookmark
	for _, b := range d.bookmarks {
		if b.start.detached || b.end.detached {
			continue
		}
		out = append(out, host.Bookmark{
			Name:  b.name,
			Range: &memRange{doc: d, start: b.start, end: b.end},
		})
	}
	return out, nil
}

// Selection returns the current selection, if one is set and still live.
func (d *Document) Selection(ctx context.Context) (host.Range, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if d.selection == nil || d.selection.start == nil ||
		d.selection.start.detached || d.selection.end.detached {
		return nil, false, nil
	}
	return &memRange{doc: d, start: d.selection.start, end: d.selection.end}, true, nil
}

// Body returns the whole-document range. The handle tracks the live document
// extent rather than a fixed span.
func (d *Document) Body(ctx context.Context) (host.Range, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memRange{doc: d, whole: true}, nil
}

// Search performs a literal full-document search. Within one paragraph,
// matches are returned last-first so that replacing every match in returned
// order never invalidates the remaining match offsets.
func (d *Document) Search(ctx context.Context, text string, opts host.SearchOptions) ([]host.Range, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	var out []host.Range
	for n := d.head; n != nil; n = n.next {
		spans := matchSpans(n.text, text, opts)
		for i := len(spans) - 1; i >= 0; i-- {
			out = append(out, &memRange{
				doc:   d,
				start: n,
				end:   n,
				sub:   true,
				off0:  spans[i].start,
				off1:  spans[i].end,
			})
		}
	}
	return out, nil
}

type span struct{ start, end int }

// matchSpans returns the byte spans of every occurrence of needle in
// haystack, ascending, honoring case and whole-word options. Spans always
// index the original haystack: case-insensitive comparison folds rune by
// rune instead of lowering the whole string, because ToLower can change
// byte widths and shift offsets. Overlapping occurrences are not counted
// twice.
func matchSpans(haystack, needle string, opts host.SearchOptions) []span {
	var spans []span
	for at := 0; at < len(haystack); {
		var end int
		if opts.MatchCase {
			i := strings.Index(haystack[at:], needle)
			if i < 0 {
				break
			}
			at += i
			end = at + len(needle)
		} else {
			n := foldPrefixLen(haystack[at:], needle)
			if n < 0 {
				_, sz := utf8.DecodeRuneInString(haystack[at:])
				at += sz
				continue
			}
			end = at + n
		}
		if !opts.MatchWholeWord || isWholeWord(haystack, at, end) {
			spans = append(spans, span{at, end})
			at = end
		} else if opts.MatchCase {
			at++
		} else {
			_, sz := utf8.DecodeRuneInString(haystack[at:])
			at += sz
		}
	}
	return spans
}

// foldPrefixLen reports the byte length of the prefix of s matching needle
// rune for rune under simple lower-casing, or -1 when s does not start with
// needle.
func foldPrefixLen(s, needle string) int {
	n := 0
	for _, nr := range needle {
		r, sz := utf8.DecodeRuneInString(s[n:])
		if sz == 0 {
			return -1
		}
		if unicode.ToLower(r) != unicode.ToLower(nr) {
			return -1
		}
		n += sz
	}
	return n
}

func isWholeWord(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Flush applies queued mutations in order. The first failure aborts the rest
// of the batch; mutations applied before the failure stay applied. The queue
// is drained either way.
func (d *Document) Flush(ctx context.Context) error {
	ops := d.pending
	d.pending = nil
	for i, o := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.run(); err != nil {
			return fmt.Errorf("memdoc: op %d (%s): %w", i, o.name, err)
		}
	}
	return nil
}

// ── Document construction helpers (immediate, not queued) ─────────────────────

// AppendParagraph appends a paragraph with the given style and returns its
// range. Intended for building fixture documents; real content flows through
// the Range mutation API.
func (d *Document) AppendParagraph(text string, style host.StyleClass) host.Range {
	n := &node{text: text, style: style}
	d.insertAfter(d.tail, n)
	return &memRange{doc: d, start: n, end: n}
}

// WrapInControl attaches a content control spanning r.
func (d *Document) WrapInControl(tag, title string, r host.Range) error {
	mr, err := toMemRange(r)
	if err != nil {
		return err
	}
	start, end, err := mr.span()
	if err != nil {
		return err
	}
	d.controls = append(d.controls, &control{tag: tag, title: title, start: start, end: end})
	return nil
}

// AddBookmark registers a named bookmark spanning r.
func (d *Document) AddBookmark(name string, r host.Range) error {
	mr, err := toMemRange(r)
	if err != nil {
		return err
	}
	start, end, err := mr.span()
	if err != nil {
		return err
	}
	d.bookmarks = append(d.bookmarks, &bookmark{name: name, start: start, end: end})
	return nil
}

// SetSelection marks r as the current user selection.
func (d *Document) SetSelection(r host.Range) error {
	mr, err := toMemRange(r)
	if err != nil {
		return err
	}
	if _, _, err := mr.span(); err != nil {
		return err
	}
	d.selection = mr
	return nil
}

// ClearSelection removes the current selection.
func (d *Document) ClearSelection() { d.selection = nil }

// Text returns the full synchronized document text, one line per paragraph.
func (d *Document) Text() string {
	var lines []string
	for n := d.head; n != nil; n = n.next {
		lines = append(lines, n.text)
	}
	return strings.Join(lines, "\n")
}

func toMemRange(r host.Range) (*memRange, error) {
	mr, ok := r.(*memRange)
	if !ok {
		return nil, fmt.Errorf("memdoc: foreign range type %T", r)
	}
	return mr, nil
}
