package memdoc

import (
	"context"
	"errors"
	"strings"

	"github.com/kochmarvin/docedit/internal/host"
	"github.com/kochmarvin/docedit/internal/schema"
)

var (
	errNotSynced = errors.New("range created by a pending mutation; flush first")
	errDetached  = errors.New("range was deleted from the document")
)

// memRange addresses a span of consecutive paragraphs, the whole body, or a
// sub-paragraph byte span (search results). Handles returned by pending
// insert mutations have nil start/end until the owning Flush materializes
// them; later queued mutations may reference them safely because the queue
// preserves order.
type memRange struct {
	doc        *Document
	start, end *node
	whole      bool

	sub        bool
	off0, off1 int
}

// span resolves the range endpoints against the current document state.
func (r *memRange) span() (*node, *node, error) {
	if r.whole {
		return r.doc.head, r.doc.tail, nil
	}
	if r.start == nil || r.end == nil {
		return nil, nil, errNotSynced
	}
	if r.start.detached || r.end.detached {
		return nil, nil, errDetached
	}
	return r.start, r.end, nil
}

func (r *memRange) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	start, end, err := r.span()
	if err != nil {
		return "", err
	}
	if start == nil { // whole range of an empty document
		return "", nil
	}
	if r.sub {
		t := start.text
		if r.off0 > len(t) || r.off1 > len(t) || r.off0 > r.off1 {
			return "", errDetached
		}
		return t[r.off0:r.off1], nil
	}
	var lines []string
	for n := start; n != nil; n = n.next {
		lines = append(lines, n.text)
		if n == end {
			break
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (r *memRange) SetText(text string) {
	r.doc.queue("setText", func() error {
		start, end, err := r.span()
		if err != nil {
			return err
		}
		if start == nil {
			n := &node{text: text, style: host.StyleNormal}
			r.doc.insertAfter(nil, n)
			return nil
		}
		if r.sub {
			t := start.text
			if r.off0 > len(t) || r.off1 > len(t) || r.off0 > r.off1 {
				return errDetached
			}
			start.text = t[:r.off0] + text + t[r.off1:]
			r.off1 = r.off0 + len(text)
			return nil
		}
		start.text = text
		r.truncateAfter(start, end)
		return nil
	})
}

func (r *memRange) Clear() {
	r.doc.queue("clear", func() error {
		start, end, err := r.span()
		if err != nil {
			return err
		}
		if r.whole {
			r.doc.removeSpan(start, end)
			r.doc.insertAfter(nil, &node{style: host.StyleNormal})
			return nil
		}
		if r.sub {
			return r.spliceSub("")
		}
		start.text = ""
		start.style = host.StyleNormal
		r.truncateAfter(start, end)
		return nil
	})
}

func (r *memRange) InsertParagraphAfter(text string) host.Range {
	pending := &memRange{doc: r.doc}
	r.doc.queue("insertParagraphAfter", func() error {
		_, end, err := r.span()
		if err != nil {
			return err
		}
		n := &node{text: text, style: host.StyleNormal}
		r.doc.insertAfter(end, n)
		pending.start, pending.end = n, n
		return nil
	})
	return pending
}

func (r *memRange) InsertParagraphBefore(text string) host.Range {
	pending := &memRange{doc: r.doc}
	r.doc.queue("insertParagraphBefore", func() error {
		start, _, err := r.span()
		if err != nil {
			return err
		}
		n := &node{text: text, style: host.StyleNormal}
		r.doc.insertBefore(start, n)
		pending.start, pending.end = n, n
		return nil
	})
	return pending
}

func (r *memRange) SetStyleClass(style host.StyleClass) {
	r.eachNode("setStyleClass", func(n *node) { n.style = style })
}

func (r *memRange) SetFontColor(color string) {
	r.eachNode("setFontColor", func(n *node) { n.color = color })
}

func (r *memRange) SetBold(bold bool) {
	r.eachNode("setBold", func(n *node) { n.bold = bold })
}

func (r *memRange) SetAlignment(a schema.Alignment) {
	r.eachNode("setAlignment", func(n *node) { n.align = a })
}

func (r *memRange) ExpandTo(other host.Range) host.Range {
	mo, ok := other.(*memRange)
	if !ok {
		return &memRange{doc: r.doc}
	}
	s1, e1, err1 := r.span()
	s2, e2, err2 := mo.span()
	if err1 != nil || err2 != nil || s1 == nil || s2 == nil {
		return &memRange{doc: r.doc}
	}
	start, end := s1, e1
	if r.doc.position(s2) < r.doc.position(s1) {
		start = s2
	}
	if r.doc.position(e2) > r.doc.position(e1) {
		end = e2
	}
	return &memRange{doc: r.doc, start: start, end: end}
}

func (r *memRange) Delete() {
	r.doc.queue("delete", func() error {
		start, end, err := r.span()
		if err != nil {
			return err
		}
		if r.sub {
			return r.spliceSub("")
		}
		if start != nil {
			r.doc.removeSpan(start, end)
		}
		if r.whole {
			r.doc.insertAfter(nil, &node{style: host.StyleNormal})
		}
		return nil
	})
}

// eachNode queues a mutation applying fn to every paragraph in the range.
func (r *memRange) eachNode(name string, fn func(*node)) {
	r.doc.queue(name, func() error {
		start, end, err := r.span()
		if err != nil {
			return err
		}
		for n := start; n != nil; n = n.next {
			fn(n)
			if n == end {
				break
			}
		}
		return nil
	})
}

// truncateAfter removes the nodes after start up to and including end, then
// collapses the range onto start.
func (r *memRange) truncateAfter(start, end *node) {
	if start != end {
		r.doc.removeSpan(start.next, end)
	}
	if !r.whole {
		r.start, r.end = start, start
	}
}

// spliceSub replaces the sub-paragraph span with text.
func (r *memRange) spliceSub(text string) error {
	t := r.start.text
	if r.off0 > len(t) || r.off1 > len(t) || r.off0 > r.off1 {
		return errDetached
	}
	r.start.text = t[:r.off0] + text + t[r.off1:]
	r.off1 = r.off0 + len(text)
	return nil
}

// removeSpan unlinks every node from start through end inclusive.
func (d *Document) removeSpan(start, end *node) {
	if start == nil {
		return
	}
	n := start
	for n != nil {
		next := n.next
		stop := n == end
		d.remove(n)
		if stop {
			break
		}
		n = next
	}
}
