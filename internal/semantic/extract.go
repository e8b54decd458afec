// Package semantic extracts a stable-ID section/block tree from the live
// document and applies semantic edit plans against it. The document has no
// native persistent identifiers, so every extraction opens a fresh epoch of
// synthetic IDs; execution re-locates blocks by content before mutating.
package semantic

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kochmarvin/docedit/internal/errors"
	"github.com/kochmarvin/docedit/internal/host"
	"github.com/kochmarvin/docedit/internal/schema"
)

// IntroductionTitle names the synthesized section holding content that
// precedes the first heading.
const IntroductionTitle = "Introduction"

// Extract walks the document and builds a SemanticDocument snapshot. It is
// a pure read: the document is never mutated. Every non-empty paragraph
// receives an incrementing bN identifier; every heading starts a new sN
// section with the heading as its first block. Empty paragraphs are skipped
// entirely and never assigned an ID.
func Extract(ctx context.Context, doc host.Document) (*schema.SemanticDocument, error) {
	if doc == nil {
		return nil, errors.HostUnavailable()
	}
	paragraphs, err := doc.Paragraphs(ctx)
	if err != nil {
		return nil, errors.NewExecutionError("enumerating paragraphs", err)
	}

	sd := &schema.SemanticDocument{
		Epoch:  uuid.NewString(),
		Blocks: map[string]schema.SemanticBlock{},
	}
	blockN, sectionN := 0, 0

	nextBlock := func(b schema.SemanticBlock) string {
		blockN++
		id := blockID(blockN)
		sd.Blocks[id] = b
		return id
	}
	openSection := func(title string, level int) {
		sectionN++
		sd.Sections = append(sd.Sections, schema.Section{
			ID:    sectionID(sectionN),
			Title: title,
			Level: level,
		})
	}
	appendToSection := func(id string) {
		s := &sd.Sections[len(sd.Sections)-1]
		s.Blocks = append(s.Blocks, id)
	}

	for _, p := range paragraphs {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		if lvl := p.Style.HeadingLevel(); lvl > 0 {
			openSection(strings.TrimSpace(p.Text), lvl)
			appendToSection(nextBlock(schema.SemanticBlock{
				Type:  schema.BlockHeading,
				Text:  p.Text,
				Level: lvl,
			}))
			continue
		}
		if len(sd.Sections) == 0 {
			openSection(IntroductionTitle, 0)
		}
		appendToSection(nextBlock(schema.SemanticBlock{
			Type: schema.BlockParagraph,
			Text: p.Text,
		}))
	}
	return sd, nil
}

func blockID(n int) string   { return "b" + strconv.Itoa(n) }
func sectionID(n int) string { return "s" + strconv.Itoa(n) }
