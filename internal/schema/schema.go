// Package schema defines all canonical data types for edit plans and
// semantic document snapshots.
package schema

// PlanVersion is the only accepted value of the EditPlan version field.
const PlanVersion = "1.0"

// Bounds enforced by the plan validator.
const (
	MaxActions = 50      // actions per plan
	MaxBlocks  = 100     // blocks per blocks-bearing action
	MaxTextLen = 100_000 // characters per text field
)

// ActionType tags an EditAction variant.
type ActionType string

const (
	ActionReplaceSection     ActionType = "replace_section"
	ActionUpdateHeadingStyle ActionType = "update_heading_style"
	ActionUpdateTextFormat   ActionType = "update_text_format"
	ActionCorrectText        ActionType = "correct_text"
	ActionInsertText         ActionType = "insert_text"
)

// BlockType identifies a content block variant.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
)

// Alignment is a paragraph alignment value.
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "justify"
)

// InsertLocation selects where an insert_text action places its blocks.
type InsertLocation string

const (
	LocationStart        InsertLocation = "start"
	LocationEnd          InsertLocation = "end"
	LocationAfterHeading InsertLocation = "after_heading"
	LocationAtPosition   InsertLocation = "at_position"
)

// StyleTarget selects which paragraphs a formatting action applies to.
type StyleTarget string

const (
	TargetAll        StyleTarget = "all"
	TargetHeadings   StyleTarget = "headings"
	TargetParagraphs StyleTarget = "paragraphs"
	TargetSpecific   StyleTarget = "specific"
)

// Style holds optional formatting applied to a block or paragraph selection.
// A nil Bold means "leave unchanged"; empty Color/Alignment likewise.
type Style struct {
	Color     string    `json:"color,omitempty"`
	Alignment Alignment `json:"alignment,omitempty"`
	Bold      *bool     `json:"bold,omitempty"`
}

// Block is the smallest addressable content unit: one line of paragraph or
// heading content. Paragraph text never contains a line break.
type Block struct {
	Type  BlockType `json:"type"`
	Text  string    `json:"text"`
	Level int       `json:"level,omitempty"` // headings only, 1-3
	Style *Style    `json:"style,omitempty"`
}

// EditAction is one step of a legacy plan. The Type tag determines which
// fields are meaningful; the validator enforces per-tag requirements.
type EditAction struct {
	Type ActionType `json:"type"`

	// replace_section, insert_text
	Anchor string  `json:"anchor,omitempty"`
	Blocks []Block `json:"blocks,omitempty"`

	// insert_text
	Location    InsertLocation `json:"location,omitempty"`
	HeadingText string         `json:"heading_text,omitempty"` // also update_heading_style target=specific
	Position    *int           `json:"position,omitempty"`

	// correct_text
	SearchText      string `json:"search_text,omitempty"`
	ReplacementText string `json:"replacement_text,omitempty"`
	CaseSensitive   bool   `json:"case_sensitive,omitempty"`

	// update_heading_style, update_text_format
	Target StyleTarget `json:"target,omitempty"`
	Style  *Style      `json:"style,omitempty"`
}

// EditPlan is an ordered list of edit actions. A plan with zero actions is
// the recognized envelope for a SemanticEditPlan carried in the same payload.
type EditPlan struct {
	Version string       `json:"version"`
	Actions []EditAction `json:"actions"`
}

// SemanticAction tags a SemanticOperation variant.
type SemanticAction string

const (
	SemanticInsertAfter  SemanticAction = "insert_after"
	SemanticInsertBefore SemanticAction = "insert_before"
	SemanticReplace      SemanticAction = "replace"
)

// SemanticOperation is one step of a semantic plan, addressed by the stable
// block ID assigned at extraction.
type SemanticOperation struct {
	Action        SemanticAction `json:"action"`
	TargetBlockID string         `json:"target_block_id"`
	Content       string         `json:"content"`
	Reason        string         `json:"reason,omitempty"`
}

// SemanticEditPlan is an ordered list of semantic operations.
type SemanticEditPlan struct {
	Ops []SemanticOperation `json:"ops"`
}

// SemanticBlock is one extracted paragraph or heading.
type SemanticBlock struct {
	Type  BlockType `json:"type"`
	Text  string    `json:"text"`
	Level int       `json:"level,omitempty"` // headings only
}

// Section is a heading-delimited span of the document. The heading block is
// the section's first block; pre-heading content lives in a synthesized
// "Introduction" section.
type Section struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Level  int      `json:"level"`
	Blocks []string `json:"blocks"` // block IDs in document order
}

// SemanticDocument is a snapshot of document structure taken before a
// planning round trip. Block and section IDs are synthetic, monotonic, and
// valid only within the epoch that produced them; they carry no persistent
// identity across extractions.
type SemanticDocument struct {
	// Epoch uniquely identifies the extraction that produced this snapshot.
	// It appears in stale-ID diagnostics so a caller can tell two planning
	// round trips apart.
	Epoch    string                   `json:"epoch"`
	Sections []Section                `json:"sections"`
	Blocks   map[string]SemanticBlock `json:"blocks"`
}

// ExecuteResult is the structured outcome of a legacy plan execution.
type ExecuteResult struct {
	OK        bool           `json:"ok"`
	Message   string         `json:"message"`
	ErrorType string         `json:"error_type,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}
