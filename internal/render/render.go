// Package render produces output from execution results and document
// snapshots.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kochmarvin/docedit/internal/schema"
)

// RenderJSON produces a pretty-printed JSON representation of v. It accepts
// any of the package's output types (ExecuteResult, SemanticDocument,
// EditPlan).
func RenderJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("render: nil value")
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

// RenderResultMarkdown produces a Markdown summary of an execution result,
// suitable for terminal output or PR comments.
func RenderResultMarkdown(res *schema.ExecuteResult) string {
	if res == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString("## Edit Result\n\n")
	status := "FAILED"
	if res.OK {
		status = "OK"
	}
	fmt.Fprintf(&sb, "**Status:** %s  \n", status)
	fmt.Fprintf(&sb, "**Message:** %s\n\n", mdEscape(res.Message))

	if res.ErrorType != "" {
		fmt.Fprintf(&sb, "**Error type:** `%s`\n\n", res.ErrorType)
	}
	if len(res.Details) > 0 {
		sb.WriteString("| Detail | Value |\n")
		sb.WriteString("|---|---|\n")
		for _, k := range sortedKeys(res.Details) {
			fmt.Fprintf(&sb, "| %s | %s |\n", k, mdEscape(fmt.Sprint(res.Details[k])))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderDocumentMarkdown produces a Markdown outline of a document
// snapshot: one section heading per extracted section with its block ids
// and text.
func RenderDocumentMarkdown(doc *schema.SemanticDocument) string {
	if doc == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString("## Document Structure\n\n")
	fmt.Fprintf(&sb, "**Epoch:** `%s`  \n", doc.Epoch)
	fmt.Fprintf(&sb, "**Sections:** %d | **Blocks:** %d\n\n", len(doc.Sections), len(doc.Blocks))

	for _, sec := range doc.Sections {
		fmt.Fprintf(&sb, "### %s (`%s`, level %d)\n\n", mdEscape(sec.Title), sec.ID, sec.Level)
		for _, blockID := range sec.Blocks {
			block, ok := doc.Blocks[blockID]
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "- `%s` [%s] %s\n", blockID, block.Type, mdEscape(truncate(block.Text, 80)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

var (
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// StatusLine renders a one-line colored status for terminal output.
func StatusLine(res *schema.ExecuteResult) string {
	if res == nil {
		return ""
	}
	if res.OK {
		return okStyle.Render("OK") + " " + res.Message
	}
	line := failStyle.Render("FAILED") + " " + res.Message
	if res.ErrorType != "" {
		line += " " + dimStyle.Render("("+res.ErrorType+")")
	}
	return line
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// mdEscape replaces characters that would break Markdown table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
