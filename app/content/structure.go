package content

import (
	"regexp"
	"strconv"
	"strings"
)

// Section markers used by the upstream fetchers when they assemble a post
// body together with its continuation posts and comment thread.
const (
	markerMain         = "[MAIN]"
	markerContinuation = "[CONTINUATION]"
	markerComments     = "[COMMENTS]"

	flatCommentPrefix  = "- "
	replyCommentPrefix = "└"
)

// ordinalPattern matches the per-entry "1:", "2:", ... lines that delimit
// continuation posts inside the [CONTINUATION] section.
var ordinalPattern = regexp.MustCompile(`(?m)^\d+:[ \t]*\r?\n`)

// CommentLine is a single comment in a parsed document. IsReply is derived
// purely from the nested-marker prefix emitted by the fetcher, not from
// authorship.
type CommentLine struct {
	Text    string
	IsReply bool
}

// Document is the structured form of one item's raw text: the main body,
// ordered continuation posts and the flattened comment thread.
type Document struct {
	MainBody      string
	Continuations []string
	Comments      []CommentLine
	HasStructure  bool
}

// ParseDocument splits a raw text blob into a Document. Input without the
// [MAIN] marker is treated as a single unstructured block, which is the
// common case for items whose rich body has not been fetched yet.
//
// Sections are located by marker position rather than line counting, so
// section bodies may contain blank lines. ParseDocument never fails; at
// worst it returns an empty document.
func ParseDocument(text string) *Document {
	doc := &Document{}
	if text == "" {
		return doc
	}

	if !strings.Contains(text, markerMain) {
		doc.MainBody = strings.TrimSpace(text)
		return doc
	}

	doc.HasStructure = true
	doc.MainBody = extractSection(text, markerMain, markerContinuation, markerComments)

	if strings.Contains(text, markerContinuation) {
		section := extractSection(text, markerContinuation, markerComments)
		for _, chunk := range ordinalPattern.Split(section, -1) {
			if trimmed := strings.TrimSpace(chunk); trimmed != "" {
				doc.Continuations = append(doc.Continuations, trimmed)
			}
		}
	}

	if strings.Contains(text, markerComments) {
		section := extractSection(text, markerComments)
		for _, line := range strings.Split(section, "\n") {
			trimmed := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(trimmed, replyCommentPrefix):
				text := strings.TrimSpace(strings.TrimPrefix(trimmed, replyCommentPrefix))
				doc.Comments = append(doc.Comments, CommentLine{Text: text, IsReply: true})
			case strings.HasPrefix(trimmed, flatCommentPrefix):
				text := strings.TrimSpace(strings.TrimPrefix(trimmed, flatCommentPrefix))
				doc.Comments = append(doc.Comments, CommentLine{Text: text})
			}
		}
	}

	return doc
}

// extractSection returns the trimmed text between the given marker and the
// first of the stop markers that occurs after it (or end of input).
func extractSection(text, marker string, stopMarkers ...string) string {
	start := strings.Index(text, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)

	end := len(text)
	for _, stop := range stopMarkers {
		if idx := strings.Index(text[start:], stop); idx >= 0 && start+idx < end {
			end = start + idx
		}
	}

	return strings.TrimSpace(text[start:end])
}

// String serializes the document back into the marker-delimited textual
// shape. Continuation posts are re-numbered starting at 1. The transform is
// idempotent on its own output: ParseDocument(d.String()) reproduces d.
func (d *Document) String() string {
	var b strings.Builder

	if d.MainBody != "" || len(d.Continuations) > 0 || len(d.Comments) > 0 {
		b.WriteString(markerMain)
		b.WriteString("\n")
		b.WriteString(d.MainBody)
	}

	if len(d.Continuations) > 0 {
		b.WriteString("\n\n")
		b.WriteString(markerContinuation)
		for i, post := range d.Continuations {
			b.WriteString("\n\n")
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString(":\n")
			b.WriteString(post)
		}
	}

	if len(d.Comments) > 0 {
		b.WriteString("\n\n")
		b.WriteString(markerComments)
		for _, comment := range d.Comments {
			b.WriteString("\n")
			if comment.IsReply {
				b.WriteString("  ")
				b.WriteString(replyCommentPrefix)
				b.WriteString(" ")
			} else {
				b.WriteString(flatCommentPrefix)
			}
			b.WriteString(comment.Text)
		}
	}

	return b.String()
}
