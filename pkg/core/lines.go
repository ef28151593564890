package core

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// IndentUnit is the width of one nesting level. A tab counts as one unit.
	IndentUnit = 4

	nbsp = "\u00a0"
)

// propertyPattern matches a `key:: value` pair once leading indentation is removed.
// Keys are word characters with optional internal hyphens or underscores.
var propertyPattern = regexp.MustCompile(`^([\p{L}\p{N}_](?:[\p{L}\p{N}_-]*[\p{L}\p{N}_])?):: (.*)$`)

// SegmentKind tells what a Segment represents.
type SegmentKind int

const (
	// SegmentProperty is a page property line found before the first block.
	SegmentProperty SegmentKind = iota
	// SegmentPreamble is any other line found before the first block (e.g. a heading).
	SegmentPreamble
	// SegmentBlock is a bulleted line with its continuation lines.
	SegmentBlock
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentProperty:
		return "property"
	case SegmentPreamble:
		return "preamble"
	case SegmentBlock:
		return "block"
	default:
		return fmt.Sprintf("SegmentKind(%d)", int(k))
	}
}

// Segment is one unit produced by Classify.
type Segment struct {
	Kind SegmentKind
	Text string
	Line int // 1-based line of the segment's first line in the input
}

// Classify partitions document lines into page preamble lines and block
// segments. Blank lines are dropped and a leading "* " bullet is rewritten
// to "- ". Lines that follow the first bullet and are not bullets themselves
// are folded into the preceding block.
func Classify(lines []string) ([]Segment, error) {
	first := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			first = i
			break
		}
	}
	if first == -1 {
		return nil, nil
	}

	head := normalizeBullet(lines[first])
	if !isBullet(head) && !isHeading(head) && !isPropertyLine(strings.TrimLeft(head, " \t")) {
		return nil, fmt.Errorf("%w: line %d must start with '- ', '#' or be a page property: %q",
			ErrMalformedDocument, first+1, lines[first])
	}

	var segments []Segment
	inBlocks := false
	for i := first; i < len(lines); i++ {
		line := normalizeBullet(lines[i])
		if strings.TrimSpace(line) == "" {
			continue
		}

		switch {
		case isBullet(line):
			inBlocks = true
			segments = append(segments, Segment{Kind: SegmentBlock, Text: line, Line: i + 1})
		case inBlocks:
			last := &segments[len(segments)-1]
			last.Text += "\n" + line
		case isPropertyLine(strings.TrimLeft(line, " \t")):
			segments = append(segments, Segment{Kind: SegmentProperty, Text: line, Line: i + 1})
		default:
			segments = append(segments, Segment{Kind: SegmentPreamble, Text: line, Line: i + 1})
		}
	}
	return segments, nil
}

// matchProperty splits an unindented `key:: value` line.
// The value is trimmed and must not be empty.
func matchProperty(text string) (key, value string, ok bool) {
	m := propertyPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	value = strings.TrimSpace(m[2])
	if value == "" {
		return "", "", false
	}
	return m[1], value, true
}

func isPropertyLine(text string) bool {
	_, _, ok := matchProperty(text)
	return ok
}

// validKey reports whether key can be written as a property key.
func validKey(key string) bool {
	_, _, ok := matchProperty(key + ":: x")
	return ok
}

// validValue reports whether value survives a write/read cycle unchanged.
func validValue(value string) bool {
	return value != "" && !strings.ContainsAny(value, "\r\n") && value == strings.TrimSpace(value)
}

func isBullet(line string) bool {
	t := strings.TrimLeft(line, " \t")
	return t == "-" || strings.HasPrefix(t, "- ") || strings.HasPrefix(t, "-\t")
}

func isHeading(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "#")
}

func normalizeBullet(line string) string {
	t := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(t, "* ") {
		return line[:len(line)-len(t)] + "- " + t[2:]
	}
	return line
}

// normalizeSource applies the substitutions every parsed text goes through.
func normalizeSource(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, nbsp, " ")
}

// indentWidth is the width of the leading whitespace, tabs counting as IndentUnit.
func indentWidth(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += IndentUnit
		default:
			return n
		}
	}
	return n
}

// indentString renders a width as tabs followed by the remaining spaces.
func indentString(width int) string {
	return strings.Repeat("\t", width/IndentUnit) + strings.Repeat(" ", width%IndentUnit)
}

// tabify rewrites the leading whitespace of every line with indentString.
func tabify(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		rest := strings.TrimLeft(line, " \t")
		if rest == "" {
			lines[i] = ""
			continue
		}
		lines[i] = indentString(indentWidth(line)) + rest
	}
	return strings.Join(lines, "\n")
}

// dedent removes the whitespace prefix shared by every non-blank line.
func dedent(text string) string {
	lines := strings.Split(text, "\n")
	margin, found := "", false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ws := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if !found {
			margin, found = ws, true
			continue
		}
		margin = commonPrefix(margin, ws)
		if margin == "" {
			return text
		}
	}
	if margin == "" {
		return text
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

func nonBlankLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
