package core

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
)

// preambleLine is a line found before the first block. Property lines keep
// their parsed pair so an unchanged value is written back verbatim.
type preambleLine struct {
	key   string
	value string
	raw   string
}

// Page is an outline document: page properties followed by ordered blocks.
// The owner may edit Properties and reorder Blocks freely.
type Page struct {
	Properties map[string]string
	Blocks     []*Block

	preamble []preambleLine
	source   string
	logger   *slog.Logger
}

type parseConfig struct {
	validate bool
	logger   *slog.Logger
}

// ParseOption configures ParsePage.
type ParseOption func(*parseConfig)

// WithValidation re-renders the page after parsing and fails with a
// *RoundTripError if the result differs from the input.
func WithValidation(validate bool) ParseOption {
	return func(c *parseConfig) {
		c.validate = validate
	}
}

// WithLogger sets the logger used for per-block debug output and warnings.
func WithLogger(logger *slog.Logger) ParseOption {
	return func(c *parseConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{
		Properties: make(map[string]string),
		logger:     slog.New(slog.DiscardHandler),
	}
}

// ParsePage builds a Page from a whole document.
func ParsePage(content string, opts ...ParseOption) (*Page, error) {
	cfg := parseConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}

	src := canonicalSource(content)
	var lines []string
	if src != "" {
		lines = strings.Split(src, "\n")
	}
	segments, err := Classify(lines)
	if err != nil {
		return nil, err
	}

	p := NewPage()
	p.logger = cfg.logger
	p.source = src
	for _, seg := range segments {
		switch seg.Kind {
		case SegmentProperty:
			key, value, _ := matchProperty(strings.TrimLeft(seg.Text, " \t"))
			if _, dup := p.Properties[key]; dup {
				p.logger.Warn("duplicate page property, last value wins", "key", key, "line", seg.Line)
			}
			p.Properties[key] = value
			p.preamble = append(p.preamble, preambleLine{key: key, value: value, raw: seg.Text})
		case SegmentPreamble:
			p.preamble = append(p.preamble, preambleLine{raw: seg.Text})
		case SegmentBlock:
			b, err := NewBlock(seg.Text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", seg.Line, err)
			}
			p.logger.Debug("parsed block",
				"line", seg.Line,
				"indent", b.IndentationLevel(),
				"state", string(b.WorkflowState()),
				"properties", len(b.rec.props),
				"id", b.Identifier(),
			)
			p.Blocks = append(p.Blocks, b)
		}
	}

	if cfg.validate {
		if err := Validate(src, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Content renders the page: page properties and preserved preamble lines,
// then every block. Blocks indented by a width that is not a multiple of
// IndentUnit are rounded up in place.
func (p *Page) Content() string {
	parts := p.renderPreamble()
	for i, b := range p.Blocks {
		if w := b.IndentationLevel(); w%IndentUnit != 0 {
			if err := b.SetIndentationLevel(roundUp(w)); err != nil {
				p.log().Warn("could not round block indentation", "block", i, "indent", w, "error", err)
			}
		}
		parts = append(parts, b.Content())
	}
	return strings.TrimSpace(dedent(strings.Join(parts, "\n")))
}

// Text is Content with leading whitespace written as tabs.
func (p *Page) Text() string {
	return tabify(p.Content())
}

// String implements fmt.Stringer.
func (p *Page) String() string { return p.Content() }

// WriteTo writes Text followed by a newline.
func (p *Page) WriteTo(w io.Writer) (int64, error) {
	text := p.Text()
	if text != "" {
		text += "\n"
	}
	n, err := io.WriteString(w, text)
	return int64(n), err
}

func (p *Page) renderPreamble() []string {
	var out []string
	seen := make(map[string]bool)
	for _, pl := range p.preamble {
		if pl.key == "" {
			out = append(out, pl.raw)
			continue
		}
		if seen[pl.key] {
			continue
		}
		seen[pl.key] = true
		v, ok := p.Properties[pl.key]
		switch {
		case !ok:
		case v == pl.value:
			out = append(out, pl.raw)
		default:
			ws := pl.raw[:len(pl.raw)-len(strings.TrimLeft(pl.raw, " \t"))]
			out = append(out, ws+pl.key+":: "+v)
		}
	}

	var added []string
	for k := range p.Properties {
		if !seen[k] {
			added = append(added, k)
		}
	}
	sort.Strings(added)
	for _, k := range added {
		out = append(out, k+":: "+p.Properties[k])
	}
	return out
}

// SetProperty sets a page property under the same contract as
// Block.SetProperty.
func (p *Page) SetProperty(key, value string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: invalid property key %q", ErrInvalidInput, key)
	}
	if !validValue(value) {
		return fmt.Errorf("%w: property value %q would not read back unchanged", ErrInvalidInput, value)
	}
	if p.Properties == nil {
		p.Properties = make(map[string]string)
	}
	p.Properties[key] = value
	return nil
}

// DelProperty removes a page property.
func (p *Page) DelProperty(key string) error {
	if _, ok := p.Properties[key]; !ok {
		return fmt.Errorf("%w: %q", ErrPropertyNotFound, key)
	}
	delete(p.Properties, key)
	return nil
}

// Verify checks that the page still renders to the text it was parsed from.
func (p *Page) Verify() error {
	return Validate(p.source, p)
}

// Len returns the number of blocks.
func (p *Page) Len() int { return len(p.Blocks) }

// Find returns the first block whose identifier is id.
func (p *Page) Find(id string) *Block {
	for _, b := range p.Blocks {
		if b.Identifier() == id {
			return b
		}
	}
	return nil
}

// IndexOf returns the position of b, or -1.
func (p *Page) IndexOf(b *Block) int {
	return slices.Index(p.Blocks, b)
}

// Insert places blocks at position i.
func (p *Page) Insert(i int, blocks ...*Block) error {
	if i < 0 || i > len(p.Blocks) {
		return fmt.Errorf("%w: insert position %d out of range [0,%d]", ErrInvalidInput, i, len(p.Blocks))
	}
	p.Blocks = slices.Insert(p.Blocks, i, blocks...)
	return nil
}

// Append adds blocks at the end of the page.
func (p *Page) Append(blocks ...*Block) {
	p.Blocks = append(p.Blocks, blocks...)
}

// Remove takes the blocks in [i, j) out of the page and returns them.
func (p *Page) Remove(i, j int) ([]*Block, error) {
	if i < 0 || j > len(p.Blocks) || i > j {
		return nil, fmt.Errorf("%w: remove range [%d,%d) out of range [0,%d]", ErrInvalidInput, i, j, len(p.Blocks))
	}
	removed := slices.Clone(p.Blocks[i:j])
	p.Blocks = slices.Delete(p.Blocks, i, j)
	return removed, nil
}

// Subtree returns the end (exclusive) of block i and its descendants: the
// following blocks indented deeper than it.
func (p *Page) Subtree(i int) int {
	if i < 0 || i >= len(p.Blocks) {
		return i
	}
	level := p.Blocks[i].IndentationLevel()
	j := i + 1
	for j < len(p.Blocks) && p.Blocks[j].IndentationLevel() > level {
		j++
	}
	return j
}

func (p *Page) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

func roundUp(width int) int {
	if width%IndentUnit == 0 {
		return width
	}
	return (width/IndentUnit + 1) * IndentUnit
}
