package core

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// property is one `key:: value` pair and the physical line holding it.
type property struct {
	key   string
	value string
	line  int
}

// record holds everything derived from a block's lines.
type record struct {
	indent int
	state  State
	props  []property
}

// Block is a bullet-led unit of text. Its content is the only source of
// truth; indentation, workflow state and properties are derived from it once
// per change. A Block belongs to at most one Page at a time.
type Block struct {
	lines     []string
	content   string
	rec       record
	generated string
	dirty     bool
}

// NewBlock parses text into a Block. The text must start, after leading
// whitespace, with a '-' bullet.
func NewBlock(text string) (*Block, error) {
	lines, err := splitBlock(text)
	if err != nil {
		return nil, err
	}
	rec, err := parseRecord(lines)
	if err != nil {
		return nil, err
	}
	return &Block{
		lines:     lines,
		content:   strings.Join(lines, "\n"),
		rec:       rec,
		generated: NewIdentifier(),
	}, nil
}

// MustBlock is like NewBlock but panics on error.
func MustBlock(text string) *Block {
	b, err := NewBlock(text)
	if err != nil {
		panic(err)
	}
	return b
}

func splitBlock(text string) ([]string, error) {
	text = strings.TrimRight(normalizeSource(text), "\n")
	if !isBullet(firstLine(text)) {
		return nil, fmt.Errorf("%w: block must start with a '- ' bullet: %q", ErrMalformedDocument, firstLine(text))
	}
	return strings.Split(text, "\n"), nil
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}

func parseRecord(lines []string) (record, error) {
	rec := record{indent: indentWidth(lines[0])}
	for i, line := range lines {
		text := strings.TrimLeft(line, " \t")
		if text == "" {
			continue
		}

		if s := matchState(text); s != StateNone {
			if rec.state != StateNone && rec.state != s {
				return record{}, fmt.Errorf("%w: %s and %s", ErrWorkflowConflict, rec.state, s)
			}
			rec.state = s
		}

		if i == 0 {
			continue
		}
		key, value, ok := matchProperty(text)
		if !ok {
			continue
		}
		if !strings.Contains(line, key+":: "+value) {
			return record{}, fmt.Errorf("%w: %q is not written as %q", ErrPropertyCorruption, text, key+":: "+value)
		}
		if key == IdentifierKey && rec.has(key) {
			return record{}, fmt.Errorf("%w: duplicate %q property", ErrPropertyCorruption, IdentifierKey)
		}
		rec.props = append(rec.props, property{key: key, value: value, line: i})
	}
	return rec, nil
}

// lookup returns the last pair for key; later lines win.
func (r record) lookup(key string) (property, bool) {
	for i := len(r.props) - 1; i >= 0; i-- {
		if r.props[i].key == key {
			return r.props[i], true
		}
	}
	return property{}, false
}

func (r record) has(key string) bool {
	_, ok := r.lookup(key)
	return ok
}

func (r record) propertyMap() map[string]string {
	m := make(map[string]string, len(r.props))
	for _, p := range r.props {
		m[p.key] = p.value
	}
	return m
}

// apply re-derives the record from lines and commits them. On error the
// block keeps its previous state.
func (b *Block) apply(lines []string) error {
	rec, err := parseRecord(lines)
	if err != nil {
		return err
	}
	b.lines = lines
	b.content = strings.Join(lines, "\n")
	b.rec = rec
	b.dirty = true
	return nil
}

// Content returns the raw text of the block.
func (b *Block) Content() string { return b.content }

// String implements fmt.Stringer.
func (b *Block) String() string { return b.content }

// Lines returns a copy of the physical lines.
func (b *Block) Lines() []string { return slices.Clone(b.lines) }

// Dirty reports whether the content changed since construction.
func (b *Block) Dirty() bool { return b.dirty }

// SetContent replaces the whole text of the block. Setting the current
// content again is a no-op.
func (b *Block) SetContent(text string) error {
	lines, err := splitBlock(text)
	if err != nil {
		return err
	}
	if strings.Join(lines, "\n") == b.content {
		return nil
	}
	return b.apply(lines)
}

// IndentationLevel is the width of the first line's leading whitespace,
// a tab counting as IndentUnit spaces.
func (b *Block) IndentationLevel() int { return b.rec.indent }

// SetIndentationLevel shifts every line so the first one sits at n. The
// leading whitespace is rewritten as tabs.
func (b *Block) SetIndentationLevel(n int) error {
	if n < 0 || n%IndentUnit != 0 {
		return fmt.Errorf("%w: indentation must be a non-negative multiple of %d, got %d", ErrInvalidInput, IndentUnit, n)
	}
	delta := n - b.rec.indent
	lines := make([]string, len(b.lines))
	for i, line := range b.lines {
		text := strings.TrimLeft(line, " \t")
		if text == "" {
			lines[i] = ""
			continue
		}
		lines[i] = indentString(max(indentWidth(line)+delta, 0)) + text
	}
	if slices.Equal(lines, b.lines) {
		return nil
	}

	before := b.rec.propertyMap()
	old := b.snapshotState()
	if err := b.apply(lines); err != nil {
		return err
	}
	if b.rec.indent != n || !maps.Equal(before, b.rec.propertyMap()) {
		b.restore(old)
		return fmt.Errorf("%w: re-indenting to %d changed the block", ErrPropertyCorruption, n)
	}
	return nil
}

// WorkflowState returns the keyword that follows the block's bullet.
func (b *Block) WorkflowState() State { return b.rec.state }

// SetWorkflowState replaces the current keyword with s. StateNone removes it.
func (b *Block) SetWorkflowState(s State) error {
	if !s.Valid() {
		return fmt.Errorf("%w: unknown workflow state %q", ErrInvalidInput, s)
	}
	old := b.rec.state
	if s == old {
		return nil
	}

	lines := slices.Clone(b.lines)
	found := false
	for i, line := range lines {
		ws, text := splitIndent(line)
		if old == StateNone {
			if !isBullet(text) {
				continue
			}
			rest := strings.TrimLeft(text[1:], " \t")
			lines[i] = ws + s.marker() + rest
		} else {
			if !strings.HasPrefix(text, old.marker()) {
				continue
			}
			lines[i] = ws + s.marker() + text[len(old.marker()):]
		}
		found = true
		break
	}
	if !found {
		return fmt.Errorf("%w: workflow marker %q not found", ErrPropertyCorruption, old.marker())
	}

	prev := b.snapshotState()
	if err := b.apply(lines); err != nil {
		return err
	}
	if b.rec.state != s {
		b.restore(prev)
		return fmt.Errorf("%w: workflow state reads %q after setting %q", ErrPropertyCorruption, b.rec.state, s)
	}
	return nil
}

// Properties returns a copy of the block properties.
func (b *Block) Properties() map[string]string { return b.rec.propertyMap() }

// Property returns the value of a single property.
func (b *Block) Property(key string) (string, bool) {
	p, ok := b.rec.lookup(key)
	return p.value, ok
}

// SetProperty writes key:: value. An existing pair is rewritten in place,
// a new one is appended as a continuation line of the block.
func (b *Block) SetProperty(key, value string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: invalid property key %q", ErrInvalidInput, key)
	}
	if !validValue(value) {
		return fmt.Errorf("%w: property value %q would not read back unchanged", ErrInvalidInput, value)
	}

	lines := slices.Clone(b.lines)
	if p, ok := b.rec.lookup(key); ok {
		if p.value == value {
			return nil
		}
		pair := key + ":: " + p.value
		if n := strings.Count(b.content, pair); n != 1 {
			return fmt.Errorf("%w: %q appears %d times", ErrPropertyCorruption, pair, n)
		}
		ws, _ := splitIndent(lines[p.line])
		lines[p.line] = ws + key + ":: " + value
	} else {
		lines = append(lines, indentString(b.rec.indent)+"  "+key+":: "+value)
	}

	prev := b.snapshotState()
	if err := b.apply(lines); err != nil {
		return err
	}
	if got, _ := b.Property(key); got != value {
		b.restore(prev)
		return fmt.Errorf("%w: %q reads %q after writing %q", ErrPropertyCorruption, key, got, value)
	}
	return nil
}

// DelProperty removes the line holding key.
func (b *Block) DelProperty(key string) error {
	p, ok := b.rec.lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrPropertyNotFound, key)
	}
	if n := strings.Count(b.content, key+":: "); n != 1 {
		return fmt.Errorf("%w: %q appears %d times", ErrPropertyCorruption, key+":: ", n)
	}

	lines := slices.Delete(slices.Clone(b.lines), p.line, p.line+1)
	prev := b.snapshotState()
	if err := b.apply(lines); err != nil {
		return err
	}
	if b.rec.has(key) {
		b.restore(prev)
		return fmt.Errorf("%w: %q still present after delete", ErrPropertyCorruption, key)
	}
	return nil
}

// Identifier returns the id property, or a token generated when the block
// was created and stable for its lifetime.
func (b *Block) Identifier() string {
	if id, ok := b.Property(IdentifierKey); ok {
		return id
	}
	return b.generated
}

// SetIdentifier validates id and stores it as the id property.
func (b *Block) SetIdentifier(id string) error {
	if err := ValidateIdentifier(id); err != nil {
		return err
	}
	return b.SetProperty(IdentifierKey, id)
}

// Clone returns a deep copy. Blocks without an id property get a new
// generated identifier.
func (b *Block) Clone() *Block {
	c := *b
	c.lines = slices.Clone(b.lines)
	c.rec.props = slices.Clone(b.rec.props)
	c.generated = NewIdentifier()
	c.dirty = false
	return &c
}

type blockState struct {
	lines   []string
	content string
	rec     record
	dirty   bool
}

func (b *Block) snapshotState() blockState {
	return blockState{lines: b.lines, content: b.content, rec: b.rec, dirty: b.dirty}
}

func (b *Block) restore(s blockState) {
	b.lines, b.content, b.rec, b.dirty = s.lines, s.content, s.rec, s.dirty
}

func splitIndent(line string) (ws, text string) {
	text = strings.TrimLeft(line, " \t")
	return line[:len(line)-len(text)], text
}
