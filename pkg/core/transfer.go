package core

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultSeparator is the block placed between existing and moved children.
const DefaultSeparator = "- ---"

// Order tells MoveUnder where moved blocks go relative to the existing
// children of the target block.
type Order int

const (
	After Order = iota
	Before
)

func (o Order) String() string {
	if o == Before {
		return "before"
	}
	return "after"
}

// ParseOrder accepts "before" or "after".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "after":
		return After, nil
	case "before":
		return Before, nil
	default:
		return After, fmt.Errorf("%w: order must be before or after, got %q", ErrInvalidInput, s)
	}
}

// MoveOptions configures MoveUnder.
type MoveOptions struct {
	// Pattern must match, at its start, the text of exactly one block of the
	// destination once leading whitespace is removed.
	Pattern *regexp.Regexp
	Order   Order
	// Separator is the content of the block put between old and new
	// children. Empty means no separator.
	Separator string
}

// MoveDone moves every DONE block, with its subtree, from src to the end of
// dst. It returns the number of blocks moved.
func MoveDone(src, dst *Page) int {
	var moved []*Block
	for i := 0; i < len(src.Blocks); {
		if src.Blocks[i].WorkflowState() != StateDone {
			i++
			continue
		}
		chunk, _ := src.Remove(i, src.Subtree(i))
		moved = append(moved, chunk...)
	}
	dst.Append(moved...)
	return len(moved)
}

// MoveUnder moves every block of src under the single block of dst matched
// by opts.Pattern. It returns the number of blocks moved, separator excluded.
func MoveUnder(src, dst *Page, opts MoveOptions) (int, error) {
	if opts.Pattern == nil {
		return 0, fmt.Errorf("%w: a target pattern is required", ErrInvalidInput)
	}
	if len(src.Blocks) == 0 {
		return 0, nil
	}

	target, err := findTarget(dst, opts.Pattern)
	if err != nil {
		return 0, err
	}
	level := roundUp(dst.Blocks[target].IndentationLevel()) + IndentUnit
	end := dst.Subtree(target)
	hasChildren := end > target+1

	var sep *Block
	if opts.Separator != "" && (opts.Order == Before || hasChildren) {
		text := strings.TrimLeft(opts.Separator, " \t")
		if !isBullet(text) {
			text = "- " + text
		}
		if sep, err = NewBlock(indentString(level) + text); err != nil {
			return 0, fmt.Errorf("separator: %w", err)
		}
	}

	base := roundUp(src.Blocks[0].IndentationLevel())
	for _, b := range src.Blocks {
		base = min(base, roundUp(b.IndentationLevel()))
	}
	levels := make([]int, len(src.Blocks))
	for i, b := range src.Blocks {
		levels[i] = roundUp(b.IndentationLevel()) - base + level
		if err := b.Clone().SetIndentationLevel(levels[i]); err != nil {
			return 0, fmt.Errorf("block %d: %w", i, err)
		}
	}

	moved, err := src.Remove(0, len(src.Blocks))
	if err != nil {
		return 0, err
	}
	for i, b := range moved {
		if err := b.SetIndentationLevel(levels[i]); err != nil {
			return 0, fmt.Errorf("block %d: %w", i, err)
		}
	}

	insert := moved
	at := end
	if opts.Order == Before {
		at = target + 1
		if sep != nil {
			insert = append(moved[:len(moved):len(moved)], sep)
		}
	} else if sep != nil {
		insert = append([]*Block{sep}, moved...)
	}
	if err := dst.Insert(at, insert...); err != nil {
		return 0, err
	}
	return len(moved), nil
}

func findTarget(p *Page, pattern *regexp.Regexp) (int, error) {
	target, n := -1, 0
	for i, b := range p.Blocks {
		loc := pattern.FindStringIndex(strings.TrimLeft(b.Content(), " \t"))
		if loc != nil && loc[0] == 0 {
			target = i
			n++
		}
	}
	if n != 1 {
		return -1, fmt.Errorf("%w: %q matched %d blocks", ErrPatternNotFound, pattern, n)
	}
	return target, nil
}
