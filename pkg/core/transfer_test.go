package core_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/outline/pkg/core"
)

func mustPage(t *testing.T, content string) *core.Page {
	t.Helper()
	p, err := core.ParsePage(content)
	require.NoError(t, err)
	return p
}

func TestMoveDone(t *testing.T) {
	src := mustPage(t, "- TODO a\n- DONE b\n\t- child\n- c\n- DONE d")
	dst := mustPage(t, "- DONE old")
	b := src.Blocks[1]

	n := core.MoveDone(src, dst)
	assert.Equal(t, 3, n)
	assert.Equal(t, "- TODO a\n- c", src.Content())
	assert.Equal(t, "- DONE old\n- DONE b\n\t- child\n- DONE d", dst.Content())
	assert.Same(t, b, dst.Blocks[1], "blocks move, they are not copied")
	assert.Equal(t, -1, src.IndexOf(b))

	assert.Zero(t, core.MoveDone(src, dst))
}

func TestMoveUnder(t *testing.T) {
	pattern := regexp.MustCompile(`- # Inbox`)
	newSrc := func() *core.Page { return mustPage(t, "- new1\n\t- new1child") }

	t.Run("After Existing Children", func(t *testing.T) {
		src, dst := newSrc(), mustPage(t, "- # Inbox\n\t- old\n- other")
		n, err := core.MoveUnder(src, dst, core.MoveOptions{Pattern: pattern, Order: core.After, Separator: core.DefaultSeparator})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Zero(t, src.Len())
		assert.Equal(t, "- # Inbox\n\t- old\n\t- ---\n\t- new1\n\t\t- new1child\n- other", dst.Content())
	})

	t.Run("After Without Children Skips Separator", func(t *testing.T) {
		src, dst := newSrc(), mustPage(t, "- # Inbox\n- other")
		_, err := core.MoveUnder(src, dst, core.MoveOptions{Pattern: pattern, Separator: core.DefaultSeparator})
		require.NoError(t, err)
		assert.Equal(t, "- # Inbox\n\t- new1\n\t\t- new1child\n- other", dst.Content())
	})

	t.Run("Before Existing Children", func(t *testing.T) {
		src, dst := newSrc(), mustPage(t, "- # Inbox\n\t- old")
		_, err := core.MoveUnder(src, dst, core.MoveOptions{Pattern: pattern, Order: core.Before, Separator: "---"})
		require.NoError(t, err)
		assert.Equal(t, "- # Inbox\n\t- new1\n\t\t- new1child\n\t- ---\n\t- old", dst.Content())

		again := mustPage(t, dst.Content())
		assert.Equal(t, dst.Len(), again.Len(), "separator must stay its own block")
	})

	t.Run("Nested Target", func(t *testing.T) {
		src, dst := newSrc(), mustPage(t, "- root\n\t- # Inbox")
		_, err := core.MoveUnder(src, dst, core.MoveOptions{Pattern: pattern})
		require.NoError(t, err)
		assert.Equal(t, "- root\n\t- # Inbox\n\t\t- new1\n\t\t\t- new1child", dst.Content())
	})

	t.Run("Pattern Must Match Once", func(t *testing.T) {
		for _, content := range []string{"- nothing here", "- # Inbox\n- # Inbox again"} {
			src, dst := newSrc(), mustPage(t, content)
			_, err := core.MoveUnder(src, dst, core.MoveOptions{Pattern: pattern})
			assert.ErrorIs(t, err, core.ErrPatternNotFound)
			assert.Equal(t, 2, src.Len(), "source must be untouched")
			assert.Equal(t, content, dst.Content())
		}
	})

	t.Run("Pattern Is Anchored", func(t *testing.T) {
		src, dst := newSrc(), mustPage(t, "- see - # Inbox")
		_, err := core.MoveUnder(src, dst, core.MoveOptions{Pattern: pattern})
		assert.ErrorIs(t, err, core.ErrPatternNotFound)
	})

	t.Run("Requires Pattern", func(t *testing.T) {
		_, err := core.MoveUnder(newSrc(), mustPage(t, "- x"), core.MoveOptions{})
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("Empty Source", func(t *testing.T) {
		dst := mustPage(t, "- # Inbox")
		n, err := core.MoveUnder(core.NewPage(), dst, core.MoveOptions{Pattern: pattern})
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, "- # Inbox", dst.Content())
	})
}

func TestParseOrder(t *testing.T) {
	o, err := core.ParseOrder("BEFORE")
	require.NoError(t, err)
	assert.Equal(t, core.Before, o)
	assert.Equal(t, "before", o.String())

	_, err = core.ParseOrder("sideways")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
