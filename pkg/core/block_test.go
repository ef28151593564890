package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/outline/pkg/core"
)

func TestNewBlock(t *testing.T) {
	t.Run("Task With Id", func(t *testing.T) {
		b, err := core.NewBlock("- TODO buy milk\n  id:: abc-1234-5678-90ab")
		require.NoError(t, err)
		assert.Equal(t, core.StateTodo, b.WorkflowState())
		assert.Equal(t, map[string]string{"id": "abc-1234-5678-90ab"}, b.Properties())
		assert.Equal(t, "abc-1234-5678-90ab", b.Identifier())
		assert.Equal(t, 0, b.IndentationLevel())
		assert.False(t, b.Dirty())
	})

	t.Run("Requires Bullet", func(t *testing.T) {
		for _, text := range []string{"no bullet", "---", "-foo", "  -bar\n- baz"} {
			_, err := core.NewBlock(text)
			assert.ErrorIs(t, err, core.ErrMalformedDocument, text)
		}
		b, err := core.NewBlock("-")
		require.NoError(t, err)
		assert.Equal(t, "-", b.Content())
	})

	t.Run("Normalizes NBSP", func(t *testing.T) {
		b := core.MustBlock("- a\u00a0b")
		assert.Equal(t, "- a b", b.Content())
	})

	t.Run("Conflicting Workflow States", func(t *testing.T) {
		_, err := core.NewBlock("- TODO a\n- DONE b")
		assert.ErrorIs(t, err, core.ErrWorkflowConflict)
	})

	t.Run("Repeated Keyword Is Not A Conflict", func(t *testing.T) {
		b, err := core.NewBlock("- TODO a\n  - TODO b")
		require.NoError(t, err)
		assert.Equal(t, core.StateTodo, b.WorkflowState())
	})

	t.Run("Keyword Must Follow Bullet", func(t *testing.T) {
		assert.Equal(t, core.StateNone, core.MustBlock("- buy TODO milk").WorkflowState())
		assert.Equal(t, core.StateNone, core.MustBlock("- TODOS").WorkflowState())
		assert.Equal(t, core.StateLater, core.MustBlock("\t- LATER read").WorkflowState())
	})

	t.Run("Property Not Written Verbatim", func(t *testing.T) {
		_, err := core.NewBlock("- a\n  key::  spaced")
		assert.ErrorIs(t, err, core.ErrPropertyCorruption)
	})

	t.Run("Duplicate Id", func(t *testing.T) {
		_, err := core.NewBlock("- a\n  id:: x\n  id:: y")
		assert.ErrorIs(t, err, core.ErrPropertyCorruption)
	})

	t.Run("Indentation From First Line", func(t *testing.T) {
		assert.Equal(t, 4, core.MustBlock("\t- a").IndentationLevel())
		assert.Equal(t, 8, core.MustBlock("        - a").IndentationLevel())
		assert.Equal(t, 2, core.MustBlock("  - a").IndentationLevel())
	})
}

func TestBlock_SetContent(t *testing.T) {
	b := core.MustBlock("- a")

	require.NoError(t, b.SetContent("- a"))
	assert.False(t, b.Dirty(), "unchanged content must not mark the block dirty")

	require.NoError(t, b.SetContent("- DONE b\n  k:: v"))
	assert.True(t, b.Dirty())
	assert.Equal(t, core.StateDone, b.WorkflowState())
	assert.Equal(t, map[string]string{"k": "v"}, b.Properties())

	for _, text := range []string{"nope", "-foo", "---"} {
		err := b.SetContent(text)
		assert.ErrorIs(t, err, core.ErrMalformedDocument, text)
		assert.Equal(t, "- DONE b\n  k:: v", b.Content())
	}

	err := b.SetContent("- TODO a\n- NOW b")
	assert.ErrorIs(t, err, core.ErrWorkflowConflict)
	assert.Equal(t, "- DONE b\n  k:: v", b.Content())
}

func TestBlock_SetIndentationLevel(t *testing.T) {
	t.Run("One Unit", func(t *testing.T) {
		b := core.MustBlock("- child")
		require.NoError(t, b.SetIndentationLevel(4))
		assert.Equal(t, "\t- child", b.Content())
		assert.Equal(t, 4, b.IndentationLevel())
	})

	t.Run("Shifts Continuation Lines", func(t *testing.T) {
		b := core.MustBlock("- a\n  k:: v")
		require.NoError(t, b.SetIndentationLevel(8))
		assert.Equal(t, "\t\t- a\n\t\t  k:: v", b.Content())
		assert.Equal(t, map[string]string{"k": "v"}, b.Properties())

		require.NoError(t, b.SetIndentationLevel(0))
		assert.Equal(t, "- a\n  k:: v", b.Content())
	})

	t.Run("Rewrites Spaces As Tabs", func(t *testing.T) {
		b := core.MustBlock("    - a")
		require.NoError(t, b.SetIndentationLevel(4))
		assert.Equal(t, "\t- a", b.Content())
	})

	t.Run("Rounds Odd Widths", func(t *testing.T) {
		b := core.MustBlock("  - a")
		require.NoError(t, b.SetIndentationLevel(4))
		assert.Equal(t, "\t- a", b.Content())
	})

	t.Run("Rejects Invalid Levels", func(t *testing.T) {
		b := core.MustBlock("- a")
		assert.ErrorIs(t, b.SetIndentationLevel(3), core.ErrInvalidInput)
		assert.ErrorIs(t, b.SetIndentationLevel(-4), core.ErrInvalidInput)
		assert.Equal(t, "- a", b.Content())
		assert.False(t, b.Dirty())
	})

	t.Run("Round Trip", func(t *testing.T) {
		for _, n := range []int{0, 4, 8, 12, 40} {
			b := core.MustBlock("\t- x\n\t  p:: q")
			require.NoError(t, b.SetIndentationLevel(n))
			assert.Equal(t, n, b.IndentationLevel())
		}
	})
}

func TestBlock_SetWorkflowState(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		state core.State
		want  string
	}{
		{"Replace", "- TODO x", core.StateDone, "- DONE x"},
		{"Remove", "- DOING x", core.StateNone, "- x"},
		{"Insert", "- x", core.StateTodo, "- TODO x"},
		{"Insert Indented", "\t- x\n\t  k:: v", core.StateNow, "\t- NOW x\n\t  k:: v"},
		{"Same State", "- LATER x", core.StateLater, "- LATER x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := core.MustBlock(tt.in)
			require.NoError(t, b.SetWorkflowState(tt.state))
			assert.Equal(t, tt.want, b.Content())
			assert.Equal(t, tt.state, b.WorkflowState())
		})
	}

	t.Run("Unknown State", func(t *testing.T) {
		b := core.MustBlock("- TODO x")
		assert.ErrorIs(t, b.SetWorkflowState(core.State("WAITING")), core.ErrInvalidInput)
		assert.Equal(t, core.StateTodo, b.WorkflowState())
	})
}

func TestBlock_Properties(t *testing.T) {
	t.Run("Set Then Delete Restores Content", func(t *testing.T) {
		b := core.MustBlock("- note")
		require.NoError(t, b.SetProperty("tags", "a,b"))
		assert.Equal(t, "- note\n  tags:: a,b", b.Content())
		got, ok := b.Property("tags")
		assert.True(t, ok)
		assert.Equal(t, "a,b", got)

		require.NoError(t, b.DelProperty("tags"))
		assert.Equal(t, "- note", b.Content())
		assert.Empty(t, b.Properties())
	})

	t.Run("Rewrites Existing Value", func(t *testing.T) {
		b := core.MustBlock("- note\n  tags:: a\n  other:: z")
		require.NoError(t, b.SetProperty("tags", "b"))
		assert.Equal(t, "- note\n  tags:: b\n  other:: z", b.Content())
	})

	t.Run("Same Value Is A No-op", func(t *testing.T) {
		b := core.MustBlock("- note\n  tags:: a")
		require.NoError(t, b.SetProperty("tags", "a"))
		assert.False(t, b.Dirty())
	})

	t.Run("Appends Under Indented Block", func(t *testing.T) {
		b := core.MustBlock("\t- child")
		require.NoError(t, b.SetProperty("k", "v"))
		assert.Equal(t, "\t- child\n\t  k:: v", b.Content())
	})

	t.Run("Set Is Idempotent", func(t *testing.T) {
		b := core.MustBlock("- note")
		require.NoError(t, b.SetProperty("k", "v"))
		first := b.Content()
		require.NoError(t, b.SetProperty("k", "v"))
		assert.Equal(t, first, b.Content())
	})

	t.Run("Snapshot Is A Copy", func(t *testing.T) {
		b := core.MustBlock("- note\n  k:: v")
		props := b.Properties()
		props["k"] = "changed"
		props["new"] = "x"
		assert.Equal(t, map[string]string{"k": "v"}, b.Properties())
	})

	t.Run("Rejects Invalid Input", func(t *testing.T) {
		b := core.MustBlock("- note")
		for _, key := range []string{"", "two words", "-lead", "a:b"} {
			assert.ErrorIs(t, b.SetProperty(key, "v"), core.ErrInvalidInput, key)
		}
		for _, value := range []string{"", " lead", "trail ", "a\nb"} {
			assert.ErrorIs(t, b.SetProperty("k", value), core.ErrInvalidInput, value)
		}
		assert.Equal(t, "- note", b.Content())
	})

	t.Run("Ambiguous Existing Pair", func(t *testing.T) {
		b := core.MustBlock("- see k:: v\n  k:: v")
		err := b.SetProperty("k", "w")
		assert.ErrorIs(t, err, core.ErrPropertyCorruption)
		assert.Equal(t, "- see k:: v\n  k:: v", b.Content())
		assert.ErrorIs(t, b.DelProperty("k"), core.ErrPropertyCorruption)
	})

	t.Run("Delete Missing", func(t *testing.T) {
		b := core.MustBlock("- note")
		assert.ErrorIs(t, b.DelProperty("nope"), core.ErrPropertyNotFound)
	})

	t.Run("Delete Leaves Other Properties", func(t *testing.T) {
		b := core.MustBlock("- note\n  a:: 1\n  b:: 2")
		require.NoError(t, b.DelProperty("a"))
		assert.Equal(t, map[string]string{"b": "2"}, b.Properties())
		assert.NotContains(t, b.Content(), "a:: ")
	})
}

func TestBlock_Identifier(t *testing.T) {
	t.Run("Generated Identifier Is Stable", func(t *testing.T) {
		b := core.MustBlock("- a")
		id := b.Identifier()
		require.NoError(t, core.ValidateIdentifier(id))
		require.NoError(t, b.SetContent("- TODO changed"))
		require.NoError(t, b.SetIndentationLevel(4))
		assert.Equal(t, id, b.Identifier())
	})

	t.Run("Distinct Blocks Get Distinct Identifiers", func(t *testing.T) {
		assert.NotEqual(t, core.MustBlock("- a").Identifier(), core.MustBlock("- a").Identifier())
	})

	t.Run("Set And Remove", func(t *testing.T) {
		b := core.MustBlock("- a")
		generated := b.Identifier()
		id := "6650a6a8-1c2e-4b8e-9a2f-0123456789ab"

		require.NoError(t, b.SetIdentifier(id))
		assert.Equal(t, id, b.Identifier())
		assert.Equal(t, "- a\n  id:: "+id, b.Content())

		require.NoError(t, b.DelProperty(core.IdentifierKey))
		assert.Equal(t, generated, b.Identifier())
	})

	t.Run("Rejects Malformed Identifiers", func(t *testing.T) {
		b := core.MustBlock("- a")
		for _, id := range []string{"abc", "a-b-c", "a-b-c-d-e-f", "a-b-c-d-é!", "----"} {
			assert.ErrorIs(t, b.SetIdentifier(id), core.ErrInvalidInput, id)
		}
		_, ok := b.Property(core.IdentifierKey)
		assert.False(t, ok)
	})
}

func TestBlock_Clone(t *testing.T) {
	b := core.MustBlock("- a\n  k:: v")
	c := b.Clone()

	assert.Equal(t, b.Content(), c.Content())
	assert.NotEqual(t, b.Identifier(), c.Identifier())

	require.NoError(t, c.SetProperty("k", "changed"))
	got, _ := b.Property("k")
	assert.Equal(t, "v", got)

	withID := core.MustBlock("- a\n  id:: 1-2-3-4-5")
	assert.Equal(t, "1-2-3-4-5", withID.Clone().Identifier())
}

func TestParseState(t *testing.T) {
	s, err := core.ParseState("done")
	require.NoError(t, err)
	assert.Equal(t, core.StateDone, s)

	s, err = core.ParseState("none")
	require.NoError(t, err)
	assert.Equal(t, core.StateNone, s)

	_, err = core.ParseState("blocked")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	assert.True(t, core.StateTodo.Open())
	assert.False(t, core.StateDone.Open())
	assert.False(t, core.StateNone.Open())
}
