package discuss_test

import (
	"testing"

	"github.com/plume-app/plume/discuss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string {
	return &s
}

func comment(id string, parentID *string) *discuss.Comment {
	return &discuss.Comment{
		ID:       id,
		BlogID:   "blog-1",
		ParentID: parentID,
		Content:  "comment " + id,
	}
}

func TestBuildTree(t *testing.T) {
	t.Parallel()

	t.Run("depth two chain", func(t *testing.T) {
		t.Parallel()

		flat := []*discuss.Comment{
			comment("a", nil),
			comment("b", ptr("a")),
			comment("c", ptr("b")),
		}

		roots := discuss.BuildTree(flat)

		require.Len(t, roots, 1)
		assert.Equal(t, "a", roots[0].ID)
		require.Len(t, roots[0].Replies, 1)
		assert.Equal(t, "b", roots[0].Replies[0].ID)
		require.Len(t, roots[0].Replies[0].Replies, 1)
		assert.Equal(t, "c", roots[0].Replies[0].Replies[0].ID)
	})

	t.Run("siblings keep input order", func(t *testing.T) {
		t.Parallel()

		flat := []*discuss.Comment{
			comment("newest", nil),
			comment("r2", ptr("oldest")),
			comment("older", nil),
			comment("r1", ptr("oldest")),
			comment("oldest", nil),
		}

		roots := discuss.BuildTree(flat)

		require.Len(t, roots, 3)
		assert.Equal(t, "newest", roots[0].ID)
		assert.Equal(t, "older", roots[1].ID)
		assert.Equal(t, "oldest", roots[2].ID)

		require.Len(t, roots[2].Replies, 2)
		assert.Equal(t, "r2", roots[2].Replies[0].ID)
		assert.Equal(t, "r1", roots[2].Replies[1].ID)
	})

	t.Run("reply before parent in input still attaches", func(t *testing.T) {
		t.Parallel()

		flat := []*discuss.Comment{
			comment("reply", ptr("root")),
			comment("root", nil),
		}

		roots := discuss.BuildTree(flat)

		require.Len(t, roots, 1)
		assert.Equal(t, "root", roots[0].ID)
		require.Len(t, roots[0].Replies, 1)
		assert.Equal(t, "reply", roots[0].Replies[0].ID)
	})

	t.Run("orphan surfaces as top-level", func(t *testing.T) {
		t.Parallel()

		flat := []*discuss.Comment{
			comment("a", nil),
			comment("lost", ptr("missing")),
		}

		roots := discuss.BuildTree(flat)

		require.Len(t, roots, 2)
		assert.Equal(t, "a", roots[0].ID)
		assert.Equal(t, "lost", roots[1].ID)
	})

	t.Run("empty parent id counts as top-level", func(t *testing.T) {
		t.Parallel()

		flat := []*discuss.Comment{comment("a", ptr(""))}

		roots := discuss.BuildTree(flat)

		require.Len(t, roots, 1)
		assert.Empty(t, roots[0].Replies)
	})

	t.Run("tolerates nesting past the reply depth cap", func(t *testing.T) {
		t.Parallel()

		flat := []*discuss.Comment{comment("c0", nil)}
		for i := 1; i < 8; i++ {
			flat = append(flat, comment(id(i), ptr(id(i-1))))
		}

		roots := discuss.BuildTree(flat)

		require.Len(t, roots, 1)

		node := roots[0]
		depth := 0

		for len(node.Replies) > 0 {
			node = node.Replies[0]
			depth++
		}

		assert.Equal(t, 7, depth)
	})
}

func id(i int) string {
	return string(rune('c')) + string(rune('0'+i))
}

func TestFlattenRoundTrip(t *testing.T) {
	t.Parallel()

	flat := []*discuss.Comment{
		comment("e", nil),
		comment("d", ptr("c")),
		comment("c", ptr("a")),
		comment("b", ptr("a")),
		comment("a", nil),
	}

	roots := discuss.BuildTree(flat)
	flattened := discuss.Flatten(roots)
	rebuilt := discuss.BuildTree(flattened)

	assert.Equal(t, shape(roots), shape(rebuilt))
	assert.Equal(t, discuss.Count(roots), len(flattened))
}

// shape reduces a forest to nested ids for structural comparison.
func shape(forest []*discuss.Comment) []any {
	out := make([]any, 0, len(forest))
	for _, c := range forest {
		out = append(out, []any{c.ID, shape(c.Replies)})
	}

	return out
}

func TestInsertReply(t *testing.T) {
	t.Parallel()

	buildChain := func() []*discuss.Comment {
		return discuss.BuildTree([]*discuss.Comment{
			comment("a", nil),
			comment("b", ptr("a")),
			comment("c", ptr("b")),
		})
	}

	t.Run("nil parent prepends top-level", func(t *testing.T) {
		t.Parallel()

		roots := discuss.InsertReply(buildChain(), comment("new", nil), nil)

		require.Len(t, roots, 2)
		assert.Equal(t, "new", roots[0].ID)
		assert.Equal(t, "a", roots[1].ID)
	})

	t.Run("prepends before existing sibling", func(t *testing.T) {
		t.Parallel()

		roots := discuss.InsertReply(buildChain(), comment("new", ptr("b")), ptr("b"))

		b := discuss.Find(roots, "b")
		require.NotNil(t, b)
		require.Len(t, b.Replies, 2)
		assert.Equal(t, "new", b.Replies[0].ID)
		assert.Equal(t, "c", b.Replies[1].ID)
	})

	t.Run("reaches deep parents", func(t *testing.T) {
		t.Parallel()

		roots := discuss.InsertReply(buildChain(), comment("new", ptr("c")), ptr("c"))

		c := discuss.Find(roots, "c")
		require.NotNil(t, c)
		require.Len(t, c.Replies, 1)
		assert.Equal(t, "new", c.Replies[0].ID)
	})

	t.Run("unknown parent surfaces as top-level", func(t *testing.T) {
		t.Parallel()

		roots := discuss.InsertReply(buildChain(), comment("new", ptr("gone")), ptr("gone"))

		require.Len(t, roots, 2)
		assert.Equal(t, "new", roots[0].ID)
	})

	t.Run("inserted comment appears exactly once", func(t *testing.T) {
		t.Parallel()

		roots := discuss.InsertReply(buildChain(), comment("new", ptr("b")), ptr("b"))

		assert.Equal(t, 4, discuss.Count(roots))
		assert.Len(t, collectIDs(roots, "new"), 1)
	})
}

func collectIDs(forest []*discuss.Comment, id string) []*discuss.Comment {
	var found []*discuss.Comment

	for _, c := range discuss.Flatten(forest) {
		if c.ID == id {
			found = append(found, c)
		}
	}

	return found
}

func TestRemoveComment(t *testing.T) {
	t.Parallel()

	build := func() []*discuss.Comment {
		return discuss.BuildTree([]*discuss.Comment{
			comment("a", nil),
			comment("b", ptr("a")),
			comment("c", ptr("b")),
			comment("d", nil),
		})
	}

	t.Run("removes subtree with the node", func(t *testing.T) {
		t.Parallel()

		roots, removed := discuss.RemoveComment(build(), "b")

		assert.True(t, removed)
		assert.Nil(t, discuss.Find(roots, "b"))
		assert.Nil(t, discuss.Find(roots, "c"))
		assert.NotNil(t, discuss.Find(roots, "a"))
		assert.Equal(t, 2, discuss.Count(roots))
	})

	t.Run("removes top-level node", func(t *testing.T) {
		t.Parallel()

		roots, removed := discuss.RemoveComment(build(), "a")

		assert.True(t, removed)
		require.Len(t, roots, 1)
		assert.Equal(t, "d", roots[0].ID)
	})

	t.Run("unknown id leaves forest untouched", func(t *testing.T) {
		t.Parallel()

		roots, removed := discuss.RemoveComment(build(), "nope")

		assert.False(t, removed)
		assert.Equal(t, 4, discuss.Count(roots))
	})
}

func TestToggleLike(t *testing.T) {
	t.Parallel()

	t.Run("toggle is its own inverse", func(t *testing.T) {
		t.Parallel()

		roots := discuss.BuildTree([]*discuss.Comment{
			comment("a", nil),
			comment("b", ptr("a")),
		})

		b := discuss.Find(roots, "b")
		b.Likes = []string{"u1"}

		require.True(t, discuss.ToggleLike(roots, "b", "u2"))
		assert.Equal(t, []string{"u1", "u2"}, b.Likes)
		assert.Equal(t, 2, b.LikeCount())

		require.True(t, discuss.ToggleLike(roots, "b", "u2"))
		assert.Equal(t, []string{"u1"}, b.Likes)
		assert.Equal(t, 1, b.LikeCount())
	})

	t.Run("unknown comment reports not found", func(t *testing.T) {
		t.Parallel()

		roots := discuss.BuildTree([]*discuss.Comment{comment("a", nil)})

		assert.False(t, discuss.ToggleLike(roots, "nope", "u1"))
	})
}
