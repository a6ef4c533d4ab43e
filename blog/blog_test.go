package blog_test

import (
	"testing"

	"github.com/plume-app/plume/blog"
	"github.com/stretchr/testify/assert"
)

func TestMatchesQuery(t *testing.T) {
	t.Parallel()

	b := &blog.Blog{
		Title:   "Gardening in small spaces",
		Content: "Container herbs thrive on a sunny balcony.",
		Author:  blog.Author{FirstName: "Mina", LastName: "Park"},
	}

	tests := []struct {
		name     string
		query    string
		expected bool
	}{
		{name: "empty query matches", query: "", expected: true},
		{name: "whitespace query matches", query: "   ", expected: true},
		{name: "title match case-insensitive", query: "GARDENING", expected: true},
		{name: "content match", query: "balcony", expected: true},
		{name: "author match", query: "mina park", expected: true},
		{name: "no match", query: "astronomy", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, b.MatchesQuery(tt.query))
		})
	}
}

func TestFavouriteIDs(t *testing.T) {
	t.Parallel()

	t.Run("prefers favourites field", func(t *testing.T) {
		t.Parallel()

		b := &blog.Blog{
			Favourites:   []string{"u1"},
			FavouritedBy: []string{"u2"},
		}

		assert.Equal(t, []string{"u1"}, b.FavouriteIDs())
		assert.True(t, b.FavouritedByUser("u1"))
		assert.False(t, b.FavouritedByUser("u2"))
	})

	t.Run("falls back to favouritedBy", func(t *testing.T) {
		t.Parallel()

		b := &blog.Blog{FavouritedBy: []string{"u2"}}

		assert.True(t, b.FavouritedByUser("u2"))
		assert.False(t, b.FavouritedByUser(""))
	})
}

func TestLoveCount(t *testing.T) {
	t.Parallel()

	t.Run("prefers reaction counter", func(t *testing.T) {
		t.Parallel()

		b := &blog.Blog{Reactions: blog.Reactions{Love: 5}, LovedBy: []string{"u1"}}
		assert.Equal(t, 5, b.LoveCount())
	})

	t.Run("falls back to membership size", func(t *testing.T) {
		t.Parallel()

		b := &blog.Blog{LovedBy: []string{"u1", "u2"}}
		assert.Equal(t, 2, b.LoveCount())
	})
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		author   blog.Author
		expected string
	}{
		{
			name:     "full name",
			author:   blog.Author{FirstName: "Mina", LastName: "Park", Username: "mina"},
			expected: "Mina Park",
		},
		{
			name:     "username fallback",
			author:   blog.Author{Username: "mina"},
			expected: "mina",
		},
		{
			name:     "anonymous fallback",
			author:   blog.Author{},
			expected: "Anonymous",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.author.DisplayName())
		})
	}
}
