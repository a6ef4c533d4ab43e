// Package blog holds the entities served by the remote blogging API. The
// field tags mirror the backend's wire shape; this frontend never stores
// these records itself.
package blog

import (
	"slices"
	"strings"
	"time"
)

type Author struct {
	ID        string `json:"_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (a Author) DisplayName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name != "" {
		return name
	}

	if a.Username != "" {
		return a.Username
	}

	return "Anonymous"
}

type Reactions struct {
	Love int `json:"love"`
}

type Blog struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	Reactions Reactions `json:"reactions"`

	// The backend is inconsistent about which field carries the favourite
	// set; both appear in the wild.
	Favourites   []string `json:"favourites,omitempty"`
	FavouritedBy []string `json:"favouritedBy,omitempty"`

	LovedBy []string `json:"lovedBy"`
}

// FavouriteIDs returns whichever favourite set the backend populated.
func (b *Blog) FavouriteIDs() []string {
	if len(b.Favourites) > 0 {
		return b.Favourites
	}

	return b.FavouritedBy
}

func (b *Blog) FavouritedByUser(userID string) bool {
	return userID != "" && slices.Contains(b.FavouriteIDs(), userID)
}

func (b *Blog) LovedByUser(userID string) bool {
	return userID != "" && slices.Contains(b.LovedBy, userID)
}

func (b *Blog) LoveCount() int {
	if b.Reactions.Love > 0 {
		return b.Reactions.Love
	}

	return len(b.LovedBy)
}

// MatchesQuery reports whether the blog matches a search query against
// title, content, and author name. An empty query matches everything.
func (b *Blog) MatchesQuery(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}

	for _, field := range []string{b.Title, b.Content, b.Author.DisplayName()} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}

	return false
}

// Profile is a user account as returned by the user endpoints.
type Profile struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

func (p Profile) DisplayName() string {
	return Author{
		Username:  p.Username,
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}.DisplayName()
}
