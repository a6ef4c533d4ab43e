package discuss

import (
	"slices"
	"strings"
	"time"
)

// MaxContentLength is the longest comment the backend accepts.
const MaxContentLength = 1000

type Author struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
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

type Comment struct {
	ID        string
	BlogID    string
	Author    Author
	Content   string
	ParentID  *string
	Likes     []string
	CreatedAt time.Time
	IsEdited  bool
	EditedAt  *time.Time

	// Replies is derived by BuildTree; it is never part of the wire shape.
	Replies []*Comment
}

// LikeCount is always derived from the likes set, never stored separately.
func (c *Comment) LikeCount() int {
	return len(c.Likes)
}

func (c *Comment) LikedBy(userID string) bool {
	return slices.Contains(c.Likes, userID)
}

func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil || *c.ParentID == ""
}
