package web

import (
	"html/template"
	"time"

	"github.com/plume-app/plume/discuss"
)

// maxReplyDepth caps how deep the reply button is offered. Deeper comments
// still render; they just can't grow the thread further.
const maxReplyDepth = 3

// CommentView is a comment prepared for rendering: nesting level, and what
// the current visitor may do with it.
type CommentView struct {
	ID        string
	BlogID    string
	Author    discuss.Author
	Content   string
	CreatedAt time.Time
	IsEdited  bool
	LikeCount int
	Liked     bool
	Level     int
	CanReply  bool
	CanDelete bool
	Replies   []*CommentView

	IsAuthenticated bool
	CSRFField       template.HTML
}

func buildCommentViews(
	comments []*discuss.Comment,
	level int,
	currentUserID string,
	authenticated bool,
	csrfField template.HTML,
) []*CommentView {
	views := make([]*CommentView, 0, len(comments))

	for _, comment := range comments {
		view := &CommentView{
			ID:              comment.ID,
			BlogID:          comment.BlogID,
			Author:          comment.Author,
			Content:         comment.Content,
			CreatedAt:       comment.CreatedAt,
			IsEdited:        comment.IsEdited,
			LikeCount:       comment.LikeCount(),
			Liked:           comment.LikedBy(currentUserID),
			Level:           level,
			CanReply:        authenticated && level < maxReplyDepth,
			CanDelete:       authenticated && comment.Author.ID == currentUserID,
			IsAuthenticated: authenticated,
			CSRFField:       csrfField,
		}

		view.Replies = buildCommentViews(
			comment.Replies,
			level+1,
			currentUserID,
			authenticated,
			csrfField,
		)

		views = append(views, view)
	}

	return views
}

// LoveWidget is the state behind the love button fragment.
type LoveWidget struct {
	BlogID          string
	Loved           bool
	Count           int
	ReturnTo        string
	IsAuthenticated bool
	CSRFField       template.HTML
}

// FavouriteWidget is the state behind the favourite button fragment.
type FavouriteWidget struct {
	BlogID          string
	Favourited      bool
	ReturnTo        string
	IsAuthenticated bool
	CSRFField       template.HTML
}
