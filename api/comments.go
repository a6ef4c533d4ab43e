package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/plume-app/plume/discuss"
)

// wireComment is the backend's comment shape; it converts to the composer's
// model at the package boundary.
type wireComment struct {
	ID     string `json:"_id"`
	BlogID string `json:"blogId"`
	UserID struct {
		ID        string `json:"_id"`
		Username  string `json:"username"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"userId"`
	Content         string     `json:"content"`
	ParentCommentID *string    `json:"parentCommentId"`
	Likes           []string   `json:"likes"`
	CreatedAt       time.Time  `json:"createdAt"`
	IsEdited        bool       `json:"isEdited"`
	EditedAt        *time.Time `json:"editedAt"`
}

func (wc wireComment) toComment() *discuss.Comment {
	return &discuss.Comment{
		ID:     wc.ID,
		BlogID: wc.BlogID,
		Author: discuss.Author{
			ID:        wc.UserID.ID,
			Username:  wc.UserID.Username,
			FirstName: wc.UserID.FirstName,
			LastName:  wc.UserID.LastName,
		},
		Content:   wc.Content,
		ParentID:  wc.ParentCommentID,
		Likes:     wc.Likes,
		CreatedAt: wc.CreatedAt,
		IsEdited:  wc.IsEdited,
		EditedAt:  wc.EditedAt,
	}
}

type commentListEnvelope struct {
	Success bool          `json:"success"`
	Data    []wireComment `json:"data"`
	Message string        `json:"message"`
}

// ListComments fetches the flat comment list for a blog, newest first, each
// item carrying its nullable parent reference. Threading is the composer's
// job, not the transport's.
func (c *Client) ListComments(ctx context.Context, blogID string) ([]*discuss.Comment, error) {
	var env commentListEnvelope

	err := c.doJSON(ctx, http.MethodGet, "/api/comments/"+blogID, "", nil, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	if !env.Success {
		return nil, &RequestError{StatusCode: http.StatusOK, Message: env.Message}
	}

	comments := make([]*discuss.Comment, 0, len(env.Data))

	for _, wc := range env.Data {
		comments = append(comments, wc.toComment())
	}

	return comments, nil
}

type commentEnvelope struct {
	Success bool        `json:"success"`
	Data    wireComment `json:"data"`
	Message string      `json:"message"`
}

// CreateComment posts a comment or reply. Content is validated locally
// before any network dispatch.
func (c *Client) CreateComment(
	ctx context.Context,
	token, blogID, content string,
	parentID *string,
) (*discuss.Comment, error) {
	if token == "" {
		return nil, &UnauthorizedError{Message: "login required to comment"}
	}

	content = strings.TrimSpace(content)

	if content == "" {
		return nil, &ValidationError{Field: "content", Message: "comment cannot be empty"}
	}

	if len(content) > discuss.MaxContentLength {
		return nil, &ValidationError{
			Field:   "content",
			Message: fmt.Sprintf("comment cannot exceed %d characters", discuss.MaxContentLength),
		}
	}

	body := map[string]any{
		"content":         content,
		"parentCommentId": parentID,
	}

	var env commentEnvelope

	err := c.doJSON(ctx, http.MethodPost, "/api/comments/"+blogID, token, body, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if !env.Success {
		return nil, &RequestError{StatusCode: http.StatusOK, Message: env.Message}
	}

	return env.Data.toComment(), nil
}

// DeleteComment deletes a comment; the backend cascades to its replies.
// Repeating a delete after success comes back as not-found, which the
// caller may treat as already done.
func (c *Client) DeleteComment(ctx context.Context, token, commentID string) error {
	err := c.doJSON(ctx, http.MethodDelete, "/api/comments/"+commentID, token, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

type commentLikeEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Liked bool `json:"isLiked"`
	} `json:"data"`
}

// ToggleCommentLike flips the caller's like on a comment and returns the
// backend-confirmed membership state.
func (c *Client) ToggleCommentLike(ctx context.Context, token, commentID string) (bool, error) {
	if token == "" {
		return false, &UnauthorizedError{Message: "login required to like comments"}
	}

	var env commentLikeEnvelope

	err := c.doJSON(ctx, http.MethodPost, "/api/comments/like/"+commentID, token, nil, &env)
	if err != nil {
		return false, fmt.Errorf("failed to toggle comment like: %w", err)
	}

	return env.Data.Liked, nil
}
