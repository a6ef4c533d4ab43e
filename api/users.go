package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/plume-app/plume/blog"
)

// UserProfile bundles an account with the blogs it has published, as the
// user endpoints return them.
type UserProfile struct {
	User  blog.Profile `json:"user"`
	Blogs []*blog.Blog `json:"blogs"`
}

// CurrentUser fetches the authenticated user's own profile and blogs.
func (c *Client) CurrentUser(ctx context.Context, token string) (*UserProfile, error) {
	if token == "" {
		return nil, &UnauthorizedError{Message: "login required"}
	}

	var profile UserProfile

	err := c.doJSON(ctx, http.MethodGet, "/api/user", token, nil, &profile)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	return &profile, nil
}

// GetUser fetches a public author profile with their blogs.
func (c *Client) GetUser(ctx context.Context, userID string) (*UserProfile, error) {
	var profile UserProfile

	err := c.doJSON(ctx, http.MethodGet, "/api/user/"+userID, "", nil, &profile)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if profile.User.ID == "" {
		return nil, &RequestError{StatusCode: http.StatusNotFound, Message: "author not found"}
	}

	return &profile, nil
}

type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Bio       string `json:"bio"`
}

func (c *Client) UpdateProfile(
	ctx context.Context,
	token string,
	req UpdateProfileRequest,
) (*blog.Profile, error) {
	if strings.TrimSpace(req.FirstName) == "" {
		return nil, &ValidationError{Field: "firstName", Message: "first name is required"}
	}

	var env struct {
		Success bool         `json:"success"`
		User    blog.Profile `json:"user"`
		Message string       `json:"message"`
	}

	err := c.doJSON(ctx, http.MethodPut, "/api/user/profile", token, req, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return &env.User, nil
}
