package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/plume-app/plume/blog"
)

func (c *Client) ListBlogs(ctx context.Context) ([]*blog.Blog, error) {
	var blogs []*blog.Blog

	err := c.doJSON(ctx, http.MethodGet, "/blog/all", "", nil, &blogs)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}

	return blogs, nil
}

type blogEnvelope struct {
	Blog *blog.Blog `json:"blog"`
}

func (c *Client) GetBlog(ctx context.Context, blogID string) (*blog.Blog, error) {
	var env blogEnvelope

	err := c.doJSON(ctx, http.MethodGet, "/blog/"+blogID, "", nil, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}

	if env.Blog == nil {
		return nil, &RequestError{StatusCode: http.StatusNotFound, Message: "blog not found"}
	}

	return env.Blog, nil
}

// Image is an optional attachment for blog creation; the bytes are forwarded
// to the backend untouched.
type Image struct {
	Filename string
	Content  io.Reader
}

func (c *Client) CreateBlog(
	ctx context.Context,
	token, title, content string,
	image *Image,
) (*blog.Blog, error) {
	if token == "" {
		return nil, &UnauthorizedError{Message: "login required to publish"}
	}

	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "title", Message: "title and content are required"}
	}

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	err := writer.WriteField("title", title)
	if err != nil {
		return nil, fmt.Errorf("failed to write title field: %w", err)
	}

	err = writer.WriteField("content", content)
	if err != nil {
		return nil, fmt.Errorf("failed to write content field: %w", err)
	}

	if image != nil {
		part, err := writer.CreateFormFile("image", image.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create image part: %w", err)
		}

		_, err = io.Copy(part, image.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to copy image content: %w", err)
		}
	}

	err = writer.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/blog/create", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	var env blogEnvelope

	err = c.send(req, token, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to create blog: %w", err)
	}

	return env.Blog, nil
}

type UpdateBlogRequest struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Image   *string `json:"image"`
}

func (c *Client) UpdateBlog(
	ctx context.Context,
	token, blogID string,
	req UpdateBlogRequest,
) (*blog.Blog, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, &ValidationError{Field: "title", Message: "title and content are required"}
	}

	var env blogEnvelope

	err := c.doJSON(ctx, http.MethodPut, "/blog/update/"+blogID, token, req, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to update blog: %w", err)
	}

	return env.Blog, nil
}

func (c *Client) DeleteBlog(ctx context.Context, token, blogID string) error {
	err := c.doJSON(ctx, http.MethodDelete, "/blog/"+blogID, token, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}

	return nil
}

// LoveState is the backend-confirmed outcome of a love toggle.
type LoveState struct {
	Loved bool `json:"lovedByUser"`
	Total int  `json:"totalLovers"`
}

func (c *Client) ToggleLove(ctx context.Context, token, blogID string) (*LoveState, error) {
	var state LoveState

	err := c.doJSON(ctx, http.MethodPost, "/blog/react/"+blogID, token, nil, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle love: %w", err)
	}

	return &state, nil
}

// FavouriteState is the backend-confirmed outcome of a favourite toggle.
type FavouriteState struct {
	Success      bool     `json:"success"`
	Favourited   bool     `json:"isFavourited"`
	FavouritedBy []string `json:"favouritedBy"`
}

func (c *Client) ToggleFavourite(ctx context.Context, token, blogID string) (*FavouriteState, error) {
	var state FavouriteState

	err := c.doJSON(ctx, http.MethodPost, "/blog/favourite/"+blogID, token, nil, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle favourite: %w", err)
	}

	return &state, nil
}

func (c *Client) ListFavourites(ctx context.Context, token string) ([]*blog.Blog, error) {
	var env struct {
		Blogs []*blog.Blog `json:"blogs"`
	}

	err := c.doJSON(ctx, http.MethodGet, "/blog/favourites", token, nil, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to list favourites: %w", err)
	}

	return env.Blogs, nil
}
