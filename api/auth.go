package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/plume-app/plume/blog"
)

type LoginResult struct {
	Token string       `json:"token"`
	User  blog.Profile `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &ValidationError{Field: "email", Message: "email and password are required"}
	}

	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var result LoginResult

	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", body, &result)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return &result, nil
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type RegisterResult struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, &ValidationError{Field: "email", Message: "first name, email, and password are required"}
	}

	var result RegisterResult

	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", req, &result)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return &result, nil
}
