package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/microcosm-cc/bluemonday"
	"github.com/plume-app/plume/api"
	"github.com/plume-app/plume/blog"
	sessionstore "github.com/plume-app/plume/session"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	//go:embed templates/*
	templatesFS embed.FS

	//go:embed static/*
	staticFS embed.FS
)

const (
	defaultSiteTitle = "Plume"
	hxRequestTrue    = "true"
)

type Handler struct {
	mux     *http.ServeMux
	handler http.Handler
	tpl     *template.Template
	static  fs.FS

	apiClient *api.Client
	sessions  *sessionstore.Store

	cookieStore *sessions.CookieStore
	sessionName string

	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy

	loginLimiter *ipLimiter

	threads *threadCache

	metricsHandler http.Handler
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(
	apiClient *api.Client,
	sessionStore *sessionstore.Store,
	cookieStore *sessions.CookieStore,
	sessionName string,
	csrfAuthKeys []byte,
	csrfTrustedOrigins []string,
	metricsHandler http.Handler,
) (*Handler, error) {
	h := &Handler{
		apiClient:      apiClient,
		sessions:       sessionStore,
		cookieStore:    cookieStore,
		sessionName:    sessionName,
		markdown:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer:      bluemonday.UGCPolicy(),
		loginLimiter:   newIPLimiter(defaultLoginRate, defaultLoginBurst),
		threads:        newThreadCache(),
		metricsHandler: metricsHandler,
	}

	{
		tpl, err := template.New("").Funcs(h.funcs()).ParseFS(templatesFS, "templates/*.gohtml")
		if err != nil {
			return nil, fmt.Errorf("failed to parse templates: %w", err)
		}

		h.tpl = tpl
	}

	{
		static, err := fs.Sub(staticFS, "static")
		if err != nil {
			return nil, fmt.Errorf("failed to sub static fs: %w", err)
		}

		h.static = static
	}

	{
		h.mux = &http.ServeMux{}
		h.handler = h.mux

		h.registerRoutes()
	}

	{
		h.handler = h.authMiddleware(h.handler)

		{
			csrfMiddleware := csrf.Protect(
				csrfAuthKeys,
				csrf.TrustedOrigins(csrfTrustedOrigins),
			)

			h.handler = csrfMiddleware(h.handler)
		}

		h.handler = recoverMiddleware(h.handler)
	}

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("/", h.HandleIndex)

	h.mux.Handle("GET /register", h.HandleRegisterPage())
	h.mux.Handle("POST /register", h.HandleRegister())
	h.mux.Handle("GET /login", h.HandleLoginPage())
	h.mux.Handle("POST /login", h.HandleLogin())
	h.mux.Handle("POST /logout", h.HandleLogout())

	h.mux.Handle("GET /create-blog", h.HandleCreateBlogPage())
	h.mux.Handle("POST /create-blog", h.HandleCreateBlog())
	h.mux.Handle("GET /b/{blogId}", h.HandleViewBlogPage())
	h.mux.Handle("GET /b/{blogId}/edit", h.HandleEditBlogPage())
	h.mux.Handle("POST /b/{blogId}/edit", h.HandleEditBlog())
	h.mux.Handle("POST /b/{blogId}/delete", h.HandleDeleteBlog())
	h.mux.Handle("POST /b/{blogId}/love", h.HandleToggleLove())
	h.mux.Handle("POST /b/{blogId}/favourite", h.HandleToggleFavourite())

	h.mux.Handle("POST /b/{blogId}/comments", h.HandlePostComment())
	h.mux.Handle("GET /b/{blogId}/comments/{commentId}/reply", h.HandleReplyForm())
	h.mux.Handle("POST /b/{blogId}/comments/{commentId}/delete", h.HandleDeleteComment())
	h.mux.Handle("POST /b/{blogId}/comments/{commentId}/like", h.HandleToggleCommentLike())

	h.mux.Handle("GET /favourites", h.HandleFavouritesPage())
	h.mux.Handle("GET /profile", h.HandleProfilePage())
	h.mux.Handle("POST /profile", h.HandleUpdateProfile())
	h.mux.Handle("GET /u/{userId}", h.HandleAuthorPage())

	if h.metricsHandler != nil {
		h.mux.Handle("GET /metrics", h.metricsHandler)
	}
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if err := recover(); err != nil {
				slog.ErrorContext(
					ctx,
					"recovered from panic",
					"error",
					err,
					"stack",
					string(debug.Stack()),
				)

				http.Error(w, "internal error occurred", http.StatusInternalServerError)
			}
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}

			return t.Format("Jan 2, 2006 3:04 PM")
		},
		"truncate": truncateText,
		"markdown": func(source string) template.HTML {
			var buf bytes.Buffer

			err := h.markdown.Convert([]byte(source), &buf)
			if err != nil {
				// Fall back to the raw text, still sanitized.
				return template.HTML(h.sanitizer.Sanitize(template.HTMLEscapeString(source))) //nolint:gosec
			}

			return template.HTML(h.sanitizer.SanitizeBytes(buf.Bytes())) //nolint:gosec
		},
		"imageURL": h.apiClient.ImageURL,
	}
}

func (h *Handler) renderTemplate(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	extraData map[string]any,
) {
	var currentUser *blog.Profile

	if sess, ok := currentSession(r); ok {
		profile, err := h.apiClient.CurrentUser(r.Context(), sess.Token)
		if err != nil {
			if api.IsUnauthorized(err) {
				h.teardownSession(w, r)
				http.Redirect(w, r, "/login", http.StatusSeeOther)

				return
			}

			slog.ErrorContext(r.Context(), "failed to get current user", "error", err)
		} else {
			currentUser = &profile.User
		}
	}

	data := map[string]any{
		"CurrentPath":     r.URL.Path,
		"Lang":            "en",
		"Dir":             "ltr",
		"IsAuthenticated": isAuthenticated(r),
		"CurrentUser":     currentUser,
		"Query":           r.URL.Query().Get("q"),
		"Notice":          r.URL.Query().Get("notice"),
		"Error":           r.URL.Query().Get("error"),
		csrf.TemplateTag:  csrf.TemplateField(r),
	}

	maps.Copy(data, extraData)

	data["SiteTitle"] = defaultSiteTitle

	if extraData["SiteTitle"] != nil {
		data["SiteTitle"] = fmt.Sprintf("%s | %s", extraData["SiteTitle"], defaultSiteTitle)
	}

	err := h.tpl.ExecuteTemplate(w, name, data)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to render template", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return
	}
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		h.HandleHomePage(w, r)

		return
	}

	h.HandleStatic(w, r)
}

// HandleStatic serves static files.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	http.FileServer(http.FS(h.static)).ServeHTTP(w, r)
}

// HandleHomePage lists all blogs, filtered by the q search parameter when
// present. Search is a local filter over the fetched list, matching title,
// content, and author.
func (h *Handler) HandleHomePage(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.apiClient.ListBlogs(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list blogs", "error", err)
		h.renderTemplate(w, r, "home-page.gohtml", map[string]any{
			"Error":      "Could not load blogs. Please try again.",
			"Blogs":      []*blog.Blog{},
			"TotalCount": 0,
		})

		return
	}

	query := r.URL.Query().Get("q")

	filtered := make([]*blog.Blog, 0, len(blogs))

	for _, b := range blogs {
		if b.MatchesQuery(query) {
			filtered = append(filtered, b)
		}
	}

	data := map[string]any{
		"Blogs":          filtered,
		"Query":          query,
		"TotalCount":     len(blogs),
		csrf.TemplateTag: csrf.TemplateField(r),
	}

	h.renderTemplate(w, r, "home-page.gohtml", data)
}

// redirectWithError sends the user back to a form page with an inline,
// dismissible error message.
func redirectWithError(w http.ResponseWriter, r *http.Request, path, message string) {
	http.Redirect(w, r, path+"?error="+url.QueryEscape(message), http.StatusSeeOther)
}

func redirectWithNotice(w http.ResponseWriter, r *http.Request, path, message string) {
	http.Redirect(w, r, path+"?notice="+url.QueryEscape(message), http.StatusSeeOther)
}

// truncateText shortens a preview to at most n runes, so a cut never splits
// a multi-byte character.
func truncateText(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n]) + "..."
}

// sanitizeReturnToPath only allows local paths as redirect targets.
func sanitizeReturnToPath(returnTo string) string {
	if returnTo == "" {
		return "/"
	}

	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return "/"
	}

	return returnTo
}

// userMessage extracts a message safe to show the user from an API error.
func userMessage(err error, fallback string) string {
	var validationErr *api.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var requestErr *api.RequestError
	if errors.As(err, &requestErr) && requestErr.Message != "" {
		return requestErr.Message
	}

	return fallback
}
