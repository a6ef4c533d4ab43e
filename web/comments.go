package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/plume-app/plume/api"
	"github.com/plume-app/plume/discuss"
)

// blogThread returns the composed thread for a blog. On a cache miss (first
// request after startup, or after the blog's thread was dropped) the flat
// list is fetched and composed first, so a confirmed mutation is never
// applied to an empty forest that would then replace the rendered section.
func (h *Handler) blogThread(r *http.Request, blogID string) (*discuss.Thread, error) {
	thread, known := h.threads.get(blogID)
	if known {
		return thread, nil
	}

	comments, err := h.apiClient.ListComments(r.Context(), blogID)
	if err != nil {
		return nil, fmt.Errorf("failed to prime comment thread: %w", err)
	}

	thread.Reset(comments)

	return thread, nil
}

// renderCommentsFragment re-renders the whole comment section for a blog
// from the locally composed thread.
func (h *Handler) renderCommentsFragment(
	w http.ResponseWriter,
	r *http.Request,
	blogID string,
	thread *discuss.Thread,
) {
	csrfField := csrf.TemplateField(r)

	data := map[string]any{
		"BlogID":          blogID,
		"Comments":        buildCommentViews(thread.Snapshot(), 0, h.currentUserIDFromRequest(r), isAuthenticated(r), csrfField),
		"CommentCount":    thread.Len(),
		"IsAuthenticated": isAuthenticated(r),
		csrf.TemplateTag:  csrfField,
	}

	err := h.tpl.ExecuteTemplate(w, "comments.gohtml", data)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to render comments", "blogId", blogID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return
	}
}

func (h *Handler) HandlePostComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blogID := r.PathValue("blogId")

		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		if !isAuthenticated(r) {
			redirectAnonymousToLogin(w, r)

			return
		}

		sess, _ := currentSession(r)

		var parentID *string

		if replyTo := r.FormValue("reply_to_id"); replyTo != "" {
			parentID = &replyTo
		}

		thread, err := h.blogThread(r, blogID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to load comment thread", "blogId", blogID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		created, err := h.apiClient.CreateComment(
			r.Context(),
			sess.Token,
			blogID,
			r.FormValue("comment"),
			parentID,
		)
		if err != nil {
			var validationErr *api.ValidationError

			switch {
			case api.IsUnauthorized(err):
				h.teardownSession(w, r)
				redirectAnonymousToLogin(w, r)
			case errors.As(err, &validationErr):
				http.Error(w, validationErr.Message, http.StatusBadRequest)
			default:
				slog.ErrorContext(r.Context(), "failed to create comment", "blogId", blogID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}

			return
		}

		thread.Insert(created)

		if r.Header.Get("HX-Request") != hxRequestTrue {
			http.Redirect(w, r, "/b/"+blogID, http.StatusSeeOther)

			return
		}

		h.renderCommentsFragment(w, r, blogID, thread)
	})
}

func (h *Handler) HandleReplyForm() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("HX-Request") != hxRequestTrue {
			http.Error(w, "Direct access is forbidden", http.StatusForbidden)

			return
		}

		blogID := r.PathValue("blogId")
		commentID := r.PathValue("commentId")

		data := map[string]any{
			csrf.TemplateTag: csrf.TemplateField(r),
			"BlogID":         blogID,
			"CommentID":      commentID,
		}

		err := h.tpl.ExecuteTemplate(w, "reply-form.gohtml", data)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to render reply form", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleDeleteComment() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := currentSession(r)
		blogID := r.PathValue("blogId")
		commentID := r.PathValue("commentId")

		thread, err := h.blogThread(r, blogID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to load comment thread", "blogId", blogID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		err = h.apiClient.DeleteComment(r.Context(), sess.Token, commentID)
		if err != nil {
			var requestErr *api.RequestError

			switch {
			case api.IsUnauthorized(err):
				h.teardownSession(w, r)
				redirectAnonymousToLogin(w, r)

				return
			case errors.As(err, &requestErr) && requestErr.IsNotFound():
				// Already gone on the backend; fall through and drop it
				// locally too.
			default:
				slog.ErrorContext(r.Context(), "failed to delete comment", "commentId", commentID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)

				return
			}
		}

		thread.Remove(commentID)

		if r.Header.Get("HX-Request") != hxRequestTrue {
			http.Redirect(w, r, "/b/"+blogID, http.StatusSeeOther)

			return
		}

		h.renderCommentsFragment(w, r, blogID, thread)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleToggleCommentLike() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blogID := r.PathValue("blogId")
		commentID := r.PathValue("commentId")

		if !isAuthenticated(r) {
			redirectAnonymousToLogin(w, r)

			return
		}

		sess, _ := currentSession(r)

		thread, err := h.blogThread(r, blogID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to load comment thread", "blogId", blogID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		liked, err := h.apiClient.ToggleCommentLike(r.Context(), sess.Token, commentID)
		if err != nil {
			if api.IsUnauthorized(err) {
				h.teardownSession(w, r)
				redirectAnonymousToLogin(w, r)

				return
			}

			slog.ErrorContext(r.Context(), "failed to toggle comment like", "commentId", commentID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		thread.SetLiked(commentID, sess.UserID, liked)

		if r.Header.Get("HX-Request") != hxRequestTrue {
			http.Redirect(w, r, "/b/"+blogID, http.StatusSeeOther)

			return
		}

		h.renderCommentsFragment(w, r, blogID, thread)
	})
}
