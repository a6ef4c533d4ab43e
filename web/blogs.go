package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/plume-app/plume/api"
)

const maxUploadBytes = 10 << 20

func (h *Handler) HandleCreateBlogPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			csrf.TemplateTag: csrf.TemplateField(r),
			"SiteTitle":      "Publish",
		}

		h.renderTemplate(w, r, "create-blog-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleCreateBlog() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := currentSession(r)

		err := r.ParseMultipartForm(maxUploadBytes)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse multipart form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		var image *api.Image

		file, header, err := r.FormFile("image")
		if err == nil {
			defer func() { _ = file.Close() }()

			image = &api.Image{Filename: header.Filename, Content: file}
		} else if !errors.Is(err, http.ErrMissingFile) {
			slog.ErrorContext(r.Context(), "failed to read image upload", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		created, err := h.apiClient.CreateBlog(
			r.Context(),
			sess.Token,
			r.FormValue("title"),
			r.FormValue("content"),
			image,
		)
		if err != nil {
			if api.IsUnauthorized(err) {
				h.teardownSession(w, r)
				http.Redirect(w, r, "/login", http.StatusSeeOther)

				return
			}

			slog.ErrorContext(r.Context(), "failed to create blog", "error", err)
			redirectWithError(w, r, "/create-blog", userMessage(err, "Could not publish the blog."))

			return
		}

		http.Redirect(w, r, "/b/"+created.ID, http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleViewBlogPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blogID := r.PathValue("blogId")
		returnTo := "/b/" + blogID

		b, err := h.apiClient.GetBlog(r.Context(), blogID)
		if err != nil {
			var requestErr *api.RequestError
			if errors.As(err, &requestErr) && requestErr.IsNotFound() {
				http.Error(w, "Blog not found", http.StatusNotFound)

				return
			}

			slog.ErrorContext(r.Context(), "failed to get blog", "blogId", blogID, "error", err)
			http.Error(w, "Failed to load blog", http.StatusInternalServerError)

			return
		}

		thread, _ := h.threads.get(blogID)

		comments, err := h.apiClient.ListComments(r.Context(), blogID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to list comments", "blogId", blogID, "error", err)
		} else {
			thread.Reset(comments)
		}

		currentUserID := h.currentUserIDFromRequest(r)
		authenticated := isAuthenticated(r)
		csrfField := csrf.TemplateField(r)

		commentViews := buildCommentViews(thread.Snapshot(), 0, currentUserID, authenticated, csrfField)

		isOwner := currentUserID != "" && b.Author.ID == currentUserID

		data := map[string]any{
			"Blog":         b,
			"BlogID":       blogID,
			"IsOwner":      isOwner,
			"Comments":     commentViews,
			"CommentCount": thread.Len(),
			"Love": &LoveWidget{
				BlogID:          blogID,
				Loved:           b.LovedByUser(currentUserID),
				Count:           b.LoveCount(),
				ReturnTo:        returnTo,
				IsAuthenticated: authenticated,
				CSRFField:       csrfField,
			},
			"Favourite": &FavouriteWidget{
				BlogID:          blogID,
				Favourited:      b.FavouritedByUser(currentUserID),
				ReturnTo:        returnTo,
				IsAuthenticated: authenticated,
				CSRFField:       csrfField,
			},
			"SiteTitle":      b.Title,
			csrf.TemplateTag: csrfField,
		}

		h.renderTemplate(w, r, "view-blog-page.gohtml", data)
	})
}

func (h *Handler) currentUserIDFromRequest(r *http.Request) string {
	sess, ok := currentSession(r)
	if !ok {
		return ""
	}

	return sess.UserID
}

func (h *Handler) HandleEditBlogPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blogID := r.PathValue("blogId")

		b, err := h.apiClient.GetBlog(r.Context(), blogID)
		if err != nil {
			var requestErr *api.RequestError
			if errors.As(err, &requestErr) && requestErr.IsNotFound() {
				http.Error(w, "Blog not found", http.StatusNotFound)

				return
			}

			slog.ErrorContext(r.Context(), "failed to get blog", "blogId", blogID, "error", err)
			http.Error(w, "Failed to load blog", http.StatusInternalServerError)

			return
		}

		if b.Author.ID != h.currentUserIDFromRequest(r) {
			http.Error(w, "Only the author can edit this blog", http.StatusForbidden)

			return
		}

		data := map[string]any{
			csrf.TemplateTag: csrf.TemplateField(r),
			"SiteTitle":      "Edit",
			"Blog":           b,
		}

		h.renderTemplate(w, r, "edit-blog-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleEditBlog() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := currentSession(r)
		blogID := r.PathValue("blogId")

		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		_, err = h.apiClient.UpdateBlog(r.Context(), sess.Token, blogID, api.UpdateBlogRequest{
			Title:   r.FormValue("title"),
			Content: r.FormValue("content"),
		})
		if err != nil {
			if api.IsUnauthorized(err) {
				h.teardownSession(w, r)
				http.Redirect(w, r, "/login", http.StatusSeeOther)

				return
			}

			slog.ErrorContext(r.Context(), "failed to update blog", "blogId", blogID, "error", err)
			redirectWithError(w, r, "/b/"+blogID+"/edit", userMessage(err, "Could not update the blog."))

			return
		}

		http.Redirect(w, r, "/b/"+blogID, http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleDeleteBlog() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := currentSession(r)
		blogID := r.PathValue("blogId")

		err := h.apiClient.DeleteBlog(r.Context(), sess.Token, blogID)
		if err != nil {
			if api.IsUnauthorized(err) {
				h.teardownSession(w, r)
				http.Redirect(w, r, "/login", http.StatusSeeOther)

				return
			}

			slog.ErrorContext(r.Context(), "failed to delete blog", "blogId", blogID, "error", err)
			redirectWithError(w, r, "/b/"+blogID, userMessage(err, "Could not delete the blog."))

			return
		}

		h.threads.drop(blogID)

		redirectWithNotice(w, r, "/", "Blog deleted.")
	})

	return h.AuthenticatedOnly(hf)
}

// redirectAnonymousToLogin handles reaction attempts by visitors without a
// session, for both htmx and plain form submits.
func redirectAnonymousToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == hxRequestTrue {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusUnauthorized)

		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) HandleToggleLove() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blogID := r.PathValue("blogId")

		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		returnTo := sanitizeReturnToPath(r.FormValue("return_to"))

		if !isAuthenticated(r) {
			redirectAnonymousToLogin(w, r)

			return
		}

		sess, _ := currentSession(r)

		state, err := h.apiClient.ToggleLove(r.Context(), sess.Token, blogID)
		if err != nil {
			if api.IsUnauthorized(err) {
				h.teardownSession(w, r)
				redirectAnonymousToLogin(w, r)

				return
			}

			slog.ErrorContext(r.Context(), "failed to toggle love", "blogId", blogID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		if r.Header.Get("HX-Request") != hxRequestTrue {
			http.Redirect(w, r, returnTo, http.StatusSeeOther)

			return
		}

		widget := &LoveWidget{
			BlogID:          blogID,
			Loved:           state.Loved,
			Count:           state.Total,
			ReturnTo:        returnTo,
			IsAuthenticated: true,
			CSRFField:       csrf.TemplateField(r),
		}

		err = h.tpl.ExecuteTemplate(w, "love-widget.gohtml", widget)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to render love widget", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}
	})
}

func (h *Handler) HandleToggleFavourite() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blogID := r.PathValue("blogId")

		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		returnTo := sanitizeReturnToPath(r.FormValue("return_to"))

		if !isAuthenticated(r) {
			redirectAnonymousToLogin(w, r)

			return
		}

		sess, _ := currentSession(r)

		state, err := h.apiClient.ToggleFavourite(r.Context(), sess.Token, blogID)
		if err != nil {
			if api.IsUnauthorized(err) {
				h.teardownSession(w, r)
				redirectAnonymousToLogin(w, r)

				return
			}

			slog.ErrorContext(r.Context(), "failed to toggle favourite", "blogId", blogID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		if r.Header.Get("HX-Request") != hxRequestTrue {
			http.Redirect(w, r, returnTo, http.StatusSeeOther)

			return
		}

		widget := &FavouriteWidget{
			BlogID:          blogID,
			Favourited:      state.Favourited,
			ReturnTo:        returnTo,
			IsAuthenticated: true,
			CSRFField:       csrf.TemplateField(r),
		}

		err = h.tpl.ExecuteTemplate(w, "favourite-widget.gohtml", widget)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to render favourite widget", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}
	})
}
