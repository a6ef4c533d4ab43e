package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/plume-app/plume/api"
)

func (h *Handler) HandleRegisterPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			csrf.TemplateTag: csrf.TemplateField(r),
			"SiteTitle":      "Register",
		}

		h.renderTemplate(w, r, "register-page.gohtml", data)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleRegister() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.loginLimiter.allow(clientIP(r)) {
			http.Error(w, "Too many attempts, slow down", http.StatusTooManyRequests)

			return
		}

		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		res, err := h.apiClient.Register(r.Context(), api.RegisterRequest{
			FirstName: r.FormValue("first_name"),
			LastName:  r.FormValue("last_name"),
			Email:     r.FormValue("email"),
			Password:  r.FormValue("password"),
		})
		if err != nil {
			slog.WarnContext(r.Context(), "registration failed", "error", err)
			redirectWithError(w, r, "/register", userMessage(err, "Registration failed. Please try again."))

			return
		}

		if res.Token == "" {
			redirectWithNotice(w, r, "/login", "Account created. Please log in.")

			return
		}

		err = h.establishSession(w, r, res.Token, "")
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to establish session", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleLoginPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			csrf.TemplateTag: csrf.TemplateField(r),
			"SiteTitle":      "Login",
			"ReturnTo":       sanitizeReturnToPath(r.URL.Query().Get("return_to")),
		}

		h.renderTemplate(w, r, "login-page.gohtml", data)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleLogin() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.loginLimiter.allow(clientIP(r)) {
			http.Error(w, "Too many attempts, slow down", http.StatusTooManyRequests)

			return
		}

		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		res, err := h.apiClient.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
		if err != nil {
			if api.IsUnauthorized(err) {
				redirectWithError(w, r, "/login", "Invalid email or password")

				return
			}

			slog.ErrorContext(r.Context(), "failed to login user", "error", err)
			redirectWithError(w, r, "/login", userMessage(err, "Login failed. Please try again."))

			return
		}

		err = h.establishSession(w, r, res.Token, res.User.ID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to establish session", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, sanitizeReturnToPath(r.FormValue("return_to")), http.StatusSeeOther)
	})

	return h.GuestOnly(hf)
}

// establishSession stores the backend token under a fresh session ID and
// points the browser cookie at it.
func (h *Handler) establishSession(
	w http.ResponseWriter,
	r *http.Request,
	token string,
	userID string,
) error {
	sessionID := uuid.NewString()

	err := h.sessions.Put(r.Context(), sessionID, token, userID)
	if err != nil {
		return err
	}

	return h.setSessionValue(w, r, sessionIDKey, sessionID)
}

func (h *Handler) HandleLogout() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.teardownSession(w, r)

		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleProfilePage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := currentSession(r)

		profile, err := h.apiClient.CurrentUser(r.Context(), sess.Token)
		if err != nil {
			if api.IsUnauthorized(err) {
				h.teardownSession(w, r)
				http.Redirect(w, r, "/login", http.StatusSeeOther)

				return
			}

			slog.ErrorContext(r.Context(), "failed to get current user", "error", err)
			http.Error(w, "Failed to load profile", http.StatusInternalServerError)

			return
		}

		data := map[string]any{
			csrf.TemplateTag: csrf.TemplateField(r),
			"SiteTitle":      "Profile",
			"Profile":        profile.User,
			"Blogs":          profile.Blogs,
			"IsOwnProfile":   true,
		}

		h.renderTemplate(w, r, "profile-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleUpdateProfile() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := currentSession(r)

		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		_, err = h.apiClient.UpdateProfile(r.Context(), sess.Token, api.UpdateProfileRequest{
			FirstName: r.FormValue("first_name"),
			LastName:  r.FormValue("last_name"),
			Bio:       r.FormValue("bio"),
		})
		if err != nil {
			if api.IsUnauthorized(err) {
				h.teardownSession(w, r)
				http.Redirect(w, r, "/login", http.StatusSeeOther)

				return
			}

			slog.ErrorContext(r.Context(), "failed to update profile", "error", err)
			redirectWithError(w, r, "/profile", userMessage(err, "Could not update profile."))

			return
		}

		redirectWithNotice(w, r, "/profile", "Profile updated.")
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleAuthorPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("userId")

		profile, err := h.apiClient.GetUser(r.Context(), userID)
		if err != nil {
			var requestErr *api.RequestError
			if errors.As(err, &requestErr) && requestErr.IsNotFound() {
				http.Error(w, "Author not found", http.StatusNotFound)

				return
			}

			slog.ErrorContext(r.Context(), "failed to get author", "userId", userID, "error", err)
			http.Error(w, "Failed to load author", http.StatusInternalServerError)

			return
		}

		data := map[string]any{
			csrf.TemplateTag: csrf.TemplateField(r),
			"SiteTitle":      profile.User.DisplayName(),
			"Profile":        profile.User,
			"Blogs":          profile.Blogs,
		}

		h.renderTemplate(w, r, "author-page.gohtml", data)
	})
}

func (h *Handler) HandleFavouritesPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := currentSession(r)

		blogs, err := h.apiClient.ListFavourites(r.Context(), sess.Token)
		if err != nil {
			if api.IsUnauthorized(err) {
				h.teardownSession(w, r)
				http.Redirect(w, r, "/login", http.StatusSeeOther)

				return
			}

			slog.ErrorContext(r.Context(), "failed to list favourites", "error", err)
			http.Error(w, "Failed to load favourites", http.StatusInternalServerError)

			return
		}

		data := map[string]any{
			csrf.TemplateTag: csrf.TemplateField(r),
			"SiteTitle":      "Favourites",
			"Blogs":          blogs,
		}

		h.renderTemplate(w, r, "favourites-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}
