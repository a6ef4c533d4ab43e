package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/plume-app/plume/session"
)

type contextKey string

const sessionContextKey contextKey = "session"

func withSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

func currentSession(r *http.Request) (session.Session, bool) {
	sess, ok := r.Context().Value(sessionContextKey).(session.Session)

	return sess, ok
}

func isAuthenticated(r *http.Request) bool {
	sess, ok := currentSession(r)

	return ok && sess.Token != ""
}

// authMiddleware resolves the browser cookie to a stored session and puts it
// on the request context. A cookie pointing at a session that no longer
// exists is cleared and the request continues anonymously.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionValueNotFoundError *SessionValueNotFoundError

		sessionID, err := h.sessionStringValue(r, sessionIDKey)
		if err != nil && !errors.As(err, &sessionValueNotFoundError) {
			slog.ErrorContext(
				r.Context(),
				"error on getting session value",
				"key",
				sessionIDKey,
				"error",
				err,
			)
			http.Error(w, "error on getting session value", http.StatusInternalServerError)

			return
		}

		if sessionID != "" {
			sess, ok := h.sessions.Get(sessionID)
			if !ok {
				err = h.deleteSessionValue(w, r, sessionIDKey)
				if err != nil {
					slog.ErrorContext(
						r.Context(),
						"error on deleting session value",
						"key",
						sessionIDKey,
						"error",
						err,
					)
					http.Error(
						w,
						"error on deleting session value",
						http.StatusInternalServerError,
					)

					return
				}

				next.ServeHTTP(w, r)

				return
			}

			r = r.WithContext(withSession(r.Context(), sess))
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) AuthenticatedOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthenticated(r) {
			http.Redirect(
				w,
				r,
				"/login?return_to="+url.QueryEscape(r.URL.RequestURI()),
				http.StatusSeeOther,
			)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) GuestOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAuthenticated(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)

			return
		}

		next.ServeHTTP(w, r)
	})
}

// teardownSession drops the stored session and clears the browser cookie.
// Used on logout and whenever the backend reports the token is no longer
// valid.
func (h *Handler) teardownSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := currentSession(r); ok {
		err := h.sessions.Delete(r.Context(), sess.ID)
		if err != nil {
			slog.ErrorContext(r.Context(), "error on deleting session", "sessionId", sess.ID, "error", err)
		}
	}

	err := h.deleteSessionValue(w, r, sessionIDKey)
	if err != nil {
		slog.ErrorContext(r.Context(), "error on deleting session value", "key", sessionIDKey, "error", err)
	}
}
