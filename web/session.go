package web

import (
	"fmt"
	"net/http"
)

const sessionIDKey = "sessionId"

type SessionValueNotFoundError struct {
	Key string
}

func (err SessionValueNotFoundError) Error() string {
	return fmt.Sprintf("session value for key '%s' not found", err.Key)
}

// sessionStringValue reads a cookie-session value as a string. Everything
// this frontend stores in the cookie is a string, so a value of any other
// type is corruption, not a lookup miss.
func (h *Handler) sessionStringValue(r *http.Request, key string) (string, error) {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		return "", fmt.Errorf("error getting session: %w", err)
	}

	value, ok := session.Values[key]
	if !ok {
		return "", &SessionValueNotFoundError{Key: key}
	}

	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("session value for key '%s' is not a string", key)
	}

	return str, nil
}

func (h *Handler) setSessionValue(
	w http.ResponseWriter,
	r *http.Request,
	key, value string,
) error {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		return fmt.Errorf("error getting session: %w", err)
	}

	session.Values[key] = value

	err = session.Save(r, w)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}

	return nil
}

func (h *Handler) deleteSessionValue(w http.ResponseWriter, r *http.Request, key string) error {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		return fmt.Errorf("error getting session: %w", err)
	}

	delete(session.Values, key)

	err = session.Save(r, w)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}

	return nil
}
