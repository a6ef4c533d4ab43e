package session

import (
	"context"
	"fmt"
	"time"
)

// Session binds one browser's frontend session to the bearer credential the
// remote API issued for it. The token is opaque here: nothing in this
// package inspects or validates its contents.
type Session struct {
	ID        string
	Token     string
	UserID    string
	CreatedAt time.Time
}

type Storage interface {
	Save(ctx context.Context, session *Session) (err error)
	Delete(ctx context.Context, id string) (err error)
	List(ctx context.Context) (sessions []*Session, err error)
}

type NotFoundError struct {
	ID string
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("session with id %q not found", err.ID)
}
