package discuss

import "sync"

// Thread holds the composed comment forest for one blog. All mutations for a
// thread go through its mutex, so confirmed backend responses apply one at a
// time regardless of how many browser actions are in flight. The last
// confirmed response wins.
type Thread struct {
	mu     sync.Mutex
	blogID string
	roots  []*Comment
}

// NewThread builds a thread from the flat list fetched from the backend.
func NewThread(blogID string, flat []*Comment) *Thread {
	return &Thread{
		blogID: blogID,
		roots:  BuildTree(flat),
	}
}

func (t *Thread) BlogID() string {
	return t.blogID
}

// Reset replaces the whole forest from a fresh flat fetch.
func (t *Thread) Reset(flat []*Comment) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.roots = BuildTree(flat)
}

// Insert adds a confirmed new comment under its parent (or as a new
// top-level comment when it has none).
func (t *Thread) Insert(comment *Comment) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.roots = InsertReply(t.roots, comment, comment.ParentID)
}

// Remove deletes a comment and its subtree.
func (t *Thread) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	roots, removed := RemoveComment(t.roots, id)
	t.roots = roots

	return removed
}

// ToggleLike flips the user's membership in a comment's likes set.
func (t *Thread) ToggleLike(id, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return ToggleLike(t.roots, id, userID)
}

// SetLiked forces the user's membership in a comment's likes set to match a
// confirmed backend response, whatever the local state was.
func (t *Thread) SetLiked(id, userID string, liked bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	comment := Find(t.roots, id)
	if comment == nil {
		return false
	}

	if comment.LikedBy(userID) != liked {
		ToggleLike(t.roots, id, userID)
	}

	return true
}

func (t *Thread) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Count(t.roots)
}

// Snapshot returns a deep copy of the forest, safe to render while other
// requests keep mutating the thread.
func (t *Thread) Snapshot() []*Comment {
	t.mu.Lock()
	defer t.mu.Unlock()

	return cloneForest(t.roots)
}

func cloneForest(forest []*Comment) []*Comment {
	if forest == nil {
		return nil
	}

	clones := make([]*Comment, 0, len(forest))

	for _, comment := range forest {
		clone := *comment
		clone.Likes = append([]string(nil), comment.Likes...)
		clone.Replies = cloneForest(comment.Replies)

		clones = append(clones, &clone)
	}

	return clones
}
