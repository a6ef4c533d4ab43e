package web

import (
	"sync"

	"github.com/plume-app/plume/discuss"
)

// threadCache holds one comment thread per blog so confirmed mutations can
// be applied in place instead of refetching the whole list.
type threadCache struct {
	mu      sync.Mutex
	threads map[string]*discuss.Thread
}

func newThreadCache() *threadCache {
	return &threadCache{threads: make(map[string]*discuss.Thread)}
}

// get returns the thread for a blog, creating an empty one on a miss. The
// second result reports whether the thread already carried state; a fresh
// thread must be primed from a fetch before it is rendered or mutated.
func (tc *threadCache) get(blogID string) (*discuss.Thread, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	thread, ok := tc.threads[blogID]
	if !ok {
		thread = discuss.NewThread(blogID, nil)
		tc.threads[blogID] = thread
	}

	return thread, ok
}

func (tc *threadCache) drop(blogID string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	delete(tc.threads, blogID)
}
