package pipeline

import (
	"log/slog"
	"os"
	"sync"
)

// Tracker registers every filesystem path created while serving one request
// and deletes all of them, except the single committed result, when the
// request ends. It is created per request and never shared.
type Tracker struct {
	logger *slog.Logger

	mu        sync.Mutex
	paths     []string
	released  []bool
	committed int // handle+1 of the committed artifact, 0 while none
}

// NewTracker returns an empty tracker logging releases through logger.
func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// Track registers a path for end-of-request deletion and returns its
// handle. The path does not need to exist yet.
func (t *Tracker) Track(path string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths = append(t.paths, path)
	t.released = append(t.released, false)
	return len(t.paths) - 1
}

// Commit promotes one tracked artifact to the request's result, excluding
// it from cleanup. Committing a second artifact is a programming error; in
// production it is logged and ignored so the first result stays valid.
func (t *Tracker) Commit(handle int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if handle < 0 || handle >= len(t.paths) {
		t.logger.Error("commit of unknown artifact handle", "handle", handle)
		return
	}
	if t.committed != 0 {
		t.logger.Error("second artifact commit ignored",
			"committed", t.paths[t.committed-1], "ignored", t.paths[handle])
		return
	}
	t.committed = handle + 1
}

// Committed returns the committed artifact path, if any.
func (t *Tracker) Committed() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.committed == 0 {
		return "", false
	}
	return t.paths[t.committed-1], true
}

// ReleaseAll deletes every tracked, non-committed path. Deletion is
// best-effort: individual failures are logged and never propagated, so the
// call is safe on every exit path, including cancellation. It is idempotent.
func (t *Tracker) ReleaseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, path := range t.paths {
		if t.released[i] || i == t.committed-1 {
			continue
		}
		t.released[i] = true
		if err := os.RemoveAll(path); err != nil {
			t.logger.Warn("failed to release temp artifact", "path", path, "error", err)
		}
	}
}
