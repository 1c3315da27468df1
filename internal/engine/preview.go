package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zjrosen/prism/internal/log"
	"github.com/zjrosen/prism/internal/resolver"
)

// previewOverlay layers pending optimistic values over the authoritative
// override store. While a token is pending, every resolution pass sees the
// preview value, so authoritative notifications cannot revert it.
type previewOverlay struct {
	mu      sync.RWMutex
	pending map[string]string
	base    resolver.Overrides
}

func newPreviewOverlay(base resolver.Overrides) *previewOverlay {
	return &previewOverlay{
		pending: make(map[string]string),
		base:    base,
	}
}

// Get checks the pending overlay first, then the authoritative store.
func (o *previewOverlay) Get(tokenName string) (string, bool) {
	o.mu.RLock()
	v, ok := o.pending[tokenName]
	o.mu.RUnlock()
	if ok {
		return v, true
	}
	return o.base.Get(tokenName)
}

func (o *previewOverlay) set(tokenName, value string) {
	o.mu.Lock()
	o.pending[tokenName] = value
	o.mu.Unlock()
}

func (o *previewOverlay) drop(tokenName string) {
	o.mu.Lock()
	delete(o.pending, tokenName)
	o.mu.Unlock()
}

func (o *previewOverlay) clear() {
	o.mu.Lock()
	o.pending = make(map[string]string)
	o.mu.Unlock()
}

func (o *previewOverlay) len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.pending)
}

// Preview applies an optimistic value for a token and (re)arms the quiescence
// timer. The value is visible in the snapshot immediately; once no further
// preview arrives for the window, the pending values commit to the override
// store. Repeated previews for the same token are last-write-wins.
func (e *Engine) Preview(tokenName, value string) ChangeSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ChangeSet{}
	}

	e.overlay.set(tokenName, value)
	cs := e.resolvePass(context.Background(), "preview")

	if e.previewTimer != nil {
		e.previewTimer.Stop()
	}
	e.previewTimer = time.AfterFunc(e.previewWindow, e.commitPreview)
	return cs
}

// PreviewPending reports how many preview values are awaiting commit.
func (e *Engine) PreviewPending() int {
	return e.overlay.len()
}

// CommitPreview commits any pending preview values immediately instead of
// waiting out the quiescence window.
func (e *Engine) CommitPreview() {
	e.mu.Lock()
	if e.previewTimer != nil {
		e.previewTimer.Stop()
		e.previewTimer = nil
	}
	e.mu.Unlock()
	e.commitPreview()
}

// commitPreview persists the pending values and clears the guard. The store
// writes happen before the overlay empties, so no pass ever observes the
// pre-preview values in between.
func (e *Engine) commitPreview() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.previewTimer = nil
	e.mu.Unlock()

	pending := e.overlay.snapshotPending()
	if len(pending) == 0 {
		return
	}

	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e.overrides.Set(name, pending[name])
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, name := range names {
		// A newer preview may have landed since the snapshot; it stays
		// pending for the next commit.
		e.overlay.dropIfEqual(name, pending[name])
	}
	log.Debug(log.CatEngine, "preview committed", "tokens", len(names))
	e.resolvePass(context.Background(), "preview-commit")
}

// dropIfEqual removes a pending entry only when its value still matches.
func (o *previewOverlay) dropIfEqual(tokenName, value string) {
	o.mu.Lock()
	if v, ok := o.pending[tokenName]; ok && v == value {
		delete(o.pending, tokenName)
	}
	o.mu.Unlock()
}

// snapshotPending copies the pending map without clearing it.
func (o *previewOverlay) snapshotPending() map[string]string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]string, len(o.pending))
	for k, v := range o.pending {
		out[k] = v
	}
	return out
}
