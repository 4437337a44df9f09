package edit

// NotifyFunc is called when a new suggestion is proposed, so a frontend
// can surface it (toast, badge, etc). It must not mutate the suggestion.
type NotifyFunc func(s *Suggestion)

// Workspace owns the working set of suggestions for one document session:
// which exist, which are staged, and in what order the staged ones fold
// over the base content.
//
// Lifecycle per suggestion:
//
//	pending -> staged -> (pending | applied)
//	pending -> rejected (terminal)
//	staged  -> rejected (terminal)
//
// "applied" only happens through Commit, which is gated on an external
// save succeeding. Everything else is local and cannot fail.
type Workspace struct {
	base        string
	suggestions []*Suggestion // proposal order
	byID        map[string]*Suggestion
	staged      []string // suggestion IDs in staging order
	notify      NotifyFunc
}

// NewWorkspace creates a workspace over the given base content.
func NewWorkspace(base string, notify NotifyFunc) *Workspace {
	return &Workspace{
		base:   base,
		byID:   make(map[string]*Suggestion),
		notify: notify,
	}
}

// Base returns the current base content (last committed/loaded version).
func (w *Workspace) Base() string {
	return w.base
}

// SetBase replaces the base content. Used when switching versions; the
// caller is responsible for discarding staged edits first.
func (w *Workspace) SetBase(content string) {
	w.base = content
}

// Propose inserts a new suggestion with status pending and fires the
// notification callback. A duplicate ID is ignored.
func (w *Workspace) Propose(s *Suggestion) {
	if s.ID == "" {
		return
	}
	if _, ok := w.byID[s.ID]; ok {
		return
	}
	s.Status = StatusPending
	w.suggestions = append(w.suggestions, s)
	w.byID[s.ID] = s
	if w.notify != nil {
		w.notify(s)
	}
}

// Stage marks a pending suggestion staged and appends it to the staged
// sequence. Returns the new effective content and whether the id was
// found in a stageable state.
func (w *Workspace) Stage(id string) (string, bool) {
	s, ok := w.byID[id]
	if !ok || s.Status != StatusPending {
		return w.Effective(), false
	}
	s.Status = StatusStaged
	w.staged = append(w.staged, id)
	return w.Effective(), true
}

// Unstage removes a suggestion from the staged sequence and reverts it to
// pending. The relative order of the remaining staged edits is preserved.
func (w *Workspace) Unstage(id string) (string, bool) {
	s, ok := w.byID[id]
	if !ok || s.Status != StatusStaged {
		return w.Effective(), false
	}
	s.Status = StatusPending
	w.removeStaged(id)
	return w.Effective(), true
}

// Reject marks a suggestion rejected. If it was staged it is removed from
// the staged sequence first. Rejection is terminal.
func (w *Workspace) Reject(id string) bool {
	s, ok := w.byID[id]
	if !ok || s.Status == StatusRejected || s.Status == StatusApplied {
		return false
	}
	if s.Status == StatusStaged {
		w.removeStaged(id)
	}
	s.Status = StatusRejected
	return true
}

// Commit finalizes all staged edits after a successful external save. The
// staged content becomes the new base, the staged suggestions leave the
// working set entirely, and their IDs are returned so callers can mark
// related records applied.
func (w *Workspace) Commit() []string {
	if len(w.staged) == 0 {
		return nil
	}
	w.base = w.Effective()

	committed := make([]string, len(w.staged))
	copy(committed, w.staged)

	for _, id := range committed {
		if s, ok := w.byID[id]; ok {
			s.Status = StatusApplied
		}
		delete(w.byID, id)
	}
	kept := w.suggestions[:0]
	for _, s := range w.suggestions {
		if s.Status != StatusApplied {
			kept = append(kept, s)
		}
	}
	w.suggestions = kept
	w.staged = nil
	return committed
}

// Discard clears the staged sequence and reverts every staged suggestion
// to pending. Used when the user throws away unsaved local edits.
func (w *Workspace) Discard() {
	for _, id := range w.staged {
		if s, ok := w.byID[id]; ok {
			s.Status = StatusPending
		}
	}
	w.staged = nil
}

// Effective returns the base content with all staged edits folded in, in
// staging order. It is a pure function of the workspace state: the same
// value is used for preview and for the next turn's outbound context.
func (w *Workspace) Effective() string {
	return ApplyAll(w.base, w.StagedSuggestions())
}

// HasUnsaved reports whether any edits are currently staged.
func (w *Workspace) HasUnsaved() bool {
	return len(w.staged) > 0
}

// Get returns the suggestion with the given id, if present.
func (w *Workspace) Get(id string) (*Suggestion, bool) {
	s, ok := w.byID[id]
	return s, ok
}

// Suggestions returns all live suggestions in proposal order.
func (w *Workspace) Suggestions() []*Suggestion {
	out := make([]*Suggestion, len(w.suggestions))
	copy(out, w.suggestions)
	return out
}

// Pending returns the suggestions with status pending, in proposal order.
func (w *Workspace) Pending() []*Suggestion {
	var out []*Suggestion
	for _, s := range w.suggestions {
		if s.Status == StatusPending {
			out = append(out, s)
		}
	}
	return out
}

// StagedSuggestions returns the staged suggestions in staging order.
func (w *Workspace) StagedSuggestions() []*Suggestion {
	out := make([]*Suggestion, 0, len(w.staged))
	for _, id := range w.staged {
		if s, ok := w.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// StagedIDs returns the staged suggestion IDs in staging order.
func (w *Workspace) StagedIDs() []string {
	out := make([]string, len(w.staged))
	copy(out, w.staged)
	return out
}

// Restore rebuilds the working set from a snapshot: suggestions in
// proposal order plus the staged ID sequence. Statuses are normalized so
// the staged list and per-suggestion status cannot disagree.
func (w *Workspace) Restore(suggestions []*Suggestion, stagedIDs []string) {
	w.suggestions = nil
	w.byID = make(map[string]*Suggestion)
	w.staged = nil
	for _, s := range suggestions {
		if s.ID == "" {
			continue
		}
		if s.Status == StatusStaged {
			s.Status = StatusPending
		}
		w.suggestions = append(w.suggestions, s)
		w.byID[s.ID] = s
	}
	for _, id := range stagedIDs {
		if s, ok := w.byID[id]; ok && s.Status == StatusPending {
			s.Status = StatusStaged
			w.staged = append(w.staged, id)
		}
	}
}

func (w *Workspace) removeStaged(id string) {
	for i, sid := range w.staged {
		if sid == id {
			w.staged = append(w.staged[:i], w.staged[i+1:]...)
			return
		}
	}
}
