package edit

import "strings"

// Status tracks a suggestion through its lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusStaged   Status = "staged"
	StatusApplied  Status = "applied"
	StatusRejected Status = "rejected"
)

// Suggestion is a single proposed text substitution from the assistant.
type Suggestion struct {
	ID      string `json:"id"`
	OldText string `json:"old_text"`
	NewText string `json:"new_text"`
	Reason  string `json:"reason,omitempty"`
	Status  Status `json:"status"`
}

// Apply replaces the first occurrence of oldText in content with newText.
// If oldText is absent (or empty) the content is returned unchanged. An
// edit may reference text already changed by an earlier edit or rejected
// upstream, so a miss is a silent no-op, never an error.
func Apply(content, oldText, newText string) string {
	if oldText == "" {
		return content
	}
	idx := strings.Index(content, oldText)
	if idx < 0 {
		return content
	}
	return content[:idx] + newText + content[idx+len(oldText):]
}

// ApplyAll left-folds Apply over the edits in the supplied order. Order
// matters: a later edit may target text introduced by an earlier one, so
// edits are never re-sorted by position.
func ApplyAll(base string, edits []*Suggestion) string {
	content := base
	for _, e := range edits {
		content = Apply(content, e.OldText, e.NewText)
	}
	return content
}

// Conflicts returns the suggestions in edits whose OldText does not occur
// in content. It is an inspection helper only; Apply and ApplyAll still
// treat a miss as a silent no-op.
func Conflicts(content string, edits []*Suggestion) []*Suggestion {
	var missing []*Suggestion
	cur := content
	for _, e := range edits {
		if e.OldText == "" || !strings.Contains(cur, e.OldText) {
			missing = append(missing, e)
			continue
		}
		cur = Apply(cur, e.OldText, e.NewText)
	}
	return missing
}
