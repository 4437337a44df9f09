// Package session drives one conversational document-editing session: it
// owns the message log, feeds user turns to the assistant, reconciles the
// streamed response with tool-call and staged-edit state, and talks to
// the persistence backend for saves, commits, and version switches.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dantheman4700/scope-doc-gen-sub000/internal/api"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/edit"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/llm"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/logging"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/store"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/version"
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrTurnInFlight    = errors.New("a turn is already in flight")
	ErrUnsavedChanges  = errors.New("unsaved staged edits; confirm to discard")
	ErrVersionNotFound = errors.New("version not found")

	log = logging.Get()
)

// Streamer opens a streaming chat turn. *llm.Client implements it.
type Streamer interface {
	ChatStream(ctx context.Context, req llm.ChatRequest, callback llm.StreamCallback) error
}

// Persister is the version backend. *api.Client implements it.
type Persister interface {
	SaveSubVersion(ctx context.Context, content string, baseMajor int) (*api.SaveResult, error)
	CommitMajor(ctx context.Context, content string, baseMajor int) (*api.SaveResult, error)
	ListVersions(ctx context.Context) ([]api.VersionInfo, error)
}

// SnapshotStore is the optional durable session cache. *store.Store
// implements it. All calls are best-effort from the controller's side.
type SnapshotStore interface {
	Save(id string, v any) error
	Load(id string, out any) error
	Delete(id string) error
}

// Options configures a controller.
type Options struct {
	EnableWebSearch bool
	UsePerplexity   bool
	Notify          edit.NotifyFunc // fired for each newly proposed edit
	Snapshots       SnapshotStore   // nil disables the durable cache
}

// Controller owns one document-editing session. All state transitions go
// through its methods; there is no ambient mutable state.
type Controller struct {
	id      string
	chat    Streamer
	backend Persister
	opts    Options

	mu            sync.Mutex
	messages      []*Message
	workspace     *edit.Workspace
	activeVersion float64
	draft         string
	errText       string
	inFlight      bool
	cancelStream  context.CancelFunc
}

// New creates a controller over the given base content and version. An
// empty id gets a generated one.
func New(id, baseContent string, activeVersion float64, chat Streamer, backend Persister, opts Options) *Controller {
	if id == "" {
		id = uuid.NewString()
	}
	return &Controller{
		id:            id,
		chat:          chat,
		backend:       backend,
		opts:          opts,
		workspace:     edit.NewWorkspace(baseContent, opts.Notify),
		activeVersion: activeVersion,
	}
}

// Resume restores a controller from the durable cache. A missing
// snapshot is returned as store.ErrNotFound.
func Resume(id string, chat Streamer, backend Persister, opts Options) (*Controller, error) {
	if opts.Snapshots == nil {
		return nil, store.ErrNotFound
	}
	var snap Snapshot
	if err := opts.Snapshots.Load(id, &snap); err != nil {
		return nil, err
	}
	c := New(snap.ID, snap.BaseContent, snap.ActiveVersion, chat, backend, opts)
	c.messages = snap.Messages
	c.draft = snap.Draft
	c.workspace.Restore(snap.Suggestions, snap.StagedIDs)
	return c, nil
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// SendTurn appends a user message and streams the assistant's response,
// mutating the placeholder assistant message as records arrive. It
// returns once the stream ends. Empty input and an in-flight turn are
// rejected up front; cancellation ends the turn silently and is never
// reported as a failure.
func (c *Controller) SendTurn(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrTurnInFlight
	}
	c.inFlight = true
	c.errText = ""

	streamCtx, cancel := context.WithCancel(ctx)
	c.cancelStream = cancel

	// History is built before the new messages are appended. Messages
	// with empty content are filtered out; the transport rejects them.
	history := c.historyLocked()

	now := time.Now().UTC()
	userMsg := &Message{ID: uuid.NewString(), Role: RoleUser, Text: text, CreatedAt: now}
	placeholder := &Message{ID: uuid.NewString(), Role: RoleAssistant, CreatedAt: now}
	c.messages = append(c.messages, userMsg, placeholder)

	// The assistant reasons over what the user currently sees: base
	// content with staged edits folded in, never the stale base.
	req := llm.ChatRequest{
		Message:             text,
		ConversationHistory: history,
		DocumentContent:     c.workspace.Effective(),
		Version:             c.activeVersion,
		EnableWebSearch:     c.opts.EnableWebSearch,
		UsePerplexity:       c.opts.UsePerplexity,
	}
	c.persistLocked()
	c.mu.Unlock()

	log.Debug("sending turn (~%d tokens outbound)", llm.EstimateRequestTokens(req))

	err := c.chat.ChatStream(streamCtx, req, func(ev llm.StreamEvent) {
		c.handleEvent(placeholder, ev)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	c.cancelStream = nil
	cancel()

	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		// Explicit stop or superseded turn. Keep whatever partial
		// content was buffered.
		err = nil
	}
	if err != nil {
		c.errText = err.Error()
	}
	c.persistLocked()
	return err
}

// Stop aborts any in-flight turn. Safe to call when idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelStream != nil {
		c.cancelStream()
	}
}

// handleEvent applies one stream record to session state, in arrival
// order.
func (c *Controller) handleEvent(placeholder *Message, ev llm.StreamEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case "content":
		placeholder.Text += ev.Content

	case "tool_call":
		tc := &ToolCall{ID: ev.ToolID, Kind: ev.ToolKind, Input: ev.Input, Status: ToolPending}
		placeholder.ToolCalls = append(placeholder.ToolCalls, tc)
		if ev.ToolKind == llm.KindEditProposal {
			args, err := llm.ParseEditArgs(ev.Input)
			if err != nil {
				// Malformed proposal: the tool call stays in the log but
				// no suggestion is raised.
				log.Debug("unparseable edit proposal %s: %v", ev.ToolID, err)
				break
			}
			c.workspace.Propose(&edit.Suggestion{
				ID:      ev.ToolID,
				OldText: args.OldStr,
				NewText: args.NewStr,
				Reason:  args.Reason,
			})
		}

	case "tool_result":
		if tc := c.findToolCallLocked(ev.ToolID); tc != nil {
			tc.Status = ToolApplied
			tc.Result = ev.Result
		}

	case "error":
		c.errText = ev.Error
	}
	c.persistLocked()
}

// Stage stages a pending edit and returns the new effective content.
func (c *Controller) Stage(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content, ok := c.workspace.Stage(id)
	if ok {
		c.persistLocked()
	}
	return content, ok
}

// Unstage reverts a staged edit to pending.
func (c *Controller) Unstage(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content, ok := c.workspace.Unstage(id)
	if ok {
		c.persistLocked()
	}
	return content, ok
}

// RejectEdit rejects a suggestion and marks its tool call rejected.
func (c *Controller) RejectEdit(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.workspace.Reject(id) {
		return false
	}
	if tc := c.findToolCallLocked(id); tc != nil {
		tc.Status = ToolRejected
	}
	c.persistLocked()
	return true
}

// DiscardEdits clears the staged set, reverting every staged edit to
// pending. Local only; nothing is sent to the backend.
func (c *Controller) DiscardEdits() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workspace.Discard()
	c.persistLocked()
}

// Save persists the effective content as a new sub-version under the
// current major. On success the staged edits are committed into the new
// base. On failure everything stays staged; the user can retry.
func (c *Controller) Save(ctx context.Context) (*api.SaveResult, error) {
	c.mu.Lock()
	content := c.workspace.Effective()
	baseMajor := version.Major(c.activeVersion)
	c.mu.Unlock()

	result, err := c.backend.SaveSubVersion(ctx, content, baseMajor)
	if err != nil {
		return nil, err
	}
	c.finalizeSave(result)
	return result, nil
}

// Commit persists the effective content as the next integer major
// version. Same all-or-nothing contract as Save.
func (c *Controller) Commit(ctx context.Context) (*api.SaveResult, error) {
	c.mu.Lock()
	content := c.workspace.Effective()
	baseMajor := version.Major(c.activeVersion)
	c.mu.Unlock()

	result, err := c.backend.CommitMajor(ctx, content, baseMajor)
	if err != nil {
		return nil, err
	}
	c.finalizeSave(result)
	return result, nil
}

// finalizeSave runs the local commit transition after the backend
// accepted the content: staged edits leave the working set and their
// tool calls are marked applied.
func (c *Controller) finalizeSave(result *api.SaveResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.workspace.Commit() {
		if tc := c.findToolCallLocked(id); tc != nil {
			tc.Status = ToolApplied
		}
	}
	c.activeVersion = result.VersionNumber
	c.persistLocked()
}

// SwitchVersion loads another version as the new base. With staged or
// pending-staged edits present it refuses unless confirmed; confirming
// discards the staged set.
func (c *Controller) SwitchVersion(ctx context.Context, target float64, confirmed bool) error {
	c.mu.Lock()
	if c.workspace.HasUnsaved() && !confirmed {
		c.mu.Unlock()
		return ErrUnsavedChanges
	}
	c.mu.Unlock()

	versions, err := c.backend.ListVersions(ctx)
	if err != nil {
		return err
	}
	for _, v := range versions {
		if version.IsActive(v.VersionNumber, target) {
			c.mu.Lock()
			c.workspace.Discard()
			c.workspace.SetBase(v.Markdown)
			c.activeVersion = v.VersionNumber
			c.persistLocked()
			c.mu.Unlock()
			return nil
		}
	}
	return ErrVersionNotFound
}

// Highlights projects all ambiguity-flag tool calls across the message
// log into read-only highlights.
func (c *Controller) Highlights() []AmbiguityHighlight {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []AmbiguityHighlight
	for _, m := range c.messages {
		for _, tc := range m.ToolCalls {
			if tc.Kind != llm.KindAmbiguityFlag {
				continue
			}
			args, err := llm.ParseAmbiguityArgs(tc.Input)
			if err != nil {
				continue
			}
			out = append(out, AmbiguityHighlight{
				ID:         tc.ID,
				Text:       args.Text,
				Concern:    args.Concern,
				Suggestion: args.Suggestion,
			})
		}
	}
	return out
}

// Messages returns the message log.
func (c *Controller) Messages() []*Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// EffectiveContent returns base content with staged edits folded in.
func (c *Controller) EffectiveContent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workspace.Effective()
}

// PendingEdits returns the suggestions awaiting a user decision.
func (c *Controller) PendingEdits() []*edit.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workspace.Pending()
}

// StagedEdits returns the staged suggestions in staging order.
func (c *Controller) StagedEdits() []*edit.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workspace.StagedSuggestions()
}

// ActiveVersion returns the currently loaded version number.
func (c *Controller) ActiveVersion() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeVersion
}

// Err returns the session-level error text, empty when healthy.
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errText
}

// InFlight reports whether a turn is currently streaming.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// SetDraft stores unsent input text so it survives a reload.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
	c.persistLocked()
}

// Draft returns the unsent input text.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Clear wipes the conversation and working set, keeping the base content
// and active version, and drops the durable snapshot.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.draft = ""
	c.errText = ""
	c.workspace = edit.NewWorkspace(c.workspace.Base(), c.opts.Notify)
	if c.opts.Snapshots != nil {
		if err := c.opts.Snapshots.Delete(c.id); err != nil {
			log.Debug("snapshot delete failed: %v", err)
		}
	}
}

// historyLocked builds the outbound conversation history: prior messages
// with non-empty text, oldest first.
func (c *Controller) historyLocked() []llm.HistoryMessage {
	var history []llm.HistoryMessage
	for _, m := range c.messages {
		if m.Text == "" {
			continue
		}
		history = append(history, llm.HistoryMessage{Role: string(m.Role), Content: m.Text})
	}
	return history
}

// findToolCallLocked looks a tool call up by id, newest message first.
func (c *Controller) findToolCallLocked(id string) *ToolCall {
	for i := len(c.messages) - 1; i >= 0; i-- {
		for _, tc := range c.messages[i].ToolCalls {
			if tc.ID == id {
				return tc
			}
		}
	}
	return nil
}

// persistLocked writes the snapshot to the durable cache. Best-effort: a
// failure is logged and never surfaces.
func (c *Controller) persistLocked() {
	if c.opts.Snapshots == nil {
		return
	}
	snap := Snapshot{
		ID:            c.id,
		Messages:      c.messages,
		Suggestions:   c.workspace.Suggestions(),
		StagedIDs:     c.workspace.StagedIDs(),
		BaseContent:   c.workspace.Base(),
		ActiveVersion: c.activeVersion,
		Draft:         c.draft,
	}
	if err := c.opts.Snapshots.Save(c.id, snap); err != nil {
		log.Debug("snapshot save failed: %v", err)
	}
}
