package session

import (
	"encoding/json"
	"time"

	"github.com/dantheman4700/scope-doc-gen-sub000/internal/edit"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/llm"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolStatus tracks a tool call through its lifecycle.
type ToolStatus string

const (
	ToolPending  ToolStatus = "pending"
	ToolApplied  ToolStatus = "applied"
	ToolRejected ToolStatus = "rejected"
)

// ToolCall is a structured action the assistant requested mid-turn. It is
// created when a stream record names it and mutated in place when a later
// result record or user action resolves it.
type ToolCall struct {
	ID     string          `json:"id"`
	Kind   llm.ToolKind    `json:"kind"`
	Input  json.RawMessage `json:"input,omitempty"`
	Status ToolStatus      `json:"status"`
	Result string          `json:"result,omitempty"`
}

// Message is one conversation entry. During streaming the assistant
// placeholder's Text grows by deltas and ToolCalls are appended; once the
// turn completes the message is immutable except for tool-call status.
type Message struct {
	ID        string      `json:"id"`
	Role      Role        `json:"role"`
	Text      string      `json:"text"`
	ToolCalls []*ToolCall `json:"tool_calls,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// AmbiguityHighlight is a read-only projection of a highlight_ambiguity
// tool call. It is derived from the message log, never stored separately.
type AmbiguityHighlight struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Concern    string `json:"concern"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Snapshot is the durable form of a session, written opportunistically to
// the local cache on every state change. The turn-in-flight flag is
// deliberately absent: an interrupted stream reloads as whatever partial
// content was buffered.
type Snapshot struct {
	ID            string             `json:"id"`
	Messages      []*Message         `json:"messages"`
	Suggestions   []*edit.Suggestion `json:"suggestions"`
	StagedIDs     []string           `json:"staged_ids,omitempty"`
	BaseContent   string             `json:"base_content"`
	ActiveVersion float64            `json:"active_version"`
	Draft         string             `json:"draft,omitempty"`
}
