package llm

import "encoding/json"

// HistoryMessage is one prior conversation turn sent with a chat request.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload for opening a streaming chat turn. The
// document content must be the effective content the user currently sees
// (base plus staged edits), never a stale base.
type ChatRequest struct {
	Message             string           `json:"message"`
	ConversationHistory []HistoryMessage `json:"conversation_history"`
	DocumentContent     string           `json:"document_content"`
	Version             float64          `json:"version,omitempty"`
	EnableWebSearch     bool             `json:"enable_web_search"`
	UsePerplexity       bool             `json:"use_perplexity"`
}

// ToolKind is the closed set of tool invocations the assistant can make.
type ToolKind string

const (
	KindEditProposal    ToolKind = "edit-proposal"
	KindAmbiguityFlag   ToolKind = "ambiguity-flag"
	KindResearchQuery   ToolKind = "research-query"
	KindCalculation     ToolKind = "calculation"
	KindDocumentRead    ToolKind = "document-read"
	KindWorkspaceSearch ToolKind = "workspace-search"
)

// Wire names for the six tools, as they appear in stream records.
const (
	ToolNameEdit      = "str_replace_edit"
	ToolNameAmbiguity = "highlight_ambiguity"
	ToolNameResearch  = "deep_research"
	ToolNameCalculate = "calculate"
	ToolNameRead      = "read_document"
	ToolNameSearch    = "search_workspace"
)

// KindForName maps a wire tool name to its kind. Unknown names return
// false so the caller can skip the record.
func KindForName(name string) (ToolKind, bool) {
	switch name {
	case ToolNameEdit:
		return KindEditProposal, true
	case ToolNameAmbiguity:
		return KindAmbiguityFlag, true
	case ToolNameResearch:
		return KindResearchQuery, true
	case ToolNameCalculate:
		return KindCalculation, true
	case ToolNameRead:
		return KindDocumentRead, true
	case ToolNameSearch:
		return KindWorkspaceSearch, true
	default:
		return "", false
	}
}

// streamRecord is one parsed "data:" line. Fields are optional and
// overlapping; the record is classified by which fields are present, not
// by a single discriminant.
type streamRecord struct {
	Content *string         `json:"content"`
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Input   json.RawMessage `json:"input"`
	Result  *string         `json:"result"`
	Message *string         `json:"message"`
}

// StreamEvent is a parsed event from the response stream.
type StreamEvent struct {
	Type     string          // "content", "tool_call", "tool_result", "error", "done"
	Content  string          // for "content" events
	ToolID   string          // for "tool_call" and "tool_result" events
	ToolKind ToolKind        // for "tool_call" events
	ToolName string          // wire name, for "tool_call" events
	Input    json.RawMessage // for "tool_call" events
	Result   string          // for "tool_result" events
	Error    string          // for "error" events
}
