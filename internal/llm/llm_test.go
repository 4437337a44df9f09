package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// chunkReader returns its chunks one Read at a time, simulating network
// packet boundaries that split records mid-line.
type chunkReader struct {
	chunks []string
	pos    int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.pos])
	r.pos++
	return n, nil
}

func collectEvents(t *testing.T, chunks ...string) []StreamEvent {
	t.Helper()
	c := NewClient("http://unused", "")
	var events []StreamEvent
	err := c.processStream(context.Background(), &chunkReader{chunks: chunks}, func(ev StreamEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("processStream: %v", err)
	}
	return events
}

func TestProcessStream_ContentDeltas(t *testing.T) {
	events := collectEvents(t,
		"event: message\ndata: {\"content\":\"Hello\"}\n",
		"data: {\"content\":\" world\"}\n",
	)
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3 (two deltas + done)", len(events))
	}
	if events[0].Type != "content" || events[0].Content != "Hello" {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Content != " world" {
		t.Errorf("events[1] = %+v", events[1])
	}
	if events[2].Type != "done" {
		t.Errorf("events[2] = %+v, want done", events[2])
	}
}

func TestProcessStream_ChunkSplitMidRecord(t *testing.T) {
	// A record split across two chunks must be reassembled, not dropped.
	events := collectEvents(t,
		"data: {\"cont",
		"ent\":\"hi\"}\n",
	)
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Type != "content" || events[0].Content != "hi" {
		t.Errorf("events[0] = %+v, want content \"hi\"", events[0])
	}
}

func TestProcessStream_ToolCallAndResult(t *testing.T) {
	events := collectEvents(t,
		"event: tool_use\n",
		"data: {\"id\":\"tc1\",\"name\":\"str_replace_edit\",\"input\":{\"old_str\":\"a\",\"new_str\":\"b\"}}\n",
		"data: {\"id\":\"tc1\",\"result\":\"edit proposed\"}\n",
	)
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	if events[0].Type != "tool_call" || events[0].ToolID != "tc1" {
		t.Fatalf("events[0] = %+v", events[0])
	}
	if events[0].ToolKind != KindEditProposal {
		t.Errorf("kind = %q, want edit-proposal", events[0].ToolKind)
	}
	args, err := ParseEditArgs(events[0].Input)
	if err != nil {
		t.Fatalf("ParseEditArgs: %v", err)
	}
	if args.OldStr != "a" || args.NewStr != "b" {
		t.Errorf("args = %+v", args)
	}
	if events[1].Type != "tool_result" || events[1].Result != "edit proposed" {
		t.Errorf("events[1] = %+v", events[1])
	}
}

func TestProcessStream_UnknownToolSkipped(t *testing.T) {
	events := collectEvents(t,
		"data: {\"id\":\"tc1\",\"name\":\"reticulate_splines\",\"input\":{}}\n",
		"data: {\"content\":\"still here\"}\n",
	)
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Type != "content" {
		t.Errorf("events[0] = %+v, want the content delta", events[0])
	}
}

func TestProcessStream_MalformedRecordSwallowed(t *testing.T) {
	events := collectEvents(t,
		"data: {not json at all\n",
		"garbage line with no prefix\n",
		"data: {\"content\":\"ok\"}\n",
	)
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Type != "content" || events[0].Content != "ok" {
		t.Errorf("events[0] = %+v", events[0])
	}
}

func TestProcessStream_ErrorRecordDoesNotEndStream(t *testing.T) {
	events := collectEvents(t,
		"data: {\"message\":\"rate limited\"}\n",
		"data: {\"content\":\"recovered\"}\n",
	)
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	if events[0].Type != "error" || events[0].Error != "rate limited" {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Type != "content" || events[1].Content != "recovered" {
		t.Errorf("events[1] = %+v", events[1])
	}
}

func TestProcessStream_Cancellation(t *testing.T) {
	c := NewClient("http://unused", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.processStream(ctx, strings.NewReader("data: {\"content\":\"x\"}\n"), func(StreamEvent) {})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestChatStream_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	err := c.ChatStream(context.Background(), ChatRequest{Message: "hi"}, func(StreamEvent) {})
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("err = %v, want ErrRequestFailed", err)
	}
}

func TestChatStream_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/chat" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("Authorization = %q", got)
		}
		io.WriteString(w, "event: message\n")
		io.WriteString(w, "data: {\"content\":\"draft updated\"}\n")
		io.WriteString(w, "data: {\"id\":\"t1\",\"name\":\"calculate\",\"input\":{\"expression\":\"2*3\"}}\n")
		io.WriteString(w, "data: {\"id\":\"t1\",\"result\":\"6\"}\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "key")
	var types []string
	err := c.ChatStream(context.Background(), ChatRequest{Message: "hi"}, func(ev StreamEvent) {
		types = append(types, ev.Type)
	})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	want := []string{"content", "tool_call", "tool_result", "done"}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("types[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestKindForName(t *testing.T) {
	known := map[string]ToolKind{
		"str_replace_edit":    KindEditProposal,
		"highlight_ambiguity": KindAmbiguityFlag,
		"deep_research":       KindResearchQuery,
		"calculate":           KindCalculation,
		"read_document":       KindDocumentRead,
		"search_workspace":    KindWorkspaceSearch,
	}
	for name, want := range known {
		kind, ok := KindForName(name)
		if !ok || kind != want {
			t.Errorf("KindForName(%q) = %q, %v", name, kind, ok)
		}
	}
	if _, ok := KindForName("unknown_tool"); ok {
		t.Error("KindForName accepted an unknown name")
	}
}

func TestParseEditArgs(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		args, err := ParseEditArgs([]byte(`{"old_str":"foo","new_str":"bar","reason":"clarity"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if args.OldStr != "foo" || args.NewStr != "bar" || args.Reason != "clarity" {
			t.Errorf("args = %+v", args)
		}
	})

	t.Run("missing old_str", func(t *testing.T) {
		if _, err := ParseEditArgs([]byte(`{"new_str":"bar"}`)); err == nil {
			t.Error("expected error for missing old_str")
		}
	})

	t.Run("empty new_str allowed", func(t *testing.T) {
		args, err := ParseEditArgs([]byte(`{"old_str":"foo","new_str":""}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if args.NewStr != "" {
			t.Errorf("NewStr = %q, want empty", args.NewStr)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := ParseEditArgs([]byte(`nope`)); err == nil {
			t.Error("expected error for invalid json")
		}
	})
}

func TestParseAmbiguityArgs(t *testing.T) {
	args, err := ParseAmbiguityArgs([]byte(`{"text":"ASAP","concern":"no deadline","suggestion":"name a date"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args.Text != "ASAP" || args.Concern != "no deadline" {
		t.Errorf("args = %+v", args)
	}

	if _, err := ParseAmbiguityArgs([]byte(`{"concern":"x"}`)); err == nil {
		t.Error("expected error for missing text")
	}
}

func TestParseQueryArgs(t *testing.T) {
	args, err := ParseQueryArgs([]byte(`{"query":"competitor pricing"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := args.Text(); got != "competitor pricing" {
		t.Errorf("Text() = %q, want %q", got, "competitor pricing")
	}

	args, err = ParseQueryArgs([]byte(`{"expression":"40 * 1.2"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := args.Text(); got != "40 * 1.2" {
		t.Errorf("Text() = %q, want %q", got, "40 * 1.2")
	}

	if _, err := ParseQueryArgs([]byte(`nope`)); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestEstimateRequestTokens(t *testing.T) {
	n := EstimateRequestTokens(ChatRequest{
		Message:         "tighten the scope section",
		DocumentContent: "# Scope\nBuild the thing.",
		ConversationHistory: []HistoryMessage{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi"},
		},
	})
	if n <= 0 {
		t.Errorf("EstimateRequestTokens = %d, want > 0", n)
	}
}
