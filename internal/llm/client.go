package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dantheman4700/scope-doc-gen-sub000/internal/logging"
)

var (
	ErrRequestFailed = errors.New("chat request failed")
	log              = logging.Get()
)

// Client handles communication with the assistant endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new assistant client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// StreamCallback is called for each event in the stream, in arrival order.
type StreamCallback func(event StreamEvent)

// ChatStream opens a streaming chat turn and feeds each protocol record to
// the callback. The context cancels the stream between chunks; a
// cancellation is returned as the context's error, never as a transport
// failure. Malformed records are skipped so a single bad line cannot
// abort the turn.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, callback StreamCallback) error {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	log.Debug("HTTP POST %s/chat (history: %d, document: %d bytes)",
		c.baseURL, len(req.ConversationHistory), len(req.DocumentContent))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("HTTP request failed: %v", err)
		return err
	}
	defer resp.Body.Close()

	log.Debug("HTTP response status: %d", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Error("API error %d: %s", resp.StatusCode, string(body))
		return fmt.Errorf("%w: %d - %s", ErrRequestFailed, resp.StatusCode, string(body))
	}

	return c.processStream(ctx, resp.Body, callback)
}

// processStream reads newline-delimited protocol records and calls the
// callback for each. Records arrive as "event: <type>" lines followed by
// "data: <json>" lines; classification relies on which data fields are
// present, so the event lines only get logged. The scanner buffers a
// partial trailing line across chunk boundaries before re-splitting on
// newlines.
func (c *Client) processStream(ctx context.Context, reader io.Reader, callback StreamCallback) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		if strings.HasPrefix(line, "event: ") {
			log.Stream("event", strings.TrimPrefix(line, "event: "))
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var rec streamRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			// Skip malformed records; partial progress beats total failure.
			log.Debug("skipping malformed record: %s", truncateData(data))
			continue
		}

		switch {
		case rec.Content != nil:
			callback(StreamEvent{Type: "content", Content: *rec.Content})

		case rec.Name != "" && rec.ID != "":
			kind, ok := KindForName(rec.Name)
			if !ok {
				log.Debug("skipping unknown tool %q (id %s)", rec.Name, rec.ID)
				continue
			}
			log.ToolCall(rec.Name, string(rec.Input))
			callback(StreamEvent{
				Type:     "tool_call",
				ToolID:   rec.ID,
				ToolKind: kind,
				ToolName: rec.Name,
				Input:    rec.Input,
			})

		case rec.Result != nil && rec.ID != "":
			callback(StreamEvent{Type: "tool_result", ToolID: rec.ID, Result: *rec.Result})

		case rec.Message != nil:
			// An error record surfaces to the session but does not
			// necessarily end the stream.
			log.Error("stream error record: %s", *rec.Message)
			callback(StreamEvent{Type: "error", Error: *rec.Message})
		}
	}

	if err := scanner.Err(); err != nil {
		// When the context is canceled (user abort), the HTTP body closes
		// and the scanner sees an IO error. Return the context error so
		// callers can tell cancellation apart from transport failure.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("stream scanner error: %v", err)
		return err
	}

	callback(StreamEvent{Type: "done"})
	return nil
}

func truncateData(s string) string {
	if len(s) <= 200 {
		return s
	}
	return s[:200] + "..."
}
