// Package api is the client for the document persistence backend:
// version saves, commits, listing, deletion, and run status. The session
// core consumes these endpoints; it never implements persistence itself.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dantheman4700/scope-doc-gen-sub000/internal/logging"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/version"
)

var (
	ErrRequestFailed    = errors.New("persistence request failed")
	ErrProtectedVersion = errors.New("version 1 cannot be deleted")
	log                 = logging.Get()
)

const defaultRequestTimeout = 30 * time.Second

// VersionInfo is one stored document version.
type VersionInfo struct {
	VersionNumber float64 `json:"version_number"`
	Markdown      string  `json:"markdown"`
}

// SaveResult is the backend's response to a save or commit.
type SaveResult struct {
	VersionNumber float64 `json:"version_number"`
	Message       string  `json:"message"`
}

// RunStatus is the backend's report on a long-running generation job.
type RunStatus struct {
	Status string `json:"status"`
}

// Terminal reports whether the run has finished (successfully or not).
func (s RunStatus) Terminal() bool {
	switch s.Status {
	case "completed", "failed", "cancelled":
		return true
	}
	return false
}

// Client talks to the persistence backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a persistence client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

type savePayload struct {
	Content   string `json:"content"`
	BaseMajor int    `json:"base_major"`
}

// SaveSubVersion stores content as a new sub-version under the given
// major.
func (c *Client) SaveSubVersion(ctx context.Context, content string, baseMajor int) (*SaveResult, error) {
	var result SaveResult
	err := c.post(ctx, "/versions/save", savePayload{Content: content, BaseMajor: baseMajor}, &result)
	if err != nil {
		return nil, err
	}
	log.Info("saved sub-version %s", version.Format(result.VersionNumber))
	return &result, nil
}

// CommitMajor stores content as the next integer major version.
func (c *Client) CommitMajor(ctx context.Context, content string, baseMajor int) (*SaveResult, error) {
	var result SaveResult
	err := c.post(ctx, "/versions/commit", savePayload{Content: content, BaseMajor: baseMajor}, &result)
	if err != nil {
		return nil, err
	}
	log.Info("committed %s", version.Format(result.VersionNumber))
	return &result, nil
}

// ListVersions fetches all stored versions.
func (c *Client) ListVersions(ctx context.Context) ([]VersionInfo, error) {
	req, err := c.newRequest(ctx, "GET", "/versions", nil)
	if err != nil {
		return nil, err
	}
	var versions []VersionInfo
	if err := c.do(req, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// DeleteVersion removes a stored version. Version 1 is refused locally;
// the backend rejects it as well.
func (c *Client) DeleteVersion(ctx context.Context, v float64) error {
	if !version.CanDelete(v) {
		return ErrProtectedVersion
	}
	req, err := c.newRequest(ctx, "DELETE", fmt.Sprintf("/versions/%s", strings.TrimPrefix(version.Format(v), "v")), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// GetRunStatus fetches the current generation run status.
func (c *Client) GetRunStatus(ctx context.Context) (*RunStatus, error) {
	req, err := c.newRequest(ctx, "GET", "/run/status", nil)
	if err != nil {
		return nil, err
	}
	var status RunStatus
	if err := c.do(req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, "POST", path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	log.Debug("HTTP %s %s", req.Method, req.URL.Path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("HTTP request failed: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		log.Error("API error %d: %s", resp.StatusCode, string(body))
		return fmt.Errorf("%w: %d - %s", ErrRequestFailed, resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
