package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EditArgs is the parsed input of a str_replace_edit tool call.
type EditArgs struct {
	OldStr string `json:"old_str"`
	NewStr string `json:"new_str"`
	Reason string `json:"reason,omitempty"`
}

// ParseEditArgs parses the input payload of a str_replace_edit call.
func ParseEditArgs(input json.RawMessage) (*EditArgs, error) {
	var args EditArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("str_replace_edit: %w", err)
	}
	if args.OldStr == "" {
		return nil, errors.New("str_replace_edit: missing old_str")
	}
	return &args, nil
}

// AmbiguityArgs is the parsed input of a highlight_ambiguity tool call.
type AmbiguityArgs struct {
	Text       string `json:"text"`
	Concern    string `json:"concern"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ParseAmbiguityArgs parses the input payload of a highlight_ambiguity call.
func ParseAmbiguityArgs(input json.RawMessage) (*AmbiguityArgs, error) {
	var args AmbiguityArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("highlight_ambiguity: %w", err)
	}
	if args.Text == "" {
		return nil, errors.New("highlight_ambiguity: missing text")
	}
	return &args, nil
}

// QueryArgs is the parsed input of the query-shaped tools (deep_research,
// calculate, search_workspace). The field carrying the query differs per
// tool, so all candidates are accepted.
type QueryArgs struct {
	Query      string `json:"query,omitempty"`
	Expression string `json:"expression,omitempty"`
}

// Text returns whichever query field is populated.
func (a *QueryArgs) Text() string {
	if a.Query != "" {
		return a.Query
	}
	return a.Expression
}

// ParseQueryArgs parses the input payload of a query-shaped tool call.
func ParseQueryArgs(input json.RawMessage) (*QueryArgs, error) {
	var args QueryArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, err
	}
	return &args, nil
}
