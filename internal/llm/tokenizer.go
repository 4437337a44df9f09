package llm

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
	codecErr  error
)

// getCodec returns the cl100k_base tokenizer, a reasonable approximation
// for most hosted models.
func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return codec, codecErr
}

// EstimateTokens returns an approximate token count for the given text.
func EstimateTokens(text string) (int, error) {
	c, err := getCodec()
	if err != nil {
		return 0, err
	}

	ids, _, err := c.Encode(text)
	if err != nil {
		return 0, err
	}

	return len(ids), nil
}

// EstimateRequestTokens approximates the token footprint of an outbound
// chat request: the new message, the history, and the document content.
// Returns 0 on tokenizer errors; the estimate is advisory only.
func EstimateRequestTokens(req ChatRequest) int {
	total := 0
	count := func(s string) {
		if s == "" {
			return
		}
		if n, err := EstimateTokens(s); err == nil {
			total += n
		}
	}
	count(req.Message)
	count(req.DocumentContent)
	for _, m := range req.ConversationHistory {
		count(m.Content)
	}
	return total
}
