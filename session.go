package notebooklm

import (
	"context"
	"fmt"
	"sync"

	nlmerrors "github.com/shouta-dev/notebooklm-go/errors"
	"github.com/shouta-dev/notebooklm-go/internal/jsontree"
)

// ConversationTurn is one question/answer exchange in a conversation.
type ConversationTurn struct {
	Query  string
	Answer string
	Number int
}

// AskResult is the outcome of asking a notebook a question.
type AskResult struct {
	// Answer is the generated answer text
	Answer string

	// ConversationID identifies the conversation the turn belongs to;
	// pass it back to Ask to continue the same conversation
	ConversationID string

	// TurnNumber is the 1-based position of this turn in the conversation
	TurnNumber int
}

// ConversationCache holds conversation turns for one session. The cache is
// explicit state owned by the caller: create one per session, pass it to
// Ask, and drop it when the session ends. There is no ambient per-client
// conversation state.
//
// Safe for concurrent use.
type ConversationCache struct {
	mu    sync.Mutex
	turns map[string][]ConversationTurn
}

// NewConversationCache creates an empty cache.
func NewConversationCache() *ConversationCache {
	return &ConversationCache{turns: make(map[string][]ConversationTurn)}
}

// Add appends a turn to a conversation and returns its 1-based number.
func (c *ConversationCache) Add(conversationID, query, answer string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	number := len(c.turns[conversationID]) + 1
	c.turns[conversationID] = append(c.turns[conversationID], ConversationTurn{
		Query:  query,
		Answer: answer,
		Number: number,
	})
	return number
}

// Turns returns the recorded turns for one conversation, in order.
func (c *ConversationCache) Turns(conversationID string) []ConversationTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ConversationTurn, len(c.turns[conversationID]))
	copy(out, c.turns[conversationID])
	return out
}

// Clear forgets one conversation, reporting whether it existed.
func (c *ConversationCache) Clear(conversationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.turns[conversationID]; !ok {
		return false
	}
	delete(c.turns, conversationID)
	return true
}

// ClearAll forgets every conversation.
func (c *ConversationCache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = make(map[string][]ConversationTurn)
}

// Ask sends a question to a notebook. An empty conversationID starts a new
// conversation; passing a previous result's ConversationID continues it.
// When cache is non-nil the exchange is recorded there.
func (c *Client) Ask(
	ctx context.Context,
	notebookID, question, conversationID string,
	cache *ConversationCache,
) (AskResult, error) {
	if question == "" {
		return AskResult{}, nlmerrors.NewError("ask",
			fmt.Errorf("%w: empty question", nlmerrors.ErrInvalidInput)).WithNotebook(notebookID)
	}

	params := []any{notebookID, question}
	if conversationID != "" {
		params = append(params, conversationID)
	}

	result, err := c.Call(ctx, rpcAsk, params)
	if err != nil {
		return AskResult{}, nlmerrors.NewError("ask", err).WithNotebook(notebookID)
	}

	answer, ok := jsontree.String(result, 0)
	if !ok {
		answer, ok = jsontree.DeepString(result)
	}
	if !ok {
		return AskResult{}, nlmerrors.NewError("ask",
			fmt.Errorf("no answer in response")).WithNotebook(notebookID)
	}

	if id, ok := jsontree.String(result, 1); ok && id != "" {
		conversationID = id
	}

	res := AskResult{Answer: answer, ConversationID: conversationID, TurnNumber: 1}
	if cache != nil && conversationID != "" {
		res.TurnNumber = cache.Add(conversationID, question, answer)
	}
	return res, nil
}
