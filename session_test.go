package notebooklm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nlmerrors "github.com/shouta-dev/notebooklm-go/errors"
	"github.com/shouta-dev/notebooklm-go/internal/jsontree"
)

func TestConversationCache(t *testing.T) {
	cache := NewConversationCache()

	assert.Equal(t, 1, cache.Add("conv_1", "q1", "a1"))
	assert.Equal(t, 2, cache.Add("conv_1", "q2", "a2"))
	assert.Equal(t, 1, cache.Add("conv_2", "other", "answer"))

	turns := cache.Turns("conv_1")
	require.Len(t, turns, 2)
	assert.Equal(t, "q1", turns[0].Query)
	assert.Equal(t, "a1", turns[0].Answer)
	assert.Equal(t, 1, turns[0].Number)
	assert.Equal(t, 2, turns[1].Number)

	assert.True(t, cache.Clear("conv_1"))
	assert.False(t, cache.Clear("conv_1"))
	assert.Empty(t, cache.Turns("conv_1"))
	assert.Len(t, cache.Turns("conv_2"), 1)

	cache.ClearAll()
	assert.Empty(t, cache.Turns("conv_2"))
}

func TestConversationCache_TurnsReturnsCopy(t *testing.T) {
	cache := NewConversationCache()
	cache.Add("conv_1", "q", "a")

	turns := cache.Turns("conv_1")
	turns[0].Answer = "mutated"

	assert.Equal(t, "a", cache.Turns("conv_1")[0].Answer)
}

func TestAsk_NewConversation(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		fmt.Fprint(w, buildRPCResponse(t, rpcAsk, []any{"The answer is 42.", "conv_abc"}))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	cache := NewConversationCache()
	result, err := client.Ask(context.Background(), "nb_123", "What is the answer?", "", cache)
	require.NoError(t, err)

	assert.Equal(t, "The answer is 42.", result.Answer)
	assert.Equal(t, "conv_abc", result.ConversationID)
	assert.Equal(t, 1, result.TurnNumber)

	params := decodeEnvelopeParams(t, body)
	assert.Equal(t, "nb_123", jsontree.At(params, 0))
	assert.Equal(t, "What is the answer?", jsontree.At(params, 1))
	// No conversation id on the first turn.
	assert.Nil(t, jsontree.At(params, 2))

	turns := cache.Turns("conv_abc")
	require.Len(t, turns, 1)
	assert.Equal(t, "What is the answer?", turns[0].Query)
	assert.Equal(t, "The answer is 42.", turns[0].Answer)
}

func TestAsk_ContinuesConversation(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		fmt.Fprint(w, buildRPCResponse(t, rpcAsk, []any{"Follow-up answer.", "conv_abc"}))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	cache := NewConversationCache()
	cache.Add("conv_abc", "earlier question", "earlier answer")

	result, err := client.Ask(context.Background(), "nb_123", "And then?", "conv_abc", cache)
	require.NoError(t, err)

	assert.Equal(t, "conv_abc", result.ConversationID)
	assert.Equal(t, 2, result.TurnNumber)

	params := decodeEnvelopeParams(t, body)
	assert.Equal(t, "conv_abc", jsontree.At(params, 2))
}

func TestAsk_NilCache(t *testing.T) {
	server := rpcServer(t, map[string]any{
		rpcAsk: []any{"An answer.", "conv_abc"},
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.Ask(context.Background(), "nb_123", "Question?", "", nil)
	require.NoError(t, err)

	assert.Equal(t, "An answer.", result.Answer)
	assert.Equal(t, 1, result.TurnNumber)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")
	_, err := client.Ask(context.Background(), "nb_123", "", "", nil)
	assert.ErrorIs(t, err, nlmerrors.ErrInvalidInput)
}
