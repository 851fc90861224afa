package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	err := json.NewEncoder(w).Encode(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}}},
		},
	})
	require.NoError(t, err)
}

func TestCompleteSendsPromptAndParsesReply(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(t, w, "## Your plan")
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "test-key", time.Second, 1000)
	reply, err := client.Complete(context.Background(), "make me a plan")
	require.NoError(t, err)
	assert.Equal(t, "## Your plan", reply)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "make me a plan", got.Contents[0].Parts[0].Text)
	assert.Nil(t, got.SystemInstruction)
}

func TestChatReplaysSystemAndHistory(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(t, w, "hello again")
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "test-key", time.Second, 1000)
	history := []ChatTurn{
		{Role: "user", Text: "hi"},
		{Role: "model", Text: "hello"},
	}
	reply, err := client.Chat(context.Background(), "you are FitAI", history, "how are you?")
	require.NoError(t, err)
	assert.Equal(t, "hello again", reply)

	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "you are FitAI", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 3)
	assert.Equal(t, "model", got.Contents[1].Role)
	assert.Equal(t, "how are you?", got.Contents[2].Parts[0].Text)
}

func TestNonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "test-key", time.Second, 1000)
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "test-key", time.Second, 1000)
	_, err := client.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSlowServerIsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		respond(t, w, "too late")
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "test-key", 50*time.Millisecond, 1000)
	_, err := client.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestContextDeadlineIsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		respond(t, w, "too late")
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "test-key", time.Second, 1000)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Complete(ctx, "prompt")
	assert.ErrorIs(t, err, ErrTimeout)
}
