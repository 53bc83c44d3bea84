package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostMessage(t *testing.T) {
	var got Message
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	msg := Message{
		Text: "New HOT Lead Assigned",
		Blocks: []Block{
			Header("New HOT Lead Assigned"),
			SectionFields("*Company:*\nBigCo", "*Score:*\n92/100"),
		},
	}
	require.NoError(t, c.PostMessage(context.Background(), msg))

	assert.Equal(t, "New HOT Lead Assigned", got.Text)
	require.Len(t, got.Blocks, 2)
	assert.Equal(t, "header", got.Blocks[0].Type)
	assert.Equal(t, "plain_text", got.Blocks[0].Text.Type)
	require.Len(t, got.Blocks[1].Fields, 2)
	assert.Equal(t, "mrkdwn", got.Blocks[1].Fields[0].Type)
}

func TestPostMessage_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid_token"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	err := c.PostMessage(context.Background(), Message{Text: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
