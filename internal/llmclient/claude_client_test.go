package llmclient

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const claudeOK = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-sonnet-20240620",
  "content": [{"type": "text", "text": "[{\"type\":\"type\",\"text\":\"hi\"}]"}],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 1500, "output_tokens": 20}
}`

func TestClaudeClient_MessageShape(t *testing.T) {
	vendor, srv := newFakeVendor(t, http.StatusOK, claudeOK)
	cfg := providerConfig(srv.URL + "/")
	cfg.APIVersion = "2023-06-01"
	client := NewClaudeClient(cfg, setupTestLogger(t))

	resp, err := client.Send(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `[{"type":"type","text":"hi"}]`, resp.Text)
	assert.Equal(t, Usage{PromptTokens: 1500, CompletionTokens: 20}, resp.Usage)

	got := vendor.last(t)
	assert.Equal(t, "/v1/messages", got.Path)
	assert.Equal(t, "test-api-key", got.Header.Get("X-Api-Key"))
	assert.Equal(t, "2023-06-01", got.Header.Get("Anthropic-Version"))
	assert.Equal(t, "test-model", got.Payload["model"])
	assert.EqualValues(t, 4096, got.Payload["max_tokens"])

	system := got.Payload["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "reply with a JSON array", system[0].(map[string]any)["text"])

	messages := got.Payload["messages"].([]any)
	require.Len(t, messages, 1)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	image := content[0].(map[string]any)
	assert.Equal(t, "image", image["type"])
	source := image["source"].(map[string]any)
	assert.Equal(t, "base64", source["type"])
	assert.Equal(t, "image/png", source["media_type"])
	assert.Equal(t, pngStub, source["data"])
	assert.Equal(t, "open the browser", content[1].(map[string]any)["text"])
}

func TestClaudeClient_StatusClassification(t *testing.T) {
	_, srv := newFakeVendor(t, http.StatusUnauthorized,
		`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	client := NewClaudeClient(providerConfig(srv.URL+"/"), setupTestLogger(t))

	_, err := client.Send(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
	assert.True(t, IsFatal(err))

	vendor, srv := newFakeVendor(t, http.StatusInternalServerError,
		`{"type":"error","error":{"type":"api_error","message":"internal"}}`)
	client = NewClaudeClient(providerConfig(srv.URL+"/"), setupTestLogger(t))

	_, err = client.Send(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
	assert.Equal(t, 1, vendor.count(), "the SDK must not retry on its own")
}
