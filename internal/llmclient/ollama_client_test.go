package llmclient

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClient_Payload(t *testing.T) {
	vendor, srv := newFakeVendor(t, http.StatusOK, `{"model":"llava","response":"[]","done":true}`)
	client := NewOllamaClient(providerConfig(srv.URL), setupTestLogger(t))

	req := testRequest()
	req.Credential = ""
	resp, err := client.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "[]", resp.Text)
	assert.True(t, resp.Usage.Estimated)
	assert.Equal(t, 508, resp.Usage.PromptTokens)
	assert.Equal(t, 1, resp.Usage.CompletionTokens)

	got := vendor.last(t)
	assert.Equal(t, "test-model", got.Payload["model"])
	assert.Equal(t, "reply with a JSON array\n\nopen the browser", got.Payload["prompt"])
	assert.Equal(t, false, got.Payload["stream"])
	assert.Equal(t, []any{pngStub}, got.Payload["images"])
	assert.EqualValues(t, 4096, got.Payload["options"].(map[string]any)["num_ctx"])
	assert.Empty(t, got.Header.Get("Authorization"))
}

func TestOllamaClient_Errors(t *testing.T) {
	_, srv := newFakeVendor(t, http.StatusNotFound, `{"error":"model 'nope' not found, try pulling it first"}`)
	client := NewOllamaClient(providerConfig(srv.URL), setupTestLogger(t))
	_, err := client.Send(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Contains(t, err.Error(), "try pulling it first")

	_, srv = newFakeVendor(t, http.StatusOK, `{"error":"out of memory"}`)
	client = NewOllamaClient(providerConfig(srv.URL), setupTestLogger(t))
	_, err = client.Send(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))

	client = NewOllamaClient(providerConfig("http://127.0.0.1:1/api/generate"), setupTestLogger(t))
	_, err = client.Send(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.False(t, IsFatal(err))
}
