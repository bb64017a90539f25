// File: internal/network/httpclient_test.go
package network

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewDefaultClientConfig(t *testing.T) {
	cfg := NewDefaultClientConfig()
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Zero(t, cfg.ResponseHeaderTimeout, "slow completions must not hit a header deadline")
	assert.True(t, cfg.ForceHTTP2)
}

func TestNewHTTPTransport(t *testing.T) {
	tr := NewHTTPTransport(nil)
	require.NotNil(t, tr.TLSClientConfig)
	assert.Equal(t, uint16(0x0303), tr.TLSClientConfig.MinVersion)
	assert.Contains(t, tr.TLSClientConfig.NextProtos, "h2")
	assert.False(t, tr.TLSClientConfig.InsecureSkipVerify)
}

func TestNewHTTPTransport_HTTP1Only(t *testing.T) {
	cfg := NewDefaultClientConfig()
	cfg.ForceHTTP2 = false
	cfg.IgnoreTLSErrors = true
	cfg.Logger = zaptest.NewLogger(t)

	tr := NewHTTPTransport(cfg)
	assert.Equal(t, []string{"http/1.1"}, tr.TLSClientConfig.NextProtos)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
}

func TestNewHTTPTransport_Proxy(t *testing.T) {
	proxy, err := url.Parse("http://127.0.0.1:3128")
	require.NoError(t, err)
	cfg := NewDefaultClientConfig()
	cfg.ProxyURL = proxy

	tr := NewHTTPTransport(cfg)
	req := httptest.NewRequest(http.MethodGet, "https://api.openai.com/v1/chat/completions", nil)
	got, err := tr.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, proxy, got)
}

func TestNewClientWithTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, NewClientWithTimeout(5*time.Second, nil).Timeout)
	assert.Equal(t, DefaultRequestTimeout, NewClientWithTimeout(0, nil).Timeout)
}

func TestNewClient_FollowsRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		fmt.Fprint(w, r.URL.Path)
	}))
	defer srv.Close()

	client := NewClient(nil)
	defer client.CloseIdleConnections()
	resp, err := client.Get(srv.URL + "/old")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/new", resp.Request.URL.Path)
}
