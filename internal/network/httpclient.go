// File: internal/network/httpclient.go
package network

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Constants for the default transport settings. Vision model calls are few and
// slow, so the pool is small and there is no response header deadline: a
// non-streaming completion sends its headers only when generation ends.
const (
	DefaultDialTimeout         = 10 * time.Second
	DefaultKeepAliveInterval   = 30 * time.Second
	DefaultTLSHandshakeTimeout = 10 * time.Second
	DefaultRequestTimeout      = 120 * time.Second

	DefaultMaxIdleConns        = 16
	DefaultMaxIdleConnsPerHost = 4
	DefaultIdleConnTimeout     = 90 * time.Second
)

// ClientConfig holds the configuration for the HTTP client and transport layers.
type ClientConfig struct {
	IgnoreTLSErrors bool

	RequestTimeout        time.Duration
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	ForceHTTP2 bool

	// ProxyURL overrides the proxy taken from HTTP_PROXY/HTTPS_PROXY.
	ProxyURL *url.URL

	Logger *zap.Logger
}

// NewDefaultClientConfig returns the settings used for model, speech and
// tutorial requests.
func NewDefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		RequestTimeout:      DefaultRequestTimeout,
		DialTimeout:         DefaultDialTimeout,
		TLSHandshakeTimeout: DefaultTLSHandshakeTimeout,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		ForceHTTP2:          true,
	}
}

// NewHTTPTransport creates and configures an http.Transport based on the provided configuration.
func NewHTTPTransport(config *ClientConfig) *http.Transport {
	if config == nil {
		config = NewDefaultClientConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := &net.Dialer{Timeout: config.DialTimeout, KeepAlive: DefaultKeepAliveInterval}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSClientConfig:       configureTLS(config),
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     config.ForceHTTP2,
	}
	if config.ProxyURL != nil {
		transport.Proxy = http.ProxyURL(config.ProxyURL)
	}

	if config.ForceHTTP2 {
		// http2.ConfigureTransport modifies the transport in place to add HTTP/2 support.
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn("Failed to configure HTTP/2 transport, falling back to HTTP/1.1", zap.Error(err))
		}
	} else if len(transport.TLSClientConfig.NextProtos) == 0 {
		transport.TLSClientConfig.NextProtos = []string{"http/1.1"}
	}
	return transport
}

// NewClient builds an http.Client on the configured transport.
func NewClient(config *ClientConfig) *http.Client {
	if config == nil {
		config = NewDefaultClientConfig()
	}
	return &http.Client{
		Transport: NewHTTPTransport(config),
		Timeout:   config.RequestTimeout,
	}
}

// NewClientWithTimeout is the default client with a different overall timeout.
// A non-positive timeout keeps the default.
func NewClientWithTimeout(timeout time.Duration, logger *zap.Logger) *http.Client {
	cfg := NewDefaultClientConfig()
	if timeout > 0 {
		cfg.RequestTimeout = timeout
	}
	cfg.Logger = logger
	return NewClient(cfg)
}

// configureTLS sets up the TLS configuration with strong defaults.
func configureTLS(config *ClientConfig) *tls.Config {
	return &tls.Config{
		// Enforce TLS 1.2 as the minimum version.
		MinVersion: tls.VersionTLS12,
		// Enable a session resumption cache for performance on subsequent connections.
		ClientSessionCache: tls.NewLRUClientSessionCache(64),
		// Useful behind intercepting proxies with self signed certificates.
		InsecureSkipVerify: config.IgnoreTLSErrors,
	}
}
