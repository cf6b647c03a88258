package transcriber

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"
)

// TracedClient records per-phase timings of every request made through it.
// It satisfies the HTTP doer the OpenAI client expects.
type TracedClient struct {
	client *http.Client
}

func NewTracedClient() *TracedClient {
	return &TracedClient{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

type traceKey struct{}

// tracedCall collects what one request observed.
type tracedCall struct {
	mu      sync.Mutex
	metrics *NetworkMetrics
	header  http.Header
}

func withTrace(ctx context.Context, call *tracedCall) context.Context {
	return context.WithValue(ctx, traceKey{}, call)
}

func (c *tracedCall) Metrics() *NetworkMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metrics == nil {
		return nil
	}
	m := *c.metrics
	return &m
}

func (c *tracedCall) RateLimit() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.header == nil {
		return ""
	}
	return firstNonEmpty(c.header, "x-ratelimit-remaining-requests") + "/" +
		firstNonEmpty(c.header, "x-ratelimit-limit-requests")
}

func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	call, _ := req.Context().Value(traceKey{}).(*tracedCall)
	if call == nil {
		call = &tracedCall{}
	}
	metrics := &NetworkMetrics{}
	var getConnStart, dnsStart, tcpStart, tlsStart time.Time
	var gotConn, wroteHeaders, wroteRequest, firstByte time.Time

	trace := &httptrace.ClientTrace{
		GetConn: func(_ string) { getConnStart = time.Now() },
		GotConn: func(info httptrace.GotConnInfo) {
			gotConn = time.Now()
			metrics.ConnWait = gotConn.Sub(getConnStart)
			metrics.ConnReused = info.Reused
		},
		DNSStart:          func(_ httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone:           func(_ httptrace.DNSDoneInfo) { metrics.DNS = time.Since(dnsStart) },
		ConnectStart:      func(_, _ string) { tcpStart = time.Now() },
		ConnectDone:       func(_, _ string, _ error) { metrics.TCP = time.Since(tcpStart) },
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone: func(state tls.ConnectionState, _ error) {
			metrics.TLS = time.Since(tlsStart)
			metrics.TLSProtocol = tls.VersionName(state.Version)
		},
		WroteHeaders: func() {
			wroteHeaders = time.Now()
			metrics.ReqHeaders = wroteHeaders.Sub(gotConn)
		},
		WroteRequest: func(_ httptrace.WroteRequestInfo) {
			wroteRequest = time.Now()
			metrics.ReqBody = wroteRequest.Sub(wroteHeaders)
		},
		GotFirstResponseByte: func() {
			firstByte = time.Now()
			metrics.TTFB = firstByte.Sub(wroteRequest)
		},
	}

	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))
	reqStart := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Total = time.Since(reqStart)
		call.mu.Lock()
		call.metrics = metrics
		call.mu.Unlock()
		return nil, err
	}

	resp.Body = &tracedBody{ReadCloser: resp.Body, done: func() {
		metrics.Download = time.Since(firstByte)
		metrics.Total = time.Since(reqStart)
		call.mu.Lock()
		call.metrics = metrics
		call.header = resp.Header
		call.mu.Unlock()
	}}
	return resp, nil
}

// tracedBody finishes the timing when the caller is done reading.
type tracedBody struct {
	io.ReadCloser
	once sync.Once
	done func()
}

func (b *tracedBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.done)
	return err
}

func (c *TracedClient) WarmConnection(url string) time.Duration {
	var tlsStart time.Time
	var tlsDuration time.Duration

	trace := &httptrace.ClientTrace{
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone:  func(_ tls.ConnectionState, _ error) { tlsDuration = time.Since(tlsStart) },
	}

	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return 0
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))
	resp, err := c.client.Do(req)
	if err != nil {
		return 0
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return tlsDuration
}
