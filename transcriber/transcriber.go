package transcriber

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dictate/audio"
)

const DefaultAPIURL = "https://api.openai.com/v1/audio/transcriptions"

const transcriptionsPath = "/audio/transcriptions"

var (
	ErrAuthenticationMissing = errors.New("transcription API key is not set")
	ErrClientInit            = errors.New("transcription client could not be initialized")
)

// RemoteError is a failed request: the service answered with an error or
// could not be reached. StatusCode is 0 when no response arrived.
type RemoteError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transcription service error %d: %s", e.StatusCode, e.Detail)
	}
	return "transcription request failed: " + e.Detail
}

func (e *RemoteError) Unwrap() error { return e.Err }

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

// Options are read from settings at the start of every dictation cycle.
type Options struct {
	APIKey   string
	APIURL   string // full transcription endpoint; empty means DefaultAPIURL
	Model    string
	Prompt   string
	Language string
	Filename string // multipart file name, e.g. 2024-03-05T14-07-09-123Z.flac
}

type Result struct {
	Text      string
	Metrics   *NetworkMetrics
	RateLimit string
}

type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, payload audio.Payload, opts Options) (Result, error)
}

// Validate reports whether a client could be built from opts.
func Validate(opts Options) error {
	if err := checkCredential(opts.APIKey); err != nil {
		return err
	}
	_, err := baseURL(opts.APIURL)
	return err
}

func checkCredential(key string) error {
	if key == "" {
		return ErrAuthenticationMissing
	}
	for i := 0; i < len(key); i++ {
		if c := key[i]; c <= ' ' || c >= 0x7f {
			return fmt.Errorf("%w: API key contains characters not allowed in a header", ErrClientInit)
		}
	}
	return nil
}

// baseURL turns the configured endpoint into the API root the client
// appends /audio/transcriptions to.
func baseURL(endpoint string) (string, error) {
	if endpoint == "" {
		endpoint = DefaultAPIURL
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: invalid API URL %q", ErrClientInit, endpoint)
	}
	return strings.TrimSuffix(strings.TrimRight(endpoint, "/"), transcriptionsPath), nil
}

func filename(payload audio.Payload, opts Options) string {
	if opts.Filename != "" {
		return opts.Filename
	}
	return "audio." + payload.Extension()
}

// trimText drops the single newline the text response format appends.
func trimText(s string) string {
	return strings.TrimSuffix(s, "\n")
}
