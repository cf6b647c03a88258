package transcriber

import (
	"bytes"
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"dictate/audio"
)

type OpenAI struct {
	http *TracedClient
}

func NewOpenAI() *OpenAI {
	return &OpenAI{http: NewTracedClient()}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) client(opts Options) (*openai.Client, error) {
	if err := checkCredential(opts.APIKey); err != nil {
		return nil, err
	}
	base, err := baseURL(opts.APIURL)
	if err != nil {
		return nil, err
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = base
	cfg.HTTPClient = o.http
	return openai.NewClientWithConfig(cfg), nil
}

func (o *OpenAI) Transcribe(ctx context.Context, payload audio.Payload, opts Options) (Result, error) {
	client, err := o.client(opts)
	if err != nil {
		return Result{}, err
	}

	call := &tracedCall{}
	resp, err := client.CreateTranscription(withTrace(ctx, call), openai.AudioRequest{
		Model:    opts.Model,
		FilePath: filename(payload, opts),
		Reader:   bytes.NewReader(payload.Data),
		Prompt:   opts.Prompt,
		Language: opts.Language,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return Result{Metrics: call.Metrics()}, remoteError(err)
	}
	return Result{
		Text:      trimText(resp.Text),
		Metrics:   call.Metrics(),
		RateLimit: call.RateLimit(),
	}, nil
}

// Warm opens a connection to the endpoint host ahead of the first request.
func (o *OpenAI) Warm(opts Options) {
	base, err := baseURL(opts.APIURL)
	if err != nil {
		return
	}
	o.http.WarmConnection(base)
}

func remoteError(err error) *RemoteError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &RemoteError{StatusCode: apiErr.HTTPStatusCode, Detail: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := string(bytes.TrimSpace(reqErr.Body))
		if detail == "" && reqErr.Err != nil {
			detail = reqErr.Err.Error()
		}
		return &RemoteError{StatusCode: reqErr.HTTPStatusCode, Detail: detail, Err: err}
	}
	return &RemoteError{Detail: err.Error(), Err: err}
}
