package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const maxErrorBody = 4096

// StatusError is returned for any non 2xx answer. Body holds the start of the response body.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return "status is " + e.Status
	}

	return fmt.Sprintf("status is %s: %s", e.Status, e.Body)
}

type Request struct {
	client  *http.Client
	url     string
	method  string
	token   string
	body    io.Reader
	headers map[string]string
	logger  *slog.Logger
	err     error
}

func New(c *http.Client, logger *slog.Logger) *Request {
	return &Request{client: c, method: http.MethodGet, logger: logger, headers: make(map[string]string)}
}

func (r *Request) URL(url string) *Request {
	r.url = url

	return r
}

func (r *Request) Post() *Request {
	r.method = http.MethodPost

	return r
}

func (r *Request) Token(token string) *Request {
	r.token = token

	return r
}

func (r *Request) Header(k, v string) *Request {
	r.headers[k] = v

	return r
}

func (r *Request) Body(body io.Reader) *Request {
	r.body = body

	return r
}

// JSON encodes obj as the request body.
func (r *Request) JSON(obj any) *Request {
	b, err := json.Marshal(obj)
	if err != nil {
		r.err = fmt.Errorf("encode body: %w", err)
		return r
	}

	r.body = bytes.NewReader(b)
	r.headers["Content-Type"] = "application/json"

	return r
}

func (r *Request) DoRes(ctx context.Context) (*http.Response, error) {
	if r.err != nil {
		return nil, r.err
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return nil, err
	}

	req.Header.Del("User-Agent")
	req.Header.Set("Accept", "application/json")

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	res, err := r.client.Do(req)
	if err != nil {
		if r.logger != nil {
			r.logger.Info(fmt.Sprintf("%s %s - error %s", r.method, req.URL, err.Error()))
		}

		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		if r.logger != nil {
			r.logger.Warn(fmt.Sprintf("%s %s - %d", r.method, req.URL, res.StatusCode))
		}

		defer res.Body.Close()

		b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))

		return nil, &StatusError{Code: res.StatusCode, Status: res.Status, Body: string(bytes.TrimSpace(b))}
	}

	if r.logger != nil {
		r.logger.Debug(fmt.Sprintf("%s %s - %d", r.method, req.URL, res.StatusCode))
	}

	return res, nil
}

func (r *Request) Do(ctx context.Context) (io.ReadCloser, error) {
	res, err := r.DoRes(ctx)

	if err != nil {
		return nil, err
	}

	if res.Body == nil {
		return nil, fmt.Errorf("null body")
	}

	return res.Body, nil
}

func (r *Request) GetJSON(ctx context.Context, obj any) error {
	b, err := r.Do(ctx)

	if err != nil {
		return err
	}

	defer b.Close()

	dec := json.NewDecoder(b)

	return dec.Decode(obj)
}
