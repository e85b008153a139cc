package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPOption configures the HTTP store.
type HTTPOption func(*HTTP)

// WithHTTPClient swaps the client used for requests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTP) {
		if client != nil {
			s.client = client
		}
	}
}

// WithRequestTimeout bounds every request.
func WithRequestTimeout(timeout time.Duration) HTTPOption {
	return func(s *HTTP) {
		s.timeout = timeout
	}
}

// WithHeader adds a header to every request, e.g. an API token.
func WithHeader(name, value string) HTTPOption {
	return func(s *HTTP) {
		if strings.TrimSpace(name) == "" {
			return
		}
		s.headers.Set(name, value)
	}
}

// HTTP talks to a document API:
//
//	GET {base}/nodes/{docID}
//	GET {base}/nodes/{docID}/attachments/{name}
type HTTP struct {
	base    *url.URL
	client  *http.Client
	timeout time.Duration
	headers http.Header
}

var _ Store = (*HTTP)(nil)

// NewHTTP validates baseURL and applies options.
func NewHTTP(baseURL string, options ...HTTPOption) (*HTTP, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("store: parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("store: unsupported base url scheme %q", parsed.Scheme)
	}

	s := &HTTP{
		base:    parsed,
		client:  http.DefaultClient,
		headers: make(http.Header),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// QueryOne fetches node metadata; a 404 maps to ErrNodeNotFound.
func (s *HTTP) QueryOne(ctx context.Context, query Query) (Node, error) {
	if err := query.validate(); err != nil {
		return nil, err
	}

	data, err := s.get(ctx, s.base.JoinPath("nodes", query.DocID))
	if err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, query.DocID)
		}
		return nil, fmt.Errorf("store: query node %s: %w", query.DocID, err)
	}

	node := &httpNode{store: s, id: query.DocID}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &node.metadata); err != nil {
			return nil, fmt.Errorf("store: decode node %s: %w", query.DocID, err)
		}
	}
	return node, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "store: unexpected status " + e.Status
}

func (s *HTTP) get(ctx context.Context, target *url.URL) ([]byte, error) {
	reqCtx := ctx
	var cancel context.CancelFunc
	if s.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	for name, values := range s.headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return io.ReadAll(resp.Body)
}

type httpNode struct {
	store    *HTTP
	id       string
	metadata map[string]any
}

func (n *httpNode) ID() string { return n.id }

func (n *httpNode) Metadata() map[string]any { return n.metadata }

func (n *httpNode) Download(ctx context.Context, attachment string) ([]byte, error) {
	if attachment == "" {
		return nil, errors.New("store: attachment name is required")
	}
	data, err := n.store.get(ctx, n.store.base.JoinPath("nodes", n.id, "attachments", attachment))
	if err != nil {
		return nil, fmt.Errorf("store: download %s/%s: %w", n.id, attachment, err)
	}
	return data, nil
}
