package apigw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/logging"
)

const (
	maxResponseBody   = 4 << 20 // 4MB
	defaultMessage    = "request failed"
	headerRequestID   = "X-Request-Id"
	headerIdempotency = "X-Idempotency-Key"
)

var errServerStatus = errors.New("server error status")

// TokenSource yields the current bearer token, or "" when signed out.
type TokenSource interface {
	Token() string
}

// UnauthorizedHandler runs the global side effect of an HTTP 401.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context)
}

// Caller is what every component talks to the remote service through.
type Caller interface {
	Call(ctx context.Context, method, path string, body any, opts ...CallOption) (json.RawMessage, error)
}

type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32
}

type Gateway struct {
	baseURL      string
	client       *http.Client
	tokens       TokenSource
	unauthorized UnauthorizedHandler
	breaker      *gobreaker.CircuitBreaker[struct{}]
	log          *slog.Logger
}

type Option func(*Gateway)

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(g *Gateway) { g.unauthorized = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

func WithBreaker(s BreakerSettings) Option {
	return func(g *Gateway) { g.breaker = newBreaker(s) }
}

func NewGateway(baseURL string, timeout time.Duration, tokens TokenSource, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens:  tokens,
		breaker: newBreaker(BreakerSettings{}),
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func newBreaker(s BreakerSettings) *gobreaker.CircuitBreaker[struct{}] {
	if s.Failures == 0 {
		s.Failures = 5
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	failures := s.Failures
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "commerce-api",
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

type callOptions struct {
	authenticated bool
	headers       map[string]string
	query         url.Values
}

type CallOption func(*callOptions)

// Authenticated marks a call that needs an identity. Without a token it
// fails with an auth error before touching the network.
func Authenticated() CallOption {
	return func(o *callOptions) { o.authenticated = true }
}

func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithIdempotencyKey lets the server collapse duplicate submissions.
func WithIdempotencyKey(key string) CallOption {
	return WithHeader(headerIdempotency, key)
}

func WithQuery(q url.Values) CallOption {
	return func(o *callOptions) { o.query = q }
}

func (g *Gateway) Call(ctx context.Context, method, path string, body any, opts ...CallOption) (json.RawMessage, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	data, err := g.call(ctx, method, path, body, o)
	observe(method, start, err)
	if err != nil {
		g.log.DebugContext(ctx, "api call failed",
			"method", method, "path", path, "kind", domain.KindName(err), "error", err)
	}
	return data, err
}

func (g *Gateway) call(ctx context.Context, method, path string, body any, o callOptions) (json.RawMessage, error) {
	token := ""
	if g.tokens != nil {
		token = g.tokens.Token()
	}
	if o.authenticated && token == "" {
		return nil, &domain.Error{Kind: domain.ErrAuth, Message: "please log in first"}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &domain.Error{Kind: domain.ErrValidation, Message: "invalid request body", Cause: err}
		}
		reader = bytes.NewReader(b)
	}

	target := g.baseURL + path
	if len(o.query) > 0 {
		target += "?" + o.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &domain.Error{Kind: domain.ErrRequest, Message: defaultMessage, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(headerRequestID, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	var resp *http.Response
	_, err = g.breaker.Execute(func() (struct{}, error) {
		r, err := g.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		resp = r
		if r.StatusCode >= http.StatusInternalServerError {
			return struct{}{}, errServerStatus
		}
		return struct{}{}, nil
	})
	if err != nil && !errors.Is(err, errServerStatus) {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &domain.Error{Kind: domain.ErrNetwork, Status: resp.StatusCode, Message: "network unavailable", Cause: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if g.unauthorized != nil {
			g.unauthorized.HandleUnauthorized(ctx)
		}
		return nil, &domain.Error{
			Kind:    domain.ErrAuth,
			Status:  resp.StatusCode,
			Message: statusMessage(raw, "login expired, please log in again"),
		}
	case resp.StatusCode == http.StatusForbidden:
		return nil, &domain.Error{
			Kind:    domain.ErrForbidden,
			Status:  resp.StatusCode,
			Message: statusMessage(raw, "permission denied"),
		}
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return unwrapEnvelope(resp.StatusCode, raw)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &domain.Error{
			Kind:    domain.ErrNetwork,
			Status:  resp.StatusCode,
			Message: statusMessage(raw, "service unavailable, please try again later"),
		}
	default:
		return nil, &domain.Error{
			Kind:    domain.ErrRequest,
			Status:  resp.StatusCode,
			Message: statusMessage(raw, defaultMessage),
		}
	}
}

func transportError(err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.Error{Kind: domain.ErrNetwork, Message: "service temporarily unavailable", Cause: err}
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return &domain.Error{Kind: domain.ErrNetwork, Message: "request timed out", Cause: err}
	default:
		return &domain.Error{Kind: domain.ErrNetwork, Message: "network unavailable", Cause: err}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Do calls c and decodes the unwrapped payload into T.
func Do[T any](ctx context.Context, c Caller, method, path string, body any, opts ...CallOption) (T, error) {
	var out T
	raw, err := c.Call(ctx, method, path, body, opts...)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &domain.Error{Kind: domain.ErrRequest, Message: "unexpected response from server", Cause: fmt.Errorf("decode %s %s: %w", method, path, err)}
	}
	return out, nil
}
