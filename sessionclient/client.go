// Package sessionclient sends session protocol requests to the service under test.
package sessionclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"

	"github.com/nordcodes/session-contract-tests/framework"
	"github.com/nordcodes/session-contract-tests/framework/helpers"
	o "github.com/nordcodes/session-contract-tests/framework/opt"
	"github.com/nordcodes/session-contract-tests/servicedef"
)

// Request is a protocol request in which any part may be left out, for testing how the service
// handles malformed requests. An undefined APIKey means no header is sent at all, which is
// different from sending an empty header.
type Request struct {
	Path   string // defaults to the client's endpoint path
	APIKey o.Maybe[string]
	Token  o.Maybe[string]
	Action o.Maybe[string]
}

// Result is the decoded body of a protocol response.
type Result struct {
	Result  servicedef.Result
	Message o.Maybe[string]
}

// IsOK returns true if the result is OK.
func (r Result) IsOK() bool { return r.Result == servicedef.ResultOK }

func (r Result) String() string {
	if r.Message.IsDefined() {
		return fmt.Sprintf("%s (%q)", r.Result, r.Message.Value())
	}
	return string(r.Result)
}

// Response is everything the client observed about one exchange.
type Response struct {
	Result     Result
	StatusCode int
	Body       []byte
	RequestID  string
}

// Client sends protocol requests. It keeps no state between requests.
type Client struct {
	baseURL    string
	path       string
	apiKey     string
	httpClient *http.Client
	logger     framework.Logger
}

// Option is a configuration option for New.
type Option = helpers.ConfigOptionFunc[Client]

// WithHTTPClient sets the HTTP client; the default is http.DefaultClient.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = httpClient
		return nil
	}
}

// WithEndpointPath changes the path that Submit sends to.
func WithEndpointPath(path string) Option {
	return func(c *Client) error {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("endpoint path must start with a slash: %q", path)
		}
		c.path = path
		return nil
	}
}

// WithLogger sets a logger that receives a line for each request and response.
func WithLogger(logger framework.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// New creates a Client for the service at baseURL, which authenticates with apiKey.
func New(baseURL, apiKey string, options ...Option) (*Client, error) {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		path:       servicedef.DefaultEndpointPath,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		logger:     framework.NullLogger(),
	}
	if err := helpers.ApplyOptions(c, options...); err != nil {
		return nil, err
	}
	return c, nil
}

// Submit sends a well-formed request for the given token and action.
func (c *Client) Submit(ctx context.Context, token string, action servicedef.Action) (Response, error) {
	return c.SubmitTo(ctx, token, action, c.path)
}

// SubmitTo is like Submit but sends to a different path on the same service.
func (c *Client) SubmitTo(ctx context.Context, token string, action servicedef.Action, path string) (Response, error) {
	return c.Send(ctx, Request{
		Path:   path,
		APIKey: o.Some(c.apiKey),
		Token:  o.Some(token),
		Action: o.Some(string(action)),
	})
}

// Send sends a request exactly as described, without filling in anything except the path.
func (c *Client) Send(ctx context.Context, req Request) (Response, error) {
	form := url.Values{}
	if token, ok := req.Token.Get(); ok {
		form.Set(servicedef.FieldToken, token)
	}
	if action, ok := req.Action.Get(); ok {
		form.Set(servicedef.FieldAction, action)
	}
	path := req.Path
	if path == "" {
		path = c.path
	}
	encoded := form.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBufferString(encoded))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if key, ok := req.APIKey.Get(); ok {
		httpReq.Header.Set(servicedef.HeaderAPIKey, key)
	}

	c.logger.Printf("POST %s (%s: %s) %s", path, servicedef.HeaderAPIKey, req.APIKey, encoded)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("could not read response from %s: %w", path, err)
	}

	response := Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		RequestID:  resp.Header.Get(servicedef.HeaderRequestID),
	}
	c.logger.Printf("Response %d: %s", resp.StatusCode, string(body))

	result, err := ParseResult(body)
	if err != nil {
		return response, fmt.Errorf("unexpected response from %s (status %d): %w", path, resp.StatusCode, err)
	}
	response.Result = result
	return response, nil
}

// ParseResult decodes a protocol response body. Properties other than result and message are
// ignored. A body that is not a JSON object, or has no result property, is an error.
func ParseResult(data []byte) (Result, error) {
	var ret Result
	hasResult := false
	r := jreader.NewReader(data)
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case servicedef.PropResult:
			ret.Result = servicedef.Result(r.String())
			hasResult = true
		case servicedef.PropMessage:
			if s, nonNull := r.StringOrNull(); nonNull {
				ret.Message = o.Some(s)
			}
		default:
			_ = r.SkipValue()
		}
	}
	if err := r.Error(); err != nil {
		return Result{}, fmt.Errorf("malformed JSON: %w", err)
	}
	if !hasResult {
		return Result{}, fmt.Errorf("response has no %q property: %s", servicedef.PropResult, string(data))
	}
	return ret, nil
}
