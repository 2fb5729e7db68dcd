package sessionservice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/nordcodes/session-contract-tests/servicedef"
)

// maxUpstreamBody limits how much of an upstream response body is read.
const maxUpstreamBody = 64 * 1024

// UpstreamError describes a failed upstream call.
type UpstreamError struct {
	Path       string
	StatusCode int    // zero if there was no response
	Result     string // value of the "result" property, if the response had one
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("upstream %s failed: %s", e.Path, e.Err)
	case e.Result != "":
		return fmt.Sprintf("upstream %s returned result %q", e.Path, e.Result)
	default:
		return fmt.Sprintf("upstream %s returned status %d", e.Path, e.StatusCode)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// UpstreamClient calls the /auth and /doAction dependencies.
type UpstreamClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewUpstreamClient creates an UpstreamClient. Each call is bounded by timeout, independently of
// any deadline on the context passed to it.
func NewUpstreamClient(baseURL string, timeout time.Duration) *UpstreamClient {
	return &UpstreamClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Auth asks the upstream whether the token may log in.
func (u *UpstreamClient) Auth(ctx context.Context, token string) error {
	return u.call(ctx, servicedef.UpstreamAuthPath, token)
}

// DoAction performs the action for a logged-in token.
func (u *UpstreamClient) DoAction(ctx context.Context, token string) error {
	return u.call(ctx, servicedef.UpstreamActionPath, token)
}

// call succeeds if the upstream answers with a 2xx status and, when the body is a JSON object
// with a "result" property, that property is "OK".
func (u *UpstreamClient) call(ctx context.Context, path, token string) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	form := url.Values{servicedef.FieldToken: {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return &UpstreamError{Path: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(servicedef.HeaderRequestID, id)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Path: path, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return &UpstreamError{Path: path, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Path: path, StatusCode: resp.StatusCode}
	}
	parsed := ldvalue.Parse(body)
	if parsed.Type() == ldvalue.ObjectType {
		result := parsed.GetByKey(servicedef.PropResult)
		if !result.IsNull() && result.StringValue() != string(servicedef.ResultOK) {
			shown := result.StringValue()
			if shown == "" {
				shown = result.JSONString()
			}
			return &UpstreamError{Path: path, StatusCode: resp.StatusCode, Result: shown}
		}
	}
	return nil
}
