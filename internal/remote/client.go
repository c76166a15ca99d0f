package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vvka-141/sfmeta/internal/logging"
	"github.com/vvka-141/sfmeta/internal/retry"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// clientName is sent in CallOptions so the org can attribute API usage.
const clientName = "sfmeta"

// maxErrorBody bounds how much of an unexpected response is kept in errors.
const maxErrorBody = 512

// Client talks to the metadata SOAP API and the REST versions endpoint of a
// single org.
type Client struct {
	instanceURL string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	executor    *retry.Executor
	logger      sfmeta.Logger
	newID       func() string

	mu         sync.RWMutex
	apiVersion string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit bounds the request rate. A zero limit disables limiting.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		if r == 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithExecutor sets the retry executor wrapped around job submissions.
func WithExecutor(e *retry.Executor) Option {
	return func(c *Client) { c.executor = e }
}

// WithLogger sets the logger for request tracing.
func WithLogger(l sfmeta.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithAPIVersion sets the initial API version.
func WithAPIVersion(v string) Option {
	return func(c *Client) { c.apiVersion = v }
}

// WithRequestIDs sets the generator of per-call request ids.
func WithRequestIDs(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

// New creates a client for the org at instanceURL.
func New(instanceURL, accessToken string, opts ...Option) (*Client, error) {
	u, err := url.Parse(instanceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: instance URL %q must be an absolute URL", sfmeta.ErrInvalidConfig, instanceURL)
	}
	if accessToken == "" {
		return nil, fmt.Errorf("%w: access token is required (set %s)", sfmeta.ErrInvalidConfig, sfmeta.EnvAccessToken)
	}

	c := &Client{
		instanceURL: strings.TrimSuffix(instanceURL, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		limiter:     rate.NewLimiter(rate.Limit(10), 5),
		executor: retry.NewExecutor(
			retry.NewMetadataErrorClassifier(),
			retry.NewExponentialBackoff(sfmeta.DefaultRetryMaxAttempts),
		),
		logger:     logging.NewNullLogger(),
		newID:      uuid.NewString,
		apiVersion: sfmeta.DefaultAPIVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// APIVersion returns the version used for subsequent calls.
func (c *Client) APIVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiVersion
}

// SetAPIVersion changes the version used for subsequent calls.
func (c *Client) SetAPIVersion(v string) {
	c.mu.Lock()
	c.apiVersion = v
	c.mu.Unlock()
}

// Deploy submits zipFile with opts.
func (c *Client) Deploy(ctx context.Context, zipFile []byte, opts sfmeta.DeployOptions) (sfmeta.AsyncResult, error) {
	req := deployRequest{
		ZipFile:       base64.StdEncoding.EncodeToString(zipFile),
		DeployOptions: opts,
	}
	var res sfmeta.AsyncResult
	err := c.submit(ctx, func(ctx context.Context) error {
		var err error
		res, err = call[sfmeta.AsyncResult](ctx, c, "deploy", req)
		return err
	})
	return res, err
}

// CheckDeployStatus returns the state of deploy id.
func (c *Client) CheckDeployStatus(ctx context.Context, id string, includeDetails bool) (sfmeta.DeployStatus, error) {
	return call[sfmeta.DeployStatus](ctx, c, "checkDeployStatus", checkDeployStatusRequest{
		AsyncProcessID: id,
		IncludeDetails: includeDetails,
	})
}

// CancelDeploy requests cancellation of deploy id.
func (c *Client) CancelDeploy(ctx context.Context, id string) (sfmeta.AsyncResult, error) {
	var res sfmeta.AsyncResult
	err := c.submit(ctx, func(ctx context.Context) error {
		var err error
		res, err = call[sfmeta.AsyncResult](ctx, c, "cancelDeploy", cancelDeployRequest{ID: id})
		return err
	})
	return res, err
}

// Retrieve submits req.
func (c *Client) Retrieve(ctx context.Context, req sfmeta.RetrieveRequest) (sfmeta.AsyncResult, error) {
	var res sfmeta.AsyncResult
	err := c.submit(ctx, func(ctx context.Context) error {
		var err error
		res, err = call[sfmeta.AsyncResult](ctx, c, "retrieve", retrieveRequest{RetrieveRequest: req})
		return err
	})
	return res, err
}

// CheckRetrieveStatus returns the state of retrieve id. With includeZip the
// status of a finished job carries the base64 encoded payload.
func (c *Client) CheckRetrieveStatus(ctx context.Context, id string, includeZip bool) (sfmeta.RetrieveStatus, error) {
	return call[sfmeta.RetrieveStatus](ctx, c, "checkRetrieveStatus", checkRetrieveStatusRequest{
		AsyncProcessID: id,
		IncludeZip:     includeZip,
	})
}

// submit retries job submissions on transient failures. Status checks are
// not retried here; the transfer engine budgets those itself.
func (c *Client) submit(ctx context.Context, op func(ctx context.Context) error) error {
	if c.executor == nil {
		return op(ctx)
	}
	return c.executor.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		c.logger.Warn("Metadata API call failed (retry %d in %s): %v", attempt+1, delay, err)
	}).Execute(ctx, op)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// call performs one SOAP operation and decodes its result.
func call[T any](ctx context.Context, c *Client, operation string, body any) (T, error) {
	var zero T

	if err := c.wait(ctx); err != nil {
		return zero, err
	}

	requestID := c.newID()
	payload, err := xml.Marshal(newEnvelope(c.accessToken, clientName, body))
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s request: %w", operation, err)
	}
	payload = append([]byte(xml.Header), payload...)

	endpoint := fmt.Sprintf("%s/services/Soap/m/%s", c.instanceURL, c.APIVersion())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return zero, err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `""`)
	req.Header.Set("X-Request-Id", requestID)

	c.logger.Verbose("%s %s (request %s)", operation, endpoint, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, transportError(endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, transportError(endpoint, err)
	}

	var env responseEnvelope[T]
	if decodeErr := xml.Unmarshal(data, &env); decodeErr != nil {
		if resp.StatusCode != http.StatusOK {
			return zero, httpError(resp, data)
		}
		return zero, fmt.Errorf("%w: %s: %w", sfmeta.ErrMalformedResponse, operation, decodeErr)
	}
	if env.Body.Fault != nil {
		return zero, env.Body.Fault
	}
	if resp.StatusCode != http.StatusOK {
		return zero, httpError(resp, data)
	}
	return env.Body.Response.Result, nil
}

// HTTPError is a non-success response that carried no SOAP fault.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string

	// Wait is the server's Retry-After value, zero when absent.
	Wait time.Duration
}

// RetryAfter lets the retry executor honor the server's requested wait.
func (e *HTTPError) RetryAfter() time.Duration {
	return e.Wait
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ERROR_HTTP_%d: %s %s", e.StatusCode, e.Status, e.Body)
}

func httpError(resp *http.Response, body []byte) error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
		Wait:       parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}

// parseRetryAfter accepts both forms of the header: delay seconds or an
// HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func transportError(endpoint string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: request to %s failed: %w", sfmeta.ErrConnectionFailed, endpoint, err)
}

var _ sfmeta.RemoteMetadataService = (*Client)(nil)
