// Package fetch performs the single outbound GET every extractor is built on.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rogerio-castellano/everytools-api/internal/metrics"
)

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamStatus      = errors.New("upstream returned an error status")
	ErrBodyTooLarge        = errors.New("upstream body too large")
)

const defaultMaxBodyBytes = 8 << 20

// Options configures a Client.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Transport    http.RoundTripper
	// RequestsPerSecond caps outbound requests per source. Zero disables it.
	RequestsPerSecond float64
	Burst             int
}

// Client wraps two http.Clients, one following redirects and one stopping at the
// first response.
type Client struct {
	follow     *http.Client
	noRedirect *http.Client
	userAgent  string
	maxBody    int64

	rps      rate.Limit
	burst    int
	mu       sync.Mutex
	throttle map[string]*rate.Limiter
}

func NewClient(opts Options) *Client {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Client{
		follow: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		noRedirect: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
		rps:       rate.Limit(opts.RequestsPerSecond),
		burst:     opts.Burst,
		throttle:  make(map[string]*rate.Limiter),
	}
}

func (c *Client) limiter(source string) *rate.Limiter {
	if c.rps <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.throttle[source]
	if !ok {
		lim = rate.NewLimiter(c.rps, c.burst)
		c.throttle[source] = lim
	}
	return lim
}

// Request describes one outbound fetch.
type Request struct {
	// Source labels the upstream in metrics, e.g. "mediafire".
	Source          string
	URL             string
	Headers         map[string]string
	FollowRedirects bool
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsRedirect reports whether the upstream answered with a 3xx.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// Get issues a GET and reads the body. Transport failures wrap
// ErrUpstreamUnavailable, statuses >= 400 wrap ErrUpstreamStatus. When a
// per-source rate is set, Get waits for its turn or fails once ctx is done.
func (c *Client) Get(ctx context.Context, req Request) (*Response, error) {
	if lim := c.limiter(req.Source); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: throttled: %w", ErrUpstreamUnavailable, err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	client := c.noRedirect
	if req.FollowRedirects {
		client = c.follow
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	metrics.UpstreamRequestDuration.WithLabelValues(req.Source).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: %s answered %d", ErrUpstreamStatus, req.Source, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrUpstreamUnavailable, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
