package fetch

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/twmarket/chips-cli/internal/model"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	BackoffBase  time.Duration
	RatePerHost  rate.Limit
	RateLimiters map[string]*rate.Limiter
}

// HTTPFetcher implements Fetcher using net/http with retry and per-host
// rate limiting. The exchange hosts throttle aggressively, so unknown
// hosts also get a limiter, created on first use.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// DefaultRateLimiters returns the default per-host rate limiters for the
// exchange hosts.
func DefaultRateLimiters() map[string]*rate.Limiter {
	return map[string]*rate.Limiter{
		"www.twse.com.tw":   rate.NewLimiter(2, 2),
		"www.taifex.com.tw": rate.NewLimiter(2, 2),
		"mis.taifex.com.tw": rate.NewLimiter(5, 5),
	}
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.BackoffBase == 0 {
		opts.BackoffBase = time.Second
	}
	if opts.RatePerHost == 0 {
		opts.RatePerHost = 2
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "chips-cli/1.0"
	}
	limiters := DefaultRateLimiters()
	for k, v := range opts.RateLimiters {
		limiters[k] = v
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: limiters,
	}
}

// Fetch builds the request from the endpoint template, substitutes the
// trading date, and returns the decoded payload.
func (f *HTTPFetcher) Fetch(ctx context.Context, ep model.Endpoint, date time.Time) (*model.RawDocument, error) {
	req, err := f.buildRequest(ctx, ep, date)
	if err != nil {
		return nil, err
	}

	resp, err := f.doWithRetry(ctx, req, ep.Name)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Endpoint: ep.Name, Kind: KindHTTPStatus, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Endpoint: ep.Name, Kind: KindUnreachable, Err: err}
	}

	if ep.Encoding == "big5" {
		decoded, _, err := transform.Bytes(traditionalchinese.Big5.NewDecoder(), body)
		if err != nil {
			return nil, &Error{Endpoint: ep.Name, Kind: KindDecode, Err: err}
		}
		body = decoded
	}

	zap.L().Debug("fetched endpoint",
		zap.String("endpoint", ep.Name),
		zap.Int("bytes", len(body)),
	)

	return &model.RawDocument{
		Endpoint:  ep.Name,
		Shape:     ep.Shape,
		Body:      body,
		FetchedAt: time.Now(),
	}, nil
}

func (f *HTTPFetcher) buildRequest(ctx context.Context, ep model.Endpoint, date time.Time) (*http.Request, error) {
	dateStr := ""
	if ep.DateFormat != "" {
		dateStr = date.Format(ep.DateFormat)
	}
	sub := func(s string) string {
		return strings.ReplaceAll(s, "{date}", dateStr)
	}

	rawURL := sub(ep.URL)
	params := url.Values{}
	for k, v := range ep.Params {
		params.Set(k, sub(v))
	}

	method := strings.ToUpper(ep.Method)
	var req *http.Request
	var err error
	switch method {
	case http.MethodPost:
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	default:
		if len(params) > 0 {
			rawURL = rawURL + "?" + params.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	}
	if err != nil {
		return nil, &Error{Endpoint: ep.Name, Kind: KindUnreachable, Err: eris.Wrap(err, "build request")}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	return req, nil
}

func (f *HTTPFetcher) limiterFor(u *url.URL) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lim, ok := f.limiters[u.Host]; ok {
		return lim
	}
	lim := rate.NewLimiter(f.opts.RatePerHost, int(math.Ceil(float64(f.opts.RatePerHost))))
	f.limiters[u.Host] = lim
	return lim
}

func (f *HTTPFetcher) doWithRetry(ctx context.Context, req *http.Request, endpoint string) (*http.Response, error) {
	lim := f.limiterFor(req.URL)

	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, &Error{Endpoint: endpoint, Kind: KindUnreachable, Err: err}
		}
		body = b
	}

	var lastErr *Error
	for attempt := range f.opts.MaxRetries {
		if err := lim.Wait(ctx); err != nil {
			return nil, &Error{Endpoint: endpoint, Kind: KindTimeout, Err: eris.Wrap(err, "rate limiter wait")}
		}

		cloned := req.Clone(ctx)
		if body != nil {
			cloned.Body = io.NopCloser(strings.NewReader(string(body)))
		}
		resp, err := f.client.Do(cloned)
		if err != nil {
			kind := KindUnreachable
			if ctx.Err() != nil || isTimeout(err) {
				kind = KindTimeout
			}
			lastErr = &Error{Endpoint: endpoint, Kind: kind, Err: err}
			zap.L().Warn("http request failed, retrying",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			if kind == KindTimeout && ctx.Err() != nil {
				return nil, lastErr
			}
			f.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = &Error{Endpoint: endpoint, Kind: KindHTTPStatus, Status: resp.StatusCode}
			zap.L().Warn("server error, retrying",
				zap.String("endpoint", endpoint),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			f.backoff(ctx, attempt)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (f *HTTPFetcher) backoff(ctx context.Context, attempt int) {
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(f.opts.BackoffBase) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2 + 1))
	d = d + jitter

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
