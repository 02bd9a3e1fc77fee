package s2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/depgraph/internal/retry"
)

const (
	// BaseURL is the Semantic Scholar Academic Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is 1 request per second, the documented limit for
	// unauthenticated S2 API access.
	RateLimit = 1.0

	// RateLimitBackoff is how long to wait before the single retry
	// after a 429 response.
	RateLimitBackoff = 2 * time.Second

	// PaperFields are the fields requested for paper detail lookups.
	PaperFields = "paperId,externalIds,title,abstract,year,authors,venue,citationCount,referenceCount,openAccessPdf"

	// ReferenceFields are the fields requested for reference lookups.
	ReferenceFields = "paperId,externalIds,title,abstract,year,authors,contexts,intents"

	// ReferencesLimit caps how many references are fetched per paper.
	ReferencesLimit = 100
)

// Client is a rate-limited HTTP client for the S2 Academic Graph API.
// Rate-limited calls are retried exactly once after RateLimitBackoff.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	policy     retry.Policy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithRetryPolicy overrides the rate-limit retry policy (for testing).
func WithRetryPolicy(p retry.Policy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// NewClient creates a new S2 API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}
	c.policy = retry.Policy{
		MaxAttempts: 2,
		Backoff:     RateLimitBackoff,
		Retryable:   IsRateLimited,
	}

	// Check for API key in environment
	if key := os.Getenv("S2_API_KEY"); key != "" {
		c.apiKey = key
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == 404 {
		return fmt.Errorf("%w: status 404", ErrNotFound)
	}
	if resp.StatusCode == 429 {
		return fmt.Errorf("%w: status 429", ErrRateLimited)
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return nil
}

// get performs a GET request against the API and returns the body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// getWithRetry performs a GET, retrying once on a rate-limit response.
func (c *Client) getWithRetry(ctx context.Context, path string, query url.Values) ([]byte, error) {
	var body []byte
	err := c.policy.Do(ctx, func() error {
		var err error
		body, err = c.get(ctx, path, query)
		return err
	})
	return body, err
}

// GetPaper fetches paper details by identifier. The identifier is
// normalized before lookup (see NormalizePaperID). Returns ErrNotFound
// if the paper does not exist upstream.
func (c *Client) GetPaper(ctx context.Context, paperID string) (*Paper, error) {
	id := NormalizePaperID(paperID)

	query := url.Values{}
	query.Set("fields", PaperFields)

	body, err := c.getWithRetry(ctx, "/paper/"+url.PathEscape(id), query)
	if err != nil {
		return nil, err
	}

	var paper Paper
	if err := json.Unmarshal(body, &paper); err != nil {
		return nil, fmt.Errorf("%w: parsing paper: %v", ErrInvalidResponse, err)
	}
	if paper.PaperID == "" {
		return nil, ErrNotFound
	}

	return &paper, nil
}

// GetReferences fetches the reference list of a paper by its S2 paper id.
// The id should be the provider-native paperId from a previous GetPaper,
// not a user-supplied identifier.
func (c *Client) GetReferences(ctx context.Context, paperID string) ([]Reference, error) {
	query := url.Values{}
	query.Set("fields", ReferenceFields)
	query.Set("limit", fmt.Sprintf("%d", ReferencesLimit))

	body, err := c.getWithRetry(ctx, "/paper/"+url.PathEscape(paperID)+"/references", query)
	if err != nil {
		return nil, err
	}

	var resp referencesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing references: %v", ErrInvalidResponse, err)
	}

	return resp.Data, nil
}
