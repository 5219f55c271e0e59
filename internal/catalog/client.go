package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/reelpick/internal/domain"
	"github.com/Clark-Hu/reelpick/internal/metrics"
)

// ErrNotFound is returned when the catalog has no record for the requested title.
var ErrNotFound = errors.New("catalog: not found")

// ErrMissingCredential is returned when no API key is configured. No request is issued.
var ErrMissingCredential = errors.New("catalog: api key not configured")

// DefaultRegion is the watch region used for discovery and availability.
const DefaultRegion = "US"

// DiscoverParams selects one page of a provider's catalog for a genre.
type DiscoverParams struct {
	ProviderID int
	GenreID    int
	Page       int
}

// Client defines the contract for querying the upstream catalog API.
type Client interface {
	// Discover returns up to MaxDiscoverResults movies with a poster, most popular first.
	Discover(ctx context.Context, params DiscoverParams) ([]domain.Movie, error)
	// Search returns the first page of title matches in catalog relevance order.
	Search(ctx context.Context, query string) ([]Title, error)
	// Details returns a single title including its runtime.
	Details(ctx context.Context, id int) (*Details, error)
	// FlatrateProviders returns subscription provider ids for a title in the client's region.
	FlatrateProviders(ctx context.Context, id int) ([]int, error)
}

// HTTPClient implements Client over HTTP against a TMDB-compatible API.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	region  string
	client  *http.Client
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// Options tunes an HTTPClient beyond its required endpoint.
type Options struct {
	APIKey  string
	Region  string
	Timeout time.Duration
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
}

// NewHTTPClient constructs a new HTTP-backed catalog client. An empty API key is
// accepted; every call then fails with ErrMissingCredential.
func NewHTTPClient(baseURL string, opts Options) (*HTTPClient, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.Region == "" {
		opts.Region = DefaultRegion
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse catalog url: %q is not absolute", baseURL)
	}
	timeout := opts.Timeout
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  opts.APIKey,
		region:  opts.Region,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost:   16,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger:  logger.WithField("component", "catalog"),
		metrics: opts.Metrics,
	}, nil
}

// Configured reports whether an API key is present.
func (c *HTTPClient) Configured() bool {
	return c.apiKey != ""
}

// Discover retrieves one page of a provider's catalog filtered by genre.
func (c *HTTPClient) Discover(ctx context.Context, params DiscoverParams) ([]domain.Movie, error) {
	q := url.Values{}
	q.Set("watch_region", c.region)
	q.Set("with_watch_providers", strconv.Itoa(params.ProviderID))
	q.Set("with_genres", strconv.Itoa(params.GenreID))
	q.Set("sort_by", "popularity.desc")
	q.Set("page", strconv.Itoa(params.Page))

	var payload pagedResponse
	if err := c.get(ctx, "discover", "/discover/movie", q, &payload); err != nil {
		return nil, err
	}
	return convertDiscover(payload), nil
}

// Search retrieves the first page of title matches for query.
func (c *HTTPClient) Search(ctx context.Context, query string) ([]Title, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", "1")

	var payload pagedResponse
	if err := c.get(ctx, "search", "/search/movie", q, &payload); err != nil {
		return nil, err
	}
	if payload.Results == nil {
		return []Title{}, nil
	}
	return payload.Results, nil
}

// Details retrieves a single title, including runtime when the catalog knows it.
func (c *HTTPClient) Details(ctx context.Context, id int) (*Details, error) {
	var payload detailsResponse
	if err := c.get(ctx, "details", "/movie/"+strconv.Itoa(id), nil, &payload); err != nil {
		return nil, err
	}
	return convertDetails(payload), nil
}

// FlatrateProviders retrieves the subscription providers streaming a title in the client's region.
func (c *HTTPClient) FlatrateProviders(ctx context.Context, id int) ([]int, error) {
	var payload watchProvidersResponse
	if err := c.get(ctx, "watch_providers", "/movie/"+strconv.Itoa(id)+"/watch/providers", nil, &payload); err != nil {
		return nil, err
	}
	return flatrateIDs(payload, c.region), nil
}

func (c *HTTPClient) get(ctx context.Context, endpointName, rel string, q url.Values, dst interface{}) error {
	if c.apiKey == "" {
		return ErrMissingCredential
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", c.apiKey)

	endpoint := *c.baseURL
	endpoint.Path = path.Join(c.baseURL.Path, rel)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(endpointName, "error", time.Since(start))
		return fmt.Errorf("catalog %s: %w", endpointName, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			c.metrics.ObserveUpstream(endpointName, "error", time.Since(start))
			return fmt.Errorf("decode catalog %s response: %w", endpointName, err)
		}
		c.metrics.ObserveUpstream(endpointName, "ok", time.Since(start))
		return nil
	case http.StatusNotFound:
		c.metrics.ObserveUpstream(endpointName, "not_found", time.Since(start))
		return ErrNotFound
	default:
		c.metrics.ObserveUpstream(endpointName, "error", time.Since(start))
		c.logger.WithFields(logrus.Fields{
			"endpoint": endpointName,
			"status":   resp.StatusCode,
		}).Warn("unexpected catalog status")
		return fmt.Errorf("catalog: upstream returned %d", resp.StatusCode)
	}
}
