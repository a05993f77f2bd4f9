package idena

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

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the API answers 404 for an entity lookup.
// For identities this usually means the address never paid the validation
// fee or failed as a candidate.
var ErrNotFound = errors.New("idena: not found")

const defaultPageLimit = 100

// ClientConfig holds the configuration for the indexer API client
type ClientConfig struct {
	// BaseURL is the API root, e.g. https://api.idena.io
	BaseURL string

	// Timeout applies per request
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64

	// PageLimit is the page size for paginated endpoints
	PageLimit int
}

// Client queries the Idena indexer API with rate limiting and context
// support. All methods are safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	pageLimit  int
	logger     *zap.Logger
}

// NewClient creates an indexer API client
func NewClient(cfg *ClientConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("API base URL cannot be empty")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	pageLimit := cfg.PageLimit
	if pageLimit == 0 {
		pageLimit = defaultPageLimit
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		pageLimit:  pageLimit,
		logger:     logger,
	}, nil
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// get performs one throttled API call and returns the response envelope.
// A 404 status maps to ErrNotFound.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to build request for %s", path)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "request to %s failed", path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read response from %s", path)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to decode response from %s", path)
	}
	if env.Error != nil && env.Error.Message != "" {
		return nil, fmt.Errorf("API error from %s: %s", path, env.Error.Message)
	}

	return &env, nil
}

// getResult decodes the result payload of a single-shot endpoint into out
func (c *Client) getResult(ctx context.Context, path string, out interface{}) error {
	env, err := c.get(ctx, path, nil)
	if err != nil {
		return err
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return ErrNotFound
	}
	return json.Unmarshal(env.Result, out)
}

// LastEpoch returns the most recent epoch record
func (c *Client) LastEpoch(ctx context.Context) (*EpochInfo, error) {
	var info EpochInfo
	if err := c.getResult(ctx, "/api/Epoch/Last", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Epoch returns the record for a specific epoch
func (c *Client) Epoch(ctx context.Context, epoch int64) (*EpochInfo, error) {
	var info EpochInfo
	if err := c.getResult(ctx, fmt.Sprintf("/api/Epoch/%d", epoch), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// BlockFlags returns the flags of a block. Missing blocks and null flags
// are treated as empty, matching how the generator scans height ranges.
func (c *Client) BlockFlags(ctx context.Context, height int64) ([]string, error) {
	var block Block
	err := c.getResult(ctx, fmt.Sprintf("/api/Block/%d", height), &block)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return block.Flags, nil
}

// BlockTxs returns all transactions of a block, following pagination
func (c *Client) BlockTxs(ctx context.Context, height int64) ([]Transaction, error) {
	path := fmt.Sprintf("/api/Block/%d/Txs", height)

	var all []Transaction
	token := ""
	for {
		query := url.Values{"limit": {fmt.Sprintf("%d", c.pageLimit)}}
		if token != "" {
			query.Set("continuationToken", token)
		}

		env, err := c.get(ctx, path, query)
		if err != nil {
			return nil, err
		}

		var page []Transaction
		if len(env.Result) > 0 && string(env.Result) != "null" {
			if err := json.Unmarshal(env.Result, &page); err != nil {
				return nil, pkgerrors.Wrapf(err, "failed to decode txs of block %d", height)
			}
		}
		all = append(all, page...)

		if env.ContinuationToken == "" {
			return all, nil
		}
		token = env.ContinuationToken
	}
}

// BadAuthors returns the lowercased addresses flagged for bad flips in an
// epoch, following pagination
func (c *Client) BadAuthors(ctx context.Context, epoch int64) (map[string]struct{}, error) {
	path := fmt.Sprintf("/api/Epoch/%d/Authors/Bad", epoch)

	bad := make(map[string]struct{})
	token := ""
	for {
		query := url.Values{"limit": {fmt.Sprintf("%d", c.pageLimit)}}
		if token != "" {
			query.Set("continuationToken", token)
		}

		env, err := c.get(ctx, path, query)
		if err != nil {
			return nil, err
		}

		var page []BadAuthor
		if len(env.Result) > 0 && string(env.Result) != "null" {
			if err := json.Unmarshal(env.Result, &page); err != nil {
				return nil, pkgerrors.Wrapf(err, "failed to decode bad authors of epoch %d", epoch)
			}
		}
		for _, author := range page {
			if addr := author.Addr(); addr != "" {
				bad[strings.ToLower(addr)] = struct{}{}
			}
		}

		if env.ContinuationToken == "" {
			if c.logger != nil {
				c.logger.Sugar().Infow("Loaded bad authors", "epoch", epoch, "count", len(bad))
			}
			return bad, nil
		}
		token = env.ContinuationToken
	}
}

// ValidationSummary returns the validation outcome of one identity for one
// epoch. 404 maps to ErrNotFound.
func (c *Client) ValidationSummary(ctx context.Context, epoch int64, address string) (*ValidationSummary, error) {
	var summary ValidationSummary
	path := fmt.Sprintf("/api/Epoch/%d/Identity/%s/ValidationSummary", epoch, strings.ToLower(address))
	if err := c.getResult(ctx, path, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Identity returns the current chain state of an identity
func (c *Client) Identity(ctx context.Context, address string) (*Identity, error) {
	var identity Identity
	path := fmt.Sprintf("/api/Identity/%s", strings.ToLower(address))
	if err := c.getResult(ctx, path, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// IdentityRewards returns the session rewards of one identity for one
// epoch. The endpoint sometimes answers null; that decodes to empty.
func (c *Client) IdentityRewards(ctx context.Context, epoch int64, address string) ([]Reward, error) {
	path := fmt.Sprintf("/api/Epoch/%d/Identity/%s/Rewards", epoch, strings.ToLower(address))
	env, err := c.get(ctx, path, nil)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rewards []Reward
	if len(env.Result) > 0 && string(env.Result) != "null" {
		if err := json.Unmarshal(env.Result, &rewards); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to decode rewards for %s", address)
		}
	}
	return rewards, nil
}
