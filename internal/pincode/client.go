// Package pincode resolves Indian postal codes to a city and state using the
// public postalpincode.in API. Successful lookups are cached in Redis.
package pincode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// ErrInvalid is returned for codes shorter than six characters.
	ErrInvalid = errors.New("Enter a valid 6 digit pincode.")
	// ErrNoLocation is returned when the API knows no post office for a code.
	ErrNoLocation = errors.New("No location found for this pincode.")
)

// Location is the city and state a pincode belongs to.
type Location struct {
	Pincode string `json:"pincode"`
	City    string `json:"city"`
	State   string `json:"state"`
}

type postOffice struct {
	District string `json:"District"`
	State    string `json:"State"`
}

type apiResult struct {
	Message    string       `json:"Message"`
	Status     string       `json:"Status"`
	PostOffice []postOffice `json:"PostOffice"`
}

// Client calls the pincode API.
type Client struct {
	httpClient *resty.Client
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewClient builds a client against baseURL. rdb may be nil, in which case
// nothing is cached. There are no retries: the lookup is advisory and the
// form can be filled in by hand.
func NewClient(baseURL string, timeout time.Duration, rdb *redis.Client, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{httpClient: httpClient, cache: rdb, cacheTTL: 24 * time.Hour, logger: logger}
}

func cacheKey(code string) string { return "pincode:" + code }

// Lookup returns the district and state of the first post office for code.
func (c *Client) Lookup(ctx context.Context, code string) (Location, error) {
	code = strings.TrimSpace(code)
	if len(code) < 6 {
		return Location{}, ErrInvalid
	}

	if c.cache != nil {
		if bs, err := c.cache.Get(ctx, cacheKey(code)).Bytes(); err == nil {
			var loc Location
			if json.Unmarshal(bs, &loc) == nil {
				return loc, nil
			}
		}
	}

	var results []apiResult
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("code", code).
		SetResult(&results).
		Get("/pincode/{code}")
	if err != nil {
		c.logger.Warn("pincode lookup failed", zap.String("pincode", code), zap.Error(err))
		return Location{}, err
	}
	if resp.IsError() {
		return Location{}, fmt.Errorf("pincode lookup returned %s", resp.Status())
	}
	if len(results) == 0 || len(results[0].PostOffice) == 0 {
		return Location{}, ErrNoLocation
	}

	po := results[0].PostOffice[0]
	loc := Location{Pincode: code, City: po.District, State: po.State}
	if c.cache != nil {
		if bs, err := json.Marshal(loc); err == nil {
			if err := c.cache.Set(ctx, cacheKey(code), bs, c.cacheTTL).Err(); err != nil {
				c.logger.Debug("pincode cache write failed", zap.Error(err))
			}
		}
	}
	return loc, nil
}
