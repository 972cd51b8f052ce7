// Package oracle converts native marketplace amounts into a reference
// currency using an external exchange-rate feed. Conversion fails closed:
// if the feed is unreachable, stale, or returns a nonsense rate, callers
// get an error instead of a guess.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnavailable is returned when no trustworthy rate can be obtained.
var ErrUnavailable = errors.New("exchange rate unavailable")

// rateScale is the fixed-point scale of Quote.Rate: reference minor units
// per native unit, times 1e8.
const rateScale = 100_000_000

// Quote is a single exchange-rate observation.
type Quote struct {
	Rate      int64     `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Feed supplies the latest exchange-rate quote.
type Feed interface {
	Latest(ctx context.Context) (Quote, error)
}

// Converter applies a freshness-checked feed quote to native amounts.
type Converter struct {
	feed   Feed
	maxAge time.Duration
	now    func() time.Time
}

func NewConverter(feed Feed, maxAge time.Duration) *Converter {
	return &Converter{feed: feed, maxAge: maxAge, now: time.Now}
}

// Convert returns the reference-currency value of a native amount.
func (c *Converter) Convert(ctx context.Context, native int64) (int64, error) {
	if native < 0 {
		return 0, fmt.Errorf("negative amount %d", native)
	}
	quote, err := c.Latest(ctx)
	if err != nil {
		return 0, err
	}
	return native * quote.Rate / rateScale, nil
}

// Latest returns the current quote after freshness and sanity checks.
func (c *Converter) Latest(ctx context.Context) (Quote, error) {
	quote, err := c.feed.Latest(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if quote.Rate <= 0 {
		return Quote{}, fmt.Errorf("%w: non-positive rate %d", ErrUnavailable, quote.Rate)
	}
	if c.maxAge > 0 && c.now().Sub(quote.UpdatedAt) > c.maxAge {
		return Quote{}, fmt.Errorf("%w: quote from %s is stale", ErrUnavailable, quote.UpdatedAt.Format(time.RFC3339))
	}
	return quote, nil
}

// HTTPFeed fetches quotes from a JSON endpoint.
type HTTPFeed struct {
	url    string
	client *http.Client
}

func NewHTTPFeed(url string) *HTTPFeed {
	return &HTTPFeed{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (f *HTTPFeed) Latest(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Quote{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("feed returned %d", resp.StatusCode)
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return Quote{}, fmt.Errorf("decode feed response: %w", err)
	}
	return quote, nil
}

// StaticFeed always returns the same quote, stamped at call time. It backs
// local development when no real feed is configured.
type StaticFeed struct {
	Rate int64
}

func (f StaticFeed) Latest(context.Context) (Quote, error) {
	return Quote{Rate: f.Rate, UpdatedAt: time.Now()}, nil
}
