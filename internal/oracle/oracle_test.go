package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedFunc func(ctx context.Context) (Quote, error)

func (f feedFunc) Latest(ctx context.Context) (Quote, error) { return f(ctx) }

func fixedConverter(q Quote, err error, maxAge time.Duration, now time.Time) *Converter {
	c := NewConverter(feedFunc(func(context.Context) (Quote, error) { return q, err }), maxAge)
	c.now = func() time.Time { return now }
	return c
}

func TestConvertAppliesRate(t *testing.T) {
	now := time.Now()
	// 2.5 reference units per native unit.
	c := fixedConverter(Quote{Rate: 250_000_000, UpdatedAt: now}, nil, time.Minute, now)

	got, err := c.Convert(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, int64(75), got)

	got, err = c.Convert(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestConvertFailsClosedOnFeedError(t *testing.T) {
	now := time.Now()
	c := fixedConverter(Quote{}, errors.New("connection refused"), time.Minute, now)

	_, err := c.Convert(context.Background(), 30)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestConvertFailsClosedOnStaleQuote(t *testing.T) {
	now := time.Now()
	c := fixedConverter(Quote{Rate: 100_000_000, UpdatedAt: now.Add(-time.Hour)}, nil, time.Minute, now)

	_, err := c.Convert(context.Background(), 30)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestConvertFailsClosedOnBadRate(t *testing.T) {
	now := time.Now()
	c := fixedConverter(Quote{Rate: 0, UpdatedAt: now}, nil, time.Minute, now)

	_, err := c.Convert(context.Background(), 30)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestConvertRejectsNegativeAmount(t *testing.T) {
	now := time.Now()
	c := fixedConverter(Quote{Rate: 100_000_000, UpdatedAt: now}, nil, time.Minute, now)

	_, err := c.Convert(context.Background(), -1)
	require.Error(t, err)
}

func TestHTTPFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rate":150000000,"updated_at":"2026-08-31T12:00:00Z"}`))
	}))
	defer srv.Close()

	quote, err := NewHTTPFeed(srv.URL).Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(150_000_000), quote.Rate)
	assert.Equal(t, 2026, quote.UpdatedAt.Year())
}

func TestHTTPFeedNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPFeed(srv.URL).Latest(context.Background())
	require.Error(t, err)
}
