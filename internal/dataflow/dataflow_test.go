package dataflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorum/internal/config"
)

func testClient(srv *httptest.Server) *Client {
	return NewClient(config.ProvidersConfig{
		CoinGeckoBaseURL:   srv.URL,
		CryptoPanicBaseURL: srv.URL,
		CryptoPanicAPIKey:  "token",
		RedditBaseURL:      srv.URL,
		FearGreedURL:       srv.URL + "/fng/",
		HTTPTimeout:        5 * time.Second,
	})
}

func TestFetchFundamentals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		w.Write([]byte(`[{"name":"Bitcoin","market_cap":1200000000000,"market_cap_rank":1,
			"total_volume":35000000000,"price_change_percentage_24h":1.5,
			"price_change_percentage_7d_in_currency":-2.1,"circulating_supply":19700000,
			"ath":109000,"ath_change_percentage":-8.2}]`))
	}))
	defer srv.Close()

	f, err := testClient(srv).FetchFundamentals(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", f.Name)
	assert.Equal(t, int64(1), f.MarketCapRank)
	assert.Equal(t, 1.5, f.Change24hPct)
	assert.Equal(t, -2.1, f.Change7dPct)
}

func TestFetchFundamentalsEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := testClient(srv).FetchFundamentals(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestFetchNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTC", r.URL.Query().Get("currencies"))
		w.Write([]byte(`{"results":[
			{"title":"ETF 资金净流入创新高","source":{"title":"CoinDesk"},
			 "published_at":"2025-06-01T10:00:00Z","url":"https://example.com/a"},
			{"title":"矿工持仓变化","source":{"title":"The Block"},
			 "published_at":"2025-06-01T09:00:00Z","url":"https://example.com/b"}]}`))
	}))
	defer srv.Close()

	items, err := testClient(srv).FetchNews(context.Background(), "btc")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ETF 资金净流入创新高", items[0].Title)
	assert.Equal(t, "CoinDesk", items[0].Source)
	assert.Equal(t, 2025, items[0].PublishedAt.Year())
}

func TestFetchNewsWithoutKeyReturnsEmpty(t *testing.T) {
	c := NewClient(config.ProvidersConfig{HTTPTimeout: time.Second})
	items, err := c.FetchNews(context.Background(), "BTC")
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchSocial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/r/Bitcoin/about.json":
			w.Write([]byte(`{"data":{"subscribers":6000000,"active_user_count":12000}}`))
		case "/fng/":
			w.Write([]byte(`{"data":[{"value":"72","value_classification":"Greed"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	pulse, err := testClient(srv).FetchSocial(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", pulse.Subreddit)
	assert.Equal(t, int64(6000000), pulse.Subscribers)
	assert.Equal(t, int64(72), pulse.FearGreedValue)
	assert.Equal(t, "Greed", pulse.FearGreedLabel)
}

func TestFetchSocialPartialDegrade(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fng/" {
			w.Write([]byte(`{"data":[{"value":"30","value_classification":"Fear"}]}`))
			return
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	pulse, err := testClient(srv).FetchSocial(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Zero(t, pulse.Subscribers)
	assert.Equal(t, int64(30), pulse.FearGreedValue)
}
