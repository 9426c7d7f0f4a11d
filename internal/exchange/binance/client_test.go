package binance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/fib-swing-bot/internal/exchange/binance"
	"github.com/your-org/fib-swing-bot/internal/market"
)

func TestFetchPrice(t *testing.T) {
	t.Run("parses ticker", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
			assert.Equal(t, "SOLBTC", r.URL.Query().Get("symbol"))
			w.Write([]byte(`{"symbol":"SOLBTC","price":"0.00123000"}`))
		}))
		defer srv.Close()

		price, err := binance.NewClient(srv.URL).FetchPrice(context.Background(), "SOLBTC")
		require.NoError(t, err)
		assert.Equal(t, 0.00123, price)
	})

	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := binance.NewClient(srv.URL).FetchPrice(context.Background(), "NOPE")
		assert.ErrorContains(t, err, "status 400")
	})

	t.Run("unparsable price", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"symbol":"SOLBTC","price":"not-a-number"}`))
		}))
		defer srv.Close()

		_, err := binance.NewClient(srv.URL).FetchPrice(context.Background(), "SOLBTC")
		assert.Error(t, err)
	})
}

func TestFetchCandles(t *testing.T) {
	t.Run("parses klines", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v3/klines", r.URL.Path)
			assert.Equal(t, "SOLBTC", r.URL.Query().Get("symbol"))
			assert.Equal(t, "1m", r.URL.Query().Get("interval"))
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			w.Write([]byte(`[
				[1717243200000,"0.00120000","0.00125000","0.00119000","0.00124000","1500.5",1717243259999,"1.86","100","750.2","0.93","0"],
				[1717243260000,"0.00124000","0.00126000","0.00123000","0.00125500","980.0",1717243319999,"1.23","80","490.0","0.61","0"]
			]`))
		}))
		defer srv.Close()

		candles, err := binance.NewClient(srv.URL).FetchCandles(context.Background(), "SOLBTC", "1m", 2)
		require.NoError(t, err)
		require.Len(t, candles, 2)

		want := market.Candle{
			OpenTime: 1717243200000,
			Open:     0.0012,
			High:     0.00125,
			Low:      0.00119,
			Close:    0.00124,
			Volume:   1500.5,
		}
		assert.Equal(t, want, candles[0])
		assert.Equal(t, 0.001255, candles[1].Close)
	})

	t.Run("malformed row", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[[1717243200000,"0.0012"]]`))
		}))
		defer srv.Close()

		_, err := binance.NewClient(srv.URL).FetchCandles(context.Background(), "SOLBTC", "1m", 1)
		assert.ErrorContains(t, err, "kline row 0")
	})

	t.Run("empty response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		candles, err := binance.NewClient(srv.URL).FetchCandles(context.Background(), "SOLBTC", "1m", 5)
		require.NoError(t, err)
		assert.Empty(t, candles)
	})
}

func TestPriceSource_Fallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"65000.00"}`))
	}))
	defer srv.Close()

	// Feed has seen nothing yet: even its own pair falls through to REST.
	feed := binance.NewLivePriceFeed("", "BTCUSDT")
	source := binance.NewPriceSource(feed, binance.NewClient(srv.URL))

	price, err := source.FetchPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 65000.0, price)
}

func TestLivePriceFeed_Unprimed(t *testing.T) {
	feed := binance.NewLivePriceFeed("", "SOLBTC")
	_, err := feed.FetchPrice(context.Background(), "SOLBTC")
	assert.ErrorIs(t, err, market.ErrPriceUnavailable)
}
