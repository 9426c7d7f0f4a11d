package binance

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/your-org/fib-swing-bot/internal/market"
	"github.com/your-org/fib-swing-bot/pkg/logger"
)

// DefaultStreamURL is the public websocket market data endpoint.
const DefaultStreamURL = "wss://stream.binance.com:9443/ws"

const (
	readTimeout    = 90 * time.Second
	maxBackoff     = 30 * time.Second
	initialBackoff = time.Second
)

// tradeEvent is the @trade stream payload. Only the fields we read.
type tradeEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
}

// LivePriceFeed maintains the latest traded price for a single pair from
// the Binance trade stream. Run keeps the connection alive with
// exponential backoff; FetchPrice serves readers concurrently.
type LivePriceFeed struct {
	streamURL string
	pair      string

	mu    sync.RWMutex
	price float64
	seen  bool
}

// NewLivePriceFeed creates a feed for the pair. An empty stream URL
// selects the public endpoint.
func NewLivePriceFeed(streamURL, pair string) *LivePriceFeed {
	if streamURL == "" {
		streamURL = DefaultStreamURL
	}
	return &LivePriceFeed{streamURL: streamURL, pair: pair}
}

// Pair returns the pair this feed subscribes to.
func (f *LivePriceFeed) Pair() string {
	return f.pair
}

// FetchPrice returns the most recent streamed price. Returns
// market.ErrPriceUnavailable before the first trade arrives.
func (f *LivePriceFeed) FetchPrice(_ context.Context, _ string) (float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.seen {
		return 0, market.ErrPriceUnavailable
	}
	return f.price, nil
}

// Run connects to the trade stream and keeps it alive until the context
// is cancelled. Connection loss triggers a reconnect with exponential
// backoff, reset after a healthy session.
func (f *LivePriceFeed) Run(ctx context.Context) {
	streamURL := f.streamURL + "/" + strings.ToLower(f.pair) + "@trade"
	backoff := initialBackoff

	for {
		if ctx.Err() != nil {
			return
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
		if err != nil {
			logger.Warnf("Trade stream dial failed: %v. Retrying in %v", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}
		logger.Infof("Connected to trade stream for %s", f.pair)
		backoff = initialBackoff

		f.readLoop(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Warnf("Trade stream for %s disconnected, reconnecting", f.pair)
	}
}

func (f *LivePriceFeed) readLoop(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	// Unblock ReadMessage when the context is cancelled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logger.Debugf("Trade stream read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		var event tradeEvent
		if err := json.Unmarshal(message, &event); err != nil {
			logger.Debugf("Skipping unparsable stream message: %v", err)
			continue
		}
		if event.EventType != "trade" {
			continue
		}
		price, err := strconv.ParseFloat(event.Price, 64)
		if err != nil {
			logger.Debugf("Skipping trade with unparsable price %q", event.Price)
			continue
		}
		f.update(price)
	}
}

func (f *LivePriceFeed) update(price float64) {
	f.mu.Lock()
	f.price = price
	f.seen = true
	f.mu.Unlock()
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// PriceSource routes price lookups: the live feed serves its own pair
// once it has seen a trade, everything else falls back to the REST ticker.
type PriceSource struct {
	feed *LivePriceFeed
	rest *Client
}

// NewPriceSource combines a live feed with a REST fallback. The feed may
// be nil, in which case all lookups go to REST.
func NewPriceSource(feed *LivePriceFeed, rest *Client) *PriceSource {
	return &PriceSource{feed: feed, rest: rest}
}

// FetchPrice implements the engine's price lookup.
func (p *PriceSource) FetchPrice(ctx context.Context, pair string) (float64, error) {
	if p.feed != nil && pair == p.feed.Pair() {
		price, err := p.feed.FetchPrice(ctx, pair)
		if err == nil {
			return price, nil
		}
	}
	return p.rest.FetchPrice(ctx, pair)
}
