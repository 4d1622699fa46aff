package lighter

// market.go: market data spot del endpoint orderBookDetails.
//
// Implementa ports.SpotMarket. Una respuesta del venue trae todo lo que el
// core pide por subyacente (último precio, precisión de tamaño/precio), así
// que las respuestas se cachean con un TTL corto y los tres accessors la
// comparten.

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const orderBookDetailsPath = "/orderBookDetails"

// ErrUnsupportedSymbol se devuelve para subyacentes sin market id del venue
// configurado.
var ErrUnsupportedSymbol = errors.New("unsupported symbol")

type orderBookDetailsResponse struct {
	Code             int                `json:"code"`
	OrderBookDetails []orderBookDetails `json:"order_book_details"`
}

type orderBookDetails struct {
	Symbol         string `json:"symbol"`
	MarketID       int    `json:"market_id"`
	Status         string `json:"status"`
	LastTradePrice string `json:"last_trade_price"`
	SizeDecimals   int    `json:"size_decimals"`
	PriceDecimals  int    `json:"price_decimals"`
	MinBaseAmount  string `json:"min_base_amount"`
	TakerFee       string `json:"taker_fee"`
}

// marketDetails es la vista parseada y cacheable de un mercado.
type marketDetails struct {
	LastTradePrice float64
	SizeDecimals   int
	PriceDecimals  int
}

type marketCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[int]cacheEntry
}

type cacheEntry struct {
	details marketDetails
	at      time.Time
}

func newMarketCache(ttl time.Duration) *marketCache {
	return &marketCache{ttl: ttl, entries: make(map[int]cacheEntry)}
}

func (mc *marketCache) get(marketID int) (marketDetails, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	e, ok := mc.entries[marketID]
	if !ok || time.Since(e.at) > mc.ttl {
		return marketDetails{}, false
	}
	return e.details, true
}

func (mc *marketCache) put(marketID int, d marketDetails) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.entries[marketID] = cacheEntry{details: d, at: time.Now()}
}

// LastPrice devuelve el último precio operado del subyacente.
func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	d, err := c.marketDetails(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("lighter.LastPrice: %w", err)
	}
	return d.LastTradePrice, nil
}

// SizeDecimals devuelve la precisión de tamaño de orden del venue.
func (c *Client) SizeDecimals(ctx context.Context, symbol string) (int, error) {
	d, err := c.marketDetails(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("lighter.SizeDecimals: %w", err)
	}
	return d.SizeDecimals, nil
}

// PriceDecimals devuelve la precisión de precio del venue.
func (c *Client) PriceDecimals(ctx context.Context, symbol string) (int, error) {
	d, err := c.marketDetails(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("lighter.PriceDecimals: %w", err)
	}
	return d.PriceDecimals, nil
}

func (c *Client) marketDetails(ctx context.Context, symbol string) (marketDetails, error) {
	marketID, err := c.marketID(symbol)
	if err != nil {
		return marketDetails{}, err
	}

	if d, ok := c.cache.get(marketID); ok {
		return d, nil
	}

	url := fmt.Sprintf("%s%s?market_id=%d", c.cfg.BaseURL, orderBookDetailsPath, marketID)
	var resp orderBookDetailsResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return marketDetails{}, fmt.Errorf("fetch market %d: %w", marketID, err)
	}
	if resp.Code != 200 || len(resp.OrderBookDetails) == 0 {
		return marketDetails{}, fmt.Errorf("market %d: venue code %d, %d entries",
			marketID, resp.Code, len(resp.OrderBookDetails))
	}

	raw := resp.OrderBookDetails[0]
	price, err := strconv.ParseFloat(raw.LastTradePrice, 64)
	if err != nil {
		return marketDetails{}, fmt.Errorf("market %d: parse last_trade_price %q: %w",
			marketID, raw.LastTradePrice, err)
	}

	d := marketDetails{
		LastTradePrice: price,
		SizeDecimals:   raw.SizeDecimals,
		PriceDecimals:  raw.PriceDecimals,
	}
	c.cache.put(marketID, d)
	return d, nil
}

func (c *Client) marketID(symbol string) (int, error) {
	id, ok := c.cfg.Markets[strings.ToUpper(symbol)]
	if !ok {
		return 0, fmt.Errorf("%q: %w", symbol, ErrUnsupportedSymbol)
	}
	return id, nil
}
