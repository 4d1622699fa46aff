package paradex

// markets.go: greeks de opciones del endpoint de markets summary de Paradex.
//
// Implementa ports.GreeksProvider. Paradex sirve los campos numéricos como
// strings; un contrato que el venue no lista, o uno sin delta publicado, es
// un error para que el caller distinga "contrato desconocido" de delta cero.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

const marketsSummaryPath = "/markets/summary"

// ErrDeltaUnavailable se devuelve cuando el venue lista el contrato pero no
// publica delta para él.
var ErrDeltaUnavailable = errors.New("delta unavailable")

type marketsSummaryResponse struct {
	Results []marketSummary `json:"results"`
}

type marketSummary struct {
	Symbol          string          `json:"symbol"`
	MarkPrice       string          `json:"mark_price"`
	LastTradedPrice string          `json:"last_traded_price"`
	UnderlyingPrice string          `json:"underlying_price"`
	Delta           string          `json:"delta"`
	Greeks          json.RawMessage `json:"greeks"`
	MarkIV          string          `json:"mark_iv"`
}

// OptionDelta devuelve el delta por unidad actual de un contrato de opción.
func (c *Client) OptionDelta(ctx context.Context, optionSymbol string) (float64, error) {
	symbol := strings.ToUpper(optionSymbol)
	u := fmt.Sprintf("%s%s?market=%s", c.baseURL, marketsSummaryPath, url.QueryEscape(symbol))

	var resp marketsSummaryResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return 0, fmt.Errorf("paradex.OptionDelta: fetch %q: %w", symbol, err)
	}

	for _, m := range resp.Results {
		if m.Symbol != symbol {
			continue
		}
		if m.Delta == "" {
			return 0, fmt.Errorf("paradex.OptionDelta: %q: %w", symbol, ErrDeltaUnavailable)
		}
		delta, err := strconv.ParseFloat(m.Delta, 64)
		if err != nil {
			return 0, fmt.Errorf("paradex.OptionDelta: parse delta %q for %q: %w", m.Delta, symbol, err)
		}
		return delta, nil
	}
	return 0, fmt.Errorf("paradex.OptionDelta: market %q not listed", symbol)
}

func decodeJSON(r io.Reader, out any) error {
	return json.NewDecoder(r).Decode(out)
}
