package lighter

// account.go: inventario spot del venue por índice de cuenta.
//
// Implementa ports.InventoryProvider. Un símbolo sin posición abierta en el
// venue es inventario cero, no un error.

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const accountPath = "/account"

type accountResponse struct {
	Code     int       `json:"code"`
	Accounts []account `json:"accounts"`
}

type account struct {
	AccountIndex int               `json:"account_index"`
	Positions    []accountPosition `json:"positions"`
}

type accountPosition struct {
	Symbol        string `json:"symbol"`
	Position      string `json:"position"` // con signo: positivo = long
	PositionValue string `json:"position_value"`
	AvgEntryPrice string `json:"avg_entry_price"`
	UnrealizedPnl string `json:"unrealized_pnl"`
}

// CurrentInventory devuelve la posición spot con signo mantenida para el
// subyacente.
func (c *Client) CurrentInventory(ctx context.Context, symbol string) (float64, error) {
	url := fmt.Sprintf("%s%s?by=index&value=%d", c.cfg.BaseURL, accountPath, c.cfg.AccountIndex)

	var resp accountResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return 0, fmt.Errorf("lighter.CurrentInventory: fetch account %d: %w", c.cfg.AccountIndex, err)
	}
	if resp.Code != 200 || len(resp.Accounts) == 0 {
		return 0, fmt.Errorf("lighter.CurrentInventory: account %d: venue code %d, %d accounts",
			c.cfg.AccountIndex, resp.Code, len(resp.Accounts))
	}

	want := strings.ToUpper(symbol)
	for _, pos := range resp.Accounts[0].Positions {
		if strings.ToUpper(pos.Symbol) != want {
			continue
		}
		size, err := strconv.ParseFloat(pos.Position, 64)
		if err != nil {
			return 0, fmt.Errorf("lighter.CurrentInventory: parse position %q for %q: %w",
				pos.Position, symbol, err)
		}
		return size, nil
	}
	return 0, nil
}
