package lighter

// trading.go: envío de órdenes de mercado.
//
// Implementa ports.OrderPlacer. El venue toma cantidades y precios escalados
// a entero (base_amount = qty × 10^size_decimals, el precio igual) y una
// firma HMAC-SHA256 sobre el payload canónico de la orden, con la API private
// key de la cuenta. Exactamente un envío por llamada, sin retry: registrar el
// rechazo es trabajo del caller, un fill duplicado no.

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sendTxPath = "/sendTx"

// ErrMissingCredentials se devuelve cuando se intenta enviar una orden sin
// una API private key configurada.
var ErrMissingCredentials = errors.New("missing API private key")

type orderRequest struct {
	MarketIndex   int    `json:"market_index"`
	AccountIndex  int    `json:"account_index"`
	APIKeyIndex   int    `json:"api_key_index"`
	ClientOrderID string `json:"client_order_id"`
	Type          string `json:"type"` // "market"
	IsAsk         bool   `json:"is_ask"`
	BaseAmount    int64  `json:"base_amount"`
	Price         int64  `json:"price"` // peor aceptable, escalado a entero
	Nonce         int64  `json:"nonce"`
	Signature     string `json:"signature"`
}

type orderResponse struct {
	Code    int    `json:"code"`
	TxHash  string `json:"tx_hash"`
	Message string `json:"message"`
}

// SubmitMarketOrder firma y transmite una orden de mercado y devuelve el
// hash de transacción asignado por el venue. worstPrice es la cota de
// slippage: techo para compras, piso para ventas.
func (c *Client) SubmitMarketOrder(ctx context.Context, symbol string, isAsk bool, qty, worstPrice float64) (string, error) {
	if c.cfg.APIKeyPrivateKey == "" {
		return "", fmt.Errorf("lighter.SubmitMarketOrder: %w", ErrMissingCredentials)
	}
	if qty <= 0 {
		return "", fmt.Errorf("lighter.SubmitMarketOrder: quantity must be positive, got %v", qty)
	}

	marketID, err := c.marketID(symbol)
	if err != nil {
		return "", fmt.Errorf("lighter.SubmitMarketOrder: %w", err)
	}
	details, err := c.marketDetails(ctx, symbol)
	if err != nil {
		return "", fmt.Errorf("lighter.SubmitMarketOrder: %w", err)
	}

	req := orderRequest{
		MarketIndex:   marketID,
		AccountIndex:  c.cfg.AccountIndex,
		APIKeyIndex:   c.cfg.APIKeyIndex,
		ClientOrderID: uuid.New().String(),
		Type:          "market",
		IsAsk:         isAsk,
		BaseAmount:    scaleToInt(qty, details.SizeDecimals),
		Price:         scaleToInt(worstPrice, details.PriceDecimals),
		Nonce:         time.Now().UnixNano(),
	}
	req.Signature = c.sign(req)

	var resp orderResponse
	url := c.cfg.BaseURL + sendTxPath
	if err := c.post(ctx, url, req, &resp); err != nil {
		return "", fmt.Errorf("lighter.SubmitMarketOrder: %s: %w", symbol, err)
	}
	if resp.Code != 200 || resp.TxHash == "" {
		return "", fmt.Errorf("lighter.SubmitMarketOrder: %s rejected: code %d, %s",
			symbol, resp.Code, resp.Message)
	}
	return resp.TxHash, nil
}

// sign computa un HMAC-SHA256 sobre los campos canónicos de la orden.
func (c *Client) sign(req orderRequest) string {
	side := "bid"
	if req.IsAsk {
		side = "ask"
	}
	msg := strings.Join([]string{
		fmt.Sprint(req.MarketIndex),
		fmt.Sprint(req.AccountIndex),
		fmt.Sprint(req.APIKeyIndex),
		req.ClientOrderID,
		side,
		fmt.Sprint(req.BaseAmount),
		fmt.Sprint(req.Price),
		fmt.Sprint(req.Nonce),
	}, ":")

	mac := hmac.New(sha256.New, []byte(c.cfg.APIKeyPrivateKey))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

// scaleToInt convierte una cantidad decimal a la representación entera del
// venue. Redondea al entero más cercano: el caller ya redondeó a la
// precisión soportada, y truncar dejaría pasar el error binario del float
// (0.29 × 100 = 28.999...).
func scaleToInt(v float64, decimals int) int64 {
	scale := 1.0
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	return int64(math.Round(v * scale))
}
