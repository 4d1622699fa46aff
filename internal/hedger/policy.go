package hedger

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/welann/optionhedge/internal/domain"
	"github.com/welann/optionhedge/internal/ports"
)

// Policy convierte exposición neta de delta en requisitos de hedge. Es una
// función pura de sus entradas (exposición, precio spot, inventario del
// venue) y es segura de llamar repetidamente para consultas analyze-only;
// nunca muta el store ni el mapa de exposición.
type Policy struct {
	market    ports.SpotMarket
	inventory ports.InventoryProvider
}

// NewPolicy crea una Policy respaldada por los providers de datos de mercado
// e inventario dados.
func NewPolicy(market ports.SpotMarket, inventory ports.InventoryProvider) *Policy {
	return &Policy{market: market, inventory: inventory}
}

// Evaluate computa un HedgeRequirement por subyacente, en orden alfabético de
// subyacente para que un ciclo procese los requisitos de forma determinista.
//
// Por subyacente: inventario target = −(delta neto); diff = target − held;
// la banda muerta es |target| × thresholdPct/100. Un target cero implica
// banda cero, así cualquier deriva desde un estado totalmente cubierto se
// marca. Los subyacentes sin precio spot, con precio no positivo, o cuyo
// inventario no se puede leer se saltean con un warning, nunca son fatales
// para el lote; skipped devuelve cuántos fueron.
func (p *Policy) Evaluate(ctx context.Context, exposure domain.DeltaExposure, thresholdPct float64) (reqs []domain.HedgeRequirement, skipped int) {
	underlyings := make([]string, 0, len(exposure))
	for u := range exposure {
		underlyings = append(underlyings, u)
	}
	sort.Strings(underlyings)

	reqs = make([]domain.HedgeRequirement, 0, len(underlyings))
	for _, underlying := range underlyings {
		netDelta := exposure[underlying]

		price, err := p.market.LastPrice(ctx, underlying)
		if err != nil {
			slog.Warn("underlying skipped: no spot price", "underlying", underlying, "err", err)
			skipped++
			continue
		}
		if price <= 0 {
			slog.Warn("underlying skipped: non-positive spot price",
				"underlying", underlying, "price", price)
			skipped++
			continue
		}

		held, err := p.inventory.CurrentInventory(ctx, underlying)
		if err != nil {
			slog.Warn("underlying skipped: inventory unavailable",
				"underlying", underlying, "err", err)
			skipped++
			continue
		}

		target := -netDelta
		diff := target - held
		thresholdAmount := math.Abs(target) * (thresholdPct / 100)
		met := math.Abs(diff) > thresholdAmount

		req := domain.HedgeRequirement{
			Underlying:      underlying,
			CurrentDelta:    netDelta,
			SpotPrice:       price,
			TargetPosition:  target,
			CurrentPosition: held,
			PositionDiff:    diff,
			ThresholdMet:    met,
			Action:          domain.ActionNone,
		}
		if met {
			req.TradeAmount = math.Abs(diff)
			if diff > 0 {
				req.Action = domain.ActionBuy
			} else {
				req.Action = domain.ActionSell
			}
		}
		reqs = append(reqs, req)
	}
	return reqs, skipped
}
