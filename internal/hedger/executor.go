package hedger

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/welann/optionhedge/internal/domain"
	"github.com/welann/optionhedge/internal/ports"
)

// Executor convierte un requisito de hedge aprobado en exactamente una orden
// de mercado y persiste el resultado. Es el único componente que muta estado
// de cuenta externo.
type Executor struct {
	market       ports.SpotMarket
	placer       ports.OrderPlacer
	log          ports.OrderLog
	venue        string
	tolerancePct float64
}

// NewExecutor crea un Executor. tolerancePct es la banda de peor precio
// alrededor del spot de referencia, en porcentaje: las compras toleran un
// techo de spot×(1+t/100) y las ventas un piso de spot×(1−t/100), acotando
// el slippage de una orden de mercado.
func NewExecutor(market ports.SpotMarket, placer ports.OrderPlacer, log ports.OrderLog, venue string, tolerancePct float64) *Executor {
	return &Executor{
		market:       market,
		placer:       placer,
		log:          log,
		venue:        venue,
		tolerancePct: tolerancePct,
	}
}

// Execute envía una orden de mercado para el requisito. Devuelve nil cuando
// el requisito no necesita acción, la precisión de tamaño del venue no está
// disponible en este ciclo, o la cantidad redondea a cero (skip, no error).
// El rechazo del venue sí queda registrado como orden fallida. El registro se
// agrega al log de órdenes antes de retornar, así un envío comprometido nunca
// se pierde.
func (e *Executor) Execute(ctx context.Context, req domain.HedgeRequirement) (*domain.HedgeOrderRecord, error) {
	if req.Action == domain.ActionNone {
		return nil, nil
	}

	decimals, err := e.market.SizeDecimals(ctx, req.Underlying)
	if err != nil {
		// Dato no disponible: se saltea el subyacente este ciclo. No hubo
		// intento de envío, así que no hay nada que registrar como fallo.
		slog.Warn("hedge order skipped: size precision unavailable",
			"underlying", req.Underlying, "err", err)
		return nil, nil
	}

	qty := roundToDecimals(req.TradeAmount, decimals)
	if qty == 0 {
		slog.Info("hedge order skipped: amount rounds to zero",
			"underlying", req.Underlying, "amount", req.TradeAmount, "decimals", decimals)
		return nil, nil
	}

	// Último punto donde un cancel puede abortar limpio, sin orden en vuelo.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	isAsk := req.Action == domain.ActionSell
	var worstPrice float64
	if isAsk {
		worstPrice = req.SpotPrice * (1 - e.tolerancePct/100)
	} else {
		worstPrice = req.SpotPrice * (1 + e.tolerancePct/100)
	}

	slog.Info("submitting hedge order",
		"underlying", req.Underlying,
		"side", req.Action.String(),
		"qty", qty,
		"worst_price", worstPrice,
		"net_delta", req.CurrentDelta,
	)

	// Una vez comprometido el envío, un cancel del loop no debe abortar el
	// POST a mitad de vuelo: dejaría estado ambiguo en el venue. El timeout
	// del HTTP client acota la espera.
	submitCtx := context.WithoutCancel(ctx)
	txHash, err := e.placer.SubmitMarketOrder(submitCtx, req.Underlying, isAsk, qty, worstPrice)
	if err != nil {
		slog.Error("hedge order rejected", "underlying", req.Underlying, "err", err)
		return e.record(submitCtx, req, qty, "", err.Error()), nil
	}

	slog.Info("hedge order accepted", "underlying", req.Underlying, "tx_hash", txHash)
	return e.record(submitCtx, req, qty, txHash, ""), nil
}

// record arma el registro de la orden y lo agrega al log. Un fallo de
// escritura del log se loguea pero no enmascara el resultado del envío.
func (e *Executor) record(ctx context.Context, req domain.HedgeRequirement, qty float64, txHash, errMsg string) *domain.HedgeOrderRecord {
	rec := &domain.HedgeOrderRecord{
		Venue:      e.venue,
		Underlying: req.Underlying,
		Side:       req.Action,
		Quantity:   qty,
		Price:      req.SpotPrice,
		TxHash:     txHash,
		Err:        errMsg,
		PlacedAt:   time.Now().UTC(),
	}
	if err := e.log.AppendOrder(ctx, *rec); err != nil {
		slog.Error("failed to persist hedge order record",
			"underlying", rec.Underlying, "tx_hash", rec.TxHash, "err", err)
	}
	return rec
}

func roundToDecimals(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
