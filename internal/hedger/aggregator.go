package hedger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/welann/optionhedge/internal/domain"
	"github.com/welann/optionhedge/internal/ports"
)

// Aggregator pliega el libro de opciones en delta neto por subyacente.
// Lectura pura: nunca muta el store.
type Aggregator struct {
	store       ports.PositionStore
	underlyings map[string]struct{}
}

// NewAggregator crea un Aggregator que reconoce los subyacentes hedgeables
// dados. Las posiciones sobre cualquier otro subyacente se saltean, no son
// fatales.
func NewAggregator(store ports.PositionStore, underlyings []string) *Aggregator {
	set := make(map[string]struct{}, len(underlyings))
	for _, u := range underlyings {
		set[strings.ToUpper(u)] = struct{}{}
	}
	return &Aggregator{store: store, underlyings: set}
}

// Aggregate lee todas las posiciones activas y suma cantidad × delta por
// subyacente. Una posición cuyo subyacente no se puede resolver, o cuyo
// delta cacheado no está disponible, se excluye de la suma y se cuenta en
// skipped. Un subyacente con al menos una posición contribuyente conserva su
// entrada aunque la suma neta dé exactamente cero, así los callers observan
// "balanceado" explícitamente.
func (a *Aggregator) Aggregate(ctx context.Context) (domain.DeltaExposure, int, error) {
	positions, err := a.store.ListActive(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("hedger.Aggregate: list positions: %w", err)
	}

	exposure := make(domain.DeltaExposure)
	skipped := 0

	for _, pos := range positions {
		underlying, err := domain.UnderlyingOf(pos.Symbol)
		if err != nil {
			slog.Warn("position skipped: unresolvable underlying", "symbol", pos.Symbol)
			skipped++
			continue
		}
		if _, ok := a.underlyings[underlying]; !ok {
			slog.Warn("position skipped: underlying not hedgeable",
				"symbol", pos.Symbol, "underlying", underlying)
			skipped++
			continue
		}

		contribution, ok := pos.BookDelta()
		if !ok {
			slog.Warn("position skipped: delta unavailable", "symbol", pos.Symbol)
			skipped++
			continue
		}

		exposure[underlying] += contribution
	}

	return exposure, skipped, nil
}
