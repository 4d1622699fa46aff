package ports

import (
	"context"

	"github.com/welann/optionhedge/internal/domain"
)

// Notifier renderiza los resultados de ciclo para el operador.
type Notifier interface {
	// NotifyRequirements muestra el análisis de hedge de un ciclo.
	NotifyRequirements(ctx context.Context, reqs []domain.HedgeRequirement, thresholdPct float64) error

	// NotifyResults muestra el resultado de las órdenes de hedge ejecutadas.
	NotifyResults(ctx context.Context, recs []domain.HedgeOrderRecord) error
}
