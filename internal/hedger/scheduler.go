package hedger

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/welann/optionhedge/internal/domain"
	"github.com/welann/optionhedge/internal/ports"
)

// State es el estado de ciclo de vida del scheduler.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	default:
		return "IDLE"
	}
}

// ErrAlreadyRunning se devuelve cuando el modo continuo se arranca dos veces.
var ErrAlreadyRunning = fmt.Errorf("hedger: continuous mode already running")

// orderPacing espacia las órdenes sucesivas dentro de un ciclo para
// respetar los rate limits del venue.
const orderPacing = time.Second

// CycleSummary resume lo que hizo un ciclo de hedge.
type CycleSummary struct {
	DeltasRefreshed    int
	Underlyings        int
	Skipped            int // posiciones excluidas de la agregación
	UnderlyingsSkipped int // subyacentes sin precio o inventario legible
	NeedingHedge       int
	Submitted          int
	Succeeded          int
}

// Scheduler dirige el pipeline agregar → evaluar → ejecutar, en modo one-shot
// o continuo. Solo es dueño de la cadencia, el aislamiento de ciclos y el
// ciclo de vida; las decisiones de trading viven en Policy y Executor.
type Scheduler struct {
	store      ports.PositionStore
	aggregator *Aggregator
	policy     *Policy
	executor   *Executor
	notifier   ports.Notifier
	settings   *Settings
	state      atomic.Int32
	wake       chan struct{}
}

// NewScheduler cablea los componentes del pipeline.
func NewScheduler(store ports.PositionStore, agg *Aggregator, policy *Policy, exec *Executor, notifier ports.Notifier, settings *Settings) *Scheduler {
	return &Scheduler{
		store:      store,
		aggregator: agg,
		policy:     policy,
		executor:   exec,
		notifier:   notifier,
		settings:   settings,
		wake:       make(chan struct{}, 1),
	}
}

// State devuelve el estado de ciclo de vida actual.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Settings expone los knobs de runtime para la superficie de operador.
func (s *Scheduler) Settings() *Settings {
	return s.settings
}

// Stop pide al loop continuo que termine: apaga el flag y despierta el sleep
// entre ciclos. No espera; Run retorna cuando el ciclo en vuelo termina.
// Nunca aborta una orden ya enviada.
func (s *Scheduler) Stop() {
	s.settings.SetEnabled(false)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// RunOnce ejecuta exactamente un ciclo: refrescar deltas, agregar, evaluar,
// reportar y, cuando execute es true, enviar las órdenes que califican.
func (s *Scheduler) RunOnce(ctx context.Context, execute bool) (CycleSummary, error) {
	return s.cycle(ctx, execute)
}

// Run ejecuta ciclos continuamente hasta que el contexto se cancele o el flag
// enabled se apague. Cada ciclo está aislado: un fallo se loguea y lo sigue el
// backoff extendido en lugar del intervalo normal; solo la señal de stop
// termina el loop. Un ciclo en vuelo siempre termina: el stop se observa
// entre ciclos, nunca a mitad de una orden.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyRunning
	}
	defer s.state.Store(int32(StateIdle))

	// Descartar un wake rezagado de una corrida anterior.
	select {
	case <-s.wake:
	default:
	}

	s.settings.SetEnabled(true)
	slog.Info("continuous hedging started",
		"interval", s.settings.Interval(),
		"threshold_pct", s.settings.ThresholdPct(),
	)

	cycles := 0
	for {
		if ctx.Err() != nil || !s.settings.Enabled() {
			break
		}

		cycles++
		wait := s.settings.Interval()

		summary, err := s.safeCycle(ctx, true)
		if err != nil {
			slog.Error("hedge cycle failed", "cycle", cycles, "err", err)
			wait = s.settings.ErrorBackoff()
		} else {
			slog.Info("hedge cycle complete",
				"cycle", cycles,
				"underlyings", summary.Underlyings,
				"needing_hedge", summary.NeedingHedge,
				"submitted", summary.Submitted,
				"succeeded", summary.Succeeded,
				"skipped_positions", summary.Skipped,
				"skipped_underlyings", summary.UnderlyingsSkipped,
			)
		}

		select {
		case <-ctx.Done():
			s.state.Store(int32(StateStopping))
		case <-s.wake:
		case <-time.After(wait):
		}
	}

	s.state.Store(int32(StateStopping))
	s.settings.SetEnabled(false)
	slog.Info("continuous hedging stopped", "cycles", cycles)
	return nil
}

// safeCycle aísla un ciclo: un panic dentro del pipeline se convierte en
// error para que el loop continuo lo sobreviva.
func (s *Scheduler) safeCycle(ctx context.Context, execute bool) (summary CycleSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hedger: cycle panic: %v", r)
		}
	}()
	return s.cycle(ctx, execute)
}

func (s *Scheduler) cycle(ctx context.Context, execute bool) (CycleSummary, error) {
	start := time.Now()
	var summary CycleSummary

	refreshed, err := s.store.RefreshDeltas(ctx)
	if err != nil {
		return summary, fmt.Errorf("hedger: refresh deltas: %w", err)
	}
	summary.DeltasRefreshed = refreshed

	exposure, skipped, err := s.aggregator.Aggregate(ctx)
	if err != nil {
		return summary, err
	}
	summary.Skipped = skipped

	thresholdPct := s.settings.ThresholdPct()
	reqs, skippedUnderlyings := s.policy.Evaluate(ctx, exposure, thresholdPct)
	summary.Underlyings = len(reqs)
	summary.UnderlyingsSkipped = skippedUnderlyings
	for _, req := range reqs {
		if req.ThresholdMet {
			summary.NeedingHedge++
		}
	}

	if err := s.notifier.NotifyRequirements(ctx, reqs, thresholdPct); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if execute && summary.NeedingHedge > 0 {
		records := s.executeAll(ctx, reqs)
		for _, rec := range records {
			summary.Submitted++
			if rec.Succeeded() {
				summary.Succeeded++
			}
		}
		if err := s.notifier.NotifyResults(ctx, records); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Debug("cycle finished",
		"duration", time.Since(start).Round(time.Millisecond),
		"execute", execute,
	)
	return summary, nil
}

// executeAll coloca las órdenes de los requisitos que califican en su orden
// de evaluación, espaciando los envíos sucesivos. Una orden fallida queda
// registrada y el ciclo sigue con el próximo requisito.
func (s *Scheduler) executeAll(ctx context.Context, reqs []domain.HedgeRequirement) []domain.HedgeOrderRecord {
	var records []domain.HedgeOrderRecord
	first := true
	for _, req := range reqs {
		if !req.ThresholdMet {
			continue
		}
		if !first {
			select {
			case <-ctx.Done():
				return records
			case <-time.After(orderPacing):
			}
		}
		first = false

		rec, err := s.executor.Execute(ctx, req)
		if err != nil {
			slog.Error("executor error", "underlying", req.Underlying, "err", err)
			continue
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records
}
