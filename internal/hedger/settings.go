package hedger

import (
	"fmt"
	"sync"
	"time"
)

// defaultErrorBackoff es la pausa extendida tras un ciclo fallido, distinta
// del intervalo normal.
const defaultErrorBackoff = 30 * time.Second

// Settings son los knobs de hedge en runtime compartidos entre el loop del
// scheduler y la superficie de comandos del operador. Los campos son
// escalares independientes: un ciclo puede observar un threshold seteado
// concurrentemente por un comando, lo cual se acepta (aplicación eventual,
// sin snapshot transaccional por ciclo).
type Settings struct {
	mu           sync.RWMutex
	thresholdPct float64
	interval     time.Duration
	errorBackoff time.Duration
	enabled      bool
}

// NewSettings crea Settings con los valores de arranque dados.
func NewSettings(thresholdPct float64, interval time.Duration) *Settings {
	return &Settings{
		thresholdPct: thresholdPct,
		interval:     interval,
		errorBackoff: defaultErrorBackoff,
	}
}

// ThresholdPct devuelve la banda muerta como porcentaje de |target|.
func (s *Settings) ThresholdPct() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholdPct
}

// SetThresholdPct actualiza la banda muerta. Debe estar en (0, 100].
func (s *Settings) SetThresholdPct(pct float64) error {
	if pct <= 0 || pct > 100 {
		return fmt.Errorf("hedger.SetThresholdPct: must be in (0,100], got %v", pct)
	}
	s.mu.Lock()
	s.thresholdPct = pct
	s.mu.Unlock()
	return nil
}

// Interval devuelve la cadencia de chequeo del modo continuo.
func (s *Settings) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval
}

// SetInterval actualiza la cadencia. Debe ser al menos un segundo.
func (s *Settings) SetInterval(d time.Duration) error {
	if d < time.Second {
		return fmt.Errorf("hedger.SetInterval: must be >= 1s, got %v", d)
	}
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
	return nil
}

// ErrorBackoff devuelve la pausa que sigue a un ciclo fallido.
func (s *Settings) ErrorBackoff() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorBackoff
}

// SetErrorBackoff actualiza la pausa post-fallo. Debe ser positiva.
func (s *Settings) SetErrorBackoff(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("hedger.SetErrorBackoff: must be positive, got %v", d)
	}
	s.mu.Lock()
	s.errorBackoff = d
	s.mu.Unlock()
	return nil
}

// Enabled reporta si el hedging continuo está encendido.
func (s *Settings) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// SetEnabled cambia el flag de hedging continuo. El loop en ejecución observa
// el cambio antes de su próximo ciclo.
func (s *Settings) SetEnabled(on bool) {
	s.mu.Lock()
	s.enabled = on
	s.mu.Unlock()
}
