package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// optionSymbolRe matchea el formato de contrato UNDERLYING-USD-STRIKE-{C|P},
// ej. "SOL-USD-215-C" o "BTC-USD-100000-P".
var optionSymbolRe = regexp.MustCompile(`^[A-Z]+-USD-\d+-[CP]$`)

// OptionType es el tipo de contrato codificado en el sufijo del símbolo.
type OptionType string

const (
	Call OptionType = "C"
	Put  OptionType = "P"
)

// OptionPosition es un lote neteado de un contrato de opción en el libro.
// Quantity lleva signo: positivo = long, negativo = short. Una posición cuya
// cantidad neta llega a cero se borra del store, nunca se guarda en cero.
type OptionPosition struct {
	Symbol    string
	Quantity  int64
	Delta     *float64 // delta por unidad, nil si nunca se obtuvo o está stale
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookDelta es la contribución de la posición al delta neto del libro.
// Devuelve 0 y false cuando el delta por unidad cacheado no está disponible.
func (p OptionPosition) BookDelta() (float64, bool) {
	if p.Delta == nil {
		return 0, false
	}
	return float64(p.Quantity) * *p.Delta, true
}

// ValidOptionSymbol reporta si s es un código de contrato bien formado.
func ValidOptionSymbol(s string) bool {
	return optionSymbolRe.MatchString(strings.ToUpper(s))
}

// UnderlyingOf extrae el símbolo del activo subyacente de un código de
// contrato ("SOL-USD-215-C" → "SOL"). Devuelve error para símbolos
// malformados.
func UnderlyingOf(optionSymbol string) (string, error) {
	s := strings.ToUpper(optionSymbol)
	if !ValidOptionSymbol(s) {
		return "", fmt.Errorf("domain.UnderlyingOf: malformed option symbol %q", optionSymbol)
	}
	return s[:strings.Index(s, "-")], nil
}

// TypeOf extrae el tipo de opción de un código de contrato.
func TypeOf(optionSymbol string) (OptionType, error) {
	s := strings.ToUpper(optionSymbol)
	if !ValidOptionSymbol(s) {
		return "", fmt.Errorf("domain.TypeOf: malformed option symbol %q", optionSymbol)
	}
	return OptionType(s[len(s)-1:]), nil
}
