package domain

import "time"

// DeltaExposure mapea un activo subyacente al delta neto del libro en él.
// Convención de signos: contribución = cantidad con signo × delta por unidad,
// así un libro de calls vendidos lleva delta neto negativo y necesita una
// compra spot para compensarlo. Se deriva a demanda, nunca se persiste.
type DeltaExposure map[string]float64

// Action es el ajuste de hedge decidido para un subyacente.
type Action int

const (
	ActionNone Action = iota
	ActionBuy
	ActionSell
)

func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "NONE"
	}
}

// HedgeRequirement es la salida por subyacente de una evaluación de policy.
// Se crea fresco cada ciclo y nunca se muta, solo se reemplaza.
type HedgeRequirement struct {
	Underlying      string
	CurrentDelta    float64 // delta neto del libro
	SpotPrice       float64 // último precio de referencia
	TargetPosition  float64 // inventario spot que compensa el libro: -CurrentDelta
	CurrentPosition float64 // inventario spot mantenido en el venue
	PositionDiff    float64 // TargetPosition - CurrentPosition
	TradeAmount     float64 // |PositionDiff| cuando ThresholdMet, si no 0
	ThresholdMet    bool
	Action          Action
}

// HedgeValue es el tamaño nocional del ajuste al precio de referencia.
func (r HedgeRequirement) HedgeValue() float64 {
	return r.TradeAmount * r.SpotPrice
}

// HedgeOrderRecord es una entrada append-only del log de trades de hedge
// intentados. Los envíos fallidos también se registran; Err queda vacío en
// los exitosos.
type HedgeOrderRecord struct {
	ID         int64
	Venue      string
	Underlying string
	Side       Action
	Quantity   float64
	Price      float64 // precio spot de referencia al decidir
	TxHash     string
	Err        string
	PlacedAt   time.Time
}

// Succeeded reporta si el venue aceptó la orden.
func (r HedgeOrderRecord) Succeeded() bool {
	return r.Err == ""
}
