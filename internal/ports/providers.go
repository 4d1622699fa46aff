package ports

import "context"

// GreeksProvider sirve deltas por unidad desde el venue de opciones.
type GreeksProvider interface {
	// OptionDelta devuelve el delta actual de un contrato de opción.
	// Un contrato que el venue no conoce da error, no un cero.
	OptionDelta(ctx context.Context, optionSymbol string) (float64, error)
}

// SpotMarket sirve datos de mercado spot de solo lectura para los
// subyacentes del hedge.
type SpotMarket interface {
	// LastPrice devuelve el último precio operado del subyacente.
	LastPrice(ctx context.Context, symbol string) (float64, error)

	// SizeDecimals devuelve la precisión de tamaño de orden del venue.
	SizeDecimals(ctx context.Context, symbol string) (int, error)

	// PriceDecimals devuelve la precisión de precio del venue.
	PriceDecimals(ctx context.Context, symbol string) (int, error)
}

// InventoryProvider lee la posición spot mantenida actualmente en el venue.
type InventoryProvider interface {
	// CurrentInventory devuelve la posición spot con signo del subyacente
	// (positivo = long, negativo = short), 0 cuando no hay ninguna.
	CurrentInventory(ctx context.Context, symbol string) (float64, error)
}

// OrderPlacer envía órdenes de mercado al venue de ejecución. Es el único
// port por el que el core muta estado de cuenta externo.
type OrderPlacer interface {
	// SubmitMarketOrder firma y transmite una orden de mercado. worstPrice
	// acota el slippage: techo para compras, piso para ventas. Devuelve el
	// hash de transacción asignado por el venue.
	SubmitMarketOrder(ctx context.Context, symbol string, isAsk bool, qty, worstPrice float64) (string, error)
}
