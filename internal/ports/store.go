package ports

import (
	"context"

	"github.com/welann/optionhedge/internal/domain"
)

// PositionStore es dueño del libro de opciones. Add/Remove netean contra el
// lote existente del mismo símbolo; las implementaciones deben serializar las
// mutaciones concurrentes del mismo símbolo para que el neteo nunca pierda
// una actualización.
type PositionStore interface {
	// AddPosition netea signedQty en el lote del símbolo, obteniendo un
	// delta por unidad fresco para él. Un lote neteado a exactamente cero
	// se borra.
	AddPosition(ctx context.Context, symbol string, signedQty int64) error

	// RemovePosition cierra qty unidades del lote del símbolo, achicándolo
	// hacia cero sin importar su signo. qty debe ser positivo y no puede
	// exceder el tamaño abierto.
	RemovePosition(ctx context.Context, symbol string, qty int64) error

	// GetPosition devuelve el lote activo del símbolo, o ErrNotFound.
	GetPosition(ctx context.Context, symbol string) (domain.OptionPosition, error)

	// ListActive devuelve todos los lotes activos, el actualizado más
	// recientemente primero.
	ListActive(ctx context.Context) ([]domain.OptionPosition, error)

	// RefreshDeltas vuelve a obtener el delta por unidad de cada lote
	// activo y devuelve cuántos se actualizaron. Los lotes cuyo delta no
	// está disponible conservan el valor anterior.
	RefreshDeltas(ctx context.Context) (int, error)

	// ClearPositions borra el libro completo.
	ClearPositions(ctx context.Context) error
}

// OrderLog es el historial append-only de trades de hedge intentados.
type OrderLog interface {
	// AppendOrder persiste un intento, exitoso o fallido.
	AppendOrder(ctx context.Context, rec domain.HedgeOrderRecord) error

	// RecentOrders devuelve hasta limit registros, el más nuevo primero.
	RecentOrders(ctx context.Context, limit int) ([]domain.HedgeOrderRecord, error)
}
