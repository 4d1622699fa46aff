package storage

// sqlite.go: libro de opciones y log de órdenes de hedge sobre SQLite
// (Go puro, sin CGo).
//
// Dos tablas:
//   - `option_positions`: una fila por contrato, neteada in situ. Un lote
//     cuya cantidad netea a cero se borra, así la tabla solo contiene
//     posiciones activas.
//   - `hedge_orders`: historial append-only de cada intento de envío,
//     fallos incluidos. Acá nunca se actualiza ni se borra nada.
//
// Todas las mutaciones del libro pasan por un único mutex: el neteo es un
// read-modify-write por símbolo y SQLite es single-writer de todas formas.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/welann/optionhedge/internal/domain"
	"github.com/welann/optionhedge/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS option_positions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol     TEXT    NOT NULL UNIQUE,
    quantity   INTEGER NOT NULL,
    delta      REAL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS hedge_orders (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    venue      TEXT    NOT NULL,
    symbol     TEXT    NOT NULL,
    side       TEXT    NOT NULL,
    quantity   REAL    NOT NULL,
    price      REAL    NOT NULL,
    tx_hash    TEXT    NOT NULL DEFAULT '',
    error      TEXT    NOT NULL DEFAULT '',
    placed_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_symbol ON option_positions(symbol);
CREATE INDEX IF NOT EXISTS idx_orders_symbol    ON hedge_orders(symbol);
CREATE INDEX IF NOT EXISTS idx_orders_placed    ON hedge_orders(placed_at DESC);
`

// ErrNotFound se devuelve cuando no existe lote activo para un símbolo.
var ErrNotFound = errors.New("position not found")

// Store implementa ports.PositionStore y ports.OrderLog sobre SQLite.
type Store struct {
	db     *sql.DB
	greeks ports.GreeksProvider
	mu     sync.Mutex
}

var (
	_ ports.PositionStore = (*Store)(nil)
	_ ports.OrderLog      = (*Store)(nil)
)

// New abre (o crea) la base en la ruta dada y aplica el schema.
func New(path string, greeks ports.GreeksProvider) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.New: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.New: apply schema: %w", err)
	}
	return &Store{db: db, greeks: greeks}, nil
}

// Close cierra la conexión a la base.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddPosition netea signedQty en el lote del símbolo. El delta por unidad se
// obtiene fresco del provider de greeks; un contrato cuyo delta no se puede
// resolver se rechaza, manteniendo el invariante de que todo lote almacenado
// era un contrato conocido al insertarse.
func (s *Store) AddPosition(ctx context.Context, symbol string, signedQty int64) error {
	if signedQty == 0 {
		return fmt.Errorf("storage.AddPosition: quantity must be non-zero")
	}
	if !domain.ValidOptionSymbol(symbol) {
		return fmt.Errorf("storage.AddPosition: malformed option symbol %q", symbol)
	}

	delta, err := s.greeks.OptionDelta(ctx, symbol)
	if err != nil {
		return fmt.Errorf("storage.AddPosition: fetch delta for %q: %w", symbol, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	var id, current int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id, quantity FROM option_positions WHERE symbol = ?`, symbol,
	).Scan(&id, &current)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO option_positions (symbol, quantity, delta, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			symbol, signedQty, delta, now, now,
		); err != nil {
			return fmt.Errorf("storage.AddPosition: insert %q: %w", symbol, err)
		}
		slog.Info("position added", "symbol", symbol, "quantity", signedQty, "delta", delta)
		return nil

	case err != nil:
		return fmt.Errorf("storage.AddPosition: lookup %q: %w", symbol, err)
	}

	newQty := current + signedQty
	if newQty == 0 {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM option_positions WHERE id = ?`, id,
		); err != nil {
			return fmt.Errorf("storage.AddPosition: delete netted %q: %w", symbol, err)
		}
		slog.Info("position fully netted, removed", "symbol", symbol)
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE option_positions SET quantity = ?, delta = ?, updated_at = ? WHERE id = ?`,
		newQty, delta, now, id,
	); err != nil {
		return fmt.Errorf("storage.AddPosition: update %q: %w", symbol, err)
	}
	slog.Info("position netted", "symbol", symbol, "from", current, "to", newQty)
	return nil
}

// RemovePosition cierra qty unidades del lote del símbolo hacia cero.
func (s *Store) RemovePosition(ctx context.Context, symbol string, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("storage.RemovePosition: quantity must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var id, current int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, quantity FROM option_positions WHERE symbol = ?`, symbol,
	).Scan(&id, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("storage.RemovePosition: %q: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("storage.RemovePosition: lookup %q: %w", symbol, err)
	}

	open := current
	if open < 0 {
		open = -open
	}
	if qty > open {
		return fmt.Errorf("storage.RemovePosition: closing %d exceeds open size %d for %q", qty, open, symbol)
	}

	var newQty int64
	if current > 0 {
		newQty = current - qty
	} else {
		newQty = current + qty
	}

	if newQty == 0 {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM option_positions WHERE id = ?`, id,
		); err != nil {
			return fmt.Errorf("storage.RemovePosition: delete %q: %w", symbol, err)
		}
		slog.Info("position fully closed", "symbol", symbol)
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE option_positions SET quantity = ?, updated_at = ? WHERE id = ?`,
		newQty, time.Now().UTC(), id,
	); err != nil {
		return fmt.Errorf("storage.RemovePosition: update %q: %w", symbol, err)
	}
	slog.Info("position reduced", "symbol", symbol, "from", current, "to", newQty)
	return nil
}

// GetPosition devuelve el lote activo del símbolo.
func (s *Store) GetPosition(ctx context.Context, symbol string) (domain.OptionPosition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT symbol, quantity, delta, created_at, updated_at
		 FROM option_positions WHERE symbol = ?`, symbol)

	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OptionPosition{}, fmt.Errorf("storage.GetPosition: %q: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return domain.OptionPosition{}, fmt.Errorf("storage.GetPosition: %q: %w", symbol, err)
	}
	return pos, nil
}

// ListActive devuelve todos los lotes activos, el actualizado más
// recientemente primero.
func (s *Store) ListActive(ctx context.Context) ([]domain.OptionPosition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, quantity, delta, created_at, updated_at
		 FROM option_positions ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListActive: query: %w", err)
	}
	defer rows.Close()

	var positions []domain.OptionPosition
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListActive: scan: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.ListActive: rows: %w", err)
	}
	return positions, nil
}

// RefreshDeltas vuelve a obtener el delta por unidad de cada lote activo. Un
// lote cuyo delta no está disponible esta ronda conserva el valor anterior y
// no hace fallar el lote completo.
func (s *Store) RefreshDeltas(ctx context.Context) (int, error) {
	positions, err := s.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("storage.RefreshDeltas: %w", err)
	}

	updated := 0
	for _, pos := range positions {
		delta, err := s.greeks.OptionDelta(ctx, pos.Symbol)
		if err != nil {
			slog.Warn("delta refresh failed, keeping previous", "symbol", pos.Symbol, "err", err)
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE option_positions SET delta = ?, updated_at = ? WHERE symbol = ?`,
			delta, time.Now().UTC(), pos.Symbol,
		); err != nil {
			slog.Warn("delta update failed", "symbol", pos.Symbol, "err", err)
			continue
		}
		updated++
	}
	return updated, nil
}

// ClearPositions borra el libro de opciones completo.
func (s *Store) ClearPositions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM option_positions`); err != nil {
		return fmt.Errorf("storage.ClearPositions: %w", err)
	}
	return nil
}

// AppendOrder persiste un intento de envío de hedge.
func (s *Store) AppendOrder(ctx context.Context, rec domain.HedgeOrderRecord) error {
	placedAt := rec.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO hedge_orders (venue, symbol, side, quantity, price, tx_hash, error, placed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Venue, rec.Underlying, rec.Side.String(), rec.Quantity, rec.Price, rec.TxHash, rec.Err, placedAt,
	); err != nil {
		return fmt.Errorf("storage.AppendOrder: %w", err)
	}
	return nil
}

// RecentOrders devuelve hasta limit registros de órdenes, el más nuevo
// primero.
func (s *Store) RecentOrders(ctx context.Context, limit int) ([]domain.HedgeOrderRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, venue, symbol, side, quantity, price, tx_hash, error, placed_at
		 FROM hedge_orders ORDER BY placed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentOrders: query: %w", err)
	}
	defer rows.Close()

	var recs []domain.HedgeOrderRecord
	for rows.Next() {
		var rec domain.HedgeOrderRecord
		var side string
		if err := rows.Scan(&rec.ID, &rec.Venue, &rec.Underlying, &side,
			&rec.Quantity, &rec.Price, &rec.TxHash, &rec.Err, &rec.PlacedAt); err != nil {
			return nil, fmt.Errorf("storage.RecentOrders: scan: %w", err)
		}
		rec.Side = parseAction(side)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.RecentOrders: rows: %w", err)
	}
	return recs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (domain.OptionPosition, error) {
	var pos domain.OptionPosition
	var delta sql.NullFloat64
	if err := row.Scan(&pos.Symbol, &pos.Quantity, &delta, &pos.CreatedAt, &pos.UpdatedAt); err != nil {
		return domain.OptionPosition{}, err
	}
	if delta.Valid {
		d := delta.Float64
		pos.Delta = &d
	}
	return pos, nil
}

func parseAction(s string) domain.Action {
	switch s {
	case "BUY":
		return domain.ActionBuy
	case "SELL":
		return domain.ActionSell
	default:
		return domain.ActionNone
	}
}
