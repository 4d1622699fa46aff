package hedger_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/welann/optionhedge/internal/domain"
)

func ptr(f float64) *float64 { return &f }

// fakeStore sirve un libro fijo. El pipeline de hedging no ejercita los
// métodos mutadores, que fallan ruidosamente si se alcanzan.
type fakeStore struct {
	positions  []domain.OptionPosition
	listErr    error
	refreshErr error
	refreshed  atomic.Int32
}

func (f *fakeStore) ListActive(_ context.Context) ([]domain.OptionPosition, error) {
	return f.positions, f.listErr
}

func (f *fakeStore) RefreshDeltas(_ context.Context) (int, error) {
	if f.refreshErr != nil {
		return 0, f.refreshErr
	}
	f.refreshed.Add(1)
	return len(f.positions), nil
}

func (f *fakeStore) AddPosition(context.Context, string, int64) error {
	return errors.New("not implemented")
}

func (f *fakeStore) RemovePosition(context.Context, string, int64) error {
	return errors.New("not implemented")
}

func (f *fakeStore) GetPosition(context.Context, string) (domain.OptionPosition, error) {
	return domain.OptionPosition{}, errors.New("not implemented")
}

func (f *fakeStore) ClearPositions(context.Context) error {
	return errors.New("not implemented")
}

// panicStore explota en la primera llamada del pipeline de cada ciclo.
type panicStore struct {
	fakeStore
	calls atomic.Int32
}

func (p *panicStore) RefreshDeltas(context.Context) (int, error) {
	p.calls.Add(1)
	panic("corrupted book")
}

// flakyStore falla RefreshDeltas las primeras failures llamadas y después se
// comporta como fakeStore.
type flakyStore struct {
	fakeStore
	failures int32
	calls    atomic.Int32
}

func (f *flakyStore) RefreshDeltas(ctx context.Context) (int, error) {
	if f.calls.Add(1) <= f.failures {
		return 0, errors.New("store unreachable")
	}
	return f.fakeStore.RefreshDeltas(ctx)
}

// fakeMarket sirve precios spot y precisión del venue por subyacente.
type fakeMarket struct {
	prices       map[string]float64
	sizeDecimals map[string]int
	priceErr     map[string]error
	sizeErr      error
}

func (f *fakeMarket) LastPrice(_ context.Context, symbol string) (float64, error) {
	if err := f.priceErr[symbol]; err != nil {
		return 0, err
	}
	return f.prices[symbol], nil
}

func (f *fakeMarket) SizeDecimals(_ context.Context, symbol string) (int, error) {
	if f.sizeErr != nil {
		return 0, f.sizeErr
	}
	if d, ok := f.sizeDecimals[symbol]; ok {
		return d, nil
	}
	return 3, nil
}

func (f *fakeMarket) PriceDecimals(context.Context, string) (int, error) {
	return 2, nil
}

// fakeInventory sirve posiciones spot mantenidas por subyacente.
type fakeInventory struct {
	held map[string]float64
	errs map[string]error
}

func (f *fakeInventory) CurrentInventory(_ context.Context, symbol string) (float64, error) {
	if err := f.errs[symbol]; err != nil {
		return 0, err
	}
	return f.held[symbol], nil
}

// placedOrder captura una llamada a SubmitMarketOrder.
type placedOrder struct {
	symbol     string
	isAsk      bool
	qty        float64
	worstPrice float64
}

// fakePlacer registra los envíos y responde con un hash fijo o un error.
type fakePlacer struct {
	mu     sync.Mutex
	orders []placedOrder
	err    error
}

func (f *fakePlacer) SubmitMarketOrder(_ context.Context, symbol string, isAsk bool, qty, worstPrice float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, placedOrder{symbol: symbol, isAsk: isAsk, qty: qty, worstPrice: worstPrice})
	if f.err != nil {
		return "", f.err
	}
	return "0xhedge", nil
}

func (f *fakePlacer) placed() []placedOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]placedOrder(nil), f.orders...)
}

// blockingPlacer se queda en vuelo hasta que el test lo libere, y captura el
// error de cancelación del contexto visto en el momento del envío.
type blockingPlacer struct {
	entered chan struct{}
	release chan struct{}

	mu         sync.Mutex
	ctxErr     error
	submission *placedOrder
}

func newBlockingPlacer() *blockingPlacer {
	return &blockingPlacer{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingPlacer) SubmitMarketOrder(ctx context.Context, symbol string, isAsk bool, qty, worstPrice float64) (string, error) {
	close(b.entered)
	<-b.release

	b.mu.Lock()
	b.ctxErr = ctx.Err()
	b.submission = &placedOrder{symbol: symbol, isAsk: isAsk, qty: qty, worstPrice: worstPrice}
	b.mu.Unlock()
	return "0xinflight", nil
}

func (b *blockingPlacer) observed() (error, *placedOrder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctxErr, b.submission
}

// memOrderLog es un ports.OrderLog en memoria.
type memOrderLog struct {
	mu        sync.Mutex
	records   []domain.HedgeOrderRecord
	appendErr error
}

func (m *memOrderLog) AppendOrder(_ context.Context, rec domain.HedgeOrderRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memOrderLog) RecentOrders(context.Context, int) ([]domain.HedgeOrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.HedgeOrderRecord(nil), m.records...), nil
}

// fakeNotifier captura lo que reportó cada ciclo.
type fakeNotifier struct {
	mu      sync.Mutex
	reqs    [][]domain.HedgeRequirement
	results [][]domain.HedgeOrderRecord
}

func (f *fakeNotifier) NotifyRequirements(_ context.Context, reqs []domain.HedgeRequirement, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, reqs)
	return nil
}

func (f *fakeNotifier) NotifyResults(_ context.Context, recs []domain.HedgeOrderRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, recs)
	return nil
}
