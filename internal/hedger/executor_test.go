package hedger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welann/optionhedge/internal/domain"
	"github.com/welann/optionhedge/internal/hedger"
)

func buyRequirement(amount float64) domain.HedgeRequirement {
	return domain.HedgeRequirement{
		Underlying:   "SOL",
		CurrentDelta: -amount,
		SpotPrice:    200,
		TradeAmount:  amount,
		ThresholdMet: true,
		Action:       domain.ActionBuy,
	}
}

func TestExecute_SubmitsAndRecords(t *testing.T) {
	market := &fakeMarket{sizeDecimals: map[string]int{"SOL": 3}}
	placer := &fakePlacer{}
	log := &memOrderLog{}
	exec := hedger.NewExecutor(market, placer, log, "lighter", 1.0)

	rec, err := exec.Execute(context.Background(), buyRequirement(0.5))
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.True(t, rec.Succeeded())
	assert.Equal(t, "0xhedge", rec.TxHash)
	assert.Equal(t, "lighter", rec.Venue)
	assert.Equal(t, domain.ActionBuy, rec.Side)
	assert.InDelta(t, 0.5, rec.Quantity, 1e-9)

	orders := placer.placed()
	require.Len(t, orders, 1)
	assert.Equal(t, "SOL", orders[0].symbol)
	assert.False(t, orders[0].isAsk)
	// Las compras toleran hasta spot × 1.01 con banda del 1%.
	assert.InDelta(t, 202, orders[0].worstPrice, 1e-9)

	persisted, err := log.RecentOrders(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, "0xhedge", persisted[0].TxHash)
}

func TestExecute_SellWorstPriceIsFloor(t *testing.T) {
	market := &fakeMarket{sizeDecimals: map[string]int{"SOL": 3}}
	placer := &fakePlacer{}
	exec := hedger.NewExecutor(market, placer, &memOrderLog{}, "lighter", 1.0)

	req := buyRequirement(0.5)
	req.Action = domain.ActionSell

	_, err := exec.Execute(context.Background(), req)
	require.NoError(t, err)

	orders := placer.placed()
	require.Len(t, orders, 1)
	assert.True(t, orders[0].isAsk)
	assert.InDelta(t, 198, orders[0].worstPrice, 1e-9)
}

func TestExecute_NoneIsNoop(t *testing.T) {
	placer := &fakePlacer{}
	log := &memOrderLog{}
	exec := hedger.NewExecutor(&fakeMarket{}, placer, log, "lighter", 1.0)

	rec, err := exec.Execute(context.Background(), domain.HedgeRequirement{Action: domain.ActionNone})
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, placer.placed())
}

func TestExecute_SkipsAmountRoundingToZero(t *testing.T) {
	// 0.0004 redondea a cero con 3 size decimals: skip, nada registrado.
	market := &fakeMarket{sizeDecimals: map[string]int{"SOL": 3}}
	placer := &fakePlacer{}
	log := &memOrderLog{}
	exec := hedger.NewExecutor(market, placer, log, "lighter", 1.0)

	rec, err := exec.Execute(context.Background(), buyRequirement(0.0004))
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, placer.placed())

	persisted, _ := log.RecentOrders(context.Background(), 10)
	assert.Empty(t, persisted)
}

func TestExecute_RejectionRecordedNotRetried(t *testing.T) {
	market := &fakeMarket{sizeDecimals: map[string]int{"SOL": 3}}
	placer := &fakePlacer{err: errors.New("insufficient margin")}
	log := &memOrderLog{}
	exec := hedger.NewExecutor(market, placer, log, "lighter", 1.0)

	rec, err := exec.Execute(context.Background(), buyRequirement(0.5))
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.False(t, rec.Succeeded())
	assert.Contains(t, rec.Err, "insufficient margin")
	assert.Empty(t, rec.TxHash)
	assert.Len(t, placer.placed(), 1)

	persisted, _ := log.RecentOrders(context.Background(), 10)
	require.Len(t, persisted, 1)
	assert.False(t, persisted[0].Succeeded())
}

func TestExecute_PrecisionUnavailableSkips(t *testing.T) {
	// Sin la precisión del venue no hay envío: se saltea el subyacente este
	// ciclo, sin registro de orden fallida porque no se intentó nada.
	market := &fakeMarket{sizeErr: errors.New("venue down")}
	placer := &fakePlacer{}
	log := &memOrderLog{}
	exec := hedger.NewExecutor(market, placer, log, "lighter", 1.0)

	rec, err := exec.Execute(context.Background(), buyRequirement(0.5))
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, placer.placed())

	persisted, _ := log.RecentOrders(context.Background(), 10)
	assert.Empty(t, persisted)
}

func TestExecute_CancelledBeforeSubmissionAborts(t *testing.T) {
	// Antes de comprometer el envío la cancelación sí corta: no se coloca
	// la orden ni queda registro.
	market := &fakeMarket{sizeDecimals: map[string]int{"SOL": 3}}
	placer := &fakePlacer{}
	log := &memOrderLog{}
	exec := hedger.NewExecutor(market, placer, log, "lighter", 1.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := exec.Execute(ctx, buyRequirement(0.5))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, rec)
	assert.Empty(t, placer.placed())
}

func TestExecute_LogFailureDoesNotMaskOutcome(t *testing.T) {
	market := &fakeMarket{sizeDecimals: map[string]int{"SOL": 3}}
	log := &memOrderLog{appendErr: errors.New("disk full")}
	exec := hedger.NewExecutor(market, &fakePlacer{}, log, "lighter", 1.0)

	rec, err := exec.Execute(context.Background(), buyRequirement(0.5))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Succeeded())
}
