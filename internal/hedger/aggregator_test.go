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

func TestAggregate_NetsPerUnderlying(t *testing.T) {
	// 2 calls vendidos a delta 0.4 más 1 call comprado a delta 0.3 netea -0.5.
	store := &fakeStore{positions: []domain.OptionPosition{
		{Symbol: "SOL-USD-215-C", Quantity: -2, Delta: ptr(0.4)},
		{Symbol: "SOL-USD-230-C", Quantity: 1, Delta: ptr(0.3)},
		{Symbol: "ETH-USD-3000-P", Quantity: 4, Delta: ptr(-0.25)},
	}}
	agg := hedger.NewAggregator(store, []string{"SOL", "ETH"})

	exposure, skipped, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, exposure, 2)
	assert.InDelta(t, -0.5, exposure["SOL"], 1e-9)
	assert.InDelta(t, -1.0, exposure["ETH"], 1e-9)
}

func TestAggregate_SkipsUnusablePositions(t *testing.T) {
	store := &fakeStore{positions: []domain.OptionPosition{
		{Symbol: "SOL-USD-215-C", Quantity: 1, Delta: ptr(0.4)},
		{Symbol: "DOGE-USD-1-C", Quantity: 3, Delta: ptr(0.5)}, // no hedgeable
		{Symbol: "SOL-USD-230-C", Quantity: 2, Delta: nil},     // delta nunca obtenido
	}}
	agg := hedger.NewAggregator(store, []string{"SOL"})

	exposure, skipped, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, exposure, 1)
	assert.InDelta(t, 0.4, exposure["SOL"], 1e-9)
}

func TestAggregate_KeepsBalancedUnderlying(t *testing.T) {
	// Lotes que se compensan netean exactamente cero; la entrada debe
	// sobrevivir para que la policy observe el estado balanceado del
	// subyacente.
	store := &fakeStore{positions: []domain.OptionPosition{
		{Symbol: "SOL-USD-215-C", Quantity: 2, Delta: ptr(0.4)},
		{Symbol: "SOL-USD-230-P", Quantity: 2, Delta: ptr(-0.4)},
	}}
	agg := hedger.NewAggregator(store, []string{"SOL"})

	exposure, _, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	val, ok := exposure["SOL"]
	require.True(t, ok)
	assert.Zero(t, val)
}

func TestAggregate_EmptyBook(t *testing.T) {
	agg := hedger.NewAggregator(&fakeStore{}, []string{"SOL"})

	exposure, skipped, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, exposure)
	assert.Zero(t, skipped)
}

func TestAggregate_StoreError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db locked")}
	agg := hedger.NewAggregator(store, []string{"SOL"})

	_, _, err := agg.Aggregate(context.Background())
	assert.Error(t, err)
}
