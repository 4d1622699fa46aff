package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welann/optionhedge/internal/adapters/notify"
	"github.com/welann/optionhedge/internal/domain"
)

func makeRequirement(underlying string, met bool) domain.HedgeRequirement {
	req := domain.HedgeRequirement{
		Underlying:      underlying,
		CurrentDelta:    -0.5,
		SpotPrice:       200,
		TargetPosition:  0.5,
		CurrentPosition: 0,
		PositionDiff:    0.5,
		ThresholdMet:    met,
	}
	if met {
		req.TradeAmount = 0.5
		req.Action = domain.ActionBuy
	}
	return req
}

func TestNotifyRequirements(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	reqs := []domain.HedgeRequirement{
		makeRequirement("SOL", true),
		makeRequirement("ETH", false),
	}

	err := n.NotifyRequirements(context.Background(), reqs, 5.0)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "1/2 need adjustment")
	assert.Contains(t, out, "SOL")
	assert.Contains(t, out, "ETH")
	assert.Contains(t, out, "BUY")
	assert.Contains(t, out, "$200.00")
}

func TestNotifyRequirements_Empty(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	err := n.NotifyRequirements(context.Background(), nil, 5.0)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no hedgeable exposure")
}

func TestNotifyResults(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	recs := []domain.HedgeOrderRecord{
		{Underlying: "SOL", Side: domain.ActionBuy, Quantity: 0.5, Price: 200,
			TxHash: "0xdeadbeefdeadbeefdeadbeef"},
		{Underlying: "ETH", Side: domain.ActionSell, Quantity: 0.1, Price: 3000,
			Err: "insufficient margin"},
	}

	err := n.NotifyResults(context.Background(), recs)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "1/2 orders accepted")
	assert.Contains(t, out, "$100.00 notional")
	assert.Contains(t, out, "0xdeadbeefdeadbe...")
	assert.Contains(t, out, "FAILED: insufficient margin")
}

func TestPrintPositions(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	delta := 0.4
	n.PrintPositions([]domain.OptionPosition{
		{Symbol: "SOL-USD-215-C", Quantity: -2, Delta: &delta, UpdatedAt: time.Now()},
		{Symbol: "ETH-USD-3000-P", Quantity: 1, UpdatedAt: time.Now()},
	})

	out := buf.String()
	assert.Contains(t, out, "SOL-USD-215-C")
	assert.Contains(t, out, "-0.8000")
	assert.Contains(t, out, "n/a") // delta nunca obtenido
	assert.Contains(t, out, "total delta -0.8000")
}

func TestPrintPositions_Empty(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)
	n.PrintPositions(nil)
	assert.Contains(t, buf.String(), "no active option positions")
}

func TestPrintOrders(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	n.PrintOrders([]domain.HedgeOrderRecord{
		{Venue: "lighter", Underlying: "SOL", Side: domain.ActionBuy,
			Quantity: 0.5, Price: 200, TxHash: "0xabc", PlacedAt: time.Now()},
	})

	out := buf.String()
	assert.Contains(t, out, "lighter")
	assert.Contains(t, out, "BUY")
	assert.Contains(t, out, "0xabc")
}
