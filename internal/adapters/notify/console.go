package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/welann/optionhedge/internal/domain"
)

// Console implementa ports.Notifier sobre una terminal.
type Console struct {
	out io.Writer
}

// NewConsole crea un notifier que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notifier para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// NotifyRequirements imprime el análisis de hedge de un ciclo.
func (c *Console) NotifyRequirements(_ context.Context, reqs []domain.HedgeRequirement, thresholdPct float64) error {
	now := time.Now().Format("15:04:05")
	if len(reqs) == 0 {
		fmt.Fprintf(c.out, "[%s] no hedgeable exposure\n", now)
		return nil
	}

	needing := 0
	for _, req := range reqs {
		if req.ThresholdMet {
			needing++
		}
	}

	fmt.Fprintf(c.out, "\n[%s] hedge analysis: threshold %.1f%%, %d/%d need adjustment\n",
		now, thresholdPct, needing, len(reqs))

	table := tablewriter.NewWriter(c.out)
	table.Header("Underlying", "Net Delta", "Spot", "Target", "Held", "Diff", "Action", "Amount")
	for _, req := range reqs {
		action := "-"
		amount := "-"
		if req.ThresholdMet {
			action = req.Action.String()
			amount = fmt.Sprintf("%.4f", req.TradeAmount)
		}
		table.Append(
			req.Underlying,
			fmt.Sprintf("%+.4f", req.CurrentDelta),
			fmt.Sprintf("$%.2f", req.SpotPrice),
			fmt.Sprintf("%+.4f", req.TargetPosition),
			fmt.Sprintf("%+.4f", req.CurrentPosition),
			fmt.Sprintf("%+.4f", req.PositionDiff),
			action,
			amount,
		)
	}
	table.Render()
	return nil
}

// NotifyResults imprime el resultado de las órdenes de hedge ejecutadas.
func (c *Console) NotifyResults(_ context.Context, recs []domain.HedgeOrderRecord) error {
	if len(recs) == 0 {
		return nil
	}

	succeeded := 0
	totalValue := 0.0
	for _, rec := range recs {
		if rec.Succeeded() {
			succeeded++
			totalValue += rec.Quantity * rec.Price
		}
	}

	fmt.Fprintf(c.out, "\nhedge execution: %d/%d orders accepted, $%.2f notional\n",
		succeeded, len(recs), totalValue)

	table := tablewriter.NewWriter(c.out)
	table.Header("Underlying", "Side", "Qty", "Ref Price", "Result")
	for _, rec := range recs {
		result := shortHash(rec.TxHash)
		if !rec.Succeeded() {
			result = "FAILED: " + rec.Err
		}
		table.Append(
			rec.Underlying,
			rec.Side.String(),
			fmt.Sprintf("%.4f", rec.Quantity),
			fmt.Sprintf("$%.2f", rec.Price),
			result,
		)
	}
	table.Render()
	return nil
}

// PrintPositions renderiza el libro de opciones con delta por posición y
// total.
func (c *Console) PrintPositions(positions []domain.OptionPosition) {
	if len(positions) == 0 {
		fmt.Fprintln(c.out, "no active option positions")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Qty", "Delta", "Position Delta", "Updated")

	totalDelta := 0.0
	for _, pos := range positions {
		deltaLabel := "n/a"
		bookLabel := "n/a"
		if pos.Delta != nil {
			deltaLabel = fmt.Sprintf("%.4f", *pos.Delta)
			book, _ := pos.BookDelta()
			bookLabel = fmt.Sprintf("%+.4f", book)
			totalDelta += book
		}
		table.Append(
			pos.Symbol,
			fmt.Sprintf("%+d", pos.Quantity),
			deltaLabel,
			bookLabel,
			pos.UpdatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	table.Render()
	fmt.Fprintf(c.out, "%d positions, total delta %+.4f\n", len(positions), totalDelta)
}

// PrintOrders renderiza el historial de órdenes de hedge, el más nuevo
// primero.
func (c *Console) PrintOrders(recs []domain.HedgeOrderRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(c.out, "no hedge orders recorded")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Venue", "Underlying", "Side", "Qty", "Price", "Result")
	for _, rec := range recs {
		result := shortHash(rec.TxHash)
		if !rec.Succeeded() {
			result = "FAILED: " + rec.Err
		}
		table.Append(
			rec.PlacedAt.Format("01-02 15:04:05"),
			rec.Venue,
			rec.Underlying,
			rec.Side.String(),
			fmt.Sprintf("%.4f", rec.Quantity),
			fmt.Sprintf("$%.2f", rec.Price),
			result,
		)
	}
	table.Render()
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16] + "..."
	}
	return h
}
