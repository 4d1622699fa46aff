package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/welann/optionhedge/internal/adapters/notify"
	"github.com/welann/optionhedge/internal/adapters/storage"
	"github.com/welann/optionhedge/internal/hedger"
	"github.com/welann/optionhedge/internal/ports"
)

// Store agrupa las superficies de persistencia que necesita la consola.
type Store interface {
	ports.PositionStore
	ports.OrderLog
}

// REPL maneja la consola interactiva. Los ciclos de hedge disparados acá
// corren en la goroutine del caller; el modo continuo corre en una única
// goroutine supervisada por el REPL.
type REPL struct {
	in        io.Reader
	out       io.Writer
	console   *notify.Console
	store     Store
	scheduler *hedger.Scheduler
	log       *slog.Logger

	autoDone chan struct{}
}

func NewREPL(in io.Reader, out io.Writer, console *notify.Console, store Store, scheduler *hedger.Scheduler, log *slog.Logger) *REPL {
	return &REPL{
		in:        in,
		out:       out,
		console:   console,
		store:     store,
		scheduler: scheduler,
		log:       log,
	}
}

// Run lee comandos hasta exit, EOF, o cancelación del contexto.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, "option delta hedger. type help for commands")

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, err := Parse(line)
		if err != nil {
			fmt.Fprintln(r.out, err)
			continue
		}
		if cmd.Kind == KindExit {
			break
		}
		if err := r.dispatch(ctx, scanner, cmd); err != nil {
			fmt.Fprintln(r.out, "error:", err)
		}
	}

	r.stopAutoHedge()
	return scanner.Err()
}

func (r *REPL) dispatch(ctx context.Context, scanner *bufio.Scanner, cmd Command) error {
	switch cmd.Kind {
	case KindHelp:
		r.printHelp()
		return nil
	case KindAdd:
		return r.addPosition(ctx, cmd)
	case KindRemove:
		return r.removePosition(ctx, cmd)
	case KindShowPositions:
		return r.showPositions(ctx)
	case KindShowOrders:
		return r.showOrders(ctx)
	case KindUpdate:
		return r.updateDeltas(ctx)
	case KindClear:
		return r.clearPositions(ctx, scanner)
	case KindHedgeAnalyze:
		return r.runCycle(ctx, false)
	case KindHedgeExecute:
		if !r.confirm(scanner, "submit live hedge orders?") {
			fmt.Fprintln(r.out, "cancelled")
			return nil
		}
		return r.runCycle(ctx, true)
	case KindAutoHedgeOn:
		return r.startAutoHedge(ctx)
	case KindAutoHedgeOff:
		r.stopAutoHedge()
		fmt.Fprintln(r.out, "auto-hedge stopped")
		return nil
	case KindAutoHedgeStatus:
		r.printAutoStatus()
		return nil
	case KindThresholdShow:
		fmt.Fprintf(r.out, "threshold: %.2f%%\n", r.scheduler.Settings().ThresholdPct())
		return nil
	case KindThresholdSet:
		if err := r.scheduler.Settings().SetThresholdPct(cmd.Value); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "threshold set to %.2f%%\n", cmd.Value)
		return nil
	case KindIntervalSet:
		d := time.Duration(cmd.Value * float64(time.Second))
		if err := r.scheduler.Settings().SetInterval(d); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "interval set to %s\n", d)
		return nil
	default:
		return fmt.Errorf("unhandled command")
	}
}

func (r *REPL) addPosition(ctx context.Context, cmd Command) error {
	if err := r.store.AddPosition(ctx, cmd.Symbol, cmd.Quantity); err != nil {
		return err
	}
	r.reportLot(ctx, cmd.Symbol)
	return nil
}

func (r *REPL) removePosition(ctx context.Context, cmd Command) error {
	if err := r.store.RemovePosition(ctx, cmd.Symbol, cmd.Quantity); err != nil {
		return err
	}
	r.reportLot(ctx, cmd.Symbol)
	return nil
}

// reportLot imprime el tamaño del símbolo después de una mutación. Un lote
// ausente significa que la mutación lo neteó a cero.
func (r *REPL) reportLot(ctx context.Context, symbol string) {
	pos, err := r.store.GetPosition(ctx, symbol)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(r.out, "%s closed\n", symbol)
		return
	}
	if err != nil {
		fmt.Fprintln(r.out, "error:", err)
		return
	}
	fmt.Fprintf(r.out, "%s now %+d\n", pos.Symbol, pos.Quantity)
}

func (r *REPL) showPositions(ctx context.Context) error {
	positions, err := r.store.ListActive(ctx)
	if err != nil {
		return err
	}
	r.console.PrintPositions(positions)
	return nil
}

func (r *REPL) showOrders(ctx context.Context) error {
	recs, err := r.store.RecentOrders(ctx, 0)
	if err != nil {
		return err
	}
	r.console.PrintOrders(recs)
	return nil
}

func (r *REPL) updateDeltas(ctx context.Context) error {
	n, err := r.store.RefreshDeltas(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "refreshed deltas for %d positions\n", n)
	return nil
}

func (r *REPL) clearPositions(ctx context.Context, scanner *bufio.Scanner) error {
	if !r.confirm(scanner, "delete ALL positions?") {
		fmt.Fprintln(r.out, "cancelled")
		return nil
	}
	if err := r.store.ClearPositions(ctx); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "all positions cleared")
	return nil
}

func (r *REPL) runCycle(ctx context.Context, execute bool) error {
	summary, err := r.scheduler.RunOnce(ctx, execute)
	if err != nil {
		return err
	}
	if execute {
		fmt.Fprintf(r.out, "cycle done: %d underlyings, %d needing hedge, %d/%d orders succeeded\n",
			summary.Underlyings, summary.NeedingHedge, summary.Succeeded, summary.Submitted)
	}
	return nil
}

// startAutoHedge lanza el loop continuo con el contexto del proceso: una
// señal de apagado sí lo cancela, pero el stop del operador pasa por
// Scheduler.Stop, que es cooperativo y nunca corta una orden en vuelo.
func (r *REPL) startAutoHedge(ctx context.Context) error {
	if r.scheduler.State() == hedger.StateRunning {
		return hedger.ErrAlreadyRunning
	}

	done := make(chan struct{})
	r.autoDone = done

	go func() {
		defer close(done)
		if err := r.scheduler.Run(ctx); err != nil {
			r.log.Error("auto-hedge loop stopped", "error", err)
		}
	}()

	fmt.Fprintf(r.out, "auto-hedge running every %s\n", r.scheduler.Settings().Interval())
	return nil
}

// stopAutoHedge pide el stop cooperativo y espera a que el ciclo en vuelo
// termine, así el último resultado queda registrado antes de devolver el
// prompt.
func (r *REPL) stopAutoHedge() {
	if r.autoDone == nil {
		return
	}
	r.scheduler.Stop()
	<-r.autoDone
	r.autoDone = nil
}

func (r *REPL) printAutoStatus() {
	settings := r.scheduler.Settings()
	fmt.Fprintf(r.out, "auto-hedge: %s, threshold %.2f%%, interval %s\n",
		r.scheduler.State(), settings.ThresholdPct(), settings.Interval())
}

func (r *REPL) printHelp() {
	fmt.Fprint(r.out, `commands:
  add <buy|sell> <symbol> <qty>   open or net an option position
  remove <symbol> <qty>           close part of a position
  show [positions|orders]         list the book or hedge history
  update                          refresh per-unit deltas
  clear                           delete all positions
  hedge analyze                   one evaluation cycle, no orders
  hedge execute                   one cycle, submit hedge orders
  autohedge <on|off|status>       continuous hedging loop
  threshold [percent]             show or set the hedge threshold
  interval <seconds>              set the loop interval
  exit                            quit

symbols look like ETH-USD-3000-C
`)
}

func (r *REPL) confirm(scanner *bufio.Scanner, prompt string) bool {
	fmt.Fprintf(r.out, "%s [y/N]: ", prompt)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
