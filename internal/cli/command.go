package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/welann/optionhedge/internal/domain"
)

// Kind identifica un comando de consola parseado.
type Kind int

const (
	KindHelp Kind = iota
	KindExit
	KindAdd
	KindRemove
	KindShowPositions
	KindShowOrders
	KindUpdate
	KindClear
	KindHedgeAnalyze
	KindHedgeExecute
	KindAutoHedgeOn
	KindAutoHedgeOff
	KindAutoHedgeStatus
	KindThresholdShow
	KindThresholdSet
	KindIntervalSet
)

// Command es una instrucción de consola validada. Symbol y los campos
// numéricos solo se setean para los kinds que los llevan.
type Command struct {
	Kind     Kind
	Symbol   string
	Quantity int64   // con signo: compras positivas, ventas negativas
	Value    float64 // porcentaje de threshold o segundos de intervalo
}

// Parse valida una línea de consola y devuelve el comando que codifica.
// Todo el chequeo de input de usuario pasa acá, así las capas de abajo
// pueden asumir argumentos bien formados.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	verb := strings.ToLower(fields[0])
	args := fields[1:]

	switch verb {
	case "help", "?":
		return expectArgs(KindHelp, args, 0)
	case "exit", "quit":
		return expectArgs(KindExit, args, 0)
	case "update":
		return expectArgs(KindUpdate, args, 0)
	case "clear":
		return expectArgs(KindClear, args, 0)
	case "add":
		return parseAdd(args)
	case "remove":
		return parseRemove(args)
	case "show":
		return parseShow(args)
	case "hedge":
		return parseHedge(args)
	case "autohedge":
		return parseAutoHedge(args)
	case "threshold":
		return parseThreshold(args)
	case "interval":
		return parseInterval(args)
	default:
		return Command{}, fmt.Errorf("unknown command %q, try help", verb)
	}
}

func expectArgs(kind Kind, args []string, n int) (Command, error) {
	if len(args) != n {
		return Command{}, fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
	}
	return Command{Kind: kind}, nil
}

func parseAdd(args []string) (Command, error) {
	if len(args) != 3 {
		return Command{}, fmt.Errorf("usage: add <buy|sell> <symbol> <quantity>")
	}

	var sign int64
	switch strings.ToLower(args[0]) {
	case "buy":
		sign = 1
	case "sell":
		sign = -1
	default:
		return Command{}, fmt.Errorf("side must be buy or sell, got %q", args[0])
	}

	symbol, err := parseSymbol(args[1])
	if err != nil {
		return Command{}, err
	}
	qty, err := parseQuantity(args[2])
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: KindAdd, Symbol: symbol, Quantity: sign * qty}, nil
}

func parseRemove(args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, fmt.Errorf("usage: remove <symbol> <quantity>")
	}
	symbol, err := parseSymbol(args[0])
	if err != nil {
		return Command{}, err
	}
	qty, err := parseQuantity(args[1])
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: KindRemove, Symbol: symbol, Quantity: qty}, nil
}

func parseShow(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{Kind: KindShowPositions}, nil
	}
	if len(args) != 1 {
		return Command{}, fmt.Errorf("usage: show [positions|orders]")
	}
	switch strings.ToLower(args[0]) {
	case "positions":
		return Command{Kind: KindShowPositions}, nil
	case "orders":
		return Command{Kind: KindShowOrders}, nil
	default:
		return Command{}, fmt.Errorf("usage: show [positions|orders]")
	}
}

func parseHedge(args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, fmt.Errorf("usage: hedge <analyze|execute>")
	}
	switch strings.ToLower(args[0]) {
	case "analyze":
		return Command{Kind: KindHedgeAnalyze}, nil
	case "execute":
		return Command{Kind: KindHedgeExecute}, nil
	default:
		return Command{}, fmt.Errorf("usage: hedge <analyze|execute>")
	}
}

func parseAutoHedge(args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, fmt.Errorf("usage: autohedge <on|off|status>")
	}
	switch strings.ToLower(args[0]) {
	case "on":
		return Command{Kind: KindAutoHedgeOn}, nil
	case "off":
		return Command{Kind: KindAutoHedgeOff}, nil
	case "status":
		return Command{Kind: KindAutoHedgeStatus}, nil
	default:
		return Command{}, fmt.Errorf("usage: autohedge <on|off|status>")
	}
}

func parseThreshold(args []string) (Command, error) {
	switch len(args) {
	case 0:
		return Command{Kind: KindThresholdShow}, nil
	case 1:
		pct, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return Command{}, fmt.Errorf("invalid threshold %q", args[0])
		}
		return Command{Kind: KindThresholdSet, Value: pct}, nil
	default:
		return Command{}, fmt.Errorf("usage: threshold [percent]")
	}
}

func parseInterval(args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, fmt.Errorf("usage: interval <seconds>")
	}
	secs, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return Command{}, fmt.Errorf("invalid interval %q", args[0])
	}
	return Command{Kind: KindIntervalSet, Value: secs}, nil
}

func parseSymbol(raw string) (string, error) {
	symbol := strings.ToUpper(raw)
	if !domain.ValidOptionSymbol(symbol) {
		return "", fmt.Errorf("invalid option symbol %q, expected UNDERLYING-USD-STRIKE-C|P", raw)
	}
	return symbol, nil
}

func parseQuantity(raw string) (int64, error) {
	qty, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || qty <= 0 {
		return 0, fmt.Errorf("quantity must be a positive integer, got %q", raw)
	}
	return qty, nil
}
