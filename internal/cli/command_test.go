package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welann/optionhedge/internal/cli"
)

func TestParse_Add(t *testing.T) {
	cmd, err := cli.Parse("add buy sol-usd-215-c 3")
	require.NoError(t, err)
	assert.Equal(t, cli.KindAdd, cmd.Kind)
	assert.Equal(t, "SOL-USD-215-C", cmd.Symbol)
	assert.Equal(t, int64(3), cmd.Quantity)

	cmd, err = cli.Parse("add sell BTC-USD-100000-P 2")
	require.NoError(t, err)
	assert.Equal(t, int64(-2), cmd.Quantity)
}

func TestParse_AddRejectsBadInput(t *testing.T) {
	cases := []string{
		"add buy SOL-USD-215-C",      // falta cantidad
		"add hold SOL-USD-215-C 1",   // side inválido
		"add buy SOLUSD215C 1",       // símbolo malformado
		"add buy SOL-USD-215-C 0",    // cantidad cero
		"add buy SOL-USD-215-C -2",   // cantidad negativa
		"add buy SOL-USD-215-C 1.5",  // cantidad fraccionaria
		"add buy SOL-USD-215-C 1 ex", // argumentos de más
	}
	for _, line := range cases {
		_, err := cli.Parse(line)
		assert.Error(t, err, line)
	}
}

func TestParse_Remove(t *testing.T) {
	cmd, err := cli.Parse("remove eth-usd-3000-c 2")
	require.NoError(t, err)
	assert.Equal(t, cli.KindRemove, cmd.Kind)
	assert.Equal(t, "ETH-USD-3000-C", cmd.Symbol)
	assert.Equal(t, int64(2), cmd.Quantity)
}

func TestParse_Show(t *testing.T) {
	cmd, err := cli.Parse("show")
	require.NoError(t, err)
	assert.Equal(t, cli.KindShowPositions, cmd.Kind)

	cmd, err = cli.Parse("show orders")
	require.NoError(t, err)
	assert.Equal(t, cli.KindShowOrders, cmd.Kind)

	_, err = cli.Parse("show everything")
	assert.Error(t, err)
}

func TestParse_Hedge(t *testing.T) {
	cmd, err := cli.Parse("hedge analyze")
	require.NoError(t, err)
	assert.Equal(t, cli.KindHedgeAnalyze, cmd.Kind)

	cmd, err = cli.Parse("hedge execute")
	require.NoError(t, err)
	assert.Equal(t, cli.KindHedgeExecute, cmd.Kind)

	_, err = cli.Parse("hedge")
	assert.Error(t, err)
}

func TestParse_AutoHedge(t *testing.T) {
	for input, want := range map[string]cli.Kind{
		"autohedge on":     cli.KindAutoHedgeOn,
		"autohedge off":    cli.KindAutoHedgeOff,
		"autohedge status": cli.KindAutoHedgeStatus,
	} {
		cmd, err := cli.Parse(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, cmd.Kind, input)
	}

	_, err := cli.Parse("autohedge maybe")
	assert.Error(t, err)
}

func TestParse_Threshold(t *testing.T) {
	cmd, err := cli.Parse("threshold")
	require.NoError(t, err)
	assert.Equal(t, cli.KindThresholdShow, cmd.Kind)

	cmd, err = cli.Parse("threshold 2.5")
	require.NoError(t, err)
	assert.Equal(t, cli.KindThresholdSet, cmd.Kind)
	assert.InDelta(t, 2.5, cmd.Value, 1e-9)

	_, err = cli.Parse("threshold lots")
	assert.Error(t, err)
}

func TestParse_Interval(t *testing.T) {
	cmd, err := cli.Parse("interval 30")
	require.NoError(t, err)
	assert.Equal(t, cli.KindIntervalSet, cmd.Kind)
	assert.InDelta(t, 30, cmd.Value, 1e-9)

	_, err = cli.Parse("interval")
	assert.Error(t, err)
}

func TestParse_Misc(t *testing.T) {
	for input, want := range map[string]cli.Kind{
		"help":   cli.KindHelp,
		"?":      cli.KindHelp,
		"exit":   cli.KindExit,
		"QUIT":   cli.KindExit,
		"update": cli.KindUpdate,
		"clear":  cli.KindClear,
	} {
		cmd, err := cli.Parse(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, cmd.Kind, input)
	}

	_, err := cli.Parse("")
	assert.Error(t, err)

	_, err = cli.Parse("frobnicate")
	assert.Error(t, err)
}
