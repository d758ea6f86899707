package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SignalTrader/models"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["signal"])
	assert.True(t, names["trade"])
	assert.True(t, names["sweep"])
}

func TestTradeFlagsParams(t *testing.T) {
	params := tradeFlags{
		Symbol:      " AAPL ",
		AssetType:   "STOCK",
		Action:      "Buy",
		Quantity:    10,
		Price:       150,
		OrderType:   "limit",
		UserID:      "u1",
		PortfolioID: "p1",
	}.params()

	assert.Equal(t, "AAPL", params.Symbol)
	assert.Equal(t, models.AssetStock, params.AssetType)
	assert.Equal(t, models.ActionBuy, params.Action)
	assert.Equal(t, models.OrderLimit, params.OrderType)
	require.NotNil(t, params.Price)
	assert.Equal(t, 150.0, *params.Price)
	assert.Nil(t, params.StopLoss)
	assert.Nil(t, params.TakeProfit)
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TRADING_MODE", "paper")
	t.Setenv("DB_HOST", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("STRATEGY_FILE", "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTradeCommandRejectsInvalidParams(t *testing.T) {
	_, err := runCommand(t, "trade", "--symbol", "AAPL", "--action", "hold", "--qty", "1", "--user", "u", "--portfolio", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Action must be buy or sell")
}

func TestTradeCommandNeedsDatabase(t *testing.T) {
	_, err := runCommand(t, "trade", "--symbol", "AAPL", "--action", "buy", "--qty", "1", "--user", "u", "--portfolio", "p")
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestSweepCommandNeedsTargets(t *testing.T) {
	_, err := runCommand(t, "sweep")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "either --all or --user")
}

func TestSignalCommandRejectsAssetType(t *testing.T) {
	_, err := runCommand(t, "signal", "AAPL", "--asset", "bond")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown asset type "bond"`)
}
