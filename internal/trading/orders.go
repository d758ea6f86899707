package trading

import (
	"strings"

	"github.com/Alias1177/SignalTrader/models"
)

// BuildOrderSpec turns trade params into the venue-neutral order. Stop
// orders trigger at the stop loss and take-profit orders rest at the
// take-profit level, each falling back to the explicit price.
func BuildOrderSpec(params models.TradeParams, clientOrderID string) models.OrderSpec {
	spec := models.OrderSpec{
		ClientOrderID: clientOrderID,
		Symbol:        params.Symbol,
		Side:          params.Action,
		Type:          params.OrderType,
		Quantity:      params.Quantity,
		TimeInForce:   "day",
	}

	switch params.OrderType {
	case models.OrderLimit:
		spec.LimitPrice = params.Price
	case models.OrderStopLoss:
		spec.StopPrice = firstSet(params.StopLoss, params.Price)
	case models.OrderTakeProfit:
		spec.LimitPrice = firstSet(params.TakeProfit, params.Price)
	}

	return spec
}

// orderClosed reports whether a venue order state is final. A closed order
// with no filled quantity never executed.
func orderClosed(status string) bool {
	switch strings.ToLower(status) {
	case "rejected", "canceled", "cancelled", "expired", "suspended":
		return true
	}
	return false
}

func firstSet(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil && *v > 0 {
			return v
		}
	}
	return nil
}
