package trading

import (
	"math"
	"strings"

	"github.com/Alias1177/SignalTrader/models"
)

// ValidateTradeParams checks the structure of a trade request without
// touching any collaborator.
func ValidateTradeParams(params models.TradeParams) error {
	if reasons := tradeParamErrors(params); len(reasons) > 0 {
		return &models.ValidationError{Reasons: reasons}
	}
	return nil
}

func tradeParamErrors(params models.TradeParams) []string {
	var errs []string

	if strings.TrimSpace(params.Symbol) == "" {
		errs = append(errs, "Symbol is required")
	}
	if params.Quantity <= 0 || math.IsNaN(params.Quantity) || math.IsInf(params.Quantity, 0) {
		errs = append(errs, "Quantity must be greater than 0")
	}
	if params.Action != models.ActionBuy && params.Action != models.ActionSell {
		errs = append(errs, "Action must be buy or sell")
	}
	if !params.AssetType.Valid() {
		errs = append(errs, "Asset type must be stock or crypto")
	}
	if !params.OrderType.Valid() {
		errs = append(errs, "Order type must be market, limit, stop_loss or take_profit")
	}
	if params.OrderType == models.OrderLimit && (params.Price == nil || *params.Price <= 0) {
		errs = append(errs, "Price is required for limit orders")
	}
	if params.Price != nil && *params.Price < 0 {
		errs = append(errs, "Price must not be negative")
	}

	return errs
}
