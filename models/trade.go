package models

import "time"

// OrderType is the caller-facing order kind
type OrderType string

const (
	OrderMarket     OrderType = "market"
	OrderLimit      OrderType = "limit"
	OrderStopLoss   OrderType = "stop_loss"
	OrderTakeProfit OrderType = "take_profit"
)

// Valid reports whether the order type is supported
func (o OrderType) Valid() bool {
	switch o {
	case OrderMarket, OrderLimit, OrderStopLoss, OrderTakeProfit:
		return true
	}
	return false
}

// TradeParams is a caller-built trade request
type TradeParams struct {
	Symbol      string    `json:"symbol"`
	AssetType   AssetType `json:"assetType"`
	Action      Action    `json:"action"`
	Quantity    float64   `json:"quantity"`
	Price       *float64  `json:"price,omitempty"`
	OrderType   OrderType `json:"orderType"`
	StopLoss    *float64  `json:"stopLoss,omitempty"`
	TakeProfit  *float64  `json:"takeProfit,omitempty"`
	UserID      string    `json:"userId"`
	PortfolioID string    `json:"portfolioId"`
	SignalID    string    `json:"signalId,omitempty"`
}

// TradeStatus is the terminal state of one execution attempt.
// Filled means the broker confirmed the order; Reconciled means the
// portfolio store has also recorded it.
type TradeStatus string

const (
	TradeRejected     TradeStatus = "rejected"
	TradeGatewayError TradeStatus = "gateway_error"
	TradeFilled       TradeStatus = "filled"
	TradeReconciled   TradeStatus = "reconciled"
)

// TradeResult is the one-shot outcome of ExecuteTrade
type TradeResult struct {
	Success          bool        `json:"success"`
	Status           TradeStatus `json:"status"`
	OrderID          string      `json:"orderId,omitempty"`
	ExecutedPrice    *float64    `json:"executedPrice,omitempty"`
	ExecutedQuantity *float64    `json:"executedQuantity,omitempty"`
	Fees             *float64    `json:"fees,omitempty"`
	Error            string      `json:"error,omitempty"`
	ReconcileError   string      `json:"reconcileError,omitempty"`
	Timestamp        time.Time   `json:"timestamp"`
}

// TradeRecord is the row appended to the trade log after a fill
type TradeRecord struct {
	ID              string    `json:"id"`
	PortfolioID     string    `json:"portfolioId"`
	SignalID        string    `json:"signalId,omitempty"`
	Symbol          string    `json:"symbol"`
	AssetType       AssetType `json:"assetType"`
	Action          Action    `json:"action"`
	Quantity        float64   `json:"quantity"`
	Price           float64   `json:"price"`
	OrderType       OrderType `json:"orderType"`
	StopLoss        *float64  `json:"stopLoss,omitempty"`
	TakeProfit      *float64  `json:"takeProfit,omitempty"`
	Fees            float64   `json:"fees"`
	ExternalOrderID string    `json:"externalOrderId"`
	Status          string    `json:"status"`
	RealizedPnL     float64   `json:"realizedPnl"`
	Timestamp       time.Time `json:"timestamp"`
}

// PortfolioMetrics is a live snapshot, recomputed per request
type PortfolioMetrics struct {
	TotalValue       float64 `json:"totalValue"`
	TotalCash        float64 `json:"totalCash"`
	TotalInvested    float64 `json:"totalInvested"`
	UnrealizedPnL    float64 `json:"unrealizedPnL"`
	RealizedPnL      float64 `json:"realizedPnL"`
	DayChange        float64 `json:"dayChange"`
	DayChangePercent float64 `json:"dayChangePercent"`
	OpenPositions    int     `json:"openPositions"`
	TodayTrades      int     `json:"todayTrades"`
}

// Portfolio is the persisted account envelope
type Portfolio struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	CashBalance float64   `json:"cashBalance"`
	TotalValue  float64   `json:"totalValue"`
	TotalPnL    float64   `json:"totalPnl"`
	IsPaper     bool      `json:"isPaper"`
	IsActive    bool      `json:"isActive"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Position is an open holding in a portfolio
type Position struct {
	PortfolioID  string    `json:"portfolioId"`
	Symbol       string    `json:"symbol"`
	AssetType    AssetType `json:"assetType"`
	Quantity     float64   `json:"quantity"`
	AveragePrice float64   `json:"averagePrice"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Account is the broker account state used for pre-trade checks
type Account struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Currency    string  `json:"currency"`
	BuyingPower float64 `json:"buyingPower"`
	Cash        float64 `json:"cash"`
	Equity      float64 `json:"equity"`
}

// AccountActive is the broker status that allows trading
const AccountActive = "ACTIVE"

// OrderSpec is the venue-neutral order handed to an execution gateway
type OrderSpec struct {
	ClientOrderID string    `json:"clientOrderId"`
	Symbol        string    `json:"symbol" validate:"required"`
	Side          Action    `json:"side" validate:"required,oneof=buy sell"`
	Type          OrderType `json:"type" validate:"required"`
	Quantity      float64   `json:"quantity" validate:"gt=0"`
	LimitPrice    *float64  `json:"limitPrice,omitempty"`
	StopPrice     *float64  `json:"stopPrice,omitempty"`
	TimeInForce   string    `json:"timeInForce,omitempty"`
}

// OrderValidation is the gateway's own pre-flight verdict
type OrderValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// OrderFill is what a gateway reports after placing an order
type OrderFill struct {
	OrderID        string    `json:"orderId"`
	FilledQty      float64   `json:"filledQty"`
	FilledAvgPrice float64   `json:"filledAvgPrice"`
	Fees           float64   `json:"fees"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// SweepItem is the per-signal outcome of an automated sweep
type SweepItem struct {
	SignalID string `json:"signal"`
	Symbol   string `json:"symbol,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	OrderID  string `json:"orderId,omitempty"`
}

// SweepResult aggregates an automated sweep
type SweepResult struct {
	Processed int         `json:"processed"`
	Executed  int         `json:"executed"`
	Failed    int         `json:"failed"`
	Results   []SweepItem `json:"results"`
}

// Float returns a pointer to v, for optional fields
func Float(v float64) *float64 {
	return &v
}
