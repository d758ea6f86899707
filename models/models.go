package models

import (
	"time"
)

// AssetType distinguishes the two execution venues.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
)

// Valid reports whether the asset type is one the engine can route.
func (a AssetType) Valid() bool {
	return a == AssetStock || a == AssetCrypto
}

// Action is the direction of a signal or trade.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// PriceBar represents a single OHLCV bar
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Quote is a point-in-time price snapshot for a symbol
type Quote struct {
	Symbol    string    `json:"symbol"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// MACDValue holds one MACD reading
type MACDValue struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// RSIValue holds one RSI reading
type RSIValue struct {
	RSI float64 `json:"rsi"`
}

// StochasticValue holds smoothed %K and %D
type StochasticValue struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// BollingerValue holds the three bands
type BollingerValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// ScalarValue is a single indicator value stamped with its bar time
type ScalarValue struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// VWAPValue holds the cumulative volume weighted average price
type VWAPValue struct {
	VWAP float64 `json:"vwap"`
}

// IndicatorSet is the bundle of indicators computed for one bar.
// A nil field means there was not enough history at that bar; strategies
// abstain on nil rather than reading it as zero.
type IndicatorSet struct {
	Symbol         string           `json:"symbol"`
	Timestamp      time.Time        `json:"timestamp"`
	MACD           *MACDValue       `json:"macd"`
	RSI            *RSIValue        `json:"rsi"`
	Stochastic     *StochasticValue `json:"stochastic"`
	BollingerBands *BollingerValue  `json:"bollingerBands"`
	SMA20          *ScalarValue     `json:"sma20"`
	SMA50          *ScalarValue     `json:"sma50"`
	EMA12          *ScalarValue     `json:"ema12"`
	EMA26          *ScalarValue     `json:"ema26"`
	VWAP           *VWAPValue       `json:"vwap"`
	WilliamsR      *ScalarValue     `json:"williamsR,omitempty"`
	ATR            *ScalarValue     `json:"atr,omitempty"`
}

// DataSufficiency is the advisory result of checking a series length
type DataSufficiency struct {
	Valid           bool     `json:"valid"`
	Missing         []string `json:"missing"`
	Recommendations []string `json:"recommendations"`
}
