// Package analyze runs the signal pipeline for a symbol: fetch bars,
// compute indicators, generate a signal and persist it.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalTrader/internal/indicators"
	"github.com/Alias1177/SignalTrader/internal/signals"
	"github.com/Alias1177/SignalTrader/models"
)

const (
	// DefaultLookback is the number of daily bars requested per analysis
	DefaultLookback  = 100
	defaultTimeframe = "1Day"
)

// SignalStore persists generated signals
type SignalStore interface {
	SaveSignal(ctx context.Context, signal models.TradingSignal) error
}

// Options configures an Analyzer. Zero values select the defaults.
type Options struct {
	Lookback  int
	Timeframe string
	Cache     *indicators.Cache
	Store     SignalStore
}

// Result is the outcome of one analysis. When InsufficientData is set,
// Signal is nil and Reason says why.
type Result struct {
	Symbol           string                  `json:"symbol"`
	AssetType        models.AssetType        `json:"assetType"`
	Signal           *models.TradingSignal   `json:"signal,omitempty"`
	Validation       models.SignalValidation `json:"validation"`
	Sufficiency      models.DataSufficiency  `json:"sufficiency"`
	Market           MarketContext           `json:"market"`
	InsufficientData bool                    `json:"insufficientData"`
	Reason           string                  `json:"reason,omitempty"`
	Persisted        bool                    `json:"persisted"`
}

// Analyzer wires market data, the indicator cache and the signal generator
type Analyzer struct {
	sources   map[models.AssetType]models.MarketDataSource
	generator *signals.Generator
	cache     *indicators.Cache
	store     SignalStore
	lookback  int
	timeframe string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(sources map[models.AssetType]models.MarketDataSource, generator *signals.Generator, opts Options) *Analyzer {
	if opts.Lookback <= 0 {
		opts.Lookback = DefaultLookback
	}
	if opts.Timeframe == "" {
		opts.Timeframe = defaultTimeframe
	}
	if opts.Cache == nil {
		opts.Cache = indicators.NewCache(indicators.DefaultParams(), indicators.DefaultCacheTTL)
	}

	return &Analyzer{
		sources:   sources,
		generator: generator,
		cache:     opts.Cache,
		store:     opts.Store,
		lookback:  opts.Lookback,
		timeframe: opts.Timeframe,
		logger:    log.With().Str("component", "analyzer").Logger(),
		now:       time.Now,
	}
}

// Analyze produces a signal for symbol. Missing market data and short
// series are reported through Result rather than as errors.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, assetType models.AssetType, portfolioValue float64) (*Result, error) {
	source, ok := a.sources[assetType]
	if !ok || source == nil {
		return nil, fmt.Errorf("no market data source for asset type %q", assetType)
	}

	result := &Result{Symbol: symbol, AssetType: assetType}
	logger := a.logger.With().Str("symbol", symbol).Str("asset_type", string(assetType)).Logger()

	end := a.now().UTC()
	start := models.LookbackStart(end, a.timeframe, a.lookback)

	bars, err := source.GetHistoricalBars(ctx, symbol, a.timeframe, start, end, a.lookback)
	if err != nil {
		var unavailable *models.DataUnavailableError
		if errors.As(err, &unavailable) {
			logger.Warn().Err(err).Msg("Market data unavailable")
			result.InsufficientData = true
			result.Reason = err.Error()
			result.Sufficiency = indicators.ValidateDataSufficiency(nil)
			return result, nil
		}
		return nil, fmt.Errorf("fetching bars for %s: %w", symbol, err)
	}

	result.Sufficiency = indicators.ValidateDataSufficiency(bars)
	result.Market = describeMarket(bars)

	latest, err := a.cache.Latest(symbol, bars)
	if err != nil {
		var short *models.InsufficientDataError
		if errors.As(err, &short) {
			logger.Info().Int("bars", len(bars)).Msg("Not enough history for analysis")
			result.InsufficientData = true
			result.Reason = err.Error()
			return result, nil
		}
		return nil, err
	}
	if latest == nil {
		result.InsufficientData = true
		result.Reason = "no indicator readings"
		return result, nil
	}

	price := bars[len(bars)-1].Close
	if quote, err := source.GetLatestQuote(ctx, symbol); err == nil && quote != nil && quote.Price > 0 {
		price = quote.Price
	} else if err != nil {
		logger.Debug().Err(err).Msg("Falling back to last close")
	}

	signal, err := a.generator.GenerateSignal(signals.Request{
		Symbol:         symbol,
		AssetType:      assetType,
		Indicators:     *latest,
		Bars:           bars,
		CurrentPrice:   price,
		PortfolioValue: portfolioValue,
	})
	if err != nil {
		return nil, fmt.Errorf("generating signal for %s: %w", symbol, err)
	}

	result.Signal = signal
	result.Validation = signals.ValidateSignal(signal)

	logger.Info().
		Str("action", string(signal.Action)).
		Float64("confidence", signal.Confidence).
		Float64("price", signal.Price).
		Msg("Signal generated")

	if a.store != nil {
		if err := a.store.SaveSignal(ctx, *signal); err != nil {
			logger.Error().Err(err).Str("signal_id", signal.ID).Msg("Failed to persist signal")
		} else {
			result.Persisted = true
		}
	}

	return result, nil
}

// AnalyzeMany analyses symbols in parallel, at most concurrency at a time.
// Results keep the order of symbols; a failed symbol leaves a nil result
// and its error in the matching slot.
func (a *Analyzer) AnalyzeMany(ctx context.Context, symbols []string, assetType models.AssetType, portfolioValue float64, concurrency int) ([]*Result, []error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]*Result, len(symbols))
	errs := make([]error, len(symbols))
	semaphore := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[i], errs[i] = a.Analyze(ctx, symbol, assetType, portfolioValue)
		}(i, symbol)
	}
	wg.Wait()

	return results, errs
}
