package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalTrader/internal/analyze"
	"github.com/Alias1177/SignalTrader/internal/broker/alpaca"
	"github.com/Alias1177/SignalTrader/internal/broker/gemini"
	"github.com/Alias1177/SignalTrader/internal/broker/paper"
	"github.com/Alias1177/SignalTrader/internal/config"
	"github.com/Alias1177/SignalTrader/internal/database"
	"github.com/Alias1177/SignalTrader/internal/notify"
	"github.com/Alias1177/SignalTrader/internal/portfolio"
	"github.com/Alias1177/SignalTrader/internal/signals"
	"github.com/Alias1177/SignalTrader/internal/trading"
	"github.com/Alias1177/SignalTrader/models"
)

var errNoDatabase = errors.New("database is not configured (set DB_HOST and DB_NAME)")

// app holds the wired components for one CLI invocation
type app struct {
	cfg      *config.Config
	db       *database.DB
	sources  map[models.AssetType]models.MarketDataSource
	manager  *portfolio.Manager
	engine   *trading.Engine
	analyzer *analyze.Analyzer
	notifier *notify.TelegramNotifier
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	stockClient := alpaca.NewClient(alpaca.ClientOptions{
		APIKey:            cfg.AlpacaAPIKey,
		SecretKey:         cfg.AlpacaSecretKey,
		BaseURL:           cfg.AlpacaBaseURL,
		DataURL:           cfg.AlpacaDataURL,
		RequestTimeout:    cfg.RequestTimeout,
		RequestsPerMinute: cfg.RequestsPerMinute(),
	})
	cryptoClient := gemini.NewClient(gemini.ClientOptions{
		APIKey:            cfg.GeminiAPIKey,
		APISecret:         cfg.GeminiSecretKey,
		Sandbox:           cfg.GeminiSandbox,
		RequestTimeout:    cfg.RequestTimeout,
		RequestsPerMinute: cfg.RequestsPerMinute(),
	})

	a.sources = map[models.AssetType]models.MarketDataSource{
		models.AssetStock:  stockClient,
		models.AssetCrypto: cryptoClient,
	}

	var (
		stocks trading.StockGateway  = stockClient
		crypto trading.CryptoGateway = cryptoClient
	)
	if cfg.IsPaper() {
		stocks = paper.NewGateway(stockClient, 0)
		crypto = paper.NewGateway(cryptoClient, 0)
		log.Info().Msg("Paper trading mode")
	}

	profile, err := cfg.LoadStrategyProfile()
	if err != nil {
		return nil, err
	}
	generator := signals.NewGenerator(profile.Weights, profile.Risk)

	if cfg.HasTelegram() {
		n, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram notifications disabled")
		} else {
			a.notifier = n
		}
	}

	analyzerOpts := analyze.Options{}
	if cfg.HasDatabase() {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.db = db
		a.manager = portfolio.NewManager(db, a.sources)
		analyzerOpts.Store = a.manager

		engineOpts := trading.Options{
			Limits:         cfg.Limits(),
			GatewayTimeout: cfg.GatewayTimeout,
			Quotes:         a.sources,
		}
		if a.notifier != nil {
			engineOpts.Notifier = a.notifier
		}
		a.engine = trading.NewEngine(stocks, crypto, a.manager, engineOpts)
	}

	a.analyzer = analyze.NewAnalyzer(a.sources, generator, analyzerOpts)
	return a, nil
}

func (a *app) requireEngine() error {
	if a.engine == nil {
		return errNoDatabase
	}
	return nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
