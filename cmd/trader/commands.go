package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/SignalTrader/internal/config"
	"github.com/Alias1177/SignalTrader/internal/trading"
	"github.com/Alias1177/SignalTrader/models"
)

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	var (
		cfg      *config.Config
		logLevel string
	)

	// loadApp wires the components after flags are parsed
	loadApp := func(ctx context.Context) (*app, error) {
		return newApp(ctx, cfg)
	}

	rootCmd := &cobra.Command{
		Use:   "trader",
		Short: "SignalTrader - technical signals and automated trade execution",
		Long: `SignalTrader computes technical indicators for stocks and crypto, turns them
into weighted buy/sell/hold signals and executes trades through Alpaca and Gemini.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			setupLogger(cfg.LogLevel)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL")

	rootCmd.AddCommand(newSignalCmd(loadApp))
	rootCmd.AddCommand(newTradeCmd(loadApp))
	rootCmd.AddCommand(newSweepCmd(loadApp))

	return rootCmd
}

type appLoader func(ctx context.Context) (*app, error)

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

// newSignalCmd creates the signal command
func newSignalCmd(load appLoader) *cobra.Command {
	var (
		assetType      string
		portfolioValue float64
		concurrency    int
		notifySignals  bool
	)

	cmd := &cobra.Command{
		Use:   "signal SYMBOL [SYMBOL...]",
		Short: "Generate trading signals for one or more symbols",
		Example: `  trader signal AAPL MSFT
  trader signal btcusd --asset crypto`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset := models.AssetType(assetType)
			if !asset.Valid() {
				return fmt.Errorf("unknown asset type %q", assetType)
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			results, errs := a.analyzer.AnalyzeMany(ctx, args, asset, portfolioValue, concurrency)

			failed := 0
			for i, err := range errs {
				if err != nil {
					failed++
					log.Error().Err(err).Str("symbol", args[i]).Msg("Analysis failed")
					continue
				}
				if notifySignals && a.notifier != nil {
					if err := a.notifier.NotifySignal(ctx, results[i].Signal); err != nil {
						log.Warn().Err(err).Str("symbol", args[i]).Msg("Signal notification failed")
					}
				}
			}

			if err := printJSON(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			if failed == len(args) {
				return fmt.Errorf("analysis failed for every symbol")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&assetType, "asset", string(models.AssetStock), "Asset type: stock or crypto")
	cmd.Flags().Float64Var(&portfolioValue, "portfolio-value", 0, "Portfolio value used for the position size suggestion")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Symbols analysed in parallel")
	cmd.Flags().BoolVar(&notifySignals, "notify", false, "Send actionable signals to Telegram")

	return cmd
}

// tradeFlags are the raw values of the trade command
type tradeFlags struct {
	Symbol      string
	AssetType   string
	Action      string
	Quantity    float64
	Price       float64
	OrderType   string
	StopLoss    float64
	TakeProfit  float64
	UserID      string
	PortfolioID string
	SignalID    string
}

// params converts flags to TradeParams; zero prices mean unset
func (f tradeFlags) params() models.TradeParams {
	optional := func(v float64) *float64 {
		if v == 0 {
			return nil
		}
		return models.Float(v)
	}

	return models.TradeParams{
		Symbol:      strings.TrimSpace(f.Symbol),
		AssetType:   models.AssetType(strings.ToLower(f.AssetType)),
		Action:      models.Action(strings.ToLower(f.Action)),
		Quantity:    f.Quantity,
		Price:       optional(f.Price),
		OrderType:   models.OrderType(strings.ToLower(f.OrderType)),
		StopLoss:    optional(f.StopLoss),
		TakeProfit:  optional(f.TakeProfit),
		UserID:      f.UserID,
		PortfolioID: f.PortfolioID,
		SignalID:    f.SignalID,
	}
}

// newTradeCmd creates the trade command
func newTradeCmd(load appLoader) *cobra.Command {
	var f tradeFlags

	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Execute a single trade",
		Example: `  trader trade --symbol AAPL --action buy --qty 10 --user u1 --portfolio p1
  trader trade --symbol btcusd --asset crypto --action sell --qty 0.05 --type limit --price 65000 --user u1 --portfolio p1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := f.params()
			if err := trading.ValidateTradeParams(params); err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireEngine(); err != nil {
				return err
			}

			result := a.engine.ExecuteTrade(ctx, params)
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("trade failed: %s", result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.Symbol, "symbol", "", "Symbol to trade")
	cmd.Flags().StringVar(&f.AssetType, "asset", string(models.AssetStock), "Asset type: stock or crypto")
	cmd.Flags().StringVar(&f.Action, "action", "", "buy or sell")
	cmd.Flags().Float64Var(&f.Quantity, "qty", 0, "Quantity")
	cmd.Flags().Float64Var(&f.Price, "price", 0, "Limit or reference price")
	cmd.Flags().StringVar(&f.OrderType, "type", string(models.OrderMarket), "Order type: market, limit, stop_loss or take_profit")
	cmd.Flags().Float64Var(&f.StopLoss, "stop-loss", 0, "Stop loss price")
	cmd.Flags().Float64Var(&f.TakeProfit, "take-profit", 0, "Take profit price")
	cmd.Flags().StringVar(&f.UserID, "user", "", "Portfolio owner")
	cmd.Flags().StringVar(&f.PortfolioID, "portfolio", "", "Portfolio id")
	cmd.Flags().StringVar(&f.SignalID, "signal", "", "Signal id the trade acts on")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("action")
	_ = cmd.MarkFlagRequired("qty")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("portfolio")

	return cmd
}

// newSweepCmd creates the sweep command
func newSweepCmd(load appLoader) *cobra.Command {
	var (
		userID      string
		portfolios  []string
		all         bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Execute recent high-confidence buy signals for portfolios",
		Example: `  trader sweep --user u1 --portfolio p1 --portfolio p2
  trader sweep --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && (userID == "" || len(portfolios) == 0) {
				return fmt.Errorf("either --all or --user with at least one --portfolio is required")
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireEngine(); err != nil {
				return err
			}

			refs := make([]trading.PortfolioRef, 0, len(portfolios))
			if all {
				active, err := a.db.ListActivePortfolios(ctx)
				if err != nil {
					return fmt.Errorf("listing portfolios: %w", err)
				}
				for _, p := range active {
					refs = append(refs, trading.PortfolioRef{UserID: p.UserID, PortfolioID: p.ID})
				}
			} else {
				for _, id := range portfolios {
					refs = append(refs, trading.PortfolioRef{UserID: userID, PortfolioID: id})
				}
			}

			results, errs := a.engine.SweepPortfolios(ctx, refs, concurrency)
			for id, err := range errs {
				log.Error().Err(err).Str("portfolio_id", id).Msg("Sweep failed")
			}
			if a.notifier != nil {
				for id, res := range results {
					if err := a.notifier.NotifySweep(ctx, id, res); err != nil {
						log.Warn().Err(err).Str("portfolio_id", id).Msg("Sweep notification failed")
					}
				}
			}

			if err := printJSON(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of %d portfolio sweeps failed", len(errs), len(errs)+len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Portfolio owner")
	cmd.Flags().StringArrayVar(&portfolios, "portfolio", nil, "Portfolio id (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "Sweep every active portfolio")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Portfolios swept in parallel")

	return cmd
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
