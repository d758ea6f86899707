// Package notify reports fills and automated sweep summaries to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalTrader/models"
)

// Sender is the part of *tgbotapi.BotAPI the notifier uses
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends Markdown messages to one chat
type TelegramNotifier struct {
	sender Sender
	chatID int64
	logger zerolog.Logger
}

// NewTelegramNotifier authorises the bot token and targets chatID
func NewTelegramNotifier(botToken string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	n := NewWithSender(bot, chatID)
	n.logger.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")
	return n, nil
}

// NewWithSender builds a notifier on an existing sender
func NewWithSender(sender Sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		chatID: chatID,
		logger: log.With().Str("component", "telegram_notifier").Logger(),
	}
}

// NotifyFill reports a broker-confirmed trade
func (n *TelegramNotifier) NotifyFill(ctx context.Context, params models.TradeParams, result models.TradeResult) error {
	return n.send(ctx, formatFill(params, result))
}

// NotifySweep reports the outcome of an automated sweep
func (n *TelegramNotifier) NotifySweep(ctx context.Context, portfolioID string, result *models.SweepResult) error {
	if result == nil {
		return nil
	}
	return n.send(ctx, formatSweep(portfolioID, result))
}

// NotifySignal reports an actionable signal; hold signals are skipped
func (n *TelegramNotifier) NotifySignal(ctx context.Context, signal *models.TradingSignal) error {
	if signal == nil || signal.Action == models.ActionHold {
		return nil
	}
	return n.send(ctx, formatSignal(signal))
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("chat_id", n.chatID).Msg("Failed to send Telegram message")
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

func formatFill(params models.TradeParams, result models.TradeResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ *%s %s* %s\n", strings.ToUpper(string(params.Action)), params.Symbol, params.AssetType)
	if result.ExecutedQuantity != nil && result.ExecutedPrice != nil {
		fmt.Fprintf(&b, "Filled %g @ %.2f\n", *result.ExecutedQuantity, *result.ExecutedPrice)
	} else {
		fmt.Fprintf(&b, "Quantity %g\n", params.Quantity)
	}
	if result.Fees != nil {
		fmt.Fprintf(&b, "Fees: %.2f\n", *result.Fees)
	}
	fmt.Fprintf(&b, "Order: `%s`", result.OrderID)
	if result.ReconcileError != "" {
		fmt.Fprintf(&b, "\n⚠️ Not yet recorded: %s", result.ReconcileError)
	}
	return b.String()
}

func formatSweep(portfolioID string, result *models.SweepResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤖 *Automated trading* for `%s`\n", portfolioID)
	fmt.Fprintf(&b, "Processed: %d, executed: %d, failed: %d", result.Processed, result.Executed, result.Failed)

	for _, item := range result.Results {
		if item.Success {
			fmt.Fprintf(&b, "\n• %s order `%s`", item.Symbol, item.OrderID)
		}
	}
	return b.String()
}

func formatSignal(signal *models.TradingSignal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 *%s %s* at %.2f (confidence %.0f%%)", strings.ToUpper(string(signal.Action)), signal.Symbol, signal.Price, signal.Confidence*100)
	if signal.StopLoss != nil && signal.TakeProfit != nil {
		fmt.Fprintf(&b, "\nStop loss %.2f, take profit %.2f", *signal.StopLoss, *signal.TakeProfit)
	}
	return b.String()
}
