package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
	"github.com/prajal/Multi-strategy-trading/internal/risk"
	"github.com/prajal/Multi-strategy-trading/internal/service"

	tele "gopkg.in/telebot.v3"
)

// Bot wraps the Telegram bot and pushes trade notifications to the
// configured chat. A nil *Bot is a no-op notifier.
type Bot struct {
	bot    *tele.Bot
	chatID int64
}

func StartTelegramBot(
	cfg config.Config,
	signals *service.SignalService,
	market *service.MarketDataService,
	riskMgr *risk.Manager,
) *Bot {
	if cfg.TelegramBotToken == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  cfg.TelegramBotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/quote", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /quote NIFTYBEES\nSupported: %s", strings.Join(domain.SupportedSymbols, ", ")))
		}
		symbol := strings.ToUpper(args[0])
		quote, err := market.GetQuote(context.Background(), symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching quote for %s: %v", symbol, err))
		}
		return c.Send(fmt.Sprintf("%s\nLTP: %.2f", symbol, quote.Price))
	})

	b.Handle("/signal", func(c tele.Context) error {
		result, err := signals.Latest(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error evaluating signal: %v", err))
		}
		return c.Send(formatSignal(result))
	})

	b.Handle("/risk", func(c tele.Context) error {
		halted, reason := riskMgr.ShouldStopTrading()
		status := "active"
		if halted {
			status = "HALTED: " + reason
		}
		msg := fmt.Sprintf(
			"Trading: %s\nDaily PnL: %.2f\nDrawdown: %.2f%%\nTrades today: %d",
			status, riskMgr.DailyPnL(), riskMgr.Drawdown()*100, riskMgr.TradeCountToday(),
		)
		return c.Send(msg)
	})

	b.Handle("/profiles", func(c tele.Context) error {
		var sb strings.Builder
		sb.WriteString("Available profiles:\n")
		for _, name := range config.ProfileNames() {
			marker := "  "
			if name == cfg.ProfileName {
				marker = "* "
			}
			sb.WriteString(marker + name + "\n")
		}
		return c.Send(sb.String())
	})

	log.Println("Telegram bot started")
	go b.Start()

	return &Bot{bot: b, chatID: cfg.TelegramChatID}
}

// Notify sends a message to the configured chat. Safe on a nil receiver so
// callers never need to branch on bot availability.
func (b *Bot) Notify(msg string) {
	if b == nil || b.chatID == 0 {
		return
	}
	if _, err := b.bot.Send(tele.ChatID(b.chatID), msg); err != nil {
		log.Printf("telegram notify error: %v", err)
	}
}

func formatSignal(result *domain.SignalResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Signal: %s\n", result.Direction)
	fmt.Fprintf(&sb, "Confidence: %.2f\n", result.Confidence)
	fmt.Fprintf(&sb, "Buy/Sell score: %.0f/%.0f\n", result.BuyScore, result.SellScore)
	fmt.Fprintf(&sb, "Quality: %.2f\n", result.QualityScore)
	if len(result.Confirmations) > 0 {
		fmt.Fprintf(&sb, "Confirmations: %s\n", strings.Join(result.Confirmations, ", "))
	}
	if result.Reason != "" {
		fmt.Fprintf(&sb, "Note: %s\n", result.Reason)
	}
	return strings.TrimRight(sb.String(), "\n")
}
