package bot

import (
	"strings"
	"testing"

	"github.com/prajal/Multi-strategy-trading/internal/config"
	"github.com/prajal/Multi-strategy-trading/internal/domain"
)

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	b := StartTelegramBot(config.Config{}, nil, nil, nil)
	if b != nil {
		t.Fatal("expected nil bot without token")
	}
}

func TestNotifyNilBotIsNoop(t *testing.T) {
	var b *Bot
	b.Notify("should not panic")
}

func TestFormatSignal(t *testing.T) {
	result := &domain.SignalResult{
		Direction:     domain.DirectionBuy,
		Confidence:    0.72,
		BuyScore:      5,
		SellScore:     2,
		QualityScore:  0.81,
		Confirmations: []string{"supertrend_bullish", "macd_bullish"},
	}
	msg := formatSignal(result)
	for _, want := range []string{"BUY", "0.72", "5/2", "supertrend_bullish"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in message:\n%s", want, msg)
		}
	}
}

func TestFormatSignalHoldReason(t *testing.T) {
	result := &domain.SignalResult{
		Direction: domain.DirectionHold,
		Reason:    "regime skip: volatility spike",
	}
	msg := formatSignal(result)
	if !strings.Contains(msg, "regime skip") {
		t.Fatalf("expected reason in message:\n%s", msg)
	}
}
