// Package notifier pushes trade and breaker events to Telegram.
package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tidemark/internal/book"
)

type Telegram struct {
	BotToken string
	ChatID   string
	Client   *http.Client
	baseURL  string
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		BotToken: botToken,
		ChatID:   chatID,
		Client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  "https://api.telegram.org",
	}
}

// Enabled reports whether the notifier is fully configured. A disabled
// notifier swallows all sends silently.
func (t *Telegram) Enabled() bool {
	return t != nil && t.BotToken != "" && t.ChatID != ""
}

// SendText pushes a Markdown message, retrying up to 3 times.
func (t *Telegram) SendText(text string) error {
	if !t.Enabled() {
		return nil
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.BotToken)
	payload := map[string]any{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, _ := json.Marshal(payload)

	var lastErr error
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := t.Client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode/100 == 2 {
			return nil
		}
		lastErr = fmt.Errorf("telegram status=%d", resp.StatusCode)
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return lastErr
}

// NotifyTrade formats and sends one trade record.
func (t *Telegram) NotifyTrade(rec book.TradeRecord) error {
	if !t.Enabled() {
		return nil
	}
	msg := fmt.Sprintf("*%s* %s @ %.8g x %.8g (%s)",
		rec.Side, rec.Pair, rec.Price, rec.Quantity, rec.Origin)
	if rec.HasProfit {
		msg += fmt.Sprintf("\npnl: %+.4f", rec.RealizedProfit)
	}
	return t.SendText(msg)
}

// NotifyBreakerTrip announces a drawdown halt.
func (t *Telegram) NotifyBreakerTrip(peak, equity float64) error {
	if !t.Enabled() {
		return nil
	}
	drawdown := 0.0
	if peak > 0 {
		drawdown = (peak - equity) / peak * 100
	}
	return t.SendText(fmt.Sprintf(
		"*CIRCUIT BREAKER TRIPPED*\nequity %.2f is %.1f%% below peak %.2f\nnew entries halted until restart",
		equity, drawdown, peak))
}
