// Package notify sends Telegram alerts about sync and reconciliation
// runs. Messages go through a background queue with a minimum interval
// between sends, so bursts of alerts do not hit the Bot API rate limit.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between two messages to the same chat (~30/min limit).
const telegramSendInterval = 2 * time.Second

// TelegramNotifier sends run summaries and quarantine alerts.
type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	mu       sync.Mutex
	lastSend time.Time

	queue     chan string
	queueDone chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewTelegramNotifier creates a Telegram notifier. Returns nil when the
// bot cannot be reached; callers treat a nil notifier as disabled.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err = bot.GetMe(); err != nil {
		slog.Error("Failed to get bot info", "error", err)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	notifier := &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		queue:     make(chan string, 100),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	notifier.wg.Add(1)
	go notifier.messageSender()

	slog.Info("Telegram notifier initialized", "chat_id", chatID)
	return notifier
}

// messageSender runs in background and sends queued messages with the
// minimum interval between them.
func (n *TelegramNotifier) messageSender() {
	defer n.wg.Done()

	for {
		select {
		case <-n.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case text := <-n.queue:
					n.send(text)
				default:
					close(n.queueDone)
					return
				}
			}
		case text := <-n.queue:
			n.send(text)
		}
	}
}

func (n *TelegramNotifier) send(text string) {
	n.mu.Lock()
	elapsed := time.Since(n.lastSend)
	if elapsed < telegramSendInterval {
		wait := telegramSendInterval - elapsed
		n.mu.Unlock()
		select {
		case <-n.ctx.Done():
			return
		case <-time.After(wait):
		}
		n.mu.Lock()
	}
	n.lastSend = time.Now()
	n.mu.Unlock()

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Telegram send: failed", "error", err)
		return
	}
	slog.Info("Telegram send: success", "queue_length", len(n.queue))
}

// enqueue queues a message without blocking. Full queue drops the
// message with a warning.
func (n *TelegramNotifier) enqueue(ctx context.Context, text string) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}

	select {
	case <-n.ctx.Done():
		return fmt.Errorf("notifier stopped")
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- text:
		return nil
	default:
		slog.Warn("Telegram message queue is full, dropping message")
		return fmt.Errorf("message queue is full")
	}
}

// RunSummary describes one finished synchronization run.
type RunSummary struct {
	Entity      string
	Providers   []string
	Rows        int
	FullyLinked int // rows carrying an identifier from every provider
	StartedAt   time.Time
	FinishedAt  time.Time
}

// SendRunSummary queues a summary message for a finished run.
func (n *TelegramNotifier) SendRunSummary(ctx context.Context, s RunSummary) error {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("*Sync run finished: %s*\n\n", escapeMarkdown(s.Entity)))
	b.WriteString(fmt.Sprintf("Providers: %s\n", escapeMarkdown(strings.Join(s.Providers, ", "))))
	b.WriteString(fmt.Sprintf("Rows: *%d*, fully linked: *%d*\n", s.Rows, s.FullyLinked))
	if !s.FinishedAt.IsZero() && !s.StartedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Duration: %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond)))
	}
	return n.enqueue(ctx, b.String())
}

// SendQuarantineAlert queues an alert about knocked-out identifiers.
func (n *TelegramNotifier) SendQuarantineAlert(ctx context.Context, runID, entity string, count int) error {
	text := fmt.Sprintf("*Quarantine alert: %s*\n\n%d provider identifier(s) knocked out in run `%s`",
		escapeMarkdown(entity), count, runID)
	return n.enqueue(ctx, text)
}

// Stop stops the notifier and waits for queued messages to be sent.
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.cancel()
	<-n.queueDone
	n.wg.Wait()
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
