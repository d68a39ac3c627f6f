package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/NataTusia/Haah-and-Cash/logger"
	"github.com/NataTusia/Haah-and-Cash/models"
	"github.com/NataTusia/Haah-and-Cash/orchestrator"
	"github.com/NataTusia/Haah-and-Cash/scheduler"
)

// Drafts is the orchestrator surface the handler drives.
type Drafts interface {
	Generate(ctx context.Context, channel models.Channel, day int, trigger orchestrator.Trigger) error
	HandleAction(ctx context.Context, in orchestrator.Inbound) error
	Drafts() []models.RenderedDraft
	Today() int
}

type Schedule interface {
	NextRuns(now time.Time) []scheduler.Run
}

// FailureCounter reports failed generation calls; optional.
type FailureCounter interface {
	CountFailuresSince(ctx context.Context, t time.Time) (int64, error)
}

type HandlerOptions struct {
	BrandName string
	Location  *time.Location
	Schedule  Schedule
	Failures  FailureCounter
	Now       func() time.Time
}

// Handler processes updates one at a time. Only the admin is served.
type Handler struct {
	bot     *Bot
	drafts  Drafts
	opts    HandlerOptions
	adminID int64
}

func NewHandler(bot *Bot, drafts Drafts, opts HandlerOptions) *Handler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{bot: bot, drafts: drafts, opts: opts, adminID: bot.adminID}
}

// Run consumes updates until ctx is done or the channel closes.
func (h *Handler) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			h.Handle(ctx, u)
		}
	}
}

func (h *Handler) Handle(ctx context.Context, u tgbotapi.Update) {
	switch {
	case u.CallbackQuery != nil:
		h.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && u.Message.IsCommand():
		h.handleCommand(ctx, u.Message)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.From.ID != h.adminID {
		logger.WarnWithFields("ignoring callback from non-admin", logger.Fields{"from": userID(cb.From)})
		return
	}
	// Answer first so the client stops its spinner while generation runs.
	if _, err := h.bot.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		logger.WarnWithFields("failed to answer callback", logger.Fields{"error": err.Error()})
	}
	if cb.Message == nil {
		return
	}

	in := inbound(cb.Data, cb.Message)
	if err := h.drafts.HandleAction(ctx, in); err != nil {
		logger.InfoWithFields("action finished with error", logger.Fields{"token": cb.Data, "error": err.Error()})
	}
}

// inbound describes the display an action was pressed on.
func inbound(data string, m *tgbotapi.Message) orchestrator.Inbound {
	in := orchestrator.Inbound{
		Token: data,
		Text:  m.Text,
	}
	if m.Chat != nil {
		in.Ref = models.MessageRef{ChatID: m.Chat.ID, MessageID: m.MessageID}
	}
	if len(m.Photo) > 0 {
		in.Text = m.Caption
		// sizes are ordered smallest first
		in.Media = models.MediaRef{FileID: m.Photo[len(m.Photo)-1].FileID}
	}
	return in
}

func (h *Handler) handleCommand(ctx context.Context, m *tgbotapi.Message) {
	if m.From == nil || m.From.ID != h.adminID {
		logger.WarnWithFields("ignoring command from non-admin", logger.Fields{"from": userID(m.From), "command": m.Command()})
		return
	}

	cmd, err := ParseCommand(m.Command(), m.CommandArguments())
	if err != nil {
		if errors.Is(err, ErrUnknownCommand) {
			return
		}
		h.reply(ctx, "⚠️ "+err.Error())
		return
	}

	switch cmd.Kind {
	case CmdStart:
		h.reply(ctx, fmt.Sprintf(helpTemplate, h.opts.BrandName))
	case CmdStatus:
		h.reply(ctx, h.status(ctx))
	case CmdGenerate:
		h.reply(ctx, fmt.Sprintf("⏳ Generating %s...", cmd.Channel))
		if err := h.drafts.Generate(ctx, cmd.Channel, cmd.Day, orchestrator.Operator); err != nil {
			logger.InfoWithFields("generation finished with error", logger.Fields{"channel": cmd.Channel.String(), "error": err.Error()})
		}
	}
}

func (h *Handler) status(ctx context.Context) string {
	now := h.opts.Now().In(h.opts.Location)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Status\nToday: day %d (%s)\n", h.drafts.Today(), h.opts.Location)

	if h.opts.Schedule != nil {
		sb.WriteString("\nNext runs:\n")
		for _, r := range h.opts.Schedule.NextRuns(now) {
			fmt.Fprintf(&sb, "• %s: %s\n", r.Channel, r.At.In(h.opts.Location).Format("02.01 15:04"))
		}
	}

	drafts := h.drafts.Drafts()
	var rendered, posted int
	for _, d := range drafts {
		switch d.State {
		case models.Rendered:
			rendered++
		case models.Posted:
			posted++
		}
	}
	fmt.Fprintf(&sb, "\nDrafts: %d waiting, %d posted\n", rendered, posted)
	for _, d := range drafts {
		fmt.Fprintf(&sb, "• %s %s: %s\n", d.Key, d.Variant, d.State)
	}

	if h.opts.Failures != nil {
		n, err := h.opts.Failures.CountFailuresSince(ctx, now.Add(-24*time.Hour))
		if err != nil {
			logger.WarnWithFields("failed to count generation failures", logger.Fields{"error": err.Error()})
		} else {
			fmt.Fprintf(&sb, "Generation failures (24h): %d\n", n)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (h *Handler) reply(ctx context.Context, text string) {
	if err := h.bot.Notify(ctx, text); err != nil {
		logger.ErrorWithFields("failed to reply to admin", logger.Fields{"error": err.Error()})
	}
}

func userID(u *tgbotapi.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}
