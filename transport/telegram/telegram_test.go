package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NataTusia/Haah-and-Cash/models"
	"github.com/NataTusia/Haah-and-Cash/orchestrator"
	"github.com/NataTusia/Haah-and-Cash/scheduler"
)

const admin = int64(4242)

type fakeAPI struct {
	sent       []tgbotapi.Chattable
	requested  []tgbotapi.Chattable
	nextID     int
	sendErr    error
	requestErr error
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if a.sendErr != nil {
		return tgbotapi.Message{}, a.sendErr
	}
	a.sent = append(a.sent, c)
	a.nextID++
	return tgbotapi.Message{MessageID: a.nextID}, nil
}

func (a *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if a.requestErr != nil {
		return nil, a.requestErr
	}
	a.requested = append(a.requested, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func callbackData(t *testing.T, kb interface{}) []string {
	t.Helper()
	var markup tgbotapi.InlineKeyboardMarkup
	switch v := kb.(type) {
	case tgbotapi.InlineKeyboardMarkup:
		markup = v
	case *tgbotapi.InlineKeyboardMarkup:
		require.NotNil(t, v)
		markup = *v
	default:
		t.Fatalf("unexpected markup %T", kb)
	}
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, b := range row {
			require.NotNil(t, b.CallbackData)
			out = append(out, *b.CallbackData)
		}
	}
	return out
}

var buttons = []models.Button{
	{Label: "✅ Publish", Token: "publish_15_morning_tg"},
	{Label: "🖼 New photo", Token: "photo_15_morning_tg"},
}

func TestSendPhotoDisplay(t *testing.T) {
	api := &fakeAPI{}
	bot := NewBot(api, admin, "@hashcash")

	ref, err := bot.Send(context.Background(), orchestrator.View{
		Text:    "✈️ TG (MORNING | Day 15)\n\nbody",
		Media:   models.MediaRef{URL: "https://img/1.jpg"},
		Buttons: buttons,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessageRef{ChatID: admin, MessageID: 1}, ref)

	require.Len(t, api.sent, 1)
	photo, ok := api.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, admin, photo.ChatID)
	assert.Equal(t, "✈️ TG (MORNING | Day 15)\n\nbody", photo.Caption)
	assert.Equal(t, tgbotapi.FileURL("https://img/1.jpg"), photo.File)
	assert.Equal(t, []string{"publish_15_morning_tg", "photo_15_morning_tg"}, callbackData(t, photo.ReplyMarkup))
}

func TestSendTextDisplay(t *testing.T) {
	api := &fakeAPI{}
	bot := NewBot(api, admin, "@hashcash")

	_, err := bot.Send(context.Background(), orchestrator.View{
		Text:    "📝 INSTA CAROUSEL SCRIPT (Day 3)\n\nslides",
		Buttons: []models.Button{{Label: "📝 New script", Token: "text_3_inst_inst_script"}},
	})
	require.NoError(t, err)

	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "📝 INSTA CAROUSEL SCRIPT (Day 3)\n\nslides", msg.Text)
	assert.Equal(t, []string{"text_3_inst_inst_script"}, callbackData(t, msg.ReplyMarkup))
}

func TestSendFailure(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("Bad Request: wrong file identifier")}
	bot := NewBot(api, admin, "@hashcash")

	_, err := bot.Send(context.Background(), orchestrator.View{Text: "x"})
	assert.Error(t, err)
}

func TestReplaceMedia(t *testing.T) {
	api := &fakeAPI{}
	bot := NewBot(api, admin, "@hashcash")
	ref := models.MessageRef{ChatID: admin, MessageID: 9}

	require.NoError(t, bot.ReplaceMedia(context.Background(), ref, orchestrator.View{
		Text:    "caption",
		Media:   models.MediaRef{URL: "https://img/2.jpg"},
		Buttons: buttons,
	}))

	require.Len(t, api.requested, 1)
	edit, ok := api.requested[0].(tgbotapi.EditMessageMediaConfig)
	require.True(t, ok)
	assert.Equal(t, 9, edit.MessageID)
	assert.Equal(t, admin, edit.ChatID)
	media, ok := edit.Media.(tgbotapi.InputMediaPhoto)
	require.True(t, ok)
	assert.Equal(t, "caption", media.Caption)
	assert.Equal(t, tgbotapi.FileURL("https://img/2.jpg"), media.Media)
	assert.Equal(t, []string{"publish_15_morning_tg", "photo_15_morning_tg"}, callbackData(t, edit.ReplyMarkup))
}

func TestReplaceText(t *testing.T) {
	ref := models.MessageRef{ChatID: admin, MessageID: 5}

	t.Run("photo display edits caption", func(t *testing.T) {
		api := &fakeAPI{}
		bot := NewBot(api, admin, "@hashcash")
		require.NoError(t, bot.ReplaceText(context.Background(), ref, orchestrator.View{
			Text:    "new caption",
			Media:   models.MediaRef{FileID: "f1"},
			Buttons: buttons,
		}))
		edit, ok := api.requested[0].(tgbotapi.EditMessageCaptionConfig)
		require.True(t, ok)
		assert.Equal(t, "new caption", edit.Caption)
		assert.Equal(t, 5, edit.MessageID)
	})

	t.Run("text display edits text", func(t *testing.T) {
		api := &fakeAPI{}
		bot := NewBot(api, admin, "@hashcash")
		require.NoError(t, bot.ReplaceText(context.Background(), ref, orchestrator.View{Text: "✅ POSTED\n\nbody"}))
		edit, ok := api.requested[0].(tgbotapi.EditMessageTextConfig)
		require.True(t, ok)
		assert.Equal(t, "✅ POSTED\n\nbody", edit.Text)
		assert.Nil(t, edit.ReplyMarkup)
	})

	t.Run("unchanged message is not an error", func(t *testing.T) {
		api := &fakeAPI{requestErr: errors.New("Bad Request: message is not modified")}
		bot := NewBot(api, admin, "@hashcash")
		assert.NoError(t, bot.ReplaceText(context.Background(), ref, orchestrator.View{Text: "same"}))
	})

	t.Run("other edit errors surface", func(t *testing.T) {
		api := &fakeAPI{requestErr: errors.New("Bad Request: message to edit not found")}
		bot := NewBot(api, admin, "@hashcash")
		assert.Error(t, bot.ReplaceText(context.Background(), ref, orchestrator.View{Text: "x"}))
	})
}

func TestPublish(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		media   models.MediaRef
		check   func(t *testing.T, c tgbotapi.Chattable)
	}{
		{
			name:    "channel username with uploaded photo",
			channel: "@hashcash",
			media:   models.MediaRef{URL: "https://img/1.jpg", FileID: "file-1"},
			check: func(t *testing.T, c tgbotapi.Chattable) {
				photo, ok := c.(tgbotapi.PhotoConfig)
				require.True(t, ok)
				assert.Equal(t, "@hashcash", photo.ChannelUsername)
				assert.Equal(t, tgbotapi.FileID("file-1"), photo.File)
				assert.Equal(t, "body", photo.Caption)
				assert.Nil(t, photo.ReplyMarkup)
			},
		},
		{
			name:    "numeric channel id",
			channel: "-1001234567890",
			media:   models.MediaRef{URL: "https://img/1.jpg"},
			check: func(t *testing.T, c tgbotapi.Chattable) {
				photo, ok := c.(tgbotapi.PhotoConfig)
				require.True(t, ok)
				assert.Equal(t, int64(-1001234567890), photo.ChatID)
				assert.Equal(t, tgbotapi.FileURL("https://img/1.jpg"), photo.File)
			},
		},
		{
			name:    "text only",
			channel: "@hashcash",
			check: func(t *testing.T, c tgbotapi.Chattable) {
				msg, ok := c.(tgbotapi.MessageConfig)
				require.True(t, ok)
				assert.Equal(t, "@hashcash", msg.ChannelUsername)
				assert.Equal(t, "body", msg.Text)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			bot := NewBot(api, admin, tt.channel)
			require.NoError(t, bot.Publish(context.Background(), "body", tt.media))
			require.Len(t, api.sent, 1)
			tt.check(t, api.sent[0])
		})
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    Command
		wantErr error
	}{
		{"start", "", Command{Kind: CmdStart}, nil},
		{"status", "", Command{Kind: CmdStatus}, nil},
		{"gen_morning", "", Command{Kind: CmdGenerate, Channel: models.PrimaryMorning}, nil},
		{"gen_day", "15", Command{Kind: CmdGenerate, Channel: models.PrimaryMidday, Day: 15}, nil},
		{"gen_evening", " 31 ", Command{Kind: CmdGenerate, Channel: models.PrimaryEvening, Day: 31}, nil},
		{"gen_inst", "2 extra", Command{Kind: CmdGenerate, Channel: models.Secondary, Day: 2}, nil},
		{"gen_inst", "32", Command{}, ErrBadDay},
		{"gen_morning", "0", Command{}, ErrBadDay},
		{"gen_morning", "tomorrow", Command{}, ErrBadDay},
		{"gen_night", "", Command{}, ErrUnknownCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.args, func(t *testing.T) {
			got, err := ParseCommand(tt.name, tt.args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type generated struct {
	channel models.Channel
	day     int
	trigger orchestrator.Trigger
}

type fakeDrafts struct {
	generated []generated
	actions   []orchestrator.Inbound
	drafts    []models.RenderedDraft
}

func (d *fakeDrafts) Generate(_ context.Context, ch models.Channel, day int, trigger orchestrator.Trigger) error {
	d.generated = append(d.generated, generated{ch, day, trigger})
	return nil
}

func (d *fakeDrafts) HandleAction(_ context.Context, in orchestrator.Inbound) error {
	d.actions = append(d.actions, in)
	return nil
}

func (d *fakeDrafts) Drafts() []models.RenderedDraft { return d.drafts }
func (d *fakeDrafts) Today() int                     { return 15 }

type fakeSchedule []scheduler.Run

func (s fakeSchedule) NextRuns(time.Time) []scheduler.Run { return s }

type fakeFailures int64

func (f fakeFailures) CountFailuresSince(context.Context, time.Time) (int64, error) {
	return int64(f), nil
}

func command(from int64, text string) tgbotapi.Update {
	name := text
	for i, r := range text {
		if r == ' ' {
			name = text[:i]
			break
		}
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from},
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func newTestHandler(api *fakeAPI, drafts *fakeDrafts, opts HandlerOptions) *Handler {
	return NewHandler(NewBot(api, admin, "@hashcash"), drafts, opts)
}

func TestHandleGenerateCommand(t *testing.T) {
	api := &fakeAPI{}
	drafts := &fakeDrafts{}
	h := newTestHandler(api, drafts, HandlerOptions{BrandName: "Hash & Cash"})

	h.Handle(context.Background(), command(admin, "/gen_morning 15"))
	h.Handle(context.Background(), command(admin, "/gen_inst"))

	assert.Equal(t, []generated{
		{models.PrimaryMorning, 15, orchestrator.Operator},
		{models.Secondary, 0, orchestrator.Operator},
	}, drafts.generated)
}

func TestHandleBadDay(t *testing.T) {
	api := &fakeAPI{}
	drafts := &fakeDrafts{}
	h := newTestHandler(api, drafts, HandlerOptions{})

	h.Handle(context.Background(), command(admin, "/gen_day 45"))

	assert.Empty(t, drafts.generated)
	require.Len(t, api.sent, 1)
	assert.Contains(t, api.sent[0].(tgbotapi.MessageConfig).Text, "1 to 31")
}

func TestHandleIgnoresStrangers(t *testing.T) {
	api := &fakeAPI{}
	drafts := &fakeDrafts{}
	h := newTestHandler(api, drafts, HandlerOptions{})

	h.Handle(context.Background(), command(777, "/gen_morning"))
	h.Handle(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: 777},
		Data: "publish_15_morning_tg",
	}})

	assert.Empty(t, drafts.generated)
	assert.Empty(t, drafts.actions)
	assert.Empty(t, api.sent)
	assert.Empty(t, api.requested)
}

func TestHandleStartAndStatus(t *testing.T) {
	api := &fakeAPI{}
	drafts := &fakeDrafts{drafts: []models.RenderedDraft{
		{Key: models.DraftKey{Day: 15, Channel: models.PrimaryMorning}, Variant: models.Caption, State: models.Posted},
		{Key: models.DraftKey{Day: 15, Channel: models.Secondary}, Variant: models.Caption, State: models.Rendered},
		{Key: models.DraftKey{Day: 15, Channel: models.Secondary}, Variant: models.LongFormScript, State: models.Rendered},
	}}
	utc := time.UTC
	h := newTestHandler(api, drafts, HandlerOptions{
		BrandName: "Hash & Cash",
		Location:  utc,
		Schedule:  fakeSchedule{{Channel: models.PrimaryEvening, At: time.Date(2026, 10, 15, 19, 0, 0, 0, utc)}},
		Failures:  fakeFailures(2),
		Now:       func() time.Time { return time.Date(2026, 10, 15, 10, 0, 0, 0, utc) },
	})

	h.Handle(context.Background(), command(admin, "/start"))
	h.Handle(context.Background(), command(admin, "/status"))

	require.Len(t, api.sent, 2)
	assert.Contains(t, api.sent[0].(tgbotapi.MessageConfig).Text, "Hash & Cash draft bot")

	status := api.sent[1].(tgbotapi.MessageConfig).Text
	assert.Contains(t, status, "Today: day 15 (UTC)")
	assert.Contains(t, status, "evening: 15.10 19:00")
	assert.Contains(t, status, "Drafts: 2 waiting, 1 posted")
	assert.Contains(t, status, "• morning/day15 caption: posted")
	assert.Contains(t, status, "• inst/day15 script: rendered")
	assert.Contains(t, status, "Generation failures (24h): 2")
}

func TestHandleCallback(t *testing.T) {
	api := &fakeAPI{}
	drafts := &fakeDrafts{}
	h := newTestHandler(api, drafts, HandlerOptions{})

	h.Handle(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: admin},
		Data: "text_15_morning_tg_caption",
		Message: &tgbotapi.Message{
			MessageID: 33,
			Chat:      &tgbotapi.Chat{ID: admin},
			Caption:   "✈️ TG (MORNING | Day 15)\n\nbody",
			Photo: []tgbotapi.PhotoSize{
				{FileID: "small", Width: 90},
				{FileID: "large", Width: 1280},
			},
		},
	}})

	require.Len(t, api.requested, 1)
	answer, ok := api.requested[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "cb-1", answer.CallbackQueryID)

	require.Len(t, drafts.actions, 1)
	assert.Equal(t, orchestrator.Inbound{
		Token: "text_15_morning_tg_caption",
		Ref:   models.MessageRef{ChatID: admin, MessageID: 33},
		Text:  "✈️ TG (MORNING | Day 15)\n\nbody",
		Media: models.MediaRef{FileID: "large"},
	}, drafts.actions[0])
}

func TestRunStopsOnClosedChannel(t *testing.T) {
	api := &fakeAPI{}
	drafts := &fakeDrafts{}
	h := newTestHandler(api, drafts, HandlerOptions{})

	updates := make(chan tgbotapi.Update, 2)
	updates <- command(admin, "/gen_evening 4")
	updates <- command(admin, "/gen_day 5")
	close(updates)

	h.Run(context.Background(), updates)
	assert.Len(t, drafts.generated, 2)
}
