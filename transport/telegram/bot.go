// Package telegram connects the orchestrator to the Telegram Bot API: the admin
// chat is the operator display and the channel is the publish target.
package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/NataTusia/Haah-and-Cash/models"
	"github.com/NataTusia/Haah-and-Cash/orchestrator"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot renders drafts in the admin chat and publishes them to the channel.
type Bot struct {
	api     API
	adminID int64
	channel string
}

// NewBot builds the transport. channel is a numeric chat id or an @username.
func NewBot(api API, adminID int64, channel string) *Bot {
	return &Bot{api: api, adminID: adminID, channel: channel}
}

func (b *Bot) Send(_ context.Context, v orchestrator.View) (models.MessageRef, error) {
	var c tgbotapi.Chattable
	if v.HasMedia() {
		photo := tgbotapi.NewPhoto(b.adminID, fileData(v.Media))
		photo.Caption = v.Text
		if kb := keyboard(v.Buttons); kb != nil {
			photo.ReplyMarkup = *kb
		}
		c = photo
	} else {
		msg := tgbotapi.NewMessage(b.adminID, v.Text)
		msg.DisableWebPagePreview = true
		if kb := keyboard(v.Buttons); kb != nil {
			msg.ReplyMarkup = *kb
		}
		c = msg
	}

	m, err := b.api.Send(c)
	if err != nil {
		return models.MessageRef{}, err
	}
	return models.MessageRef{ChatID: b.adminID, MessageID: m.MessageID}, nil
}

// ReplaceMedia swaps the photo; caption and buttons are resent with it.
func (b *Bot) ReplaceMedia(_ context.Context, ref models.MessageRef, v orchestrator.View) error {
	photo := tgbotapi.NewInputMediaPhoto(fileData(v.Media))
	photo.Caption = v.Text
	edit := tgbotapi.EditMessageMediaConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:      ref.ChatID,
			MessageID:   ref.MessageID,
			ReplyMarkup: keyboard(v.Buttons),
		},
		Media: photo,
	}
	return b.request(edit)
}

// ReplaceText edits the caption of a photo display or the body of a text display.
func (b *Bot) ReplaceText(_ context.Context, ref models.MessageRef, v orchestrator.View) error {
	if v.HasMedia() {
		edit := tgbotapi.NewEditMessageCaption(ref.ChatID, ref.MessageID, v.Text)
		edit.ReplyMarkup = keyboard(v.Buttons)
		return b.request(edit)
	}
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, v.Text)
	edit.ReplyMarkup = keyboard(v.Buttons)
	edit.DisableWebPagePreview = true
	return b.request(edit)
}

func (b *Bot) Notify(_ context.Context, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(b.adminID, text))
	return err
}

// Publish posts caption with media to the channel.
func (b *Bot) Publish(_ context.Context, caption string, media models.MediaRef) error {
	id, numeric := channelID(b.channel)

	var c tgbotapi.Chattable
	switch {
	case media.IsZero() && numeric:
		c = tgbotapi.NewMessage(id, caption)
	case media.IsZero():
		c = tgbotapi.NewMessageToChannel(b.channel, caption)
	case numeric:
		photo := tgbotapi.NewPhoto(id, fileData(media))
		photo.Caption = caption
		c = photo
	default:
		photo := tgbotapi.NewPhotoToChannel(b.channel, fileData(media))
		photo.Caption = caption
		c = photo
	}
	_, err := b.api.Send(c)
	return err
}

func (b *Bot) request(c tgbotapi.Chattable) error {
	if _, err := b.api.Request(c); err != nil && !notModified(err) {
		return err
	}
	return nil
}

// notModified is returned when an edit leaves the message unchanged.
func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}

func channelID(channel string) (int64, bool) {
	id, err := strconv.ParseInt(channel, 10, 64)
	return id, err == nil
}

// fileData prefers an already uploaded file over a URL.
func fileData(m models.MediaRef) tgbotapi.RequestFileData {
	if m.FileID != "" {
		return tgbotapi.FileID(m.FileID)
	}
	return tgbotapi.FileURL(m.URL)
}

// keyboard lays out one button per row. No buttons means no keyboard.
func keyboard(buttons []models.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, btn := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Token)))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}
