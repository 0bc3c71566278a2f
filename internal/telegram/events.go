package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EventKind is the normalized shape of an inbound update. The dispatcher only
// ever sees these three.
type EventKind int

const (
	EventText EventKind = iota
	EventCallback
	EventImage
)

// Event is one inbound interaction, flattened from the Telegram update
// envelope. UserID is the numeric sender id rendered as a string, matching
// how profiles are keyed in storage.
type Event struct {
	Kind   EventKind
	UserID string
	ChatID int64

	// Text for EventText, button payload for EventCallback.
	Text         string
	CallbackID   string
	CallbackData string

	// File reference for EventImage.
	FileID   string
	MimeType string
}

// NormalizeUpdate flattens a Telegram update. The second return is false for
// update types this bot does not handle (edits, channel posts, stickers).
func NormalizeUpdate(u tgbotapi.Update) (Event, bool) {
	if cb := u.CallbackQuery; cb != nil && cb.Message != nil {
		return Event{
			Kind:         EventCallback,
			UserID:       strconv.FormatInt(cb.From.ID, 10),
			ChatID:       cb.Message.Chat.ID,
			CallbackID:   cb.ID,
			CallbackData: cb.Data,
		}, true
	}

	msg := u.Message
	if msg == nil || msg.From == nil {
		return Event{}, false
	}
	ev := Event{
		UserID: strconv.FormatInt(msg.From.ID, 10),
		ChatID: msg.Chat.ID,
	}

	if len(msg.Photo) > 0 {
		// Telegram sends several resolutions; the last is the largest.
		ev.Kind = EventImage
		ev.FileID = msg.Photo[len(msg.Photo)-1].FileID
		ev.MimeType = "image/jpeg"
		return ev, true
	}
	if doc := msg.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		ev.Kind = EventImage
		ev.FileID = doc.FileID
		ev.MimeType = doc.MimeType
		return ev, true
	}
	if msg.Text != "" {
		ev.Kind = EventText
		ev.Text = msg.Text
		return ev, true
	}
	return Event{}, false
}
