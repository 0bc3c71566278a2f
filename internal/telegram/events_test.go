package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func baseMessage() *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: 42},
		Chat: &tgbotapi.Chat{ID: 99},
	}
}

func TestNormalizeText(t *testing.T) {
	msg := baseMessage()
	msg.Text = "/start"

	ev, ok := NormalizeUpdate(tgbotapi.Update{Message: msg})
	if !ok {
		t.Fatal("NormalizeUpdate() not ok")
	}
	if ev.Kind != EventText || ev.Text != "/start" {
		t.Errorf("event = %+v", ev)
	}
	if ev.UserID != "42" || ev.ChatID != 99 {
		t.Errorf("identity = %+v", ev)
	}
}

func TestNormalizeCallback(t *testing.T) {
	u := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: 42},
		Data:    "summary_current_month",
		Message: baseMessage(),
	}}

	ev, ok := NormalizeUpdate(u)
	if !ok {
		t.Fatal("NormalizeUpdate() not ok")
	}
	if ev.Kind != EventCallback || ev.CallbackData != "summary_current_month" || ev.CallbackID != "cb-1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestNormalizePhotoPicksLargest(t *testing.T) {
	msg := baseMessage()
	msg.Photo = []tgbotapi.PhotoSize{
		{FileID: "small", Width: 90},
		{FileID: "large", Width: 1280},
	}

	ev, ok := NormalizeUpdate(tgbotapi.Update{Message: msg})
	if !ok {
		t.Fatal("NormalizeUpdate() not ok")
	}
	if ev.Kind != EventImage || ev.FileID != "large" || ev.MimeType != "image/jpeg" {
		t.Errorf("event = %+v", ev)
	}
}

func TestNormalizeImageDocument(t *testing.T) {
	msg := baseMessage()
	msg.Document = &tgbotapi.Document{FileID: "doc-1", MimeType: "image/png"}

	ev, ok := NormalizeUpdate(tgbotapi.Update{Message: msg})
	if !ok {
		t.Fatal("NormalizeUpdate() not ok")
	}
	if ev.Kind != EventImage || ev.FileID != "doc-1" || ev.MimeType != "image/png" {
		t.Errorf("event = %+v", ev)
	}
}

func TestNormalizeIgnoresUnhandled(t *testing.T) {
	tests := []struct {
		name string
		u    tgbotapi.Update
	}{
		{"empty update", tgbotapi.Update{}},
		{"message without sender", tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}}},
		{"pdf document", func() tgbotapi.Update {
			msg := baseMessage()
			msg.Document = &tgbotapi.Document{FileID: "doc-1", MimeType: "application/pdf"}
			return tgbotapi.Update{Message: msg}
		}()},
		{"sticker", func() tgbotapi.Update {
			msg := baseMessage()
			msg.Sticker = &tgbotapi.Sticker{FileID: "st-1"}
			return tgbotapi.Update{Message: msg}
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := NormalizeUpdate(tt.u); ok {
				t.Error("NormalizeUpdate() handled an update it should skip")
			}
		})
	}
}
