// Package telegram wraps the Bot API: sending replies and keyboards,
// acknowledging button presses, downloading uploaded files, and normalizing
// inbound updates into the three event shapes the dispatcher understands.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/OgnevOA/spendy-pants/internal/log"
)

// Button and Keyboard are transport-neutral inline keyboard shapes so
// handlers can build menus without importing the Bot API types.
type Button struct {
	Text string
	Data string
}

type Keyboard [][]Button

type Client struct {
	api        *tgbotapi.BotAPI
	httpClient *http.Client
	logger     *log.Logger
}

func NewClient(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Client{
		api:        api,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.New(log.ComponentTelegram),
	}, nil
}

func (c *Client) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (c *Client) SendKeyboard(chatID int64, text string, kb Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = markup(kb)
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send keyboard: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press so the client stops showing a
// spinner. Called for every callback event, even unrecognized ones.
func (c *Client) AnswerCallback(callbackID string) error {
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// DownloadFile fetches the bytes of an uploaded file by its file id.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file body: %w", err)
	}

	c.logger.DebugContext(ctx, "file downloaded",
		log.FieldFileID, fileID, "bytes", len(data))
	return data, nil
}

// SetWebhook registers the public webhook URL with Telegram.
func (c *Client) SetWebhook(publicURL string) error {
	wh, err := tgbotapi.NewWebhook(publicURL)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := c.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

func markup(kb Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
