package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReceiptJobMessage asks the worker to process one uploaded receipt image.
// It carries only references; the worker downloads the file itself.
type ReceiptJobMessage struct {
	JobID     string    `json:"jobId"`
	UserID    string    `json:"userId"`
	ChatID    int64     `json:"chatId"`
	FileID    string    `json:"fileId"`
	MimeType  string    `json:"mimeType"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReceiptJobMessage(userID string, chatID int64, fileID, mimeType string) *ReceiptJobMessage {
	return &ReceiptJobMessage{
		JobID:     uuid.NewString(),
		UserID:    userID,
		ChatID:    chatID,
		FileID:    fileID,
		MimeType:  mimeType,
		Timestamp: time.Now(),
	}
}

func (m *ReceiptJobMessage) Validate() error {
	if m.UserID == "" {
		return fmt.Errorf("receipt job missing userId")
	}
	if m.ChatID == 0 {
		return fmt.Errorf("receipt job missing chatId")
	}
	if m.FileID == "" {
		return fmt.Errorf("receipt job missing fileId")
	}
	return nil
}

func (m *ReceiptJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReceiptJobMessageFromJSON(data []byte) (*ReceiptJobMessage, error) {
	var msg ReceiptJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
