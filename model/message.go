package model

import (
	"time"

	"gorm.io/datatypes"
)

// FileRef is the structured payload of a file-sharing message.
type FileRef struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Message is one chat message between two accounts. Immutable after insert
// except for the receiver-scoped Read flag.
type Message struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   int64          `gorm:"index:idx_message_pair;not null" json:"sender_id"`
	ReceiverID int64          `gorm:"index:idx_message_pair;not null" json:"receiver_id"`
	Body       string         `gorm:"type:text" json:"body"`
	Attachment datatypes.JSON `json:"attachment,omitempty"` // marshalled FileRef, nil for plain text
	Read       bool           `gorm:"column:is_read;default:false;index" json:"read"`
	CreatedAt  time.Time      `gorm:"autoCreateTime:milli;index" json:"created_at"`
}
