package store

import (
	"encoding/json"

	"github.com/yomogi/linkup/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultConversationLimit caps a conversation query when the caller passes
// a non-positive limit.
const DefaultConversationLimit = 100

// Messages is the per-pair message log with receiver-scoped read state.
type Messages struct {
	db *gorm.DB
}

// NewMessages creates a Messages store over the given handle.
func NewMessages(db *gorm.DB) *Messages {
	return &Messages{db: db}
}

// Send appends an immutable message with read=false. Body may be empty only
// when a file reference is attached.
func (m *Messages) Send(senderID, receiverID int64, body string, file *model.FileRef) (*model.Message, error) {
	if body == "" && file == nil {
		return nil, &ValidationError{Field: "body", Rule: "must not be empty"}
	}

	msg := &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
	}
	if file != nil {
		raw, err := json.Marshal(file)
		if err != nil {
			return nil, storageErr("messages.send", err)
		}
		msg.Attachment = datatypes.JSON(raw)
	}

	if err := m.db.Create(msg).Error; err != nil {
		return nil, storageErr("messages.send", err)
	}
	return msg, nil
}

// Conversation returns up to limit most recent messages between the pair,
// reversed into chronological order for display. Sender and receiver match
// in either direction.
func (m *Messages) Conversation(userID, otherID int64, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = DefaultConversationLimit
	}
	var msgs []model.Message
	err := m.db.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userID, otherID, otherID, userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, storageErr("messages.conversation", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkRead flips read=false→true for every message from otherID to readerID.
// Idempotent.
func (m *Messages) MarkRead(readerID, otherID int64) error {
	err := m.db.Model(&model.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", otherID, readerID, false).
		Update("is_read", true).Error
	if err != nil {
		return storageErr("messages.mark_read", err)
	}
	return nil
}

// UnreadCounts maps each sender ID to the number of unread messages it has
// addressed to userID. Senders with nothing unread are absent.
func (m *Messages) UnreadCounts(userID int64) (map[int64]int64, error) {
	var rows []struct {
		SenderID int64
		N        int64
	}
	err := m.db.Model(&model.Message{}).
		Select("sender_id, COUNT(*) AS n").
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr("messages.unread_counts", err)
	}
	counts := make(map[int64]int64, len(rows))
	for _, r := range rows {
		counts[r.SenderID] = r.N
	}
	return counts, nil
}
