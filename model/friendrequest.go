package model

import (
	"fmt"
	"time"
)

// Friend request status values. A request moves pending→accepted or
// pending→rejected exactly once; accepted records are deleted on unfriend,
// never transitioned back.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// FriendRequest is a directed request record. An accepted record stands for
// the bidirectional friendship of the pair; at most one active
// (pending or accepted) record exists per unordered pair.
type FriendRequest struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   int64     `gorm:"index:idx_request_pair;not null" json:"sender_id"`
	ReceiverID int64     `gorm:"index:idx_request_pair;not null" json:"receiver_id"`
	Status     string    `gorm:"size:16;default:'pending';index" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// ActivePair holds PairKey(sender, receiver) while the record is pending
	// or accepted, and NULL once rejected. The unique index enforces at most
	// one active record per pair even under concurrent sends; NULLs never
	// collide on either engine.
	ActivePair *string `gorm:"size:48;uniqueIndex:idx_request_active_pair" json:"-"`
}

// PairKey returns the normalized "lo:hi" key for an unordered ID pair.
func PairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}
