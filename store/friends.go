package store

import (
	"errors"

	"github.com/yomogi/linkup/model"
	"gorm.io/gorm"
)

// RequestAction is a response to a pending friend request.
type RequestAction string

const (
	ActionAccept RequestAction = "accept"
	ActionReject RequestAction = "reject"
)

// Friends is the friend graph: directed request records promoted to
// friendship by status transitions.
//
//	         send(A→B)                 accept
//	NONE ───────────────► PENDING ────────────► ACCEPTED
//	                          │         reject
//	                          └────────────────► REJECTED
//	ACCEPTED ── unfriend ──► NONE (record deleted)
type Friends struct {
	db *gorm.DB
}

// NewFriends creates a Friends store over the given handle.
func NewFriends(db *gorm.DB) *Friends {
	return &Friends{db: db}
}

// SendRequest creates a pending request from sender to receiver. The count
// gives a clean DuplicateError in the common case; the unique active_pair
// index guarantees that two concurrent sends for the same pair cannot both
// land even when both counts see zero.
func (f *Friends) SendRequest(senderID, receiverID int64) (*model.FriendRequest, error) {
	if senderID == receiverID {
		return nil, &SelfReferenceError{}
	}

	var req *model.FriendRequest
	err := f.db.Transaction(func(tx *gorm.DB) error {
		var receiver model.Account
		if err := tx.First(&receiver, receiverID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "account"}
			}
			return err
		}

		// Rejected records do not block; only pending/accepted count.
		var active int64
		err := tx.Model(&model.FriendRequest{}).
			Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status IN ?",
				senderID, receiverID, receiverID, senderID,
				[]string{model.RequestPending, model.RequestAccepted}).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return &DuplicateError{}
		}

		pair := model.PairKey(senderID, receiverID)
		req = &model.FriendRequest{
			SenderID:   senderID,
			ReceiverID: receiverID,
			Status:     model.RequestPending,
			ActivePair: &pair,
		}
		if err := tx.Create(req).Error; err != nil {
			// The unique index on active_pair is the backstop for two sends
			// racing past the count on the same pair.
			if _, ok := uniqueViolationField(err); ok {
				return &DuplicateError{}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("friends.send_request", err)
	}
	return req, nil
}

// Respond transitions the pending request matching (senderID, receiverID)
// exactly, not reversed, to accepted or rejected.
func (f *Friends) Respond(senderID, receiverID int64, action RequestAction) error {
	var status string
	switch action {
	case ActionAccept:
		status = model.RequestAccepted
	case ActionReject:
		status = model.RequestRejected
	default:
		return &ValidationError{Field: "action", Rule: "must be accept or reject"}
	}

	updates := map[string]interface{}{"status": status}
	if status == model.RequestRejected {
		// A rejected record no longer blocks the pair.
		updates["active_pair"] = nil
	}
	res := f.db.Model(&model.FriendRequest{}).
		Where("sender_id = ? AND receiver_id = ? AND status = ?",
			senderID, receiverID, model.RequestPending).
		Updates(updates)
	if res.Error != nil {
		return storageErr("friends.respond", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "friend request"}
	}
	return nil
}

// Incoming returns pending requests addressed to receiverID, newest first.
func (f *Friends) Incoming(receiverID int64) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := f.db.Where("receiver_id = ? AND status = ?", receiverID, model.RequestPending).
		Order("created_at DESC, id DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, storageErr("friends.incoming", err)
	}
	return reqs, nil
}

// FriendIDs returns the counterpart IDs of all accepted records involving
// userID.
func (f *Friends) FriendIDs(userID int64) ([]int64, error) {
	var ids []int64
	err := f.db.Model(&model.FriendRequest{}).
		Select("CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END", userID).
		Where("(sender_id = ? OR receiver_id = ?) AND status = ?",
			userID, userID, model.RequestAccepted).
		Scan(&ids).Error
	if err != nil {
		return nil, storageErr("friends.friend_ids", err)
	}
	return ids, nil
}

// List returns the accounts of all accepted friends of userID.
func (f *Friends) List(userID int64) ([]model.Account, error) {
	ids, err := f.FriendIDs(userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var accs []model.Account
	if err := f.db.Where("id IN ?", ids).Order("username").Find(&accs).Error; err != nil {
		return nil, storageErr("friends.list", err)
	}
	return accs, nil
}

// Unfriend deletes the accepted record for the pair in either direction and
// reports whether one was removed. A second call returns false, not an error.
func (f *Friends) Unfriend(userID, otherID int64) (bool, error) {
	res := f.db.Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status = ?",
		userID, otherID, otherID, userID, model.RequestAccepted).
		Delete(&model.FriendRequest{})
	if res.Error != nil {
		return false, storageErr("friends.unfriend", res.Error)
	}
	return res.RowsAffected > 0, nil
}
