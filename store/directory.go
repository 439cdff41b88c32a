package store

import (
	"github.com/yomogi/linkup/model"
	"gorm.io/gorm"
)

// Directory is the single access surface callers depend on. Every method
// resolves its identifier arguments (username, case-insensitive, or 10-digit
// phone) to canonical accounts once, then delegates to the component stores.
// It holds no state beyond the handle: every read re-queries, so results
// always reflect the latest committed write.
type Directory struct {
	Accounts *Accounts
	Friends  *Friends
	Messages *Messages
	Media    *Media
}

// NewDirectory wires the component stores over one gorm handle.
func NewDirectory(db *gorm.DB) *Directory {
	accounts := NewAccounts(db)
	friends := NewFriends(db)
	return &Directory{
		Accounts: accounts,
		Friends:  friends,
		Messages: NewMessages(db),
		Media:    NewMedia(db, friends),
	}
}

// Register creates an account. Email may be empty.
func (d *Directory) Register(username, phone, password, email string) (*model.Account, error) {
	return d.Accounts.Register(username, phone, password, email)
}

// Authenticate verifies credentials against the account matching identifier.
func (d *Directory) Authenticate(identifier, password string) (*model.Account, bool, error) {
	return d.Accounts.Authenticate(identifier, password)
}

// Account returns the profile of the account matching identifier.
func (d *Directory) Account(identifier string) (*model.Account, error) {
	return d.Accounts.Resolve(identifier)
}

// Search returns accounts whose username or phone contains query.
func (d *Directory) Search(query string) ([]model.Account, error) {
	return d.Accounts.Search(query)
}

// UpdateEmail sets the email of the account matching identifier.
func (d *Directory) UpdateEmail(identifier, email string) error {
	acc, err := d.Accounts.Resolve(identifier)
	if err != nil {
		return err
	}
	return d.Accounts.UpdateEmail(acc.ID, email)
}

// UpdatePassword sets the password of the account matching identifier.
func (d *Directory) UpdatePassword(identifier, password string) error {
	acc, err := d.Accounts.Resolve(identifier)
	if err != nil {
		return err
	}
	return d.Accounts.UpdatePassword(acc.ID, password)
}

// UpdateProfileImage sets the profile image reference of the account.
func (d *Directory) UpdateProfileImage(identifier, ref string) error {
	acc, err := d.Accounts.Resolve(identifier)
	if err != nil {
		return err
	}
	return d.Accounts.UpdateProfileImage(acc.ID, ref)
}

// DeleteAccount removes the account and everything referencing it.
func (d *Directory) DeleteAccount(identifier string) error {
	acc, err := d.Accounts.Resolve(identifier)
	if err != nil {
		return err
	}
	return d.Accounts.Delete(acc.ID)
}

// SendFriendRequest creates a pending request from sender to receiver.
func (d *Directory) SendFriendRequest(sender, receiver string) (*model.FriendRequest, error) {
	senderAcc, err := d.Accounts.Resolve(sender)
	if err != nil {
		return nil, err
	}
	receiverAcc, err := d.Accounts.Resolve(receiver)
	if err != nil {
		return nil, err
	}
	return d.Friends.SendRequest(senderAcc.ID, receiverAcc.ID)
}

// RespondToRequest accepts or rejects the pending request sender→receiver.
func (d *Directory) RespondToRequest(sender, receiver string, action RequestAction) error {
	senderAcc, err := d.Accounts.Resolve(sender)
	if err != nil {
		return err
	}
	receiverAcc, err := d.Accounts.Resolve(receiver)
	if err != nil {
		return err
	}
	return d.Friends.Respond(senderAcc.ID, receiverAcc.ID, action)
}

// IncomingRequest pairs a pending request with its sender's account.
type IncomingRequest struct {
	Request model.FriendRequest `json:"request"`
	Sender  model.Account       `json:"sender"`
}

// IncomingRequests returns pending requests addressed to receiver, newest
// first, each joined with the sender's profile.
func (d *Directory) IncomingRequests(receiver string) ([]IncomingRequest, error) {
	acc, err := d.Accounts.Resolve(receiver)
	if err != nil {
		return nil, err
	}
	reqs, err := d.Friends.Incoming(acc.ID)
	if err != nil {
		return nil, err
	}
	out := make([]IncomingRequest, 0, len(reqs))
	for _, r := range reqs {
		var sender model.Account
		if err := d.Friends.db.First(&sender, r.SenderID).Error; err != nil {
			return nil, storageErr("directory.incoming_requests", err)
		}
		out = append(out, IncomingRequest{Request: r, Sender: sender})
	}
	return out, nil
}

// ListFriends returns the accepted friends of user.
func (d *Directory) ListFriends(user string) ([]model.Account, error) {
	acc, err := d.Accounts.Resolve(user)
	if err != nil {
		return nil, err
	}
	return d.Friends.List(acc.ID)
}

// Unfriend deletes the accepted friendship between the two users, if any.
func (d *Directory) Unfriend(user, other string) (bool, error) {
	acc, err := d.Accounts.Resolve(user)
	if err != nil {
		return false, err
	}
	otherAcc, err := d.Accounts.Resolve(other)
	if err != nil {
		return false, err
	}
	return d.Friends.Unfriend(acc.ID, otherAcc.ID)
}

// SendMessage appends a message from sender to receiver.
func (d *Directory) SendMessage(sender, receiver, body string, file *model.FileRef) (*model.Message, error) {
	senderAcc, err := d.Accounts.Resolve(sender)
	if err != nil {
		return nil, err
	}
	receiverAcc, err := d.Accounts.Resolve(receiver)
	if err != nil {
		return nil, err
	}
	return d.Messages.Send(senderAcc.ID, receiverAcc.ID, body, file)
}

// Conversation returns up to limit recent messages between the pair in
// chronological order.
func (d *Directory) Conversation(user, other string, limit int) ([]model.Message, error) {
	acc, err := d.Accounts.Resolve(user)
	if err != nil {
		return nil, err
	}
	otherAcc, err := d.Accounts.Resolve(other)
	if err != nil {
		return nil, err
	}
	return d.Messages.Conversation(acc.ID, otherAcc.ID, limit)
}

// MarkRead marks every message from other to reader as read.
func (d *Directory) MarkRead(reader, other string) error {
	readerAcc, err := d.Accounts.Resolve(reader)
	if err != nil {
		return err
	}
	otherAcc, err := d.Accounts.Resolve(other)
	if err != nil {
		return err
	}
	return d.Messages.MarkRead(readerAcc.ID, otherAcc.ID)
}

// UnreadCounts maps sender usernames to unread message counts for user.
func (d *Directory) UnreadCounts(user string) (map[string]int64, error) {
	acc, err := d.Accounts.Resolve(user)
	if err != nil {
		return nil, err
	}
	byID, err := d.Messages.UnreadCounts(acc.ID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(byID))
	for senderID, n := range byID {
		var sender model.Account
		if err := d.Friends.db.First(&sender, senderID).Error; err != nil {
			return nil, storageErr("directory.unread_counts", err)
		}
		counts[sender.Username] = n
	}
	return counts, nil
}

// PostMedia persists a content record owned by owner.
func (d *Directory) PostMedia(owner, contentRef, contentType, visibility string, size int64) (*model.MediaItem, error) {
	acc, err := d.Accounts.Resolve(owner)
	if err != nil {
		return nil, err
	}
	return d.Media.Post(acc.ID, acc.Username, contentRef, contentType, visibility, size)
}

// FeedFor returns the visibility-scoped feed for user.
func (d *Directory) FeedFor(user string) ([]model.MediaItem, error) {
	acc, err := d.Accounts.Resolve(user)
	if err != nil {
		return nil, err
	}
	return d.Media.FeedFor(acc.ID)
}

// OwnMedia returns every item posted by user.
func (d *Directory) OwnMedia(user string) ([]model.MediaItem, error) {
	acc, err := d.Accounts.Resolve(user)
	if err != nil {
		return nil, err
	}
	return d.Media.ListOwn(acc.ID)
}

// DeleteMedia removes the item if owner actually owns it.
func (d *Directory) DeleteMedia(itemID int64, owner string) (bool, error) {
	acc, err := d.Accounts.Resolve(owner)
	if err != nil {
		return false, err
	}
	return d.Media.Delete(itemID, acc.ID)
}

// UpdateMedia rewrites content reference and/or visibility if owner owns the
// item.
func (d *Directory) UpdateMedia(itemID int64, owner string, newContentRef, newVisibility *string) (bool, error) {
	acc, err := d.Accounts.Resolve(owner)
	if err != nil {
		return false, err
	}
	return d.Media.Update(itemID, acc.ID, newContentRef, newVisibility)
}
