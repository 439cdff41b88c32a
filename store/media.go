package store

import (
	"github.com/yomogi/linkup/model"
	"gorm.io/gorm"
)

// MaxMediaBytes is the content size cap, checked before persistence.
const MaxMediaBytes = 500 << 20 // 500 MiB

// Media is the content store. Visibility of private items is evaluated
// against the current friend graph on every feed call; removing a friendship
// hides their private items from the next poll with no revocation step.
type Media struct {
	db      *gorm.DB
	friends *Friends
}

// NewMedia creates a Media store. It consults friends for feed scoping.
func NewMedia(db *gorm.DB, friends *Friends) *Media {
	return &Media{db: db, friends: friends}
}

// Post persists a content record owned by the given account. ownerName is
// snapshotted for display. size is the content payload size in bytes.
func (m *Media) Post(ownerID int64, ownerName, contentRef, contentType, visibility string, size int64) (*model.MediaItem, error) {
	if visibility != model.VisibilityPublic && visibility != model.VisibilityPrivate {
		return nil, &ValidationError{Field: "visibility", Rule: "must be public or private"}
	}
	if contentRef == "" {
		return nil, &ValidationError{Field: "content_ref", Rule: "must not be empty"}
	}
	if size > MaxMediaBytes {
		return nil, &TooLargeError{Size: size, Max: MaxMediaBytes}
	}

	item := &model.MediaItem{
		OwnerID:     ownerID,
		OwnerName:   ownerName,
		ContentRef:  contentRef,
		ContentType: contentType,
		Visibility:  visibility,
		SizeBytes:   size,
	}
	if err := m.db.Create(item).Error; err != nil {
		return nil, storageErr("media.post", err)
	}
	return item, nil
}

// FeedFor returns all public items plus private items owned by any current
// accepted friend of userID, newest first.
func (m *Media) FeedFor(userID int64) ([]model.MediaItem, error) {
	friendIDs, err := m.friends.FriendIDs(userID)
	if err != nil {
		return nil, err
	}

	q := m.db.Where("visibility = ?", model.VisibilityPublic)
	if len(friendIDs) > 0 {
		q = m.db.Where("visibility = ?", model.VisibilityPublic).
			Or("visibility = ? AND owner_id IN ?", model.VisibilityPrivate, friendIDs)
	}

	var items []model.MediaItem
	if err := q.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, storageErr("media.feed", err)
	}
	return items, nil
}

// ListOwn returns every item owned by userID, newest first, for the owner's
// own profile screen.
func (m *Media) ListOwn(userID int64) ([]model.MediaItem, error) {
	var items []model.MediaItem
	err := m.db.Where("owner_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, storageErr("media.list_own", err)
	}
	return items, nil
}

// Delete removes the item only when its stored owner matches ownerID; an
// ownership mismatch is a silent no-op so callers cannot probe other
// accounts' item IDs. Returns whether a row was removed.
func (m *Media) Delete(itemID, ownerID int64) (bool, error) {
	res := m.db.Where("id = ? AND owner_id = ?", itemID, ownerID).
		Delete(&model.MediaItem{})
	if res.Error != nil {
		return false, storageErr("media.delete", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Update rewrites the content reference and/or visibility, with the same
// owner guard as Delete. Nil fields are left unchanged.
func (m *Media) Update(itemID, ownerID int64, newContentRef, newVisibility *string) (bool, error) {
	updates := map[string]interface{}{}
	if newContentRef != nil {
		if *newContentRef == "" {
			return false, &ValidationError{Field: "content_ref", Rule: "must not be empty"}
		}
		updates["content_ref"] = *newContentRef
	}
	if newVisibility != nil {
		if *newVisibility != model.VisibilityPublic && *newVisibility != model.VisibilityPrivate {
			return false, &ValidationError{Field: "visibility", Rule: "must be public or private"}
		}
		updates["visibility"] = *newVisibility
	}
	if len(updates) == 0 {
		return false, nil
	}

	res := m.db.Model(&model.MediaItem{}).
		Where("id = ? AND owner_id = ?", itemID, ownerID).
		Updates(updates)
	if res.Error != nil {
		return false, storageErr("media.update", res.Error)
	}
	return res.RowsAffected > 0, nil
}
