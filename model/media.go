package model

import "time"

// Media visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// MediaItem is one posted content record. OwnerName snapshots the owner's
// username at post time for display; visibility of private items is resolved
// against the current friend graph at query time, not here.
type MediaItem struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     int64     `gorm:"index;not null" json:"owner_id"`
	OwnerName   string    `gorm:"size:32" json:"owner_name"`
	ContentRef  string    `gorm:"size:255;not null" json:"content_ref"`
	ContentType string    `gorm:"size:64" json:"content_type"`
	Visibility  string    `gorm:"size:16;not null;index" json:"visibility"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `gorm:"autoCreateTime:milli;index" json:"created_at"`
}
