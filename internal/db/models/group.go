package models

import "time"

// Group is the local record of a directory group. Unlike principals,
// groups are keyed by their DN: groups are rarely renamed, so the DN is
// treated as effectively stable for this entity.
type Group struct {
	// ID is the unique identifier for the local group record.
	ID uint `gorm:"primaryKey"`
	// DN is the group's distinguished name in the directory.
	DN string `gorm:"size:255;uniqueIndex;not null"`
	// DisplayName is the group name as shown to members.
	DisplayName string `gorm:"size:255;not null"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Group model.
// This overrides GORM's default pluralized table naming.
func (Group) TableName() string {
	return "groups"
}
