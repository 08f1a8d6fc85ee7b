package models

import (
	"time"

	"github.com/google/uuid"
)

// Principal is the local record of a directory member. The directory
// owns every mutable attribute (names, mail, account control, group
// memberships); only the stable GUID lives here, as the durable key the
// rest of the application refers to. The DN is deliberately not stored:
// it can change on rename or move.
type Principal struct {
	// ObjectGUID is the directory-assigned stable identifier.
	ObjectGUID uuid.UUID `gorm:"primaryKey;type:varchar(36)"`
	// CreatedAt is the timestamp when the local record was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the local record was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Principal model.
// This overrides GORM's default pluralized table naming.
func (Principal) TableName() string {
	return "principals"
}
