package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionModel mirrors the 'active_sessions' table: the current refresh
// token for each login. The row is updated on every token refresh and
// deactivated on logout.
type SessionModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	SessionID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	JTI       uuid.UUID `gorm:"type:uuid;index;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

// TableName explicitly sets the table name for GORM.
func (SessionModel) TableName() string {
	return "active_sessions"
}
