package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
// Email/phone uniqueness among non-closed accounts is enforced with partial
// unique indexes (WHERE status <> 'closed') in the schema migration; the
// repository still re-checks before insert to produce a domain error.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	PublicID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Username     string    `gorm:"type:varchar(50);index"`
	AuthType     string    `gorm:"type:varchar(10);not null"`
	Email        string    `gorm:"type:varchar(120);index"`
	Phone        string    `gorm:"type:varchar(20);index"`
	PasswordHash string    `gorm:"type:varchar(128)"`
	Status       string    `gorm:"type:varchar(10);not null"`
	CreatedAt    time.Time

	Sessions []SessionModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
