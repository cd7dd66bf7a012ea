package model

import "time"

// OTPChallengeModel mirrors the 'otp_challenges' table. One live code per
// phone; issuing a new code overwrites the row.
type OTPChallengeModel struct {
	Phone     string    `gorm:"type:varchar(20);primary_key"`
	Code      string    `gorm:"type:varchar(10);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName explicitly sets the table name for GORM.
func (OTPChallengeModel) TableName() string {
	return "otp_challenges"
}
