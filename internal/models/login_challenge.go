package models

import (
	"time"

	"github.com/google/uuid"
)

// LoginChallenge is a single-use nonce a wallet signs to log in
type LoginChallenge struct {
	Nonce         uuid.UUID `gorm:"type:uuid;primaryKey" json:"nonce"`
	WalletAddress string    `gorm:"size:64;index;not null" json:"wallet_address"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	ExpiresAt     time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for LoginChallenge model
func (LoginChallenge) TableName() string {
	return "login_challenges"
}
