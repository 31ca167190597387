package models

import (
	"time"
)

// Account holds a wallet's spendable balance on the ledger
type Account struct {
	Address        string    `gorm:"primaryKey;size:64" json:"address"`
	Balance        Units     `gorm:"not null" json:"balance"`
	ReceiveBlocked bool      `gorm:"not null;default:false" json:"receive_blocked"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Account model
func (Account) TableName() string {
	return "accounts"
}
