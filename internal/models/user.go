package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint64 `gorm:"primarykey" json:"id"`
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Pic          string `gorm:"type:varchar(512)" json:"pic"`
	// GithubToken always holds Credential Store ciphertext (hex), never plaintext.
	GithubToken string         `gorm:"type:text" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Memberships []ChatMember `gorm:"foreignKey:UserID" json:"-"`
}

// HasCredential reports whether a provider token is on file.
func (u User) HasCredential() bool {
	return u.GithubToken != ""
}
