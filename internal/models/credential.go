package models

import "time"

// Credential stores the local login secret for a remote customer record.
// Identity (balance, PIN) lives remotely; only the password hash and display
// name are kept here.
type Credential struct {
	CustomerID int64 `gorm:"primaryKey;autoIncrement:false"` // Remote customer ID.

	Email    string `gorm:"type:text;not null;uniqueIndex"` // Login email.
	Name     string `gorm:"type:text;not null"`             // Display name.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
