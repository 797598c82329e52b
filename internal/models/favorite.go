package models

import "time"

// Favorite marks a service as preferred by a customer.
type Favorite struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	CustomerID int64 `gorm:"not null;uniqueIndex:idx_favorite_customer_service"` // Owning remote customer ID.
	ServiceID  int64 `gorm:"not null;uniqueIndex:idx_favorite_customer_service"` // Favorited service ID.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
