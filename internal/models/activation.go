package models

import "time"

// Activation statuses. An activation starts in waiting and moves to exactly
// one of the terminal statuses; no transition ever leaves a terminal status.
const (
	// StatusWaiting marks a provisioned number still awaiting an SMS.
	StatusWaiting = "waiting"
	// StatusCompleted marks an activation whose SMS code arrived.
	StatusCompleted = "completed"
	// StatusCancelled marks an activation cancelled by the customer or provider.
	StatusCancelled = "cancelled"
	// StatusExpired marks an activation whose reservation window elapsed.
	StatusExpired = "expired"
)

// IsTerminalStatus reports whether a status admits no further transitions.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// DefaultReservationMinutes is the reservation window granted at purchase.
const DefaultReservationMinutes = 10

// Activation represents one purchased number reservation.
type Activation struct {
	ID string `gorm:"type:text;primaryKey"` // Local identifier (UUID).

	CustomerID int64 `gorm:"not null;index"` // Owning remote customer ID.
	ServiceID  int64 `gorm:"not null"`       // Provider service ID.

	RemoteID *int64 `gorm:"uniqueIndex"` // Provider activation ID, nil until provisioned.

	PhoneNumber string  `gorm:"type:text;not null"`           // Reserved number.
	Status      string  `gorm:"type:text;not null;index"`     // Lifecycle status.
	SMSCode     *string `gorm:"type:text"`                    // Received verification code.
	SMSText     *string `gorm:"type:text"`                    // Full received SMS text.
	MinutesLeft int     `gorm:"not null"`                     // Remaining reservation minutes.
	PricePaid   float64 `gorm:"type:decimal(20,10);not null"` // Price at purchase, never mutated.

	CreatedAt   time.Time  `gorm:"not null;autoCreateTime"` // Purchase timestamp.
	CompletedAt *time.Time // Terminal transition timestamp, if completed.
}

// IsTerminal reports whether the activation reached a terminal status.
func (a *Activation) IsTerminal() bool {
	return IsTerminalStatus(a.Status)
}
