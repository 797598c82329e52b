package provider

import "time"

// Remote activation status values.
const (
	StatusWaiting   = "waiting"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Service is a receiving service offered by the provider.
type Service struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Country is a country the provider can allocate numbers in.
type Country struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Price is a quote for one (country, service) pair. Price is in minor units.
type Price struct {
	Price     int64 `json:"price"`
	Available int64 `json:"available"`
}

// Amount returns the quoted price in major units.
func (p Price) Amount() float64 {
	return CentsToAmount(p.Price)
}

// ActivationRequest is the payload for creating an activation.
type ActivationRequest struct {
	CountryID  int64 `json:"countryId"`
	ServiceID  int64 `json:"serviceId"`
	CustomerID int64 `json:"customerId"`
}

// ActivationCreated is the provider response to a successful provisioning call.
type ActivationCreated struct {
	ActivationID int64  `json:"activationId"`
	PhoneNumber  string `json:"phoneNumber"`
	Status       string `json:"status"`
}

// ActivationStatus is the remote view of an in-flight activation.
type ActivationStatus struct {
	Status      string     `json:"status"`
	SMSCode     *string    `json:"smsCode,omitempty"`
	SMSText     *string    `json:"smsText,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Customer is the remote customer record. Balance is in minor units.
type Customer struct {
	ID        int64     `json:"id"`
	PIN       int64     `json:"pin"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Balance   int64     `json:"balance"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// BalanceAmount returns the customer balance in major units.
func (c Customer) BalanceAmount() float64 {
	return CentsToAmount(c.Balance)
}

// CentsToAmount converts integer minor units into a major-unit amount.
// All monetary values cross the provider boundary in cents.
func CentsToAmount(cents int64) float64 {
	return float64(cents) / 100
}
