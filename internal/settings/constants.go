package settings

// Keys for DB-backed runtime settings.
const (
	// PollIntervalSecondsKey overrides the SMS polling sweep period.
	PollIntervalSecondsKey = "activation.poll_interval_seconds"
	// ExpirySweepSecondsKey overrides the reservation countdown period.
	ExpirySweepSecondsKey = "activation.expiry_sweep_seconds"
	// ReservationMinutesKey overrides the reservation window granted at purchase.
	ReservationMinutesKey = "activation.reservation_minutes"
	// HistoryRetentionDaysKey overrides how long finished activations are kept.
	HistoryRetentionDaysKey = "activation.history_retention_days"
)

// Defaults applied when the keys above are unset.
const (
	DefaultPollIntervalSeconds  = 5
	DefaultExpirySweepSeconds   = 60
	DefaultReservationMinutes   = 10
	DefaultHistoryRetentionDays = 90
)
