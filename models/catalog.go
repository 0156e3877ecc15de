package models

// Service is a single bookable catalog entry. The catalog is read-only
// input supplied by configuration.
type Service struct {
	ID              string   `json:"id" mapstructure:"id"`
	Name            string   `json:"name" mapstructure:"name"`
	DurationMin     int      `json:"durationMin" mapstructure:"duration_min"`
	Price           float64  `json:"price" mapstructure:"price"`
	DepositRequired bool     `json:"depositRequired" mapstructure:"deposit_required"`
	Aliases         []string `json:"aliases,omitempty" mapstructure:"aliases"`
}

// DayHours holds opening hours for one weekday. Closed days have Closed set;
// Open/Close are "HH:MM".
type DayHours struct {
	Open   string `json:"open" mapstructure:"open"`
	Close  string `json:"close" mapstructure:"close"`
	Closed bool   `json:"closed" mapstructure:"closed"`
}

// Deposit policy types.
const (
	DepositTypeFixed      = "fixed"
	DepositTypePercentage = "percentage"
)

// DepositPolicy decides whether and how much upfront payment a service
// requires before confirmation.
type DepositPolicy struct {
	Enabled    bool    `json:"enabled" mapstructure:"enabled"`
	Type       string  `json:"type" mapstructure:"type"`
	Amount     float64 `json:"amount" mapstructure:"amount"`
	Percentage float64 `json:"percentage" mapstructure:"percentage"`
}

// RefundPolicy is the cancellation ladder: full refund at or beyond
// FullCutoffHours before the appointment, PartialRate of the deposit at or
// beyond PartialCutoffHours, nothing inside that.
type RefundPolicy struct {
	FullCutoffHours    int     `json:"fullCutoffHours" mapstructure:"full_cutoff_hours"`
	PartialCutoffHours int     `json:"partialCutoffHours" mapstructure:"partial_cutoff_hours"`
	PartialRate        float64 `json:"partialRate" mapstructure:"partial_rate"`
}

// Quote is the priced outcome of selecting a service.
type Quote struct {
	ServiceID     string  `json:"serviceId"`
	Price         float64 `json:"price"`
	DepositAmount float64 `json:"depositAmount"`
	Currency      string  `json:"currency"`
}
