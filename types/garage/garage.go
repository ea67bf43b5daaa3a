package garage

import "rally-booking/models/payment"

// Entry is one currently-usable vehicle in a user's garage.
type Entry struct {
	Source        string           `json:"source"` // "purchase" | "rental"
	GrantID       uint             `json:"grant_id"`
	VehicleID     uint             `json:"vehicle_id"`
	VehicleName   string           `json:"vehicle_name"`
	RallyID       *uint            `json:"rally_id,omitempty"`
	RallyName     string           `json:"rally_name,omitempty"`
	Amount        string           `json:"amount"`
	Currency      payment.Currency `json:"currency"`
	USDEquivalent string           `json:"usd_equivalent,omitempty"`
	EndDate       string           `json:"end_date"`
	DaysRemaining int              `json:"days_remaining"`
}

// View is the full projection for one user.
type View struct {
	Vehicles []Entry `json:"vehicles"`
}
