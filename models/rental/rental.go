package rental

import (
	"time"

	"rally-booking/models/payment"
	"rally-booking/models/rally"
	"rally-booking/models/user"
	"rally-booking/models/vehicle"

	"github.com/shopspring/decimal"
)

// Rental is a time-boxed grant tied to one rally. Its validity ends at the
// event's date; when the organizer moves the event, RescheduledEndDate
// carries the new date while OriginalEndDate keeps the booking-time one.
//
// A partial unique index on (user_id, rally_id) WHERE state = 'approved'
// backs the one-approved-rental-per-event invariant (see database.InitDB).
type Rental struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	UserID uint      `gorm:"not null;index" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user"`

	VehicleID uint            `gorm:"not null;index" json:"vehicle_id"`
	Vehicle   vehicle.Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle"`

	RallyID uint        `gorm:"not null;index" json:"rally_id"`
	Rally   rally.Rally `gorm:"foreignKey:RallyID" json:"rally"`

	Amount   decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency payment.Currency `gorm:"type:varchar(3);not null" json:"currency"`
	Method   payment.Method   `gorm:"type:varchar(20);not null" json:"payment_method"`

	State State `gorm:"type:varchar(20);not null;index" json:"state"`

	RentalDate         time.Time  `gorm:"not null" json:"rental_date"`
	OriginalEndDate    time.Time  `gorm:"not null" json:"original_end_date"`
	RescheduledEndDate *time.Time `json:"rescheduled_end_date,omitempty"`

	ExternalTransactionID *string `gorm:"type:varchar(255);index" json:"external_transaction_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// EffectiveEndDate is the rescheduled date when the event moved, the
// booking-time date otherwise.
func (r *Rental) EffectiveEndDate() time.Time {
	if r.RescheduledEndDate != nil {
		return *r.RescheduledEndDate
	}
	return r.OriginalEndDate
}

// Active reports whether the grant currently authorizes vehicle use.
func (r *Rental) Active(at time.Time) bool {
	return r.State == StateApproved && at.Before(r.EffectiveEndDate())
}
