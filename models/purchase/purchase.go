package purchase

import (
	"time"

	"rally-booking/models/payment"
	"rally-booking/models/user"
	"rally-booking/models/vehicle"

	"github.com/shopspring/decimal"
)

// Purchase is a permanent ownership grant for a vehicle, valid for a fixed
// window from the purchase date regardless of provider.
//
// A partial unique index on (user_id, vehicle_id) WHERE state = 'approved'
// backs the one-approved-grant-per-pair invariant (see database.InitDB).
type Purchase struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	UserID uint      `gorm:"not null;index" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user"`

	VehicleID uint            `gorm:"not null;index" json:"vehicle_id"`
	Vehicle   vehicle.Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle"`

	Amount   decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency payment.Currency `gorm:"type:varchar(3);not null" json:"currency"`
	Method   payment.Method   `gorm:"type:varchar(20);not null" json:"payment_method"`

	State State `gorm:"type:varchar(20);not null;index" json:"state"`

	PurchaseDate   time.Time `gorm:"not null" json:"purchase_date"`
	ExpirationDate time.Time `gorm:"not null;index" json:"expiration_date"`

	ExternalTransactionID *string `gorm:"type:varchar(255);index" json:"external_transaction_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Active reports whether the grant currently authorizes vehicle use.
func (p *Purchase) Active(at time.Time) bool {
	return p.State == StateApproved && at.Before(p.ExpirationDate)
}
