package history

import (
	"time"

	"rally-booking/models/rally"
	"rally-booking/models/user"
	"rally-booking/models/vehicle"
)

// Record is one completed participation: a rental, or a purchase's vehicle
// becoming usable. Rows are written once, inside the approval transaction,
// and never mutated. CategoryName is denormalized so the record survives
// category deletion.
type Record struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	UserID uint      `gorm:"not null;index" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user"`

	VehicleID uint            `gorm:"not null;index" json:"vehicle_id"`
	Vehicle   vehicle.Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle"`

	// RallyID is nil for purchase participations.
	RallyID *uint        `gorm:"index" json:"rally_id,omitempty"`
	Rally   *rally.Rally `gorm:"foreignKey:RallyID" json:"rally,omitempty"`

	Kind              Kind      `gorm:"type:varchar(20);not null" json:"kind"`
	CategoryName      string    `gorm:"type:varchar(100);not null" json:"category_name"`
	ParticipationDate time.Time `gorm:"not null;index" json:"participation_date"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Kind distinguishes the two participation sources.
type Kind string

const (
	KindPurchase Kind = "purchase"
	KindRental   Kind = "rental"
)

// TableName keeps the table name from pluralizing to "records".
func (Record) TableName() string {
	return "history_records"
}
