package rally

import (
	"time"

	"rally-booking/models/category"
	"rally-booking/models/user"
)

// Rally is a scheduled event. ScheduledDate moves when the organizer
// reschedules; OriginalDate is a snapshot of the first scheduled date and
// never changes, so a reschedule is detectable by comparing the two.
type Rally struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Championship  string    `gorm:"type:varchar(255);not null" json:"championship"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	ScheduledDate time.Time `gorm:"not null;index" json:"scheduled_date"`
	OriginalDate  time.Time `gorm:"not null" json:"original_date"`

	CreatorID uint      `gorm:"not null;index" json:"creator_id"`
	Creator   user.User `gorm:"foreignKey:CreatorID" json:"creator"`

	// Results is an opaque blob filled in after the event ran.
	Results *string `gorm:"type:jsonb" json:"results,omitempty"`

	// Empty means no restriction: any vehicle may enter.
	AllowedCategories []category.Category `gorm:"many2many:rally_categories" json:"allowed_categories,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Rescheduled reports whether the event has moved from its first date.
func (r *Rally) Rescheduled() bool {
	return !r.ScheduledDate.Equal(r.OriginalDate)
}

// AllowsCategory checks the vehicle class against the rally's restrictions.
func (r *Rally) AllowsCategory(categoryID uint) bool {
	if len(r.AllowedCategories) == 0 {
		return true
	}
	for _, c := range r.AllowedCategories {
		if c.ID == categoryID {
			return true
		}
	}
	return false
}
