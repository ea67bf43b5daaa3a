package vehicle

import (
	"time"

	"rally-booking/models/category"

	"github.com/shopspring/decimal"
)

// Vehicle is a catalog entry. Catalog CRUD is routine; the lifecycle engine
// only reads vehicles to price grants and check category restrictions.
type Vehicle struct {
	ID    uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name  string          `gorm:"type:varchar(255);not null" json:"name"`
	Brand string          `gorm:"type:varchar(255);not null" json:"brand"`
	Price decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`

	CategoryID uint              `gorm:"not null;index" json:"category_id"`
	Category   category.Category `gorm:"foreignKey:CategoryID" json:"category"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}
