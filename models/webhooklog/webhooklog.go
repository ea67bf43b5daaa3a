package webhooklog

import "time"

// Delivery records every inbound provider webhook with its reconciliation
// outcome, for auditing replays and unknown transaction ids.
type Delivery struct {
	ID                    uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider              string    `gorm:"type:varchar(20);not null;index" json:"provider"`
	ExternalTransactionID string    `gorm:"type:varchar(255);not null;index" json:"external_transaction_id"`
	Status                string    `gorm:"type:varchar(20);not null" json:"status"`
	Outcome               string    `gorm:"type:varchar(50);not null" json:"outcome"`
	Payload               string    `gorm:"type:text" json:"payload"`
	CreatedAt             time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
