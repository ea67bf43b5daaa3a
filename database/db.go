package database

import (
	"fmt"

	"rally-booking/config"
	"rally-booking/logger"
	"rally-booking/models/category"
	"rally-booking/models/history"
	"rally-booking/models/purchase"
	"rally-booking/models/rally"
	"rally-booking/models/rental"
	"rally-booking/models/token"
	"rally-booking/models/user"
	"rally-booking/models/vehicle"
	"rally-booking/models/webhooklog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB connects, migrates and installs the constraints the lifecycle
// engine relies on.
func InitDB(cfg config.App) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUsername, cfg.DBPassword, cfg.DBDatabase, cfg.DBSSLMode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := autoMigrate(); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	if err := createForeignKeyConstraints(); err != nil {
		logger.Error("Failed to create foreign key constraints", err)
		return nil, err
	}
	logger.Success("All foreign key constraints created successfully")

	return DB, nil
}

// autoMigrate runs auto migration for all models, in dependency stages.
func autoMigrate() error {
	// Stage 1: foundation models
	stage1Models := []interface{}{
		&user.User{},
		&category.Category{},
	}

	for _, model := range stage1Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: catalog and events
	stage2Models := []interface{}{
		&vehicle.Vehicle{},
		&rally.Rally{},
	}

	for _, model := range stage2Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 3: lifecycle rows and support tables
	stage3Models := []interface{}{
		&purchase.Purchase{},
		&rental.Rental{},
		&history.Record{},
		&token.VerificationToken{},
		&webhooklog.Delivery{},
	}

	for _, model := range stage3Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// createIndexes creates the indexes the engine depends on. The two partial
// unique indexes are the load-bearing ones: they make "at most one approved
// grant per pair" hold across concurrent approvals and across processes,
// without any application-level lock.
func createIndexes() error {
	if err := DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_purchases_user_vehicle_approved
		ON purchases(user_id, vehicle_id) WHERE state = 'approved'`).Error; err != nil {
		return fmt.Errorf("failed to create approved purchase uniqueness index: %w", err)
	}
	if err := DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_rentals_user_rally_approved
		ON rentals(user_id, rally_id) WHERE state = 'approved'`).Error; err != nil {
		return fmt.Errorf("failed to create approved rental uniqueness index: %w", err)
	}

	// Sweep scans
	if err := DB.Exec(`CREATE INDEX IF NOT EXISTS idx_purchases_state_expiration
		ON purchases(state, expiration_date)`).Error; err != nil {
		return fmt.Errorf("failed to create purchase sweep index: %w", err)
	}
	if err := DB.Exec(`CREATE INDEX IF NOT EXISTS idx_rentals_state_end
		ON rentals(state, original_end_date, rescheduled_end_date)`).Error; err != nil {
		return fmt.Errorf("failed to create rental sweep index: %w", err)
	}
	if err := DB.Exec(`CREATE INDEX IF NOT EXISTS idx_verification_tokens_expires_at
		ON verification_tokens(expires_at)`).Error; err != nil {
		return fmt.Errorf("failed to create token sweep index: %w", err)
	}

	// Reconciliation lookups
	if err := DB.Exec(`CREATE INDEX IF NOT EXISTS idx_purchases_external_transaction_id
		ON purchases(external_transaction_id)`).Error; err != nil {
		return fmt.Errorf("failed to create purchase external id index: %w", err)
	}
	if err := DB.Exec(`CREATE INDEX IF NOT EXISTS idx_rentals_external_transaction_id
		ON rentals(external_transaction_id)`).Error; err != nil {
		return fmt.Errorf("failed to create rental external id index: %w", err)
	}

	return nil
}

// createForeignKeyConstraints creates the constraints auto migration does
// not express. History rows restrict rally deletion: a rally with recorded
// participations may only have its rentals closed out, never vanish.
func createForeignKeyConstraints() error {
	constraints := []struct {
		name string
		sql  string
	}{
		{
			name: "fk_history_records_rally",
			sql: `ALTER TABLE history_records ADD CONSTRAINT fk_history_records_rally
				  FOREIGN KEY (rally_id) REFERENCES rallies(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_rentals_rally",
			sql: `ALTER TABLE rentals ADD CONSTRAINT fk_rentals_rally
				  FOREIGN KEY (rally_id) REFERENCES rallies(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
	}

	for _, constraint := range constraints {
		var exists bool
		checkSQL := `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE constraint_name = $1
			)
		`

		err := DB.Raw(checkSQL, constraint.name).Scan(&exists).Error
		if err != nil {
			logger.Warning(fmt.Sprintf("Failed to check constraint existence: %s - Error: %v", constraint.name, err))
			continue
		}

		if !exists {
			if err := DB.Exec(constraint.sql).Error; err != nil {
				logger.Warning(fmt.Sprintf("Failed to create constraint: %s - Error: %v", constraint.name, err))
			} else {
				logger.Success(fmt.Sprintf("Successfully created constraint: %s", constraint.name))
			}
		} else {
			logger.Debug(fmt.Sprintf("Constraint already exists: %s", constraint.name))
		}
	}

	return nil
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	return DB
}
