package ledger

import (
	"context"
	"errors"
	"time"

	"rally-booking/apperrors"
	"rally-booking/models/history"
	"rally-booking/models/payment"
	"rally-booking/models/purchase"
	"rally-booking/models/rally"
	"rally-booking/models/rental"
	"rally-booking/models/vehicle"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service owns every Purchase/Rental state write. No other component may
// touch grant state; readers go through the garage projection.
//
// Correctness of the one-approved-grant-per-pair invariants does not rest
// on this process: the partial unique indexes installed by database.InitDB
// reject the second of two concurrent approvals, and Service turns that
// rejection into the compensation path.
type Service struct {
	DB               *gorm.DB
	PurchaseValidity time.Duration
}

func NewService(db *gorm.DB, purchaseValidityDays int) *Service {
	return &Service{
		DB:               db,
		PurchaseValidity: time.Duration(purchaseValidityDays) * 24 * time.Hour,
	}
}

// CreatePendingPurchase inserts a pending purchase. An approved purchase
// for the same (user, vehicle) pair fails with DuplicateActiveGrant; an
// older pending row does not block, a user may retry payment.
func (s *Service) CreatePendingPurchase(ctx context.Context, userID, vehicleID uint, amount decimal.Decimal, currency payment.Currency, method payment.Method) (*purchase.Purchase, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&purchase.Purchase{}).
		Where("user_id = ? AND vehicle_id = ? AND state = ?", userID, vehicleID, purchase.StateApproved).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperrors.New(apperrors.KindDuplicateActiveGrant, "vehicle already owned")
	}

	purchasedAt := time.Now()
	row := &purchase.Purchase{
		UserID:         userID,
		VehicleID:      vehicleID,
		Amount:         amount,
		Currency:       currency,
		Method:         method,
		State:          purchase.StatePending,
		PurchaseDate:   purchasedAt,
		ExpirationDate: purchasedAt.Add(s.PurchaseValidity),
	}
	if err := s.DB.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// CreatePendingRental inserts a pending rental keyed on (user, rally). The
// vehicle must satisfy the rally's category restrictions. The validity
// window runs through the end of the event day.
func (s *Service) CreatePendingRental(ctx context.Context, userID, vehicleID, rallyID uint, amount decimal.Decimal, currency payment.Currency, method payment.Method) (*rental.Rental, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&rental.Rental{}).
		Where("user_id = ? AND rally_id = ? AND state = ?", userID, rallyID, rental.StateApproved).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperrors.New(apperrors.KindDuplicateActiveGrant, "rally already booked")
	}

	var ev rally.Rally
	if err := s.DB.WithContext(ctx).Preload("AllowedCategories").First(&ev, rallyID).Error; err != nil {
		return nil, err
	}
	var v vehicle.Vehicle
	if err := s.DB.WithContext(ctx).First(&v, vehicleID).Error; err != nil {
		return nil, err
	}
	if !ev.AllowsCategory(v.CategoryID) {
		return nil, apperrors.New(apperrors.KindCategoryNotAllowed, "vehicle category not allowed for this rally")
	}

	row := &rental.Rental{
		UserID:          userID,
		VehicleID:       vehicleID,
		RallyID:         rallyID,
		Amount:          amount,
		Currency:        currency,
		Method:          method,
		State:           rental.StatePending,
		RentalDate:      time.Now(),
		OriginalEndDate: now.With(ev.ScheduledDate).EndOfDay(),
	}
	if err := s.DB.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// AttachPurchaseExternalID records the provider's transaction id on a
// fresh pending row, right after intent creation.
func (s *Service) AttachPurchaseExternalID(ctx context.Context, id uint, externalID string) error {
	return s.DB.WithContext(ctx).Model(&purchase.Purchase{}).
		Where("id = ? AND state = ?", id, purchase.StatePending).
		Update("external_transaction_id", externalID).Error
}

// AttachRentalExternalID is the rental counterpart.
func (s *Service) AttachRentalExternalID(ctx context.Context, id uint, externalID string) error {
	return s.DB.WithContext(ctx).Model(&rental.Rental{}).
		Where("id = ? AND state = ?", id, rental.StatePending).
		Update("external_transaction_id", externalID).Error
}

// ApprovePurchase transitions pending → approved and writes the history
// row, atomically. A zero-row conditional update means the row left
// pending under our feet (StaleStateTransition). A unique index violation
// means a concurrent approval won the pair; the loser is downgraded to
// rejected and the caller gets DuplicateActiveGrant to process as a
// refund case.
func (s *Service) ApprovePurchase(ctx context.Context, id uint, externalID string) (*purchase.Purchase, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&purchase.Purchase{}).
			Where("id = ? AND state = ?", id, purchase.StatePending).
			Updates(map[string]interface{}{
				"state":                   purchase.StateApproved,
				"external_transaction_id": externalID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.KindStaleStateTransition, "purchase is not pending")
		}

		var row purchase.Purchase
		if err := tx.Preload("Vehicle.Category").First(&row, id).Error; err != nil {
			return err
		}

		record := history.Record{
			UserID:            row.UserID,
			VehicleID:         row.VehicleID,
			Kind:              history.KindPurchase,
			CategoryName:      row.Vehicle.Category.Name,
			ParticipationDate: time.Now(),
		}
		return tx.Create(&record).Error
	})

	if err != nil {
		if isUniqueViolation(err) {
			if derr := s.downgradePurchase(ctx, id, externalID); derr != nil {
				return nil, derr
			}
			return nil, apperrors.New(apperrors.KindDuplicateActiveGrant,
				"an approved purchase already exists for this vehicle; payment must be refunded")
		}
		return nil, err
	}

	var row purchase.Purchase
	if err := s.DB.WithContext(ctx).Preload("Vehicle").First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ApproveRental is the rental counterpart of ApprovePurchase. The history
// row carries the rally and the event date as participation date.
func (s *Service) ApproveRental(ctx context.Context, id uint, externalID string) (*rental.Rental, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&rental.Rental{}).
			Where("id = ? AND state = ?", id, rental.StatePending).
			Updates(map[string]interface{}{
				"state":                   rental.StateApproved,
				"external_transaction_id": externalID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.KindStaleStateTransition, "rental is not pending")
		}

		var row rental.Rental
		if err := tx.Preload("Vehicle.Category").Preload("Rally").First(&row, id).Error; err != nil {
			return err
		}

		rallyID := row.RallyID
		record := history.Record{
			UserID:            row.UserID,
			VehicleID:         row.VehicleID,
			RallyID:           &rallyID,
			Kind:              history.KindRental,
			CategoryName:      row.Vehicle.Category.Name,
			ParticipationDate: row.Rally.ScheduledDate,
		}
		return tx.Create(&record).Error
	})

	if err != nil {
		if isUniqueViolation(err) {
			if derr := s.downgradeRental(ctx, id, externalID); derr != nil {
				return nil, derr
			}
			return nil, apperrors.New(apperrors.KindDuplicateActiveGrant,
				"an approved rental already exists for this rally; payment must be refunded")
		}
		return nil, err
	}

	var row rental.Rental
	if err := s.DB.WithContext(ctx).Preload("Vehicle").Preload("Rally").First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// RejectPurchase transitions pending → rejected. Rejecting an already
// rejected row is a no-op; any other state is stale.
func (s *Service) RejectPurchase(ctx context.Context, id uint) (*purchase.Purchase, error) {
	var row purchase.Purchase
	if err := s.DB.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, err
	}
	if row.State == purchase.StateRejected {
		return &row, nil
	}
	if !row.State.CanReject() {
		return nil, apperrors.New(apperrors.KindStaleStateTransition, "purchase is not pending")
	}

	res := s.DB.WithContext(ctx).Model(&purchase.Purchase{}).
		Where("id = ? AND state = ?", id, purchase.StatePending).
		Update("state", purchase.StateRejected)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.KindStaleStateTransition, "purchase is not pending")
	}

	row.State = purchase.StateRejected
	return &row, nil
}

// RejectRental mirrors RejectPurchase.
func (s *Service) RejectRental(ctx context.Context, id uint) (*rental.Rental, error) {
	var row rental.Rental
	if err := s.DB.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, err
	}
	if row.State == rental.StateRejected {
		return &row, nil
	}
	if !row.State.CanReject() {
		return nil, apperrors.New(apperrors.KindStaleStateTransition, "rental is not pending")
	}

	res := s.DB.WithContext(ctx).Model(&rental.Rental{}).
		Where("id = ? AND state = ?", id, rental.StatePending).
		Update("state", rental.StateRejected)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.KindStaleStateTransition, "rental is not pending")
	}

	row.State = rental.StateRejected
	return &row, nil
}

// FindPurchaseByExternalID resolves a provider transaction id to its row.
func (s *Service) FindPurchaseByExternalID(ctx context.Context, externalID string) (*purchase.Purchase, error) {
	var row purchase.Purchase
	err := s.DB.WithContext(ctx).
		Where("external_transaction_id = ?", externalID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindRentalByExternalID resolves a provider transaction id to its row.
func (s *Service) FindRentalByExternalID(ctx context.Context, externalID string) (*rental.Rental, error) {
	var row rental.Rental
	err := s.DB.WithContext(ctx).
		Where("external_transaction_id = ?", externalID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ExpireDuePurchases flips every approved purchase past its expiration
// date. State-conditioned, so overlapping sweeps are no-ops on rows a
// previous run already transitioned.
func (s *Service) ExpireDuePurchases(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&purchase.Purchase{}).
		Where("state = ? AND expiration_date <= ?", purchase.StateApproved, cutoff).
		Update("state", purchase.StateExpired)
	return res.RowsAffected, res.Error
}

// ExpireDueRentals flips every approved rental whose effective end date
// has passed.
func (s *Service) ExpireDueRentals(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&rental.Rental{}).
		Where("state = ? AND COALESCE(rescheduled_end_date, original_end_date) <= ?", rental.StateApproved, cutoff).
		Update("state", rental.StateExpired)
	return res.RowsAffected, res.Error
}

// DeletePurchase hard-deletes a non-approved grant. Approved grants never
// get deleted directly; they go through cancellation.
func (s *Service) DeletePurchase(ctx context.Context, id uint) error {
	var row purchase.Purchase
	if err := s.DB.WithContext(ctx).First(&row, id).Error; err != nil {
		return err
	}
	if !row.State.Deletable() {
		return apperrors.New(apperrors.KindStaleStateTransition, "approved purchases cannot be deleted")
	}
	return s.DB.WithContext(ctx).Delete(&purchase.Purchase{}, id).Error
}

// DeleteRental mirrors DeletePurchase.
func (s *Service) DeleteRental(ctx context.Context, id uint) error {
	var row rental.Rental
	if err := s.DB.WithContext(ctx).First(&row, id).Error; err != nil {
		return err
	}
	if !row.State.Deletable() {
		return apperrors.New(apperrors.KindStaleStateTransition, "approved rentals cannot be deleted")
	}
	return s.DB.WithContext(ctx).Delete(&rental.Rental{}, id).Error
}

// downgradePurchase marks the loser of an approval race rejected, keeping
// the transaction id for the refund trail.
func (s *Service) downgradePurchase(ctx context.Context, id uint, externalID string) error {
	return s.DB.WithContext(ctx).Model(&purchase.Purchase{}).
		Where("id = ? AND state = ?", id, purchase.StatePending).
		Updates(map[string]interface{}{
			"state":                   purchase.StateRejected,
			"external_transaction_id": externalID,
		}).Error
}

func (s *Service) downgradeRental(ctx context.Context, id uint, externalID string) error {
	return s.DB.WithContext(ctx).Model(&rental.Rental{}).
		Where("id = ? AND state = ?", id, rental.StatePending).
		Updates(map[string]interface{}{
			"state":                   rental.StateRejected,
			"external_transaction_id": externalID,
		}).Error
}

// isUniqueViolation detects the partial unique index firing. SQLSTATE
// 23505 through the pgx driver, gorm.ErrDuplicatedKey as a fallback.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
