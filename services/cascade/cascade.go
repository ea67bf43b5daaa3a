package cascade

import (
	"context"
	"errors"
	"time"

	"rally-booking/apperrors"
	"rally-booking/logger"
	"rally-booking/models/history"
	"rally-booking/models/rally"
	"rally-booking/models/rental"
	"rally-booking/models/vehicle"
	"rally-booking/services/notify"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// Publisher is the notification surface the coordinator uses.
type Publisher interface {
	Publish(ctx context.Context, key string, v any)
}

// Service coordinates rally lifecycle changes with the rentals attached to
// the rally. Every cascade runs in a single transaction: either the rally
// and all its affected rentals move together, or nothing does.
type Service struct {
	DB       *gorm.DB
	Notifier Publisher
}

func NewService(db *gorm.DB, n Publisher) *Service {
	return &Service{DB: db, Notifier: n}
}

// CancelResult reports what a cancellation cascaded over.
type CancelResult struct {
	RentalsCancelled int64 `json:"rentals_cancelled"`
	RallyDeleted     bool  `json:"rally_deleted"`
}

// Reschedule moves the rally to newDate and stamps the new effective end
// on every pending or approved rental of the rally. OriginalDate stays
// untouched, it records the first scheduled date forever.
func (s *Service) Reschedule(ctx context.Context, rallyID uint, newDate time.Time) (*rally.Rally, error) {
	var ev rally.Rally
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ev, rallyID).Error; err != nil {
			return err
		}

		if err := tx.Model(&ev).Update("scheduled_date", newDate).Error; err != nil {
			return err
		}

		end := now.With(newDate).EndOfDay()
		return tx.Model(&rental.Rental{}).
			Where("rally_id = ? AND state IN ?", rallyID, rental.NonTerminalStates()).
			Update("rescheduled_end_date", end).Error
	})
	if err != nil {
		return nil, err
	}

	ev.ScheduledDate = newDate
	return &ev, nil
}

// Cancel transitions every non-terminal rental of the rally to
// event_cancelled and removes the rally itself, unless history records
// reference it or a rental still carries an external transaction id. In
// either case the rally stays as a tombstone: for the participation trail,
// or so an in-flight payment outcome can still reach its grant.
func (s *Service) Cancel(ctx context.Context, rallyID uint) (*CancelResult, error) {
	result := &CancelResult{}
	var cancelled []rental.Rental

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev rally.Rally
		if err := tx.First(&ev, rallyID).Error; err != nil {
			return err
		}

		if err := tx.Where("rally_id = ? AND state IN ?", rallyID, rental.NonTerminalStates()).
			Find(&cancelled).Error; err != nil {
			return err
		}

		if len(cancelled) > 0 {
			res := tx.Model(&rental.Rental{}).
				Where("rally_id = ? AND state IN ?", rallyID, rental.NonTerminalStates()).
				Update("state", rental.StateEventCancelled)
			if res.Error != nil {
				return res.Error
			}
			result.RentalsCancelled = res.RowsAffected
		}

		var referenced int64
		if err := tx.Model(&history.Record{}).
			Where("rally_id = ?", rallyID).
			Count(&referenced).Error; err != nil {
			return err
		}
		if referenced > 0 {
			return nil
		}

		// A rental holding an external transaction id may still have a
		// payment in flight at the provider. Keep the tombstone and the
		// event_cancelled rows so a late outcome can still find its grant.
		var inFlight int64
		if err := tx.Model(&rental.Rental{}).
			Where("rally_id = ? AND external_transaction_id IS NOT NULL", rallyID).
			Count(&inFlight).Error; err != nil {
			return err
		}
		if inFlight > 0 {
			return nil
		}

		// No history means no rental of this rally ever settled (approval
		// always writes the history row), so the remaining rows can go
		// with the rally.
		if err := tx.Where("rally_id = ?", rallyID).Delete(&rental.Rental{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM rally_categories WHERE rally_id = ?", rallyID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&rally.Rally{}, rallyID).Error; err != nil {
			// The RESTRICT constraint wins races with concurrent history
			// writes; keep the tombstone in that case too.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return nil
			}
			return err
		}
		result.RallyDeleted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, r := range cancelled {
		if s.Notifier == nil {
			break
		}
		s.Notifier.Publish(ctx, notify.RKRentalCancelled, notify.GrantEvent{
			Kind:       "rental",
			GrantID:    r.ID,
			UserID:     r.UserID,
			VehicleID:  r.VehicleID,
			RallyID:    r.RallyID,
			OccurredAt: time.Now(),
		})
		if r.State == rental.StateApproved && r.ExternalTransactionID != nil {
			logger.Warning("Rental cancelled after payment settled, refund required for transaction " + *r.ExternalTransactionID)
		}
	}

	return result, nil
}

// MoveRental re-keys a rental onto another rally. The vehicle must pass
// the target rally's category restrictions, and the user must not already
// hold an approved rental there. The validity window resets to the target
// date and any reschedule stamp from the old rally is cleared.
func (s *Service) MoveRental(ctx context.Context, rentalID, newRallyID uint) (*rental.Rental, error) {
	var row rental.Rental
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, rentalID).Error; err != nil {
			return err
		}
		if row.State.IsTerminal() {
			return apperrors.New(apperrors.KindStaleStateTransition, "rental is no longer movable")
		}

		var target rally.Rally
		if err := tx.Preload("AllowedCategories").First(&target, newRallyID).Error; err != nil {
			return err
		}
		var v vehicle.Vehicle
		if err := tx.First(&v, row.VehicleID).Error; err != nil {
			return err
		}
		if !target.AllowsCategory(v.CategoryID) {
			return apperrors.New(apperrors.KindCategoryNotAllowed, "vehicle category not allowed for the target rally")
		}

		var held int64
		if err := tx.Model(&rental.Rental{}).
			Where("user_id = ? AND rally_id = ? AND state = ? AND id <> ?",
				row.UserID, newRallyID, rental.StateApproved, row.ID).
			Count(&held).Error; err != nil {
			return err
		}
		if held > 0 {
			return apperrors.New(apperrors.KindDuplicateActiveGrant, "user already holds an approved rental for the target rally")
		}

		updates := map[string]interface{}{
			"rally_id":             newRallyID,
			"original_end_date":    now.With(target.ScheduledDate).EndOfDay(),
			"rescheduled_end_date": nil,
		}
		if err := tx.Model(&row).Updates(updates).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return apperrors.New(apperrors.KindDuplicateActiveGrant, "user already holds an approved rental for the target rally")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Preload("Rally").Preload("Vehicle").First(&row, rentalID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
