package garage

import (
	"context"
	"time"

	"rally-booking/logger"
	"rally-booking/models/payment"
	"rally-booking/models/purchase"
	"rally-booking/models/rental"
	garagetypes "rally-booking/types/garage"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Quoter converts an ARS amount into its USD equivalent at the spot rate.
type Quoter interface {
	USDEquivalent(ctx context.Context, ars decimal.Decimal) (decimal.Decimal, error)
}

// Service builds the garage projection: every vehicle a user can use right
// now, with days remaining and an optional USD equivalent. Read-only, it
// never transitions grant state; rows past their end date simply stop
// appearing until the sweeper catches up.
type Service struct {
	DB     *gorm.DB
	Quotes Quoter
}

func NewService(db *gorm.DB, quotes Quoter) *Service {
	return &Service{DB: db, Quotes: quotes}
}

// View assembles the projection for one user at the given instant.
func (s *Service) View(ctx context.Context, userID uint, at time.Time) (*garagetypes.View, error) {
	var purchases []purchase.Purchase
	err := s.DB.WithContext(ctx).Preload("Vehicle").
		Where("user_id = ? AND state = ? AND expiration_date > ?", userID, purchase.StateApproved, at).
		Order("expiration_date ASC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}

	var rentals []rental.Rental
	err = s.DB.WithContext(ctx).Preload("Vehicle").Preload("Rally").
		Where("user_id = ? AND state = ? AND COALESCE(rescheduled_end_date, original_end_date) > ?",
			userID, rental.StateApproved, at).
		Order("COALESCE(rescheduled_end_date, original_end_date) ASC").
		Find(&rentals).Error
	if err != nil {
		return nil, err
	}

	view := &garagetypes.View{Vehicles: make([]garagetypes.Entry, 0, len(purchases)+len(rentals))}

	for i := range purchases {
		p := &purchases[i]
		view.Vehicles = append(view.Vehicles, garagetypes.Entry{
			Source:        "purchase",
			GrantID:       p.ID,
			VehicleID:     p.VehicleID,
			VehicleName:   p.Vehicle.Name,
			Amount:        p.Amount.StringFixed(2),
			Currency:      p.Currency,
			USDEquivalent: s.usdEquivalent(ctx, p.Amount, p.Currency),
			EndDate:       p.ExpirationDate.Format(time.RFC3339),
			DaysRemaining: DaysRemaining(p.ExpirationDate, at),
		})
	}

	for i := range rentals {
		r := &rentals[i]
		rallyID := r.RallyID
		end := r.EffectiveEndDate()
		view.Vehicles = append(view.Vehicles, garagetypes.Entry{
			Source:        "rental",
			GrantID:       r.ID,
			VehicleID:     r.VehicleID,
			VehicleName:   r.Vehicle.Name,
			RallyID:       &rallyID,
			RallyName:     r.Rally.Name,
			Amount:        r.Amount.StringFixed(2),
			Currency:      r.Currency,
			USDEquivalent: s.usdEquivalent(ctx, r.Amount, r.Currency),
			EndDate:       end.Format(time.RFC3339),
			DaysRemaining: DaysRemaining(end, at),
		})
	}

	return view, nil
}

// DaysRemaining counts whole days until end, rounding partial days up and
// never going below zero.
func DaysRemaining(end, at time.Time) int {
	left := end.Sub(at)
	if left <= 0 {
		return 0
	}
	days := int(left / (24 * time.Hour))
	if left%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// usdEquivalent is display-only. ARS amounts get converted; USD amounts
// are already there; a quote failure just leaves the field empty.
func (s *Service) usdEquivalent(ctx context.Context, amount decimal.Decimal, currency payment.Currency) string {
	switch currency {
	case payment.CurrencyUSD:
		return amount.StringFixed(2)
	case payment.CurrencyARS:
		if s.Quotes == nil {
			return ""
		}
		usd, err := s.Quotes.USDEquivalent(ctx, amount)
		if err != nil {
			logger.Warning("USD equivalent unavailable: " + err.Error())
			return ""
		}
		return usd.StringFixed(2)
	default:
		return ""
	}
}
