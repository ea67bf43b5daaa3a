package reconcile

import (
	"context"
	"errors"
	"time"

	"rally-booking/apperrors"
	gateway "rally-booking/httpServices/payment"
	"rally-booking/logger"
	"rally-booking/models/payment"
	"rally-booking/models/purchase"
	"rally-booking/models/rental"
	"rally-booking/services/notify"

	"gorm.io/gorm"
)

// Ledger is the slice of the booking ledger reconciliation needs. Kept as
// an interface so outcome handling can be tested without a database.
type Ledger interface {
	FindPurchaseByExternalID(ctx context.Context, externalID string) (*purchase.Purchase, error)
	FindRentalByExternalID(ctx context.Context, externalID string) (*rental.Rental, error)
	ApprovePurchase(ctx context.Context, id uint, externalID string) (*purchase.Purchase, error)
	ApproveRental(ctx context.Context, id uint, externalID string) (*rental.Rental, error)
	RejectPurchase(ctx context.Context, id uint) (*purchase.Purchase, error)
	RejectRental(ctx context.Context, id uint) (*rental.Rental, error)
}

// Publisher is the notification surface reconciliation uses.
type Publisher interface {
	Publish(ctx context.Context, key string, v any)
}

// Result describes what a payment outcome did to the ledger.
type Result struct {
	Kind           string `json:"kind"` // "purchase" | "rental"
	GrantID        uint   `json:"grant_id"`
	State          string `json:"state"`
	Applied        bool   `json:"applied"`
	RefundRequired bool   `json:"refund_required"`
}

// Service maps payment outcomes onto ledger transitions. Processing is
// idempotent per external transaction id: replaying a settled outcome is
// a no-op, so webhook redeliveries and verify polls can overlap freely.
type Service struct {
	Ledger   Ledger
	Notifier Publisher
}

func NewService(l Ledger, n Publisher) *Service {
	return &Service{Ledger: l, Notifier: n}
}

// Apply routes one outcome to the grant holding its external transaction
// id. Purchases are checked first, then rentals; an id known to neither
// is UnknownExternalTransaction.
func (s *Service) Apply(ctx context.Context, outcome gateway.Outcome) (*Result, error) {
	p, err := s.Ledger.FindPurchaseByExternalID(ctx, outcome.ExternalID)
	if err == nil {
		return s.applyToPurchase(ctx, p, outcome)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	r, err := s.Ledger.FindRentalByExternalID(ctx, outcome.ExternalID)
	if err == nil {
		return s.applyToRental(ctx, r, outcome)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return nil, apperrors.New(apperrors.KindUnknownExternalTransaction,
		"no grant holds transaction "+outcome.ExternalID)
}

// Confirm polls the provider for the current status of an external
// transaction and applies it. The manual fallback for lost webhooks.
func (s *Service) Confirm(ctx context.Context, gw gateway.Gateway, externalID string) (*Result, error) {
	status, err := gw.Verify(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return s.Apply(ctx, gateway.Outcome{ExternalID: externalID, Status: status})
}

func (s *Service) applyToPurchase(ctx context.Context, p *purchase.Purchase, outcome gateway.Outcome) (*Result, error) {
	res := &Result{Kind: "purchase", GrantID: p.ID, State: string(p.State)}

	// The row was found by this outcome's external id, so any non-pending
	// state means the id was already consumed by an earlier delivery (or by
	// the sweep, for expired rows). Acknowledge without touching the ledger
	// so providers stop redelivering.
	if p.State != purchase.StatePending {
		return res, nil
	}

	switch outcome.Status {
	case payment.StatusSucceeded:
		approved, err := s.Ledger.ApprovePurchase(ctx, p.ID, outcome.ExternalID)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindStaleStateTransition) {
				// Lost the race with a concurrent delivery of the same outcome.
				return res, nil
			}
			if apperrors.IsKind(err, apperrors.KindDuplicateActiveGrant) {
				res.State = string(purchase.StateRejected)
				res.Applied = true
				res.RefundRequired = true
				logger.Warning("Purchase payment " + outcome.ExternalID + " settled against an already-owned vehicle, refund required")
				s.publishGrant(ctx, notify.RKBookingRejected, "purchase", p.ID, p.UserID, p.VehicleID, 0)
				return res, nil
			}
			return nil, err
		}
		res.State = string(approved.State)
		res.Applied = true
		s.publishGrant(ctx, notify.RKBookingApproved, "purchase", approved.ID, approved.UserID, approved.VehicleID, 0)
		return res, nil

	case payment.StatusFailed:
		rejected, err := s.Ledger.RejectPurchase(ctx, p.ID)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindStaleStateTransition) {
				return res, nil
			}
			return nil, err
		}
		res.State = string(rejected.State)
		res.Applied = true
		s.publishGrant(ctx, notify.RKBookingRejected, "purchase", rejected.ID, rejected.UserID, rejected.VehicleID, 0)
		return res, nil

	default:
		// Still pending at the provider, nothing to transition yet.
		return res, nil
	}
}

func (s *Service) applyToRental(ctx context.Context, r *rental.Rental, outcome gateway.Outcome) (*Result, error) {
	res := &Result{Kind: "rental", GrantID: r.ID, State: string(r.State)}

	// Same non-pending gate as purchases, with one twist: a payment that
	// settles after the rally was cancelled never transitioned the row, so
	// the money has to go back.
	if r.State != rental.StatePending {
		if r.State == rental.StateEventCancelled && outcome.Status == payment.StatusSucceeded {
			res.RefundRequired = true
			logger.Warning("Rental payment " + outcome.ExternalID + " settled after its rally was cancelled, refund required")
		}
		return res, nil
	}

	switch outcome.Status {
	case payment.StatusSucceeded:
		approved, err := s.Ledger.ApproveRental(ctx, r.ID, outcome.ExternalID)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindStaleStateTransition) {
				return res, nil
			}
			if apperrors.IsKind(err, apperrors.KindDuplicateActiveGrant) {
				res.State = string(rental.StateRejected)
				res.Applied = true
				res.RefundRequired = true
				logger.Warning("Rental payment " + outcome.ExternalID + " settled against an already-booked rally, refund required")
				s.publishGrant(ctx, notify.RKBookingRejected, "rental", r.ID, r.UserID, r.VehicleID, r.RallyID)
				return res, nil
			}
			return nil, err
		}
		res.State = string(approved.State)
		res.Applied = true
		s.publishGrant(ctx, notify.RKBookingApproved, "rental", approved.ID, approved.UserID, approved.VehicleID, approved.RallyID)
		return res, nil

	case payment.StatusFailed:
		rejected, err := s.Ledger.RejectRental(ctx, r.ID)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindStaleStateTransition) {
				return res, nil
			}
			return nil, err
		}
		res.State = string(rejected.State)
		res.Applied = true
		s.publishGrant(ctx, notify.RKBookingRejected, "rental", rejected.ID, rejected.UserID, rejected.VehicleID, rejected.RallyID)
		return res, nil

	default:
		return res, nil
	}
}

func (s *Service) publishGrant(ctx context.Context, key, kind string, grantID, userID, vehicleID, rallyID uint) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Publish(ctx, key, notify.GrantEvent{
		Kind:       kind,
		GrantID:    grantID,
		UserID:     userID,
		VehicleID:  vehicleID,
		RallyID:    rallyID,
		OccurredAt: time.Now(),
	})
}
