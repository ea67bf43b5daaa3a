package sweeper

import (
	"context"
	"fmt"
	"time"

	"rally-booking/logger"

	"github.com/robfig/cron/v3"
)

// Expirer is the slice of the booking ledger the sweep needs.
type Expirer interface {
	ExpireDuePurchases(ctx context.Context, cutoff time.Time) (int64, error)
	ExpireDueRentals(ctx context.Context, cutoff time.Time) (int64, error)
}

// TokenStore is the slice of the token service the sweep needs.
type TokenStore interface {
	DeleteDead(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service runs the recurring maintenance sweep: expire overdue purchases,
// expire overdue rentals, drop dead verification tokens. Each category is
// isolated, one failing does not stop the others, and every transition is
// state-conditioned so overlapping runs are harmless.
type Service struct {
	Ledger Expirer
	Tokens TokenStore
	cron   *cron.Cron
}

func NewService(ledger Expirer, tokens TokenStore) *Service {
	return &Service{Ledger: ledger, Tokens: tokens}
}

// Start schedules the sweep on the given cron spec and runs it until Stop.
func (s *Service) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		s.Run(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	logger.Info("Expiration sweeper scheduled: " + schedule)
	return nil
}

// Stop halts the schedule, letting an in-flight run finish.
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Run executes one sweep.
func (s *Service) Run(ctx context.Context) {
	cutoff := time.Now()

	if n, err := s.Ledger.ExpireDuePurchases(ctx, cutoff); err != nil {
		logger.Error("Sweep failed to expire purchases", err)
	} else if n > 0 {
		logger.Success(fmt.Sprintf("Sweep expired %d purchases", n))
	}

	if n, err := s.Ledger.ExpireDueRentals(ctx, cutoff); err != nil {
		logger.Error("Sweep failed to expire rentals", err)
	} else if n > 0 {
		logger.Success(fmt.Sprintf("Sweep expired %d rentals", n))
	}

	if n, err := s.Tokens.DeleteDead(ctx, cutoff); err != nil {
		logger.Error("Sweep failed to delete verification tokens", err)
	} else if n > 0 {
		logger.Success(fmt.Sprintf("Sweep deleted %d verification tokens", n))
	}
}
