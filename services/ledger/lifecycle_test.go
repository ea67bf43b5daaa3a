package ledger

import (
	"context"
	"testing"
	"time"

	"rally-booking/apperrors"
	"rally-booking/models/category"
	"rally-booking/models/history"
	"rally-booking/models/payment"
	"rally-booking/models/purchase"
	"rally-booking/models/rally"
	"rally-booking/models/rental"
	"rally-booking/models/user"
	"rally-booking/models/vehicle"

	"github.com/glebarez/sqlite"
	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A second pooled connection would get its own empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&category.Category{},
		&vehicle.Vehicle{},
		&rally.Rally{},
		&purchase.Purchase{},
		&rental.Rental{},
		&history.Record{},
	))
	return db
}

func seedBuyer(t *testing.T, db *gorm.DB) (user.User, vehicle.Vehicle) {
	t.Helper()
	u := user.User{Uuid: "buyer-uuid", Username: "buyer"}
	require.NoError(t, db.Create(&u).Error)
	cat := category.Category{Name: "Group B"}
	require.NoError(t, db.Create(&cat).Error)
	v := vehicle.Vehicle{Name: "Quattro S1", Brand: "Audi", Price: decimal.NewFromInt(95000), CategoryID: cat.ID}
	require.NoError(t, db.Create(&v).Error)
	return u, v
}

func seedRally(t *testing.T, db *gorm.DB, creatorID uint, date time.Time, allowed ...category.Category) rally.Rally {
	t.Helper()
	ev := rally.Rally{
		Championship:      "WRC",
		Name:              "Rally Portugal",
		ScheduledDate:     date,
		OriginalDate:      date,
		CreatorID:         creatorID,
		AllowedCategories: allowed,
	}
	require.NoError(t, db.Create(&ev).Error)
	return ev
}

func TestPurchaseLifecycleRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 365)
	u, v := seedBuyer(t, db)

	p, err := svc.CreatePendingPurchase(context.Background(), u.ID, v.ID, v.Price, payment.CurrencyARS, payment.MethodWallet)
	require.NoError(t, err)
	assert.Equal(t, purchase.StatePending, p.State)
	assert.WithinDuration(t, time.Now().Add(365*24*time.Hour), p.ExpirationDate, time.Minute)

	require.NoError(t, svc.AttachPurchaseExternalID(context.Background(), p.ID, "tx-p1"))
	found, err := svc.FindPurchaseByExternalID(context.Background(), "tx-p1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	approved, err := svc.ApprovePurchase(context.Background(), p.ID, "tx-p1")
	require.NoError(t, err)
	assert.Equal(t, purchase.StateApproved, approved.State)

	var records []history.Record
	require.NoError(t, db.Find(&records).Error)
	require.Len(t, records, 1, "approval writes exactly one history row")
	assert.Equal(t, history.KindPurchase, records[0].Kind)
	assert.Nil(t, records[0].RallyID)
	assert.Equal(t, "Group B", records[0].CategoryName)

	_, err = svc.ApprovePurchase(context.Background(), p.ID, "tx-p1")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindStaleStateTransition))

	n, err := svc.ExpireDuePurchases(context.Background(), time.Now().Add(366*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var expired purchase.Purchase
	require.NoError(t, db.First(&expired, p.ID).Error)
	assert.Equal(t, purchase.StateExpired, expired.State)

	n, err = svc.ExpireDuePurchases(context.Background(), time.Now().Add(366*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "a second sweep finds nothing left to expire")
}

func TestCreatePendingPurchaseBlocksOwnedVehicle(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 365)
	u, v := seedBuyer(t, db)

	owned := purchase.Purchase{
		UserID: u.ID, VehicleID: v.ID,
		Amount: v.Price, Currency: payment.CurrencyARS, Method: payment.MethodWallet,
		State: purchase.StateApproved, PurchaseDate: time.Now(), ExpirationDate: time.Now().AddDate(1, 0, 0),
	}
	require.NoError(t, db.Create(&owned).Error)

	_, err := svc.CreatePendingPurchase(context.Background(), u.ID, v.ID, v.Price, payment.CurrencyARS, payment.MethodWallet)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindDuplicateActiveGrant))
}

func TestRentalLifecycleRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 365)
	u, v := seedBuyer(t, db)
	eventDate := time.Now().AddDate(0, 1, 0)
	ev := seedRally(t, db, u.ID, eventDate)

	r, err := svc.CreatePendingRental(context.Background(), u.ID, v.ID, ev.ID, decimal.NewFromInt(9500), payment.CurrencyARS, payment.MethodWallet)
	require.NoError(t, err)
	assert.Equal(t, rental.StatePending, r.State)
	assert.WithinDuration(t, now.With(eventDate).EndOfDay(), r.OriginalEndDate, time.Second)

	require.NoError(t, svc.AttachRentalExternalID(context.Background(), r.ID, "tx-r1"))

	approved, err := svc.ApproveRental(context.Background(), r.ID, "tx-r1")
	require.NoError(t, err)
	assert.Equal(t, rental.StateApproved, approved.State)

	var records []history.Record
	require.NoError(t, db.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, history.KindRental, records[0].Kind)
	require.NotNil(t, records[0].RallyID)
	assert.Equal(t, ev.ID, *records[0].RallyID)
	assert.WithinDuration(t, eventDate, records[0].ParticipationDate, time.Second, "participation is stamped with the event date")

	n, err := svc.ExpireDueRentals(context.Background(), r.OriginalEndDate.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var expired rental.Rental
	require.NoError(t, db.First(&expired, r.ID).Error)
	assert.Equal(t, rental.StateExpired, expired.State)

	n, err = svc.ExpireDueRentals(context.Background(), r.OriginalEndDate.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreatePendingRentalEnforcesCategoryRestriction(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 365)
	u, v := seedBuyer(t, db)

	wrc := category.Category{Name: "WRC2"}
	require.NoError(t, db.Create(&wrc).Error)
	ev := seedRally(t, db, u.ID, time.Now().AddDate(0, 1, 0), wrc)

	_, err := svc.CreatePendingRental(context.Background(), u.ID, v.ID, ev.ID, decimal.NewFromInt(9500), payment.CurrencyARS, payment.MethodWallet)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCategoryNotAllowed))
}

func TestRejectPurchaseIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 365)
	u, v := seedBuyer(t, db)

	p, err := svc.CreatePendingPurchase(context.Background(), u.ID, v.ID, v.Price, payment.CurrencyARS, payment.MethodWallet)
	require.NoError(t, err)

	rejected, err := svc.RejectPurchase(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase.StateRejected, rejected.State)

	again, err := svc.RejectPurchase(context.Background(), p.ID)
	require.NoError(t, err, "rejecting a rejected row is a no-op")
	assert.Equal(t, purchase.StateRejected, again.State)

	_, err = svc.ApprovePurchase(context.Background(), p.ID, "tx-x")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindStaleStateTransition))
}

func TestDeleteRentalStateGate(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 365)
	u, v := seedBuyer(t, db)
	ev := seedRally(t, db, u.ID, time.Now().AddDate(0, 1, 0))

	r, err := svc.CreatePendingRental(context.Background(), u.ID, v.ID, ev.ID, decimal.NewFromInt(9500), payment.CurrencyARS, payment.MethodWallet)
	require.NoError(t, err)
	_, err = svc.ApproveRental(context.Background(), r.ID, "tx-d1")
	require.NoError(t, err)

	err = svc.DeleteRental(context.Background(), r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindStaleStateTransition))

	_, err = svc.ExpireDueRentals(context.Background(), r.OriginalEndDate.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRental(context.Background(), r.ID), "expired rentals may be cleaned up")
}
