package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExpirer struct {
	mock.Mock
}

func (m *mockExpirer) ExpireDuePurchases(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockExpirer) ExpireDueRentals(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockTokenStore struct {
	mock.Mock
}

func (m *mockTokenStore) DeleteDead(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	svc := NewService(nil, nil)
	err := svc.Start("not a cron spec")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sweep schedule")
}

func TestStopWithoutStart(t *testing.T) {
	svc := NewService(nil, nil)
	assert.NotPanics(t, func() { svc.Stop() })
}

func TestRunSweepsEveryCategory(t *testing.T) {
	ml := new(mockExpirer)
	ts := new(mockTokenStore)
	ml.On("ExpireDuePurchases", mock.Anything, mock.Anything).Return(int64(2), nil)
	ml.On("ExpireDueRentals", mock.Anything, mock.Anything).Return(int64(1), nil)
	ts.On("DeleteDead", mock.Anything, mock.Anything).Return(int64(4), nil)

	NewService(ml, ts).Run(context.Background())

	ml.AssertExpectations(t)
	ts.AssertExpectations(t)
}

func TestRunIsolatesFailingCategories(t *testing.T) {
	// One category failing must not keep the others from running.
	ml := new(mockExpirer)
	ts := new(mockTokenStore)
	ml.On("ExpireDuePurchases", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection reset"))
	ml.On("ExpireDueRentals", mock.Anything, mock.Anything).Return(int64(3), nil)
	ts.On("DeleteDead", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection reset"))

	svc := NewService(ml, ts)
	assert.NotPanics(t, func() { svc.Run(context.Background()) })

	ml.AssertExpectations(t)
	ts.AssertExpectations(t)
}
