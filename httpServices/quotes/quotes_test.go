package quotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpotRateCacheHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(cacheKey).SetVal("1230.50")

	svc := NewService("http://unreachable.invalid", rdb, 10*time.Minute)
	rate, err := svc.SpotRate(context.Background())
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("1230.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpotRateCacheMissFetchesAndStores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/dolar", r.URL.Path)
		w.Write([]byte(`{"venta":"1250.00","compra":"1200.00"}`))
	}))
	defer srv.Close()

	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSet(cacheKey, "1250.00", 10*time.Minute).SetVal("OK")

	svc := NewService(srv.URL, rdb, 10*time.Minute)
	rate, err := svc.SpotRate(context.Background())
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("1250")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpotRateWithoutRedis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"venta":"1100","compra":"1050"}`))
	}))
	defer srv.Close()

	svc := NewService(srv.URL, nil, time.Minute)
	rate, err := svc.SpotRate(context.Background())
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1100)))
}

func TestUSDEquivalent(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(cacheKey).SetVal("1200")

	svc := NewService("http://unreachable.invalid", rdb, time.Minute)
	usd, err := svc.USDEquivalent(context.Background(), decimal.NewFromInt(15000))
	require.NoError(t, err)
	assert.Equal(t, "12.50", usd.StringFixed(2))
}

func TestSpotRateUnconfiguredFails(t *testing.T) {
	svc := NewService("", nil, time.Minute)
	_, err := svc.SpotRate(context.Background())
	require.Error(t, err)
}
