package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"rally-booking/logger"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const cacheKey = "quotes:usd_ars"

// Service fetches the ARS/USD spot rate from the external quote API and
// caches it in redis for a TTL. Display-only: a missing rate never fails a
// booking operation, callers just omit the equivalent.
type Service struct {
	httpClient *http.Client
	baseURL    string
	redis      *redis.Client
	ttl        time.Duration
}

func NewService(baseURL string, rdb *redis.Client, ttl time.Duration) *Service {
	return &Service{
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: baseURL,
		redis:   rdb,
		ttl:     ttl,
	}
}

type quoteResponse struct {
	Sell string `json:"venta"`
	Buy  string `json:"compra"`
}

// SpotRate returns how many ARS one USD sells for.
func (s *Service) SpotRate(ctx context.Context) (decimal.Decimal, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			if rate, derr := decimal.NewFromString(cached); derr == nil {
				return rate, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			logger.Warning("Quote cache read failed: " + err.Error())
		}
	}

	rate, err := s.fetch(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey, rate.StringFixed(2), s.ttl).Err(); err != nil {
			logger.Warning("Quote cache write failed: " + err.Error())
		}
	}

	return rate, nil
}

// USDEquivalent converts an ARS amount at the current spot rate.
func (s *Service) USDEquivalent(ctx context.Context, ars decimal.Decimal) (decimal.Decimal, error) {
	rate, err := s.SpotRate(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if rate.IsZero() {
		return decimal.Zero, errors.New("quote service returned a zero rate")
	}
	return ars.DivRound(rate, 2), nil
}

func (s *Service) fetch(ctx context.Context) (decimal.Decimal, error) {
	if s.baseURL == "" {
		return decimal.Zero, errors.New("quote service not configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/dolar", nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, errors.New("quote API returned non-OK status: " + resp.Status)
	}

	var apiResp quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return decimal.Zero, err
	}

	return decimal.NewFromString(apiResp.Sell)
}
