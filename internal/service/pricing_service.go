package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dlswn666/johapon-api/internal/repository"
)

type PricingService struct {
	PricingRepo repository.PricingRepositoryInterface
	Log         zerolog.Logger
}

// CalculateCost prices delivered messages with the current unit prices.
// When the price table is unreadable the fallback prices apply.
func (s *PricingService) CalculateCost(ctx context.Context, kakaoCount, smsCount int) float64 {
	pricing, err := s.PricingRepo.CurrentUnitPrices(ctx)
	if err != nil {
		s.Log.Warn().Err(err).Msg("pricing lookup failed, using fallback prices")
		pricing = repository.DefaultPricing
	}
	return float64(kakaoCount)*pricing.Kakao + float64(smsCount)*pricing.SMS
}
