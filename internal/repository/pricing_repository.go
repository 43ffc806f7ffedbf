package repository

import (
	"context"
	"database/sql"

	"github.com/dlswn666/johapon-api/internal/model"
)

// DefaultPricing is used when the pricing table cannot be read.
var DefaultPricing = model.PricingMap{Kakao: 15, SMS: 20, LMS: 50}

type PricingRepositoryInterface interface {
	CurrentUnitPrices(ctx context.Context) (model.PricingMap, error)
}

type PricingRepository struct {
	DB *sql.DB
}

// CurrentUnitPrices reads get_current_pricing(). Message types missing from
// the result keep their default price.
func (r *PricingRepository) CurrentUnitPrices(ctx context.Context) (model.PricingMap, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT message_type, unit_price FROM get_current_pricing()`)
	if err != nil {
		return DefaultPricing, err
	}
	defer rows.Close()

	pricing := DefaultPricing
	for rows.Next() {
		var msgType string
		var price float64
		if err := rows.Scan(&msgType, &price); err != nil {
			return DefaultPricing, err
		}
		switch msgType {
		case "KAKAO":
			pricing.Kakao = price
		case "SMS":
			pricing.SMS = price
		case "LMS":
			pricing.LMS = price
		}
	}
	if err := rows.Err(); err != nil {
		return DefaultPricing, err
	}
	return pricing, nil
}

var _ PricingRepositoryInterface = (*PricingRepository)(nil)
