package occupancy

import (
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/shared/valueobject"
)

const secondsPerHour = 3600

// HoursPlaces is the precision member hour totals are kept at
const HoursPlaces int32 = 6

// UsagePrice returns elapsedSeconds/3600 × hourlyRate rounded half-up to cents.
func UsagePrice(elapsedSeconds int64, hourlyRate decimal.Decimal) decimal.Decimal {
	if elapsedSeconds <= 0 {
		return decimal.Zero
	}
	return hourlyRate.
		Mul(decimal.NewFromInt(elapsedSeconds)).
		Div(decimal.NewFromInt(secondsPerHour)).
		Round(valueobject.MoneyPlaces)
}

// TotalPrice returns the usage price plus store charges
func TotalPrice(elapsedSeconds int64, hourlyRate, storeCharges decimal.Decimal) decimal.Decimal {
	return UsagePrice(elapsedSeconds, hourlyRate).Add(storeCharges)
}

// HoursFromSeconds converts elapsed seconds to hours
func HoursFromSeconds(elapsedSeconds int64) decimal.Decimal {
	if elapsedSeconds <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(elapsedSeconds).
		DivRound(decimal.NewFromInt(secondsPerHour), HoursPlaces)
}
