package types

import "github.com/shopspring/decimal"

// MoneyPrecision is the number of decimal places kept for monetary amounts.
const MoneyPrecision = 2

// RoundMoney rounds an amount half away from zero to MoneyPrecision places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPrecision)
}

// ClampMoney bounds amount to [0, max] and rounds it.
func ClampMoney(amount, max decimal.Decimal) decimal.Decimal {
	if amount.GreaterThan(max) {
		amount = max
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return RoundMoney(amount)
}

// ToMinorUnits converts an amount to cents-style integer units.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(MoneyPrecision).Round(0).IntPart()
}

// FromMinorUnits converts integer minor units to an amount.
func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.New(units, -MoneyPrecision)
}
