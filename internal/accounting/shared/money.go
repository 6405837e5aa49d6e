package shared

import "github.com/shopspring/decimal"

// BalanceTolerance is the largest debit/credit difference accepted as balanced.
var BalanceTolerance = decimal.New(1, -2)

// IsBalanced reports whether the two totals agree within BalanceTolerance.
func IsBalanced(debit, credit decimal.Decimal) bool {
	return debit.Sub(credit).Abs().LessThanOrEqual(BalanceTolerance)
}

// RoundUnit rounds to the nearest whole currency unit (half away from zero).
func RoundUnit(v decimal.Decimal) decimal.Decimal {
	return v.Round(0)
}

// Round2 rounds to cents, the persisted precision.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
