package scheduling

import (
	"math"

	"serenity/models"
)

// CalculateDeposit computes the upfront amount a service requires under the
// given policy. Pure: policy and service come in as arguments, nothing is
// read from globals. Percentage deposits round half-up to the cent. The
// result never exceeds the service price and never goes below zero.
func CalculateDeposit(svc models.Service, policy models.DepositPolicy) float64 {
	if !policy.Enabled || !svc.DepositRequired {
		return 0
	}
	var amount float64
	if policy.Type == models.DepositTypeFixed {
		amount = policy.Amount
	} else {
		amount = roundToCent(svc.Price * policy.Percentage)
	}
	if amount <= 0 {
		return 0
	}
	if amount > svc.Price {
		return svc.Price
	}
	return amount
}

// roundToCent rounds half-up to the nearest minor currency unit.
func roundToCent(amount float64) float64 {
	return math.Floor(amount*100+0.5) / 100
}
