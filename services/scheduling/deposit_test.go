package scheduling

import (
	"testing"

	"serenity/models"
)

func TestCalculateDeposit(t *testing.T) {
	svc := models.Service{ID: "hot_stone", Price: 120, DepositRequired: true}
	percentage := models.DepositPolicy{Enabled: true, Type: models.DepositTypePercentage, Percentage: 0.25}

	if got := CalculateDeposit(svc, percentage); got != 30 {
		t.Fatalf("percentage deposit = %v, want 30", got)
	}

	fixed := models.DepositPolicy{Enabled: true, Type: models.DepositTypeFixed, Amount: 20}
	if got := CalculateDeposit(svc, fixed); got != 20 {
		t.Fatalf("fixed deposit = %v, want 20", got)
	}

	disabled := models.DepositPolicy{Enabled: false, Type: models.DepositTypePercentage, Percentage: 0.25}
	if got := CalculateDeposit(svc, disabled); got != 0 {
		t.Fatalf("disabled policy deposit = %v, want 0", got)
	}

	noDeposit := models.Service{ID: "swedish", Price: 80}
	if got := CalculateDeposit(noDeposit, percentage); got != 0 {
		t.Fatalf("non-deposit service = %v, want 0", got)
	}
}

func TestCalculateDepositClampedToPrice(t *testing.T) {
	svc := models.Service{ID: "hot_stone", Price: 120, DepositRequired: true}

	oversized := models.DepositPolicy{Enabled: true, Type: models.DepositTypeFixed, Amount: 200}
	if got := CalculateDeposit(svc, oversized); got != 120 {
		t.Fatalf("oversized fixed deposit = %v, want 120", got)
	}

	overfull := models.DepositPolicy{Enabled: true, Type: models.DepositTypePercentage, Percentage: 1.5}
	if got := CalculateDeposit(svc, overfull); got != 120 {
		t.Fatalf("over-100%% deposit = %v, want 120", got)
	}

	negative := models.DepositPolicy{Enabled: true, Type: models.DepositTypeFixed, Amount: -5}
	if got := CalculateDeposit(svc, negative); got != 0 {
		t.Fatalf("negative fixed deposit = %v, want 0", got)
	}
}

func TestCalculateDepositRoundsHalfUp(t *testing.T) {
	policy := models.DepositPolicy{Enabled: true, Type: models.DepositTypePercentage, Percentage: 0.25}

	svc := models.Service{ID: "x", Price: 95.5, DepositRequired: true}
	// 95.5 * 0.25 = 23.875, rounds up to 23.88.
	if got := CalculateDeposit(svc, policy); got != 23.88 {
		t.Fatalf("deposit = %v, want 23.88", got)
	}
}
