package reservation

import "cleaning-reservation-be/internal/entity"

// EffectiveLimit falls back to the default when a user row carries no limit.
func EffectiveLimit(u *entity.User) int {
	if u.MonthlyCancellationLimit <= 0 {
		return entity.DefaultMonthlyCancellationLimit
	}
	return u.MonthlyCancellationLimit
}

// CheckQuota fails with ErrQuotaExceeded once the user has used the month's allowance.
func CheckQuota(u *entity.User) error {
	if u.MonthlyCancellations >= EffectiveLimit(u) {
		return ErrQuotaExceeded
	}
	return nil
}

// RemainingCancellations never goes below zero.
func RemainingCancellations(u *entity.User) int {
	remaining := EffectiveLimit(u) - u.MonthlyCancellations
	if remaining < 0 {
		return 0
	}
	return remaining
}
