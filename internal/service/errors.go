package service

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUserOrCampaignNotFound is returned by draw when either side of the
	// (user, campaign) pair does not exist.
	ErrUserOrCampaignNotFound = errors.New("user or campaign doesn't exist")

	// ErrCampaignNotFound is returned when a campaign has no coupon types,
	// which includes "campaign id does not exist".
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrAlreadyDrawn is returned when the user has already drawn from the
	// campaign today.
	ErrAlreadyDrawn = errors.New("user has already drawn from this campaign today")

	// ErrQuotaExhausted signals a failed conditional quota decrement. It never
	// reaches a client; the draw engine collapses it into the no-coupon outcome.
	ErrQuotaExhausted = errors.New("coupon type quota exhausted")

	// ErrCouponConflict is returned when a coupon is absent or already redeemed.
	ErrCouponConflict = errors.New("coupon not found or already redeemed")

	// ErrUserNotFound is returned when a user id does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrPhoneExists is returned when a phone number is already registered.
	ErrPhoneExists = errors.New("phone already registered")

	// ErrInvalidRequest is returned when request data is nil or incomplete.
	ErrInvalidRequest = errors.New("invalid request")
)

// ProbabilitySumError rejects campaign creation when the coupon-type
// probabilities sum past 1. It carries the offending sum so the handler can
// echo it back to the client.
type ProbabilitySumError struct {
	Sum float32
}

func (e *ProbabilitySumError) Error() string {
	return fmt.Sprintf("sum of probabilities of coupon types in campaign exceed 1: %s", e.SumString())
}

// SumString renders the sum in its shortest round-tripping float32 form.
func (e *ProbabilitySumError) SumString() string {
	return strconv.FormatFloat(float64(e.Sum), 'g', -1, 32)
}
