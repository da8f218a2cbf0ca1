package model

import "time"

// User is a registered participant. IDs are server-assigned.
type User struct {
	ID    int    `json:"id"`
	Phone string `json:"phone"`
}

// Campaign groups coupon types users can draw from once per day.
type Campaign struct {
	ID int `json:"id"`
}

// CouponType is a weighted category within a campaign. The shape fields are
// immutable after creation; only the counters mutate. Nil quota pointers mean
// "unlimited".
type CouponType struct {
	ID                int
	CampaignID        int
	Description       string
	Probability       float32
	TotalQuota        *int
	DailyQuota        *int
	CurrentQuota      *int
	CurrentDailyQuota *int
	LastDrawnDate     *time.Time
}

// Coupon is a concrete issuance of a coupon type.
type Coupon struct {
	ID                   int    `json:"id"`
	RedeemCode           string `json:"redeem_code"`
	CampaignCouponTypeID int    `json:"campaign_coupon_type_id"`
	Redeemed             bool   `json:"redeemed"`
}

// Draw records one daily attempt, with or without a coupon.
type Draw struct {
	ID               int
	UserID           int
	CampaignID       int
	CampaignCouponID *int
	Date             time.Time
}
