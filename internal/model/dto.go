package model

// CreateCampaignCouponType is one weighted entry of a campaign creation request.
type CreateCampaignCouponType struct {
	Description string   `json:"description" validate:"required,notblank,max=255"`
	Probability *float32 `json:"probability" validate:"required,gte=0,lte=1"`
	TotalQuota  *int     `json:"total_quota" validate:"omitempty,gte=0"`
	DailyQuota  *int     `json:"daily_quota" validate:"omitempty,gte=0"`
}

// CreateCampaignRequest is the DTO for POST /campaign.
type CreateCampaignRequest struct {
	CouponTypes []CreateCampaignCouponType `json:"coupon_types" validate:"required,min=1,dive"`
}

// CouponTypeView is one coupon type row of a campaign read.
type CouponTypeView struct {
	Description       string  `json:"description"`
	Probability       float32 `json:"probability"`
	TotalQuota        *int    `json:"total_quota"`
	DailyQuota        *int    `json:"daily_quota"`
	CurrentQuota      *int    `json:"current_quota"`
	CurrentDailyQuota *int    `json:"current_daily_quota"`
}

// GetCampaignResponse is the DTO for GET /campaign/:id.
type GetCampaignResponse struct {
	CouponTypes []CouponTypeView `json:"coupon_types"`
}

// DrawRequest is the DTO for POST /draw.
type DrawRequest struct {
	UserID     *int `json:"user_id" validate:"required"`
	CampaignID *int `json:"campaign_id" validate:"required"`
}

// DrawResponse carries the drawn coupon, or null for the no-coupon outcome.
type DrawResponse struct {
	MaybeCoupon *Coupon `json:"maybe_coupon"`
}

// RedeemRequest is the DTO for POST /redeem. The user id is recorded in the
// payload but redemption is not scoped to an owner.
type RedeemRequest struct {
	CouponID *int `json:"coupon_id" validate:"required"`
	UserID   *int `json:"user_id" validate:"required"`
}

// CreateUserRequest is the DTO for POST /user.
type CreateUserRequest struct {
	Phone string `json:"phone" validate:"required,notblank,max=32"`
}
